package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentalhub/marketplace-gate/internal/api/middleware"
	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// fails fast when the middleware did not run.
func ctxClaims(c echo.Context) (subjectID string, role domain.Role, err error) {
	subjectID, _ = c.Get(middleware.ContextSubjectID).(string)
	r, _ := c.Get(middleware.ContextRole).(string)
	if subjectID == "" || r == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return subjectID, domain.Role(r), nil
}

// ctxDecision returns the gate decision for the request. Requests the gate
// skipped carry none and are reported as unclassified.
func ctxDecision(c echo.Context) domain.Decision {
	if d, ok := c.Get(middleware.ContextDecision).(domain.Decision); ok {
		return d
	}
	return domain.Allow(domain.RouteUnclassified, domain.ReasonUnclassified, nil)
}
