package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentalhub/marketplace-gate/internal/core/service"
)

// PageHandler stands in for the page layer behind the gate. It reports what
// the gate decided so the zone routing can be exercised end to end.
type PageHandler struct {
	routes *service.RouteTable
}

func NewPageHandler(routes *service.RouteTable) *PageHandler {
	return &PageHandler{routes: routes}
}

// Render handles every gated GET.
func (h *PageHandler) Render(c echo.Context) error {
	p := c.Request().URL.Path
	d := ctxDecision(c)

	resp := pageResponse{
		Path:   p,
		Class:  string(d.Class),
		Reason: d.Reason,
	}
	if z, ok := h.routes.ZoneOf(p); ok {
		resp.Zone = string(z.Role)
	}
	if d.Credential != nil {
		resp.SubjectID = d.Credential.SubjectID
		resp.Role = string(d.Credential.Role)
	}
	return c.JSON(http.StatusOK, resp)
}
