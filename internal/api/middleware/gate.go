package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/service"
	"github.com/rentalhub/marketplace-gate/internal/infrastructure/session"
)

// Exclusions lists requests the gate never sees.
type Exclusions struct {
	// Prefixes are matched segment-wise against the request path.
	Prefixes []string

	// Extensions are file suffixes such as ".css" or ".png".
	Extensions []string
}

// Skipper returns an echo skipper for the exclusion set.
func (x Exclusions) Skipper() echomiddleware.Skipper {
	exts := make(map[string]struct{}, len(x.Extensions))
	for _, e := range x.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	prefixes := make([]string, 0, len(x.Prefixes))
	for _, p := range x.Prefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}

	return func(c echo.Context) bool {
		p := c.Request().URL.Path
		for _, prefix := range prefixes {
			if domain.HasPathPrefix(p, prefix) {
				return true
			}
		}
		_, ok := exts[strings.ToLower(path.Ext(p))]
		return ok
	}
}

// GateConfig configures EdgeGate.
type GateConfig struct {
	Gate    *service.Gate
	Cookie  session.CookieOptions
	Skipper echomiddleware.Skipper
	Tracer  trace.Tracer
}

// EdgeGate evaluates every non-excluded request before it reaches a handler.
// Redirect decisions answer 307 with the decision's target; allowed requests
// carry the decision in the echo context.
func EdgeGate(cfg GateConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			ctx, span := cfg.Tracer.Start(req.Context(), "gate.Evaluate",
				trace.WithAttributes(attribute.String("url.path", req.URL.Path)),
			)
			store := session.NewCookieStore(req, c.Response(), cfg.Cookie)
			d := cfg.Gate.Evaluate(req.URL.Path, store)

			span.SetAttributes(
				attribute.String("gate.outcome", string(d.Outcome)),
				attribute.String("gate.class", string(d.Class)),
				attribute.String("gate.reason", d.Reason),
			)
			if d.Credential != nil {
				span.SetAttributes(attribute.String("enduser.role", string(d.Credential.Role)))
			}
			if store.Cleared() {
				span.SetStatus(codes.Error, "invalid session credential")
			}
			span.End()

			if !d.Allowed() {
				return c.Redirect(http.StatusTemporaryRedirect, d.Target)
			}

			c.SetRequest(req.WithContext(ctx))
			c.Set(ContextDecision, d)
			if d.Credential != nil {
				c.Set(ContextSubjectID, d.Credential.SubjectID)
				c.Set(ContextRole, string(d.Credential.Role))
			}
			return next(c)
		}
	}
}
