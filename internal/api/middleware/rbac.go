package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// RBAC lets through callers whose verified role, as set by Auth, is one of
// allowedRoles. Everyone else gets domain.ErrForbidden, which the error
// handler renders as 403.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return fmt.Errorf("role %q on %s: %w", role, c.Path(), domain.ErrForbidden)
			}
			return next(c)
		}
	}
}
