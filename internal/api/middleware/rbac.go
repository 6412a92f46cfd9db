package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// RBAC enforces role-based access control on the session set by Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, _ := c.Get(SessionKey).(*domain.Session)
			if s == nil {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			if _, ok := allowed[s.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
