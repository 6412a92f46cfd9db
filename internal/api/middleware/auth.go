package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// SessionKey is the echo.Context key the restored session is stored under.
const SessionKey = "session"

// SessionRestorer turns a bearer token back into a live session.
type SessionRestorer interface {
	Restore(ctx context.Context, token string) (*domain.Session, error)
}

// Auth restores the session named by the bearer token and attaches it to
// both the echo context and the request context.
func Auth(sessions SessionRestorer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			req := c.Request()
			s, err := sessions.Restore(req.Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(SessionKey, s)
			c.SetRequest(req.WithContext(domain.WithSession(req.Context(), s)))

			return next(c)
		}
	}
}
