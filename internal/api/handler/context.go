package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/api/middleware"
	"github.com/marzelet/intern-registry/internal/core/domain"
)

// ctxSession returns the session the Auth middleware attached to the
// request. A missing session means the route was mounted without Auth.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s, ok := c.Get(middleware.SessionKey).(*domain.Session)
	if !ok || s == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return s, nil
}
