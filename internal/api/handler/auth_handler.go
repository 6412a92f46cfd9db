package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/api/metrics"
	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

type AuthHandler struct {
	sessions ports.SessionService
}

func NewAuthHandler(sessions ports.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// SignIn authenticates an admin by passphrase or a submitter by display name.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Role-specific credentials"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.sessions.SignIn(c.Request().Context(), domain.Role(req.Role), ports.Credentials{
		Passphrase:  req.Passphrase,
		DisplayName: req.DisplayName,
		AccountID:   req.AccountID,
	})
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrInvalidCredentials) {
			result = "rejected"
		}
		metrics.SignInsTotal.WithLabelValues(req.Role, result).Inc()
		return err
	}
	metrics.SignInsTotal.WithLabelValues(req.Role, "ok").Inc()

	return c.JSON(http.StatusOK, signInResponse{
		Token:   res.Token,
		Session: toSessionResponse(res.Session),
	})
}

// SignOut erases the current session; its token stops working.
//
// @Summary      Sign out
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.sessions.SignOut(c.Request().Context(), s); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the session the bearer token restores to.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	s, err := h.sessions.Current(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(s))
}
