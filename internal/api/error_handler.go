package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var pending *domain.PendingConfirmationError
	if errors.As(err, &pending) {
		return http.StatusConflict, pending.Error()
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrInvalidSession):
		return http.StatusUnauthorized, "session not found"
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden, "not authorized"
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "profile not found"
	case errors.Is(err, domain.ErrInvalidProfile):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrConfirmationPending), errors.Is(err, domain.ErrNoPendingConfirmation):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrSkillIndexOutOfRange):
		return http.StatusUnprocessableEntity, "skill index out of range"
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("store unavailable")
		return http.StatusServiceUnavailable, "profile store unavailable, try again"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
