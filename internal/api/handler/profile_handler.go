package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/api/metrics"
	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

// ProfileHandler serves a submitter's own profile.
type ProfileHandler struct {
	registry ports.RegistryService
}

func NewProfileHandler(registry ports.RegistryService) *ProfileHandler {
	return &ProfileHandler{registry: registry}
}

// Get handles GET /v1/profile: the caller's stored profile, for prefill.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  profileResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	p, err := h.registry.FindByKey(c.Request().Context(), s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// Put handles PUT /v1/profile: creates or replaces the caller's profile.
// expert_confirmed is honoured only for skills already confirmed in the
// stored profile; new confirmations go through the draft flow.
//
// @Summary      Upsert own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Full profile fields"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/profile [put]
func (h *ProfileHandler) Put(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	stored, err := h.registry.FindByKey(ctx, s)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}
	fields := gateConfirmations(toProfileFields(req), stored)

	p, err := h.registry.Upsert(ctx, s, fields)
	if err != nil {
		metrics.ProfileUpsertsTotal.WithLabelValues(upsertFailure(err)).Inc()
		return err
	}
	recordUpsert(p)

	return c.JSON(http.StatusOK, toProfileResponse(p))
}

func recordUpsert(p *domain.Profile) {
	result := "updated"
	if p.CreatedAt.Equal(p.SubmittedAt) {
		result = "created"
	}
	metrics.ProfileUpsertsTotal.WithLabelValues(result).Inc()
}

func upsertFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidProfile):
		return "invalid"
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
