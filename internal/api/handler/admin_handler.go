package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/api/metrics"
	"github.com/marzelet/intern-registry/internal/core/ports"
	"github.com/marzelet/intern-registry/internal/core/service"
)

// AdminHandler serves the dashboard: listing, statistics and export.
type AdminHandler struct {
	registry  ports.RegistryService
	dashboard ports.DashboardService
	exporter  ports.ExportService
}

func NewAdminHandler(registry ports.RegistryService, dashboard ports.DashboardService, exporter ports.ExportService) *AdminHandler {
	return &AdminHandler{registry: registry, dashboard: dashboard, exporter: exporter}
}

// Profiles handles GET /v1/admin/profiles.
//
// @Summary      List all profiles
// @Description  Most recently submitted first.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  profileListResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/admin/profiles [get]
func (h *AdminHandler) Profiles(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	profiles, err := h.registry.ListAll(c.Request().Context(), s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileListResponse(profiles))
}

// Stats handles GET /v1/admin/stats.
//
// @Summary      Dashboard statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  statsResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	stats, err := h.dashboard.Stats(c.Request().Context(), s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(stats))
}

// Export handles GET /v1/admin/export: every profile as a JSON download.
//
// @Summary      Export all profiles
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200   {array}   profileResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/admin/export [get]
func (h *AdminHandler) Export(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := h.exporter.Export(c.Request().Context(), s, &buf); err != nil {
		return err
	}
	metrics.ExportsTotal.WithLabelValues("http").Inc()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", service.ExportFileName))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, buf.Bytes())
}
