package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/marzelet/intern-registry/docs"
	"github.com/marzelet/intern-registry/internal/api/handler"
	"github.com/marzelet/intern-registry/internal/api/middleware"
	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

// Dependencies are the services and probes the router wires into handlers.
type Dependencies struct {
	Sessions  ports.SessionService
	Registry  ports.RegistryService
	Drafts    ports.DraftService
	Dashboard ports.DashboardService
	Exporter  ports.ExportService

	// Probes are pinged by /health/ready, keyed by dependency name.
	Probes map[string]handler.Pinger

	// RequestTimeout bounds every request; zero disables the limit.
	RequestTimeout time.Duration

	// MetricsRegisterer and MetricsGatherer default to the global registry.
	MetricsRegisterer prometheus.Registerer
	MetricsGatherer   prometheus.Gatherer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := deps.MetricsRegisterer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "registry",
		Registerer: registerer,
	}))
	if deps.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(deps.RequestTimeout))
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions)
	profileHandler := handler.NewProfileHandler(deps.Registry)
	draftHandler := handler.NewDraftHandler(deps.Drafts)
	adminHandler := handler.NewAdminHandler(deps.Registry, deps.Dashboard, deps.Exporter)
	authMiddleware := middleware.Auth(deps.Sessions)

	v1 := e.Group("/v1")

	// --- Auth routes ---
	v1.POST("/auth/sign-in", authHandler.SignIn)
	v1.POST("/auth/sign-out", authHandler.SignOut, authMiddleware)
	v1.GET("/auth/session", authHandler.Session, authMiddleware)

	// --- Submitter routes ---
	profile := v1.Group("/profile", authMiddleware, middleware.RBAC(domain.RoleSubmitter))
	profile.GET("", profileHandler.Get)
	profile.PUT("", profileHandler.Put)
	profile.GET("/draft", draftHandler.Get)
	profile.PATCH("/draft", draftHandler.UpdateDetails)
	profile.POST("/draft/skills", draftHandler.AddSkill)
	profile.PATCH("/draft/skills/:index", draftHandler.EditSkill)
	profile.DELETE("/draft/skills/:index", draftHandler.RemoveSkill)
	profile.POST("/draft/confirmation", draftHandler.AnswerConfirmation)
	profile.DELETE("/draft/confirmation", draftHandler.DismissConfirmation)
	profile.POST("/draft/submit", draftHandler.Submit)

	// --- Admin routes ---
	admin := v1.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/profiles", adminHandler.Profiles)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/export", adminHandler.Export)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Probes)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
