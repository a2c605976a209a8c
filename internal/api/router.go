package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/otel/trace"

	_ "github.com/rentalhub/marketplace-gate/docs"
	"github.com/rentalhub/marketplace-gate/internal/api/handler"
	"github.com/rentalhub/marketplace-gate/internal/api/middleware"
	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/ports"
	"github.com/rentalhub/marketplace-gate/internal/core/service"
	"github.com/rentalhub/marketplace-gate/internal/infrastructure/http/handlers"
	"github.com/rentalhub/marketplace-gate/internal/infrastructure/session"
)

// ProfileProvider fetches and invalidates profiles.
type ProfileProvider interface {
	ports.ProfileFetcher
	ports.ProfileInvalidator
}

// Dependencies is everything NewRouter wires into routes.
type Dependencies struct {
	Gate         *service.Gate
	Decoder      ports.CredentialDecoder
	Profiles     ProfileProvider
	AccessEvents ports.AccessEventRepository
	HealthChecks map[string]handlers.Check

	JWTSecret    string
	Cookie       session.CookieOptions
	Exclusions   middleware.Exclusions
	SessionWait  time.Duration
	FetchTimeout time.Duration

	// Registry receives HTTP metrics and backs /metrics. Nil uses the
	// Prometheus default registry.
	Registry *prometheus.Registry
	Tracer   trace.Tracer
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))
	e.Use(middleware.EdgeGate(middleware.GateConfig{
		Gate:    deps.Gate,
		Cookie:  deps.Cookie,
		Skipper: deps.Exclusions.Skipper(),
		Tracer:  deps.Tracer,
	}))

	// --- Health probes, metrics and docs (outside the gate) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	sessionHandler := handler.NewSessionHandler(handler.SessionHandlerConfig{
		Decoder:      deps.Decoder,
		Fetcher:      deps.Profiles,
		Invalidator:  deps.Profiles,
		Cookie:       deps.Cookie,
		LoginPath:    deps.Gate.Routes().LoginPath(),
		Wait:         deps.SessionWait,
		FetchTimeout: deps.FetchTimeout,
	}, deps.Log)
	profileHandler := handler.NewProfileHandler(deps.Profiles)
	accessEventHandler := handler.NewAccessEventHandler(deps.AccessEvents)
	authMiddleware := middleware.Auth(deps.JWTSecret, deps.Cookie.Name)

	apiGroup := e.Group("/api")
	apiGroup.GET("/session", sessionHandler.Get)
	apiGroup.POST("/logout", sessionHandler.Logout)
	apiGroup.GET("/users/me", profileHandler.Me, authMiddleware)
	apiGroup.GET("/admin/access-events", accessEventHandler.List, authMiddleware, middleware.RBAC(domain.RoleAdmin))

	// --- Gated pages ---
	pageHandler := handler.NewPageHandler(deps.Gate.Routes())
	e.GET("/", pageHandler.Render)
	e.GET("/*", pageHandler.Render)

	return e
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "http",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
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
