package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/campuscare/counseling-api/docs"
	"github.com/campuscare/counseling-api/internal/api/handler"
	"github.com/campuscare/counseling-api/internal/api/middleware"
	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
	"github.com/campuscare/counseling-api/internal/infrastructure/http/handlers"
)

// Dependencies holds everything the router wires into handlers.
type Dependencies struct {
	Gate          ports.Gate
	Auth          ports.AuthService
	Users         ports.UserService
	Consultations ports.ConsultationService
	Readiness     *handlers.ReadinessHandler
	Logger        zerolog.Logger
	CORSOrigins   []string
	// Registry receives the HTTP metrics. Nil uses the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness.Readiness)
	}
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated API ---
	users := handler.NewUserHandler(deps.Users)
	consultations := handler.NewConsultationHandler(deps.Consultations)

	v1 := e.Group("/v1", middleware.Authenticate(deps.Gate))
	anyRole := middleware.RequireRole(deps.Gate)
	counselorOrAdmin := middleware.RequireRole(deps.Gate, domain.RoleCounselor, domain.RoleAdmin)

	v1.GET("/me", users.Me, anyRole)
	v1.GET("/counselors", users.Counselors, anyRole)

	v1.POST("/consultations", consultations.Book, middleware.RequireRole(deps.Gate, domain.RoleStudent))
	v1.GET("/consultations", consultations.List, anyRole)
	v1.GET("/consultations/:id", consultations.Get, anyRole)
	v1.POST("/consultations/:id/notify", consultations.Notify, middleware.RequireRole(deps.Gate, domain.RoleStudent, domain.RoleAdmin))
	v1.POST("/consultations/:id/accept", consultations.Accept, counselorOrAdmin)
	v1.POST("/consultations/:id/reject", consultations.Reject, counselorOrAdmin)
	v1.GET("/consultations/:id/room", consultations.GetRoom, anyRole)
	v1.DELETE("/consultations/:id/room", consultations.DeleteRoom, counselorOrAdmin)

	// --- Admin ---
	admin := v1.Group("/admin", middleware.RequireRole(deps.Gate, domain.RoleAdmin))
	admin.GET("/users", users.List)
	admin.POST("/users", users.Create)
	admin.GET("/users/:id", users.Get)
	admin.PUT("/users/:id", users.Update)
	admin.DELETE("/users/:id", users.Delete)
	admin.GET("/consultations", consultations.List)
	admin.DELETE("/consultations/:id", consultations.AdminDelete)

	return e
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "counseling",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
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

// requestLogger emits one structured access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= 500 {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
