package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gorsvet/lighting-console/internal/api/handler"
	"github.com/gorsvet/lighting-console/internal/api/middleware"
	"github.com/gorsvet/lighting-console/internal/core/domain"
	"github.com/gorsvet/lighting-console/internal/core/ports"
)

// Dependencies carries everything the router mounts. Identity, Users, Audit,
// Mongo and Redis are optional; nil disables the corresponding routes or
// checks.
type Dependencies struct {
	Session   ports.SessionService
	Identity  ports.SessionAPI
	Users     ports.UserRepository
	Audit     ports.AuditRecorder
	AuditSink ports.AuditSink
	Mongo     *mongo.Database
	Redis     *redis.Client
	StaticDir string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("lighting"))

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Built-in identity provider ---
	if deps.Identity != nil {
		authHandler := handler.NewAuthHandler(deps.Identity)
		e.POST("/auth/register", authHandler.Register)
		e.POST("/auth/login", authHandler.Login)
		e.GET("/auth/me", authHandler.Me)
	}

	// --- Session surface for the SPA ---
	sessionHandler := handler.NewSessionHandler(deps.Session)
	apiGroup := e.Group("/api", middleware.Session(deps.Session))

	apiGroup.GET("/session", sessionHandler.State)
	apiGroup.POST("/session/login", sessionHandler.Login)
	apiGroup.POST("/session/register", sessionHandler.Register)
	apiGroup.POST("/session/logout", sessionHandler.Logout)
	apiGroup.POST("/session/refresh", sessionHandler.Refresh)
	apiGroup.GET("/navigation", sessionHandler.Navigation)

	// --- User administration (SUPER_ADMIN only) ---
	if deps.Users != nil {
		adminHandler := handler.NewAdminHandler(deps.Users, deps.AuditSink)
		adminGroup := apiGroup.Group("/admin", middleware.RequireRoles(middleware.GuardOptions{
			Roles: []string{domain.RoleSuperAdmin},
		}))
		adminGroup.GET("/users", adminHandler.ListUsers)
		adminGroup.PUT("/users/:id/roles", adminHandler.UpdateRoles)
	}

	// --- Audit trail (admins; viewers preview their own entries) ---
	if deps.Audit != nil {
		auditHandler := handler.NewAuditHandler(deps.Audit)
		apiGroup.GET("/audit", auditHandler.List, middleware.RequireRoles(middleware.GuardOptions{
			Roles:        []string{domain.RoleSuperAdmin, domain.RoleAdmin},
			AllowPreview: true,
		}))
	}

	// --- Guarded SPA mount ---
	if deps.StaticDir != "" {
		appGroup := e.Group("/app", middleware.Session(deps.Session), middleware.Authenticated(middleware.DefaultLoginPath))
		appGroup.Static("/", deps.StaticDir)
	}

	return e
}
