package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scholarwatch-api/internal/config"
	"github.com/noah-isme/scholarwatch-api/internal/handler"
	"github.com/noah-isme/scholarwatch-api/internal/middleware"
	"github.com/noah-isme/scholarwatch-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	PerformanceAlertHandler  *handler.PerformanceAlertHandler
	PerformanceRuleHandler   *handler.PerformanceRuleHandler
	PerformanceRecordHandler *handler.PerformanceRecordHandler
	HealthProbes             map[string]handler.HealthProbe
	JWTMiddleware            fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	foundation := app.Group("/api/v2/foundations/:foundationID",
		jwtMiddleware,
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff, middleware.RolePlatform),
		middleware.FoundationScope("foundationID"),
	)

	if deps.PerformanceAlertHandler != nil {
		deps.PerformanceAlertHandler.Register(foundation.Group("/alerts"))
	}

	if deps.PerformanceRuleHandler != nil {
		deps.PerformanceRuleHandler.Register(foundation.Group("/rules"))
	}

	if deps.PerformanceRecordHandler != nil {
		deps.PerformanceRecordHandler.Register(foundation.Group("/records"))
	}
}
