package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/freelancer-bff/internal/api/http/handlers"
	"github.com/spec-kit/freelancer-bff/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Proxy          *handlers.ProxyHandler
	AuthMiddleware *auth.AuthMiddleware
	RoleGate       *auth.RoleGate
	// Resources defaults to ResourceRoutes().
	Resources []RouteGroup
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) error {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
		app.Get("/health/metrics", cfg.Health.Metrics)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)

	resources := cfg.Resources
	if resources == nil {
		resources = ResourceRoutes()
	}
	if err := ValidateRouteTable(resources); err != nil {
		return err
	}

	MountRoutes(app, resources, Gates{Authenticate: cfg.AuthMiddleware, Authorize: cfg.RoleGate}, cfg.Proxy)
	return nil
}
