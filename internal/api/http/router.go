package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/errand-service/internal/api/http/handlers"
	"github.com/spec-kit/errand-service/internal/auth"
)

// APIPrefix is the mount point of every route.
const APIPrefix = "/api/v1"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Accounts         *handlers.AccountsHandler
	CustomerRequests *handlers.CustomerRequestsHandler
	AuthMiddleware   *auth.AuthMiddleware
	Guard            *auth.Guard
}

// RegisterRoutes wires HTTP routes. Routing is not strict, so each path
// also matches with a trailing slash.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group(APIPrefix)

	api.Get("/health", cfg.Health.Health)
	api.Get("/health/live", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	accounts := api.Group("/accounts")
	accounts.Post("/login", cfg.Accounts.Login)
	accounts.Post("/register", cfg.Accounts.Register)

	// unknown paths under /customers fall through to 404
	owner := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireOwner(cfg.Guard, "customer_id")}
	api.Post("/customers/:customer_id/customer-requests", append(owner, cfg.CustomerRequests.Create)...)
	api.Get("/customers/:customer_id/customer-requests", append(owner, cfg.CustomerRequests.List)...)
}
