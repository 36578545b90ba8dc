package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/errand-service/internal/api/http/handlers"
	"github.com/spec-kit/errand-service/internal/auth"
	"github.com/spec-kit/errand-service/internal/observability"
	"github.com/spec-kit/errand-service/internal/repository"
	"github.com/spec-kit/errand-service/internal/service"
)

// AppDependencies carries everything NewApp wires together.
type AppDependencies struct {
	Name           string
	Version        string
	RequestTimeout time.Duration
	CORSOrigins    string

	Logger  *zap.Logger
	Metrics *observability.Metrics

	Users       repository.UserRepository
	AuthService *service.AuthService
	Requests    *service.RequestService

	Database handlers.Pinger
	Redis    handlers.Pinger
}

// NewApp builds the fiber application with middlewares and routes.
func NewApp(deps AppDependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      deps.Name,
		ErrorHandler: ErrorHandler(logger, deps.Metrics),
	})
	RegisterMiddlewares(app, logger, deps.Metrics, deps.RequestTimeout, deps.CORSOrigins)

	guard := auth.NewGuard(deps.AuthService.TokenManager(), deps.Users)
	validator := handlers.NewRequestValidator()

	RegisterRoutes(app, RouteConfig{
		Health:           handlers.NewHealthHandler(deps.Name, deps.Version, deps.Database, deps.Redis),
		Accounts:         handlers.NewAccountsHandler(deps.AuthService, validator),
		CustomerRequests: handlers.NewCustomerRequestsHandler(deps.Requests, validator),
		AuthMiddleware:   auth.NewAuthMiddleware(guard),
		Guard:            guard,
	})
	return app
}
