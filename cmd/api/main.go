package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/errand-service/internal/api/http"
	"github.com/spec-kit/errand-service/internal/api/http/handlers"
	"github.com/spec-kit/errand-service/internal/config"
	"github.com/spec-kit/errand-service/internal/events"
	"github.com/spec-kit/errand-service/internal/observability"
	"github.com/spec-kit/errand-service/internal/persistence"
	"github.com/spec-kit/errand-service/internal/repository"
	"github.com/spec-kit/errand-service/internal/service"
	"github.com/spec-kit/errand-service/pkg/rabbitmq"
)

// store is the selected database backend.
type store struct {
	users    repository.UserRepository
	requests repository.ServiceRequestRepository
	pinger   handlers.Pinger
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer st.close()

	var redisPinger handlers.Pinger
	if redis := persistence.NewRedis(ctx, cfg.Redis, logger); redis != nil {
		defer redis.Close()
		redisPinger = redis
	}

	dispatcher := events.NewInMemoryDispatcher()
	var publisher service.Publisher
	if cfg.RabbitMQ.URL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			logger.Warn("rabbitmq unavailable; events will only be logged", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			publisher = client
		}
	}
	service.NewNotificationService(dispatcher, publisher, logger).RegisterHandlers()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   st.users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: st.requests,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := httptransport.NewApp(httptransport.AppDependencies{
		Name:           cfg.App.Name,
		Version:        cfg.App.Version,
		RequestTimeout: cfg.App.RequestTimeout(),
		CORSOrigins:    cfg.App.CORSAllowOrigins,
		Logger:         logger,
		Metrics:        observability.NewMetrics(),
		Users:          st.users,
		AuthService:    authService,
		Requests:       requestService,
		Database:       st.pinger,
		Redis:          redisPinger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// openStore uses Postgres when POSTGRES_DSN is set and SQLite otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	if cfg.Postgres.DSN != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		return &store{
			users:    repository.NewUserRepository(pool),
			requests: repository.NewServiceRequestRepository(pool),
			pinger:   pg,
			close:    pg.Close,
		}, nil
	}

	db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
	if err != nil {
		return nil, err
	}
	if err := persistence.RunSQLiteMigrations(ctx, db.DB, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &store{
		users:    repository.NewSQLiteUserRepository(db.DB),
		requests: repository.NewSQLiteServiceRequestRepository(db.DB),
		pinger:   db,
		close:    db.Close,
	}, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
