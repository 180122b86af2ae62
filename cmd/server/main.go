package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/api"
	"github.com/lalith-99/questboard/internal/config"
	"github.com/lalith-99/questboard/internal/db"
	"github.com/lalith-99/questboard/internal/observ"
	"github.com/lalith-99/questboard/internal/realtime"
	"github.com/lalith-99/questboard/internal/repository/memory"
	"github.com/lalith-99/questboard/internal/repository/postgres"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Stops on SIGINT/SIGTERM. Startup work uses it too, so Ctrl-C while
	// waiting on Postgres exits cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Storage and bus
	// ---------------------------------------------------------------
	deps := service.Deps{Logger: logger}
	health := map[string]api.HealthCheck{}

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		stores := memory.New()
		deps.Users = stores.Users
		deps.Jobs = stores.Jobs
		deps.Applications = stores.Applications
		deps.Conversations = stores.Conversations
		deps.Messages = stores.Messages
		deps.Completions = stores.Completions
		deps.Bus = realtime.NewMemoryBus()
		logger.Warn("using in-memory storage, data is lost on restart")

	default:
		database, err := db.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if cfg.AutoMigrate {
			if err := database.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}

		bus, err := realtime.NewRedisBus(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer bus.Close()

		// Every store shares the pool; it is goroutine-safe.
		pool := database.Pool()
		deps.Users = postgres.NewUserStore(pool)
		deps.Jobs = postgres.NewJobStore(pool)
		deps.Applications = postgres.NewApplicationStore(pool)
		deps.Conversations = postgres.NewConversationStore(pool)
		deps.Messages = postgres.NewMessageStore(pool)
		deps.Completions = postgres.NewCompletionStore(pool)
		deps.Bus = bus

		health["postgres"] = database.Health
		health["redis"] = bus.Health
	}

	deps.Payments, err = service.NewPaymentPolicy(cfg.AutoConfirmPaymentMethods)
	if err != nil {
		return fmt.Errorf("payment policy: %w", err)
	}

	// ---------------------------------------------------------------
	// 4. Services and HTTP
	// ---------------------------------------------------------------
	services := service.New(deps)
	router := api.NewRouter(api.RouterConfig{
		Users:     deps.Users,
		Services:  services,
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Health:    health,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts derive from ctx, so open streams see the signal.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting questboard",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// ---------------------------------------------------------------
	// 5. Graceful shutdown
	//
	// Shutdown does not wait for hijacked (WebSocket) connections; those
	// were already told to close through BaseContext.
	// ---------------------------------------------------------------
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
