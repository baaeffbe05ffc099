package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/adapters/jwtauth"
	"github.com/coregx/livechat/adapters/redis"
	"github.com/coregx/livechat/adapters/relica"
	"github.com/coregx/livechat/cmd/livechat-server/internal/api"
	"github.com/coregx/livechat/cmd/livechat-server/internal/config"
	"github.com/coregx/livechat/cmd/livechat-server/internal/telemetry"
	"github.com/coregx/livechat/realtime"
	"github.com/coregx/livechat/retry"
	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg.Log)

	logger.Infof("Starting livechat server v%s", version)
	logger.Infof("Server: %s (origins %v)", cfg.Server.Addr(), cfg.Server.AllowedOrigins)
	logger.Infof("Database: %s (%s:%d)", cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warnf("Failed to flush telemetry: %v", err)
		}
	}()

	strategy := retry.DefaultStrategy()
	logger.Debugf("Startup retry schedule: %s", strategy.GetRetrySchedule())

	if cfg.Database.AutoMigrate {
		if err := relica.Migrate(cfg.Database.Driver, cfg.Database.GetDSN()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Chat schema is up to date")
	}

	db, err := telemetry.OpenDB(cfg.Database.Driver, cfg.Database.GetDSN())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warnf("Failed to close database: %v", closeErr)
		}
	}()

	if err := retry.Do(ctx, strategy, func(ctx context.Context) error {
		return db.PingContext(ctx)
	}); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Database connection established")

	server, err := buildServer(ctx, cfg, db, logger, strategy)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", cfg.Server.Addr())
		logger.Infof("WebSocket endpoint: %s", livechat.Endpoint)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// buildServer assembles repositories, services, and both transports.
func buildServer(ctx context.Context, cfg *config.Config, db *sql.DB, logger *livechat.SlogLogger, strategy retry.Strategy) (*http.Server, error) {
	repos := relica.NewRepositoriesWithPrefix(db, cfg.Database.Driver, cfg.Database.Prefix)

	registry, err := livechat.NewParticipantRegistry(
		livechat.WithRegistryRepository(repos.Participant),
		livechat.WithRegistryLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	metrics, err := livechat.NewMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	wsLogger := logger.With("component", "realtime")
	broker := realtime.NewBroker(wsLogger)
	var broadcaster livechat.Broadcaster = broker
	if cfg.Chat.LogEvents {
		broadcaster = livechat.NewLoggingBroadcaster(broker, logger)
	}

	services, err := livechat.NewServices(
		livechat.WithRoomRepository(repos.Room),
		livechat.WithMessageRepository(repos.Message),
		livechat.WithMessageReadRepository(repos.MessageRead),
		livechat.WithUserRepository(repos.User),
		livechat.WithProductRepository(repos.Product),
		livechat.WithRoomStore(repos.Store),
		livechat.WithParticipantDirectory(registry),
		livechat.WithBroadcaster(broadcaster),
		livechat.WithLogger(logger),
		livechat.WithMetrics(metrics),
		livechat.WithMaxPageSize(cfg.Chat.MaxPageSize),
	)
	if err != nil {
		return nil, err
	}
	logger.Info("Chat services created")

	validator, err := jwtauth.NewValidator(cfg.Auth.JWTSecret,
		jwtauth.WithIssuer(cfg.Auth.Issuer),
		jwtauth.WithLeeway(cfg.Auth.Leeway),
	)
	if err != nil {
		return nil, err
	}

	gatekeeperOpts := []livechat.GatekeeperOption{
		livechat.WithCredentialValidator(validator),
		livechat.WithGatekeeperMembership(registry),
		livechat.WithGatekeeperLogger(logger),
	}
	if cfg.Redis.URL != "" {
		var blacklist *redis.Blacklist
		err := retry.Do(ctx, strategy, func(ctx context.Context) error {
			client, err := redis.Connect(ctx, cfg.Redis.URL)
			if err != nil {
				if livechat.HasCode(err, livechat.ErrCodeConfiguration) {
					return retry.Permanent(err)
				}
				return err
			}
			blacklist = redis.NewBlacklist(client)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		gatekeeperOpts = append(gatekeeperOpts, livechat.WithTokenBlacklist(blacklist))
		logger.Info("Token blacklist enabled")
	}

	gatekeeper, err := livechat.NewGatekeeper(gatekeeperOpts...)
	if err != nil {
		return nil, err
	}

	ws, err := realtime.NewServer(
		realtime.WithGatekeeper(gatekeeper),
		realtime.WithDispatcher(services.Dispatcher),
		realtime.WithReadTracker(services.Tracker),
		realtime.WithBroker(broker),
		realtime.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		realtime.WithSendBuffer(cfg.Chat.SendBuffer),
		realtime.WithServerLogger(wsLogger),
		realtime.WithServerMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	router := api.NewRouter(api.RouterConfig{
		Handler:        api.NewHandler(services, logger.With("component", "api")),
		Auth:           gatekeeper,
		WebSocket:      ws,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

func parsePositiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", raw)
	}
	return d, nil
}
