package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/bid-award/internal/auth"
	"github.com/senyabanana/bid-award/internal/cache"
	"github.com/senyabanana/bid-award/internal/db"
	"github.com/senyabanana/bid-award/internal/handlers"
	"github.com/senyabanana/bid-award/internal/metrics"
	"github.com/senyabanana/bid-award/internal/notify"
	"github.com/senyabanana/bid-award/internal/ratelimit"
	"github.com/senyabanana/bid-award/internal/repository"
	"github.com/senyabanana/bid-award/internal/router"
	"github.com/senyabanana/bid-award/internal/router/config"
	"github.com/senyabanana/bid-award/internal/services"
	"github.com/senyabanana/bid-award/internal/utils"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "bid-award",
		Short:         "Bid award service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing app.env")

	cmd.AddCommand(serveCmd(&configPath), migrateCmd(&configPath))
	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	return cmd
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

			dbSource, err := db.DatabaseURL(cfg)
			if err != nil {
				return err
			}
			return db.RunMigrations(cfg.MigrationURL, dbSource, len(args) == 1 && args[0] == "down")
		},
	}
}

func serve(ctx context.Context, cfg config.Config, skipMigrations bool) error {
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	store, closeStore, err := openStore(ctx, cfg, skipMigrations)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		client, cleanup, err := cache.NewRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		rdb = client
	} else {
		utils.Warn("REDIS_ADDR is empty, using process-local rate limiting without token revocation", nil)
	}

	broadcaster, closeBroadcaster, err := openBroadcaster(cfg, rdb)
	if err != nil {
		return err
	}
	defer closeBroadcaster()

	dispatcher := notify.NewDispatcher(broadcaster, m,
		notify.WithQueueSize(cfg.NotifyQueueSize),
		notify.WithWorkers(cfg.NotifyWorkers),
		notify.WithRate(cfg.NotifyPublishRPS),
		notify.WithPublishTimeout(cfg.NotifyPublishTimeout),
	)

	var (
		counter  ratelimit.Counter = ratelimit.NewMemoryCounter()
		sessions auth.Storer
	)
	if rdb != nil {
		counter = ratelimit.NewRedisCounter(rdb)
		sessions = cache.NewSessionStore(rdb, cache.DefaultSessionPrefix)
	}
	limiter := ratelimit.New(counter, m)

	tokens, err := auth.NewManager(cfg.JWTSecret, sessions, auth.WithIssuer(cfg.JWTIssuer), auth.WithTTL(cfg.JWTTTL))
	if err != nil {
		return err
	}

	awardService := services.NewAwardService(store, dispatcher, m, cfg.AwardTimeout)
	authService := services.NewAuthService(store, tokens, limiter, loginPolicy(cfg))
	notificationService := services.NewNotificationService(store)

	routes := router.InitRoutes(router.Deps{
		AwardHandler:        handlers.NewAwardHandler(awardService, cfg.RequestTimeout),
		AuthHandler:         handlers.NewAuthHandler(authService, cfg.RequestTimeout, cfg.TrustXForwardedFor),
		NotificationHandler: handlers.NewNotificationHandler(notificationService, cfg.RequestTimeout),
		Tokens:              tokens,
		Limiter:             limiter,
		AwardPolicy:         awardPolicy(cfg),
		KeyFunc:             ratelimit.ClientIPKeyFunc(cfg.TrustXForwardedFor),
		Metrics:             m,
	})

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Info("server is listening", map[string]any{"address": cfg.ServerAddress, "storage": cfg.StorageDriver, "broadcast": cfg.BroadcastDriver})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		utils.Info("shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		utils.Warn("notification queue not drained", map[string]any{"error": err.Error()})
	}
	return nil
}

func loginPolicy(cfg config.Config) ratelimit.Policy {
	return ratelimit.Policy{
		Name:        "login",
		KeyPrefix:   cfg.LoginLimitPrefix,
		Window:      time.Duration(cfg.LoginLimitWindowSeconds) * time.Second,
		MaxAttempts: cfg.LoginLimitMaxAttempts,
		FailOpen:    cfg.LoginLimitFailOpen,
	}
}

func awardPolicy(cfg config.Config) ratelimit.Policy {
	return ratelimit.Policy{
		Name:        "award",
		KeyPrefix:   cfg.AwardLimitPrefix,
		Window:      time.Duration(cfg.AwardLimitWindowSeconds) * time.Second,
		MaxAttempts: cfg.AwardLimitMaxAttempts,
		FailOpen:    cfg.AwardLimitFailOpen,
	}
}

func openStore(ctx context.Context, cfg config.Config, skipMigrations bool) (repository.Store, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		utils.Warn("using in-memory storage, data is lost on restart", nil)
		return repository.NewMemoryStore(), func() {}, nil
	case "postgres", "":
		if !skipMigrations {
			dbSource, err := db.DatabaseURL(cfg)
			if err != nil {
				return nil, nil, err
			}
			if err := db.RunMigrations(cfg.MigrationURL, dbSource, false); err != nil {
				return nil, nil, err
			}
		}
		dbPool, err := db.InitDb(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing database: %w", err)
		}
		return repository.NewPostgresStore(dbPool), dbPool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openBroadcaster(cfg config.Config, rdb *redis.Client) (notify.Broadcaster, func(), error) {
	switch cfg.BroadcastDriver {
	case "redis":
		if rdb == nil {
			return nil, nil, errors.New("redis broadcast driver requires REDIS_ADDR")
		}
		return notify.NewRedisBroadcaster(rdb), func() {}, nil
	case "nats":
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("bid-award"))
		if err != nil {
			return nil, nil, fmt.Errorf("nats connect %s: %w", cfg.NatsURL, err)
		}
		return notify.NewNATSBroadcaster(nc), func() {
			if err := nc.Drain(); err != nil {
				utils.Warn("nats drain failed", map[string]any{"error": err.Error()})
			}
		}, nil
	case "log", "":
		return notify.LogBroadcaster{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown broadcast driver %q", cfg.BroadcastDriver)
	}
}
