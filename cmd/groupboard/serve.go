package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leetgroups/groupboard/config"
	"github.com/leetgroups/groupboard/internal/application/command"
	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/application/query"
	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/identity"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/internal/infrastructure/external/leetcode"
	"github.com/leetgroups/groupboard/internal/infrastructure/external/moderation"
	"github.com/leetgroups/groupboard/internal/infrastructure/observability"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/badger"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/documents"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/postgres"
	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/redis"
	"github.com/leetgroups/groupboard/internal/infrastructure/service"
	httpserver "github.com/leetgroups/groupboard/internal/interface/http"
	"github.com/leetgroups/groupboard/internal/interface/http/handlers"
	"github.com/leetgroups/groupboard/pkg/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if version != "dev" {
		cfg.App.Version = version
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.Setup(cfg.Observability.LogLevel, cfg.Observability.LogFormat,
		slog.String("service", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)
	log.Info("starting groupboard",
		"env", string(cfg.App.Environment),
		"store", cfg.Store.Driver,
		"redis", cfg.Redis.Enabled,
		"moderation", cfg.Moderation.Enabled,
	)

	metrics := observability.NewMetrics()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DOCUMENT STORE
	// ─────────────────────────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing document store...")
		_ = store.Close()
	}()

	accounts := documents.NewAccountRepository(store)
	groups := documents.NewGroupRepository(store)
	users := documents.NewUserRepository(store)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("store", handlers.NewPingCheck(store))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. STATISTICS PROVIDER (+ optional Redis cache)
	// ─────────────────────────────────────────────────────────────────────────
	lcConfig := leetcode.DefaultClientConfig(cfg.LeetCode.URL)
	lcConfig.Timeout = cfg.LeetCode.Timeout
	lcConfig.RateLimit = cfg.LeetCode.RateLimit
	lcConfig.Burst = cfg.LeetCode.Burst
	lcConfig.MaxRetries = cfg.LeetCode.MaxRetries
	lcConfig.BreakerThreshold = cfg.LeetCode.BreakerThreshold
	lcConfig.BreakerTimeout = cfg.LeetCode.BreakerTimeout
	lcConfig.OnBreakerStateChange = metrics.BreakerStateChanged
	lcConfig.Logger = log
	lcConfig.Debug = cfg.App.Debug
	lcClient := leetcode.NewClient(lcConfig)
	health.AddCheck("leetcode", handlers.NewCircuitCheck(lcClient))

	var profileCache service.ProfileCache
	if cfg.Redis.Enabled {
		redisConfig := redis.DefaultConfig()
		redisConfig.Addr = cfg.Redis.Addr
		redisConfig.Password = cfg.Redis.Password
		redisConfig.DB = cfg.Redis.DB
		redisConfig.PoolSize = cfg.Redis.PoolSize
		redisConfig.DialTimeout = cfg.Redis.DialTimeout
		redisConfig.ReadTimeout = cfg.Redis.ReadTimeout
		redisConfig.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisConfig)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			profileCache = redis.NewStatsCache(cache, cfg.Redis.StatsTTL)
			health.AddCheck("redis", handlers.NewPingCheck(cache))
			log.Info("Redis connection established", "addr", cfg.Redis.Addr)
		}
	}
	stats := service.NewStatsAdapter(lcClient, profileCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. CONTENT MODERATION
	// ─────────────────────────────────────────────────────────────────────────
	var moderator command.ContentModerator = moderation.Noop{}
	if cfg.Moderation.Enabled {
		client, err := moderation.New(moderation.Config{
			APIKey:               cfg.Moderation.APIKey,
			BaseURL:              cfg.Moderation.BaseURL,
			Model:                cfg.Moderation.Model,
			OnBreakerStateChange: metrics.BreakerStateChanged,
			Logger:               log,
		})
		if err != nil {
			return fmt.Errorf("failed to create moderation client: %w", err)
		}
		moderator = client
	} else {
		log.Warn("content moderation disabled; every group name is accepted")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ENGINE (resolver, ledger, aggregator)
	// ─────────────────────────────────────────────────────────────────────────
	resolver := identity.NewResolver(accounts, cfg.Policy.AnonymousMarker)
	l := ledger.New(groups, users, ledger.Config{Logger: log, Observer: metrics})
	aggregator := leaderboard.NewAggregator(stats, leaderboard.AggregatorConfig{
		MaxConcurrency: cfg.LeetCode.MaxConcurrentLookups,
		Logger:         log,
		Observer:       metrics,
	})
	policy := group.DefaultJoinPolicy()
	policy.RequireAnonymousProof = cfg.Policy.RequireAnonymousProof

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	httpConfig.RateLimit = float64(cfg.HTTP.RateLimitPerMinute) / 60
	httpConfig.RateBurst = cfg.HTTP.RateLimitBurst
	httpConfig.Version = cfg.App.Version

	httpServer := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		RegisterAccount:  command.NewRegisterAccountHandler(accounts, stats, cfg.Policy.AnonymousMarker, log),
		CreateGroup:      command.NewCreateGroupHandler(accounts, l, moderator, log),
		JoinGroup:        command.NewJoinGroupHandler(accounts, groups, stats, resolver, l, policy),
		LeaveGroup:       command.NewLeaveGroupHandler(groups, users, resolver, l),
		DeleteGroup:      command.NewDeleteGroupHandler(accounts, groups, l),
		UpdateGroup:      command.NewUpdateGroupHandler(groups),
		FetchLeaderboard: query.NewFetchLeaderboardHandler(groups, resolver, aggregator, log),
		AccountStatus:    query.NewAccountStatusHandler(accounts),
		Profile:          query.NewProfileHandler(accounts, users, groups, stats),
		Metrics:          metrics,
		HealthChecker:    health,
		Logger:           log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 8. RUN UNTIL SIGNALLED
	// ─────────────────────────────────────────────────────────────────────────
	errCh := httpServer.StartAsync()
	log.Info("groupboard is running", "address", httpConfig.Address())

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error("http server error", logger.Err(err))
			return err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}
	log.Info("shutdown completed successfully")
	return nil
}

// openStore opens the configured document store. Postgres is migrated on
// start so a fresh database is usable immediately.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (documents.Store, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		conn, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("postgres document store ready")
		return postgres.NewStore(conn), nil

	default:
		badgerConfig := badger.DefaultConfig(cfg.Store.BadgerPath)
		if cfg.Store.BadgerInMemory {
			badgerConfig = badger.InMemoryConfig()
		}
		badgerConfig.Logger = log
		store, err := badger.Open(badgerConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		log.Info("badger document store ready", "path", cfg.Store.BadgerPath, "in_memory", cfg.Store.BadgerInMemory)
		return store, nil
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	pgConfig := postgres.DefaultConfig(cfg.Store.DatabaseURL)
	pgConfig.MaxConns = int32(cfg.Store.MaxConns)
	pgConfig.MinConns = int32(cfg.Store.MinConns)
	pgConfig.MaxConnLifetime = cfg.Store.ConnMaxLifetime
	pgConfig.MaxConnIdleTime = cfg.Store.ConnMaxIdleTime

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, err := postgres.NewConnection(connectCtx, pgConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}
