package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/spottheball/internal/access"
	"github.com/playperu/spottheball/internal/authz"
	"github.com/playperu/spottheball/internal/config"
	"github.com/playperu/spottheball/internal/database"
	"github.com/playperu/spottheball/internal/handler/health"
	"github.com/playperu/spottheball/internal/lifecycle"
	"github.com/playperu/spottheball/internal/metrics"
	"github.com/playperu/spottheball/internal/migrations"
	"github.com/playperu/spottheball/internal/server"
	"github.com/playperu/spottheball/internal/store"
	"github.com/playperu/spottheball/internal/token"
	"github.com/playperu/spottheball/internal/winner"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	repo := store.NewSQLStore(db)
	checks := map[string]health.Checker{"sqlite": dbChecker{db}}

	// --- Result cache ---
	var cache winner.Cache = winner.NewMemoryCache()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		cache = winner.NewRedisCache(rdb, cfg.ResultCacheTTL)
		checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis")
	}

	// --- Services ---
	tokens, err := token.NewService(token.Config{
		Secret:         cfg.TokenSecret,
		AdminTTL:       cfg.AdminTokenTTL,
		CompetitionTTL: cfg.CompetitionTokenTTL,
		ParticipantTTL: cfg.ParticipantTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	acc := access.New(repo, tokens, logger)
	if err := acc.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	m := metrics.New()
	broker := server.NewBroker()

	competitions := lifecycle.New(lifecycle.Config{
		Repo:                     repo,
		Cache:                    cache,
		Publisher:                broker,
		Metrics:                  m,
		Logger:                   logger,
		MaxTicketsPerParticipant: cfg.MaxTicketsPerParticipant,
	})
	winners := winner.New(winner.Config{
		Repo:      repo,
		Cache:     cache,
		Publisher: broker,
		Metrics:   m,
		Logger:    logger,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:    logger,
		Lifecycle: competitions,
		Winners:   winners,
		Access:    acc,
		Gateway:   authz.New(tokens),
		Broker:    broker,
		Metrics:   m,
		Checks:    checks,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
