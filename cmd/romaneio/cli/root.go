// Package cli holds the romaneio command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/romaneio-erp/romaneio/internal/app"
	"github.com/romaneio-erp/romaneio/internal/observability"
	"github.com/romaneio-erp/romaneio/internal/platform/cache"
	"github.com/romaneio-erp/romaneio/internal/platform/db"
)

var version = "dev"

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "romaneio",
		Short: "Romaneio reconciliation service",
		Long: `Romaneio serves the romaneio, settlement and dashboard APIs and offers
operational commands over the same services.

Configuration comes from the environment; a .env file in the working
directory is loaded first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newDashboardCommand(), newLedgerCommand(), newJobsCommand())
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "romaneio: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// deps bundles the connections a command opened.
type deps struct {
	cfg      *app.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	redis    *redis.Client
	metrics  *observability.Metrics
	services *app.Services
}

// open connects to Postgres and, when reachable, Redis. Commands keep working
// without Redis; only snapshot caching is lost.
func open(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*deps, error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		ApplicationName: "romaneio",
		TimeZone:        cfg.Location().String(),
	})
	if err != nil {
		return nil, err
	}
	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, snapshot cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	metrics := observability.NewMetrics()
	return &deps{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		redis:    redisClient,
		metrics:  metrics,
		services: app.NewServices(pool, redisClient, cfg, logger, metrics),
	}, nil
}

func (r *deps) Close() {
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			r.logger.Warn("redis close", slog.Any("error", err))
		}
	}
	r.pool.Close()
}

// commandLogger writes to stderr so command output on stdout stays parseable.
func commandLogger(cfg *app.Config) *slog.Logger {
	format := "pretty"
	if cfg != nil {
		format = cfg.LogFormat
	}
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
