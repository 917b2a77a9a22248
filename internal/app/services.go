package app

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/romaneio-erp/romaneio/internal/aging"
	"github.com/romaneio-erp/romaneio/internal/analytics"
	analytichttp "github.com/romaneio-erp/romaneio/internal/analytics/http"
	"github.com/romaneio-erp/romaneio/internal/financeiro"
	"github.com/romaneio-erp/romaneio/internal/masterdata"
	"github.com/romaneio-erp/romaneio/internal/observability"
	"github.com/romaneio-erp/romaneio/internal/platform/db"
	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/jobs"
)

// Services holds the domain services shared by the API, the worker and the CLI.
type Services struct {
	Cache      *analytics.Cache
	Romaneios  *romaneio.Service
	Financeiro *financeiro.Service
	MasterData masterdata.Service
	Dashboard  *analytics.Service
}

// NewServices wires repositories and services over a database connection. A
// nil redis client disables snapshot caching.
func NewServices(conn db.DBTX, redisClient *redis.Client, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) *Services {
	var cache *analytics.Cache
	if redisClient != nil {
		cache = analytics.NewCache(redisClient, cfg.CacheTTL)
	}

	masterData := masterdata.NewService(masterdata.NewRepository(conn))
	romaneios := romaneio.NewService(romaneio.NewRepository(conn), logger.With(slog.String("module", "romaneio")), cfg.Location()).
		WithInvalidator(cache)
	fin := financeiro.NewService(financeiro.NewRepository(conn), romaneios, masterData, logger.With(slog.String("module", "financeiro"))).
		WithInvalidator(cache).
		WithRecorder(metrics)
	dashboard := analytics.NewService(romaneios, cache, logger.With(slog.String("module", "analytics")), analytics.Options{
		Location:         cfg.Location(),
		DueSoonWindow:    cfg.DueSoonWindowDays,
		PendingThreshold: cfg.PendingAgeThresholdDays,
	}).WithRecorder(metrics)

	return &Services{
		Cache:      cache,
		Romaneios:  romaneios,
		Financeiro: fin,
		MasterData: masterData,
		Dashboard:  dashboard,
	}
}

// RouterParams builds the HTTP handlers over the services.
func (s *Services) RouterParams(cfg *Config, logger *slog.Logger, metrics *observability.Metrics, inspector jobs.QueueInspector) *RouterParams {
	return &RouterParams{
		Logger:            logger,
		Config:            cfg,
		RomaneioHandler:   romaneio.NewHandler(logger, s.Romaneios),
		AgingHandler:      aging.NewHandler(logger, s.Romaneios, cfg.DueSoonWindowDays),
		FinanceiroHandler: financeiro.NewHandler(logger, s.Financeiro),
		MasterDataHandler: masterdata.NewHandler(logger, s.MasterData),
		AnalyticsHandler:  analytichttp.NewHandler(logger, s.Dashboard),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	}
}
