package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/romaneio-erp/romaneio/internal/app"
	"github.com/romaneio-erp/romaneio/jobs"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *app.Config) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	logger := app.NewLogger(cfg)
	rt, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() { _ = inspector.Close() }()
	jobClient := jobs.NewClient(redisOpts)
	defer func() { _ = jobClient.Close() }()

	if rt.services.Cache != nil && !app.InTestMode() {
		// Writes bump the snapshot version; rewarm today's dashboard in the background.
		err := rt.services.Cache.ListenForInvalidation(ctx, func(version int64) {
			enqueueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if _, err := jobClient.EnqueueDashboardWarmup(enqueueCtx, jobs.DashboardWarmupPayload{}); err != nil {
				logger.Warn("enqueue dashboard warmup", slog.Int64("version", version), slog.Any("error", err))
			}
		})
		if err != nil {
			logger.Warn("subscribe cache invalidation", slog.Any("error", err))
		}
	}

	router := app.NewRouter(*rt.services.RouterParams(cfg, logger, rt.metrics, inspector))

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
