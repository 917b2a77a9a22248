package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/romaneio-erp/romaneio/internal/analytics"
	jobmetrics "github.com/romaneio-erp/romaneio/internal/jobs"
	"github.com/romaneio-erp/romaneio/internal/masterdata"
)

// SnapshotRefresher rebuilds and stores a dashboard snapshot.
type SnapshotRefresher interface {
	Refresh(ctx context.Context, f analytics.SnapshotFilter) (analytics.Snapshot, error)
}

// CompanyLister lists registered companies.
type CompanyLister interface {
	List(ctx context.Context, kind masterdata.Kind, f masterdata.ListFilters) ([]masterdata.Record, error)
}

// DashboardWarmupJob pre-populates dashboard snapshots.
type DashboardWarmupJob struct {
	Dashboard SnapshotRefresher
	Companies CompanyLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboard SnapshotRefresher, companies CompanyLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: dashboard, Companies: companies, Logger: logger, Metrics: metrics}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskDashboardWarmup)
	return tracker.End(j.run(ctx, payload))
}

func (j *DashboardWarmupJob) run(ctx context.Context, payload DashboardWarmupPayload) error {
	logger := j.logger().With(slog.String("date", payload.Date))
	start := time.Now()

	scopes := []string{""}
	if payload.AllCompanies && j.Companies != nil {
		companies, err := j.Companies.List(ctx, masterdata.KindCompanies, masterdata.ListFilters{})
		if err != nil {
			logger.Error("load warmup companies", slog.Any("error", err))
			return err
		}
		for _, c := range companies {
			scopes = append(scopes, c.ID)
		}
	}

	partial := 0
	for _, companyID := range scopes {
		scopeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		snap, err := j.Dashboard.Refresh(scopeCtx, analytics.SnapshotFilter{Date: payload.Date, CompanyID: companyID})
		cancel()
		if err != nil {
			logger.Error("warm scope", slog.String("company_id", companyID), slog.Any("error", err))
			return err
		}
		if len(snap.Warnings) > 0 {
			partial++
			logger.Warn("warm scope incomplete, not cached", slog.String("company_id", companyID), slog.Int("warnings", len(snap.Warnings)))
		}
	}

	logger.Info("completed dashboard warmup",
		slog.Int("scopes", len(scopes)),
		slog.Int("partial", partial),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}
