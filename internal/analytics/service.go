package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/romaneio-erp/romaneio/internal/aging"
	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// InvoiceSource loads normalized romaneios.
type InvoiceSource interface {
	Invoices(ctx context.Context, f romaneio.ListFilter) ([]romaneio.Invoice, error)
}

// Recorder receives dashboard telemetry.
type Recorder interface {
	RecordPartialLoad(view, source string)
	RecordCache(hit bool)
}

// Options tunes the snapshot thresholds.
type Options struct {
	Location         *time.Location
	DueSoonWindow    int
	PendingThreshold int
}

// Service builds dashboard snapshots and caches them per company and day.
type Service struct {
	source   InvoiceSource
	cache    *Cache
	logger   *slog.Logger
	recorder Recorder
	now      shared.Clock
	opts     Options
}

// NewService wires an InvoiceSource with a Cache helper. A nil cache
// computes every snapshot.
func NewService(source InvoiceSource, cache *Cache, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DueSoonWindow <= 0 {
		opts.DueSoonWindow = aging.DefaultDueSoonWindow
	}
	if opts.PendingThreshold <= 0 {
		opts.PendingThreshold = aging.DefaultPendingAgeThreshold
	}
	return &Service{source: source, cache: cache, logger: logger, now: shared.SystemClock, opts: opts}
}

// WithNow overrides the clock used for "today".
func (s *Service) WithNow(now shared.Clock) *Service {
	s.now = now
	return s
}

// WithRecorder registers the metrics sink.
func (s *Service) WithRecorder(recorder Recorder) *Service {
	s.recorder = recorder
	return s
}

// Location is the zone that defines calendar days.
func (s *Service) Location() *time.Location { return s.opts.Location }

// SnapshotFilter scopes a dashboard snapshot. An empty Date means today.
type SnapshotFilter struct {
	Date      string
	CompanyID string
}

// Snapshot is the full dashboard payload.
type Snapshot struct {
	Date             string               `json:"date"`
	CompanyID        string               `json:"company_id,omitempty"`
	RevenueToday     decimal.Decimal      `json:"revenue_today"`
	RevenueYesterday decimal.Decimal      `json:"revenue_yesterday"`
	DeltaPercent     *float64             `json:"delta_percent"`
	MonthToDate      MonthSummary         `json:"month_to_date"`
	Trailing         []SeriesPoint        `json:"trailing"`
	Distribution     []StatusCount        `json:"distribution"`
	Pending          aging.PendingSummary `json:"pending"`
	DueSoon          []aging.DueItem      `json:"due_soon"`
	Warnings         []shared.LoadWarning `json:"warnings,omitempty"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// Snapshot returns the dashboard for f, from cache when a complete snapshot
// for the same day and company was already built.
func (s *Service) Snapshot(ctx context.Context, f SnapshotFilter) (Snapshot, error) {
	now, err := s.reference(f.Date)
	if err != nil {
		return Snapshot{}, err
	}
	f.Date = day(now)

	loader := func(ctx context.Context) (any, bool, error) {
		snap, err := s.Build(ctx, f.CompanyID, now)
		if err != nil {
			return nil, false, err
		}
		return snap, len(snap.Warnings) == 0, nil
	}

	key, err := s.cache.BuildKey(ctx, keyDashboard(f.CompanyID, f.Date))
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.Any("error", err))
		return s.Build(ctx, f.CompanyID, now)
	}
	var snap Snapshot
	hit, err := s.cache.FetchJSON(ctx, key, &snap, loader)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Snapshot{}, ctxErr
		}
		s.logger.Warn("dashboard cache fetch failed", slog.String("key", key), slog.Any("error", err))
		return s.Build(ctx, f.CompanyID, now)
	}
	if s.recorder != nil && s.cache != nil {
		s.recorder.RecordCache(hit)
	}
	return snap, nil
}

// Refresh rebuilds the snapshot for f and stores it, skipping any cached copy.
func (s *Service) Refresh(ctx context.Context, f SnapshotFilter) (Snapshot, error) {
	now, err := s.reference(f.Date)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := s.Build(ctx, f.CompanyID, now)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snap.Warnings) > 0 {
		return snap, nil
	}
	key, err := s.cache.BuildKey(ctx, keyDashboard(f.CompanyID, snap.Date))
	if err != nil {
		return snap, err
	}
	if err := s.cache.Store(ctx, key, snap); err != nil {
		return snap, fmt.Errorf("analytics: store snapshot: %w", err)
	}
	return snap, nil
}

// Build computes a snapshot without touching the cache. Each status bucket
// is fetched separately; failed buckets become warnings.
func (s *Service) Build(ctx context.Context, companyID string, now time.Time) (Snapshot, error) {
	var (
		g        errgroup.Group
		done     shared.Result[[]romaneio.Invoice]
		pending  shared.Result[[]romaneio.Invoice]
		canceled shared.Result[[]romaneio.Invoice]
	)
	fetch := func(status romaneio.Status) func(context.Context) ([]romaneio.Invoice, error) {
		return func(ctx context.Context) ([]romaneio.Invoice, error) {
			return s.source.Invoices(ctx, romaneio.ListFilter{Statuses: []romaneio.Status{status}, CompanyID: companyID})
		}
	}
	shared.Settle(ctx, &g, "done", &done, fetch(romaneio.StatusDone))
	shared.Settle(ctx, &g, "pending", &pending, fetch(romaneio.StatusPending))
	shared.Settle(ctx, &g, "canceled", &canceled, fetch(romaneio.StatusCanceled))
	_ = g.Wait()

	warnings, err := shared.Warnings(ctx, done, pending, canceled)
	if err != nil {
		return Snapshot{}, err
	}
	for _, w := range warnings {
		s.logger.Warn("dashboard partial load", slog.String("source", w.Source), slog.String("error", w.Message))
		if s.recorder != nil {
			s.recorder.RecordPartialLoad("dashboard", w.Source)
		}
	}

	buckets := make(map[romaneio.Status][]romaneio.Invoice, 3)
	for status, r := range map[romaneio.Status]shared.Result[[]romaneio.Invoice]{
		romaneio.StatusDone:     done,
		romaneio.StatusPending:  pending,
		romaneio.StatusCanceled: canceled,
	} {
		if r.OK() {
			buckets[status] = r.Value
		}
	}

	active := make([]romaneio.Invoice, 0, len(done.ValueOrZero())+len(pending.ValueOrZero()))
	active = append(active, done.ValueOrZero()...)
	active = append(active, pending.ValueOrZero()...)

	today := RevenueOn(active, now)
	yesterday := RevenueOn(active, now.AddDate(0, 0, -1))
	return Snapshot{
		Date:             day(now),
		CompanyID:        companyID,
		RevenueToday:     today,
		RevenueYesterday: yesterday,
		DeltaPercent:     PercentDelta(today, yesterday),
		MonthToDate:      MonthToDate(active, now),
		Trailing:         TrailingSeries(active, now, TrailingDays),
		Distribution:     StatusDistribution(buckets),
		Pending:          aging.SummarizePending(pending.ValueOrZero(), now, s.opts.PendingThreshold),
		DueSoon:          aging.DueSoon(pending.ValueOrZero(), now, s.opts.DueSoonWindow),
		Warnings:         warnings,
		GeneratedAt:      s.now().UTC(),
	}, nil
}

// reference resolves the "now" a snapshot is computed for. A requested date
// keeps the clock's time of day so aging still counts whole days.
func (s *Service) reference(date string) (time.Time, error) {
	now := s.now().In(s.opts.Location)
	if date == "" {
		return now, nil
	}
	d, ok := shared.ParseDate(date, s.opts.Location)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: date %q is not a calendar date", shared.ErrValidation, date)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), 0, s.opts.Location), nil
}
