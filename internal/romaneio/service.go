package romaneio

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RepositoryPort defines data access methods for romaneios.
type RepositoryPort interface {
	ListRows(ctx context.Context, f ListFilter) ([]map[string]any, error)
	GetRow(ctx context.Context, id string) (map[string]any, error)
	Delete(ctx context.Context, id string) error
}

// Invalidator drops derived caches after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service normalizes romaneio rows and applies the filters the database
// cannot express.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	loc    *time.Location
	cache  Invalidator
}

// NewService builds Service instance. loc is the business time zone used to
// read timestamps as calendar days.
func NewService(repo RepositoryPort, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, logger: logger, loc: loc}
}

// WithInvalidator registers the cache bumped after deletes.
func (s *Service) WithInvalidator(cache Invalidator) *Service {
	s.cache = cache
	return s
}

// Location returns the business time zone.
func (s *Service) Location() *time.Location { return s.loc }

// Invoices fetches and normalizes the invoices matching f. Unusable rows are
// dropped and logged.
func (s *Service) Invoices(ctx context.Context, f ListFilter) ([]Invoice, error) {
	rows, err := s.repo.ListRows(ctx, f)
	if err != nil {
		return nil, err
	}
	invoices, dropped := NormalizeRows(rows, NormalizeOptions{Location: s.loc})
	if dropped > 0 {
		s.logger.Warn("romaneio rows without identity skipped", slog.Int("count", dropped))
	}
	out := invoices[:0]
	for _, inv := range invoices {
		if f.Match(inv) {
			out = append(out, inv)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// List returns the matching invoices with their computed totals.
func (s *Service) List(ctx context.Context, f ListFilter) ([]InvoiceView, error) {
	invoices, err := s.Invoices(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, View(inv))
	}
	return views, nil
}

// Get returns one invoice with its computed total.
func (s *Service) Get(ctx context.Context, id string) (InvoiceView, error) {
	row, err := s.repo.GetRow(ctx, id)
	if err != nil {
		return InvoiceView{}, err
	}
	inv, err := Normalize(row, NormalizeOptions{Location: s.loc})
	if err != nil {
		return InvoiceView{}, fmt.Errorf("romaneio %s: %w", id, err)
	}
	return View(inv), nil
}

// Delete removes a romaneio and invalidates dashboard caches.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("cache bump failed", slog.Any("error", err))
		}
	}
	s.logger.Info("romaneio deleted", slog.String("id", id))
	return nil
}
