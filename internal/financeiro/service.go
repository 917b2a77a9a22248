package financeiro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// RepositoryPort defines payment persistence.
type RepositoryPort interface {
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
	GetPayment(ctx context.Context, id string) (Payment, error)
	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	UpdatePayment(ctx context.Context, p Payment) (Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

// InvoiceSource loads normalized romaneios.
type InvoiceSource interface {
	Invoices(ctx context.Context, f romaneio.ListFilter) ([]romaneio.Invoice, error)
	Get(ctx context.Context, id string) (romaneio.InvoiceView, error)
}

// ProducerDirectory resolves producer ids to display names.
type ProducerDirectory interface {
	ProducerNames(ctx context.Context) (map[string]string, error)
}

// Invalidator drops derived caches after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// WarningRecorder counts partially loaded views.
type WarningRecorder interface {
	RecordPartialLoad(view, source string)
}

// Service reconciles producer payments against purchase romaneios.
type Service struct {
	repo      RepositoryPort
	invoices  InvoiceSource
	producers ProducerDirectory
	logger    *slog.Logger
	cache     Invalidator
	recorder  WarningRecorder
	now       shared.Clock
	newID     func() string
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invoices InvoiceSource, producers ProducerDirectory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		invoices:  invoices,
		producers: producers,
		logger:    logger,
		now:       shared.SystemClock,
		newID:     func() string { return uuid.NewString() },
	}
}

// WithInvalidator registers the cache bumped after writes.
func (s *Service) WithInvalidator(cache Invalidator) *Service {
	s.cache = cache
	return s
}

// WithRecorder registers the partial-load counter.
func (s *Service) WithRecorder(recorder WarningRecorder) *Service {
	s.recorder = recorder
	return s
}

// WithNow overrides the clock used for creation timestamps.
func (s *Service) WithNow(now shared.Clock) *Service {
	s.now = now
	return s
}

// ViewFilter scopes the settlement view.
type ViewFilter struct {
	ProducerID string
	RomaneioID string
}

// Load builds the settlement view. Payments, romaneios and producers are
// fetched in parallel; a failed fetch degrades to an empty input plus a
// warning. A canceled ctx returns its error and nothing else.
func (s *Service) Load(ctx context.Context, f ViewFilter) (View, error) {
	var (
		g         errgroup.Group
		payments  shared.Result[[]Payment]
		invoices  shared.Result[[]romaneio.Invoice]
		producers shared.Result[map[string]string]
	)
	shared.Settle(ctx, &g, "payments", &payments, func(ctx context.Context) ([]Payment, error) {
		return s.repo.ListPayments(ctx, PaymentFilter{ProducerID: f.ProducerID, RomaneioID: f.RomaneioID})
	})
	shared.Settle(ctx, &g, "romaneios", &invoices, func(ctx context.Context) ([]romaneio.Invoice, error) {
		return s.invoices.Invoices(ctx, romaneio.ListFilter{Kind: romaneio.KindPurchase, ProducerID: f.ProducerID})
	})
	shared.Settle(ctx, &g, "producers", &producers, func(ctx context.Context) (map[string]string, error) {
		return s.producers.ProducerNames(ctx)
	})
	_ = g.Wait()

	warnings, err := shared.Warnings(ctx, payments, invoices, producers)
	if err != nil {
		return View{}, err
	}
	for _, w := range warnings {
		s.logger.Warn("financeiro partial load", slog.String("source", w.Source), slog.String("error", w.Message))
		if s.recorder != nil {
			s.recorder.RecordPartialLoad("financeiro", w.Source)
		}
	}

	view := Reconcile(payments.ValueOrZero(), invoices.ValueOrZero(), producers.ValueOrZero(), f.RomaneioID)
	view.Warnings = warnings
	return view, nil
}

// Reconcile joins payments with romaneios and producer names. Payments whose
// romaneio is missing count against a zero total; unknown producers show "-".
// When romaneioID is set only that romaneio is summarized.
func Reconcile(payments []Payment, invoices []romaneio.Invoice, producers map[string]string, romaneioID string) View {
	ledger := NewLedger(payments)
	byID := make(map[string]romaneio.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}
	producerName := func(id string) string {
		if name, ok := producers[id]; ok && name != "" {
			return name
		}
		return unknownProducer
	}

	view := View{Rows: make([]LedgerRow, 0, len(payments)), Invoices: make([]InvoiceSummary, 0)}
	for _, p := range sortedPayments(payments) {
		inv, ok := byID[p.RomaneioID]
		total := decimal.Zero
		if ok {
			total = romaneio.ComputeTotal(inv)
		}
		upTo, _ := ledger.PaidUpTo(p.ID)
		view.Rows = append(view.Rows, LedgerRow{
			Payment:        p,
			ProducerName:   producerName(p.ProducerID),
			RomaneioNumber: inv.Number,
			RomaneioTotal:  total,
			PaidUpTo:       upTo,
			RemainingAfter: shared.ClampZero(shared.SubMoney(total, upTo)),
		})
	}

	for _, inv := range invoices {
		if inv.Kind != romaneio.KindPurchase || inv.Status == romaneio.StatusCanceled {
			continue
		}
		if romaneioID != "" && inv.ID != romaneioID {
			continue
		}
		total := romaneio.ComputeTotal(inv)
		balance := ledger.Balance(total, inv.ID)
		view.Invoices = append(view.Invoices, InvoiceSummary{
			RomaneioID:   inv.ID,
			Number:       inv.Number,
			ProducerID:   inv.ProducerID,
			ProducerName: producerName(inv.ProducerID),
			Total:        total,
			Paid:         ledger.TotalPaid(inv.ID),
			Balance:      balance,
			Remaining:    shared.ClampZero(balance),
			Overpaid:     balance.IsNegative(),
			Status:       ledger.Status(total, inv.ID),
			Payments:     len(ledger.Payments(inv.ID)),
		})
	}
	sort.SliceStable(view.Invoices, func(i, j int) bool {
		return shared.CompareNumeric(view.Invoices[i].Number, view.Invoices[j].Number) < 0
	})
	return view
}

// sortedPayments lists payments grouped by romaneio, each group in
// settlement order.
func sortedPayments(payments []Payment) []Payment {
	out := append([]Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RomaneioID != out[j].RomaneioID {
			return shared.CompareNumeric(out[i].RomaneioID, out[j].RomaneioID) < 0
		}
		return ComparePayments(out[i], out[j]) < 0
	})
	return out
}

// Check reports how amount compares with the romaneio's open balance. A
// romaneio that cannot be found yields a skipped check.
func (s *Service) Check(ctx context.Context, romaneioID string, amount decimal.Decimal) (PaymentCheck, error) {
	inv, err := s.invoices.Get(ctx, romaneioID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return CheckNewPayment(decimal.Zero, amount), nil
		}
		return PaymentCheck{}, err
	}
	payments, err := s.repo.ListPayments(ctx, PaymentFilter{RomaneioID: romaneioID})
	if err != nil {
		return PaymentCheck{}, err
	}
	remaining := NewLedger(payments).Remaining(inv.Total, romaneioID)
	return CheckNewPayment(remaining, amount), nil
}

// CreatePayment records a new payment. Partial payments and overpayments
// against a known open balance fail with *ConfirmationRequiredError unless
// the input is marked Confirmed.
func (s *Service) CreatePayment(ctx context.Context, in PaymentInput) (PaymentResult, error) {
	if err := validateInput(in); err != nil {
		return PaymentResult{}, err
	}
	amount := shared.Round2(in.Amount)
	check, err := s.Check(ctx, in.RomaneioID, amount)
	if err != nil {
		return PaymentResult{}, err
	}
	if check.RequiresConfirmation && !in.Confirmed {
		return PaymentResult{Check: check}, &ConfirmationRequiredError{Check: check}
	}

	payment, err := s.repo.CreatePayment(ctx, Payment{
		ID:         s.newID(),
		CreatedAt:  s.now().UTC(),
		RomaneioID: in.RomaneioID,
		ProducerID: in.ProducerID,
		Amount:     amount,
		PaidAt:     shared.ToISODate(in.PaidAt, time.UTC),
		Method:     in.Method,
		Reference:  in.Reference,
		Note:       in.Note,
	})
	if err != nil {
		return PaymentResult{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("payment created",
		slog.String("id", payment.ID),
		slog.String("romaneio_id", payment.RomaneioID),
		slog.String("amount", shared.FormatMoney(payment.Amount)),
		slog.String("check", string(check.Outcome)))
	return PaymentResult{Payment: payment, Check: check}, nil
}

// UpdatePayment edits an existing payment. Edits never trigger the
// confirmation gate.
func (s *Service) UpdatePayment(ctx context.Context, id string, in PaymentInput) (Payment, error) {
	if err := validateInput(in); err != nil {
		return Payment{}, err
	}
	current, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	current.RomaneioID = in.RomaneioID
	current.ProducerID = in.ProducerID
	current.Amount = shared.Round2(in.Amount)
	current.PaidAt = shared.ToISODate(in.PaidAt, time.UTC)
	current.Method = in.Method
	current.Reference = in.Reference
	current.Note = in.Note
	updated, err := s.repo.UpdatePayment(ctx, current)
	if err != nil {
		return Payment{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// DeletePayment removes a payment. Zero affected rows surface as
// shared.ErrNoRowsAffected.
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("payment deleted", slog.String("id", id))
	return nil
}

// LedgerFor returns the settlement rows of one romaneio.
func (s *Service) LedgerFor(ctx context.Context, romaneioID string) (InvoiceSummary, []LedgerRow, error) {
	view, err := s.Load(ctx, ViewFilter{RomaneioID: romaneioID})
	if err != nil {
		return InvoiceSummary{}, nil, err
	}
	if len(view.Warnings) > 0 {
		w := view.Warnings[0]
		return InvoiceSummary{}, nil, fmt.Errorf("financeiro: load %s: %s", w.Source, w.Message)
	}
	for _, summary := range view.Invoices {
		if summary.RomaneioID == romaneioID {
			return summary, view.Rows, nil
		}
	}
	return InvoiceSummary{}, nil, fmt.Errorf("romaneio %s: %w", romaneioID, shared.ErrNotFound)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cache bump failed", slog.Any("error", err))
	}
}

func validateInput(in PaymentInput) error {
	if err := shared.Validate(in); err != nil {
		return err
	}
	if in.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", shared.ErrValidation)
	}
	return nil
}
