package financeiro

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/romaneio-erp/romaneio/internal/platform/db"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

const tablePayments = "producer_payments"

// paymentColumns casts ids, amounts and dates to text so legacy bigint ids,
// uuid ids and numeric precision all survive the scan.
var paymentColumns = []string{
	"id::text AS id",
	"COALESCE(created_at, to_timestamp(0)) AS created_at",
	"romaneio_id::text AS romaneio_id",
	"producer_id::text AS producer_id",
	"amount::text AS amount",
	"paid_at::text AS paid_at",
	"COALESCE(method, '') AS method",
	"COALESCE(reference, '') AS reference",
	"COALESCE(note, '') AS note",
}

type paymentRow struct {
	ID         string    `db:"id"`
	CreatedAt  time.Time `db:"created_at"`
	RomaneioID string    `db:"romaneio_id"`
	ProducerID string    `db:"producer_id"`
	Amount     string    `db:"amount"`
	PaidAt     *string   `db:"paid_at"`
	Method     string    `db:"method"`
	Reference  string    `db:"reference"`
	Note       string    `db:"note"`
}

func (r paymentRow) toPayment() Payment {
	p := Payment{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		RomaneioID: r.RomaneioID,
		ProducerID: r.ProducerID,
		Amount:     shared.AmountOrZero(r.Amount),
		Method:     r.Method,
		Reference:  r.Reference,
		Note:       r.Note,
	}
	if r.PaidAt != nil {
		p.PaidAt = shared.ToISODate(*r.PaidAt, time.UTC)
	}
	return p
}

// Repository persists producer payments in PostgreSQL.
type Repository struct {
	db      db.DBTX
	builder squirrel.StatementBuilderType
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{
		db:      conn,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListPayments returns payments matching f.
func (r *Repository) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error) {
	query, args, err := r.listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("financeiro: build list: %w", err)
	}
	var rows []paymentRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("financeiro: list payments: %w", err)
	}
	out := make([]Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toPayment())
	}
	return out, nil
}

// GetPayment loads one payment.
func (r *Repository) GetPayment(ctx context.Context, id string) (Payment, error) {
	query, args, err := r.builder.Select(paymentColumns...).From(tablePayments).
		Where(squirrel.Expr("id::text = ?", id)).
		ToSql()
	if err != nil {
		return Payment{}, fmt.Errorf("financeiro: build get: %w", err)
	}
	var row paymentRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return Payment{}, fmt.Errorf("payment %s: %w", id, shared.ErrNotFound)
		}
		return Payment{}, fmt.Errorf("financeiro: get payment: %w", err)
	}
	return row.toPayment(), nil
}

// CreatePayment inserts p. ID and CreatedAt must already be set.
func (r *Repository) CreatePayment(ctx context.Context, p Payment) (Payment, error) {
	query, args, err := r.builder.Insert(tablePayments).
		Columns("id", "created_at", "romaneio_id", "producer_id", "amount", "paid_at", "method", "reference", "note").
		Values(p.ID, p.CreatedAt, p.RomaneioID, p.ProducerID, p.Amount.String(), p.PaidAt,
			nullable(p.Method), nullable(p.Reference), nullable(p.Note)).
		ToSql()
	if err != nil {
		return Payment{}, fmt.Errorf("financeiro: build insert: %w", err)
	}
	if err := db.RequireRows(r.db.Exec(ctx, query, args...)); err != nil {
		return Payment{}, fmt.Errorf("financeiro: insert payment: %w", err)
	}
	return p, nil
}

// UpdatePayment rewrites the editable fields of p.
func (r *Repository) UpdatePayment(ctx context.Context, p Payment) (Payment, error) {
	query, args, err := r.builder.Update(tablePayments).
		Set("romaneio_id", p.RomaneioID).
		Set("producer_id", p.ProducerID).
		Set("amount", p.Amount.String()).
		Set("paid_at", p.PaidAt).
		Set("method", nullable(p.Method)).
		Set("reference", nullable(p.Reference)).
		Set("note", nullable(p.Note)).
		Where(squirrel.Expr("id::text = ?", p.ID)).
		ToSql()
	if err != nil {
		return Payment{}, fmt.Errorf("financeiro: build update: %w", err)
	}
	if err := db.RequireRows(r.db.Exec(ctx, query, args...)); err != nil {
		return Payment{}, fmt.Errorf("financeiro: update payment %s: %w", p.ID, err)
	}
	return p, nil
}

// DeletePayment removes a payment permanently. Zero affected rows fail with
// shared.ErrNoRowsAffected.
func (r *Repository) DeletePayment(ctx context.Context, id string) error {
	query, args, err := r.builder.Delete(tablePayments).
		Where(squirrel.Expr("id::text = ?", id)).
		ToSql()
	if err != nil {
		return fmt.Errorf("financeiro: build delete: %w", err)
	}
	if err := db.RequireRows(r.db.Exec(ctx, query, args...)); err != nil {
		return fmt.Errorf("financeiro: delete payment %s: %w", id, err)
	}
	return nil
}

func (r *Repository) listQuery(f PaymentFilter) (string, []any, error) {
	q := r.builder.Select(paymentColumns...).From(tablePayments)
	if f.RomaneioID != "" {
		q = q.Where(squirrel.Expr("romaneio_id::text = ?", f.RomaneioID))
	}
	if f.ProducerID != "" {
		q = q.Where(squirrel.Expr("producer_id::text = ?", f.ProducerID))
	}
	return q.OrderBy("paid_at", "created_at", "id").ToSql()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
