package romaneio

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/romaneio-erp/romaneio/internal/platform/db"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

const tableRomaneios = "romaneios"

// Repository reads raw romaneio rows from PostgreSQL. Rows are returned as
// column maps because the table has drifted across schema revisions;
// Normalize turns them into invoices.
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

// ListRows returns raw rows matching the SQL-expressible part of f.
func (r *Repository) ListRows(ctx context.Context, f ListFilter) ([]map[string]any, error) {
	query, args, err := r.listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("romaneio: build list: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("romaneio: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("romaneio: scan: %w", err)
	}
	return out, nil
}

// GetRow returns one raw row by id.
func (r *Repository) GetRow(ctx context.Context, id string) (map[string]any, error) {
	query, args, err := r.builder.Select("*").From(tableRomaneios).
		Where(squirrel.Expr("id::text = ?", id)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("romaneio: build get: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("romaneio: get: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("romaneio %s: %w", id, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("romaneio: get: %w", err)
	}
	return row, nil
}

// Delete removes a romaneio permanently. A delete that matches no row fails
// with shared.ErrNoRowsAffected.
func (r *Repository) Delete(ctx context.Context, id string) error {
	query, args, err := r.builder.Delete(tableRomaneios).
		Where(squirrel.Expr("id::text = ?", id)).
		ToSql()
	if err != nil {
		return fmt.Errorf("romaneio: build delete: %w", err)
	}
	if err := db.RequireRows(r.db.Exec(ctx, query, args...)); err != nil {
		return fmt.Errorf("romaneio: delete %s: %w", id, err)
	}
	return nil
}

func (r *Repository) listQuery(f ListFilter) (string, []any, error) {
	q := r.builder.Select("*").From(tableRomaneios)
	if len(f.Statuses) > 0 {
		q = q.Where(statusCondition(f.Statuses))
	}
	if f.CompanyID != "" {
		q = q.Where(squirrel.Expr("company_id::text = ?", f.CompanyID))
	}
	if f.CustomerID != "" {
		q = q.Where(squirrel.Expr("customer_id::text = ?", f.CustomerID))
	}
	if f.ProducerID != "" {
		q = q.Where(squirrel.Expr("producer_id::text = ?", f.ProducerID))
	}
	q = q.OrderBy("created_at DESC NULLS LAST", "id")
	if f.Limit > 0 && !f.postFiltered() {
		q = q.Limit(uint64(f.Limit))
	}
	return q.ToSql()
}

// statusCondition mirrors parseStatus so the database only returns the
// requested buckets.
func statusCondition(statuses []Status) squirrel.Sqlizer {
	var known []string
	for _, status := range []Status{StatusDone, StatusCanceled} {
		known = append(known, statusSpellings[status]...)
	}
	or := squirrel.Or{}
	for _, status := range statuses {
		switch status {
		case StatusPending:
			or = append(or, squirrel.Or{
				squirrel.Eq{"status": nil},
				squirrel.Expr("NOT (lower(trim(status)) = ANY(?))", known),
			})
		default:
			or = append(or, squirrel.Expr("lower(trim(status)) = ANY(?)", statusSpellings[status]))
		}
	}
	return or
}
