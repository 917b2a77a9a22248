package masterdata

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/romaneio-erp/romaneio/internal/platform/db"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// table describes how a registry is stored. Columns a table lacks are
// selected as empty literals so every kind scans into the same row.
type table struct {
	name    string
	columns []string
}

var tables = map[Kind]table{
	KindCompanies: {name: "companies", columns: []string{"document", "email", "phone", "city", "state"}},
	KindCustomers: {name: "customers", columns: []string{"document", "email", "phone", "city", "state"}},
	KindProducers: {name: "producers", columns: []string{"document", "email", "phone", "city", "state"}},
	KindProducts:  {name: "products", columns: []string{"unit", "unit_price"}},
}

var optionalColumns = []string{"document", "email", "phone", "city", "state", "unit", "unit_price"}

func (t table) has(col string) bool {
	for _, c := range t.columns {
		if c == col {
			return true
		}
	}
	return false
}

func (t table) selectColumns() []string {
	cols := []string{"id::text AS id", "COALESCE(name, '') AS name", "COALESCE(created_at, to_timestamp(0)) AS created_at"}
	for _, col := range optionalColumns {
		if t.has(col) {
			cols = append(cols, fmt.Sprintf("COALESCE(%[1]s::text, '') AS %[1]s", col))
			continue
		}
		cols = append(cols, fmt.Sprintf("'' AS %s", col))
	}
	return cols
}

type recordRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	Document  string    `db:"document"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	City      string    `db:"city"`
	State     string    `db:"state"`
	Unit      string    `db:"unit"`
	UnitPrice string    `db:"unit_price"`
}

func (r recordRow) toRecord(kind Kind) Record {
	rec := Record{
		ID:        r.ID,
		Kind:      kind,
		Name:      r.Name,
		Document:  r.Document,
		Email:     r.Email,
		Phone:     r.Phone,
		City:      r.City,
		State:     r.State,
		Unit:      r.Unit,
		CreatedAt: r.CreatedAt,
	}
	if price, ok := shared.ParseAmount(r.UnitPrice); ok {
		rec.UnitPrice = &price
	}
	return rec
}

// repo implements Repository on PostgreSQL.
type repo struct {
	db      db.DBTX
	builder squirrel.StatementBuilderType
}

// NewRepository creates a new master data repository.
func NewRepository(conn db.DBTX) Repository {
	return &repo{db: conn, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

func lookup(kind Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("registry %q: %w", kind, shared.ErrNotFound)
	}
	return t, nil
}

func (r *repo) List(ctx context.Context, kind Kind, f ListFilters) ([]Record, error) {
	query, args, err := r.listQuery(kind, f)
	if err != nil {
		return nil, err
	}
	var rows []recordRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("masterdata: list %s: %w", kind, err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord(kind))
	}
	return out, nil
}

func (r *repo) listQuery(kind Kind, f ListFilters) (string, []any, error) {
	t, err := lookup(kind)
	if err != nil {
		return "", nil, err
	}
	q := r.builder.Select(t.selectColumns()...).From(t.name)
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + f.Search + "%"})
	}
	q = q.OrderBy("name", "id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("masterdata: build list: %w", err)
	}
	return query, args, nil
}

func (r *repo) Create(ctx context.Context, rec Record) (Record, error) {
	t, err := lookup(rec.Kind)
	if err != nil {
		return Record{}, err
	}
	cols := []string{"id", "name", "created_at"}
	vals := []any{rec.ID, rec.Name, rec.CreatedAt}
	for _, col := range t.columns {
		cols = append(cols, col)
		vals = append(vals, rec.column(col))
	}
	query, args, err := r.builder.Insert(t.name).Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("masterdata: build insert: %w", err)
	}
	if err := db.RequireRows(r.db.Exec(ctx, query, args...)); err != nil {
		return Record{}, fmt.Errorf("masterdata: insert %s: %w", rec.Kind, err)
	}
	return rec, nil
}

func (r *repo) Delete(ctx context.Context, kind Kind, id string) error {
	t, err := lookup(kind)
	if err != nil {
		return err
	}
	query, args, err := r.builder.Delete(t.name).Where(squirrel.Expr("id::text = ?", id)).ToSql()
	if err != nil {
		return fmt.Errorf("masterdata: build delete: %w", err)
	}
	if err := db.RequireRows(r.db.Exec(ctx, query, args...)); err != nil {
		return fmt.Errorf("masterdata: delete %s %s: %w", kind, id, err)
	}
	return nil
}

// column returns the insert value for an optional column; blanks become NULL.
func (rec Record) column(col string) any {
	var s string
	switch col {
	case "document":
		s = rec.Document
	case "email":
		s = rec.Email
	case "phone":
		s = rec.Phone
	case "city":
		s = rec.City
	case "state":
		s = rec.State
	case "unit":
		s = rec.Unit
	case "unit_price":
		if rec.UnitPrice == nil {
			return nil
		}
		return rec.UnitPrice.String()
	}
	if s == "" {
		return nil
	}
	return s
}
