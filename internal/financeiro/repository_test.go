package financeiro

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

type execRecorder struct {
	tag  string
	sql  string
	args []any
}

func (e *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql, e.args = sql, args
	return pgconn.NewCommandTag(e.tag), nil
}

func (e *execRecorder) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not used")
}

func (e *execRecorder) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not used")
}

func TestPaymentListQuery(t *testing.T) {
	repo := NewRepository(&execRecorder{})
	sql, args, err := repo.listQuery(PaymentFilter{RomaneioID: "r1", ProducerID: "p1"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sql, "SELECT id::text AS id, COALESCE(created_at, to_timestamp(0)) AS created_at,"))
	require.Contains(t, sql, "amount::text AS amount")
	require.True(t, strings.HasSuffix(sql, "FROM producer_payments WHERE romaneio_id::text = $1 AND producer_id::text = $2 ORDER BY paid_at, created_at, id"))
	require.Equal(t, []any{"r1", "p1"}, args)
}

func TestCreatePaymentInsert(t *testing.T) {
	conn := &execRecorder{tag: "INSERT 0 1"}
	repo := NewRepository(conn)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	p, err := repo.CreatePayment(context.Background(), Payment{
		ID: "u1", CreatedAt: created, RomaneioID: "r1", ProducerID: "p1", Amount: dec("10.50"), PaidAt: "2024-03-01",
	})
	require.NoError(t, err)
	require.Equal(t, "u1", p.ID)
	require.Equal(t,
		"INSERT INTO producer_payments (id,created_at,romaneio_id,producer_id,amount,paid_at,method,reference,note) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)",
		conn.sql)
	require.Equal(t, []any{"u1", created, "r1", "p1", "10.5", "2024-03-01", nil, nil, nil}, conn.args)
}

func TestDeletePaymentZeroRows(t *testing.T) {
	conn := &execRecorder{tag: "DELETE 0"}
	repo := NewRepository(conn)
	err := repo.DeletePayment(context.Background(), "u1")
	require.ErrorIs(t, err, shared.ErrNoRowsAffected)
	require.Equal(t, "DELETE FROM producer_payments WHERE id::text = $1", conn.sql)

	conn.tag = "UPDATE 0"
	_, err = repo.UpdatePayment(context.Background(), Payment{ID: "u1", Amount: dec("1")})
	require.ErrorIs(t, err, shared.ErrNoRowsAffected)
	require.True(t, strings.HasPrefix(conn.sql, "UPDATE producer_payments SET romaneio_id = $1"))
}

func TestPaymentRowConversion(t *testing.T) {
	paid := "2024-03-01"
	p := paymentRow{ID: "7", RomaneioID: "r1", Amount: "1234.5600", PaidAt: &paid}.toPayment()
	require.Equal(t, "1234.56", money(p.Amount))
	require.Equal(t, "2024-03-01", p.PaidAt)

	p = paymentRow{ID: "8", Amount: "garbage"}.toPayment()
	require.True(t, p.Amount.IsZero())
	require.Empty(t, p.PaidAt)
}
