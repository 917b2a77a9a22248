package financeiro

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pay(id, romaneioID, amount, paidAt string) Payment {
	return Payment{ID: id, RomaneioID: romaneioID, ProducerID: "p1", Amount: dec(amount), PaidAt: paidAt}
}

func money(d decimal.Decimal) string { return shared.FormatMoney(d) }

func TestLedgerRunningBalance(t *testing.T) {
	total := dec("100.00")
	// Inserted out of order on purpose.
	ledger := NewLedger([]Payment{
		pay("b", "r1", "30.00", "2024-03-02"),
		pay("a", "r1", "40.00", "2024-03-01"),
	})

	require.Equal(t, "70.00", money(ledger.TotalPaid("r1")))
	require.Equal(t, "30.00", money(ledger.Remaining(total, "r1")))
	require.Equal(t, InvoiceOpen, ledger.Status(total, "r1"))

	upTo, ok := ledger.PaidUpTo("a")
	require.True(t, ok)
	require.Equal(t, "40.00", money(upTo))
	upTo, ok = ledger.PaidUpTo("b")
	require.True(t, ok)
	require.Equal(t, "70.00", money(upTo))

	_, ok = ledger.PaidUpTo("missing")
	require.False(t, ok)
	require.True(t, ledger.TotalPaid("other").IsZero())
}

func TestLedgerRemainingClampsAtZero(t *testing.T) {
	total := dec("100.00")
	exact := NewLedger([]Payment{pay("1", "r1", "100.00", "2024-03-01")})
	require.True(t, exact.Remaining(total, "r1").IsZero())
	require.Equal(t, InvoiceClosed, exact.Status(total, "r1"))

	over := NewLedger([]Payment{pay("1", "r1", "60", "2024-03-01"), pay("2", "r1", "70", "2024-03-02")})
	require.True(t, over.Remaining(total, "r1").IsZero())
	require.Equal(t, "-30.00", money(over.Balance(total, "r1")))
	require.Equal(t, InvoiceClosed, over.Status(total, "r1"))
}

func TestLedgerRoundsEveryStep(t *testing.T) {
	payments := make([]Payment, 0, 300)
	for i := 0; i < 300; i++ {
		payments = append(payments, Payment{
			ID:         decimal.NewFromInt(int64(i)).String(),
			RomaneioID: "r1",
			Amount:     decimal.NewFromFloat(0.1),
			PaidAt:     "2024-01-01",
		})
	}
	require.Equal(t, "30.00", money(NewLedger(payments).TotalPaid("r1")))
}

func TestComparePaymentsTieBreaks(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	payments := []Payment{
		{ID: "x", PaidAt: ""},
		{ID: "b", PaidAt: "2024-03-01", CreatedAt: t0},
		{ID: "10", PaidAt: "2024-03-01", CreatedAt: t0},
		{ID: "9", PaidAt: "2024-03-01", CreatedAt: t0},
		{ID: "late", PaidAt: "2024-03-01", CreatedAt: t0.Add(time.Minute)},
		{ID: "a", PaidAt: "2024-03-01", CreatedAt: t0},
		{ID: "first", PaidAt: "29/02/2024", CreatedAt: t0.Add(time.Hour)},
	}
	sort.SliceStable(payments, func(i, j int) bool { return ComparePayments(payments[i], payments[j]) < 0 })
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"first", "9", "10", "a", "b", "late", "x"}, ids)
}

func TestPaidUpToIsIdempotent(t *testing.T) {
	payments := []Payment{
		pay("1", "r1", "10", "2024-03-01"),
		pay("2", "r1", "20", "2024-03-03"),
		pay("3", "r2", "99", "2024-03-02"),
		pay("4", "r1", "5", "2024-03-02"),
	}
	ledger := NewLedger(payments)
	first, _ := ledger.PaidUpTo("2")
	for _, id := range []string{"3", "1", "4", "2"} {
		_, _ = ledger.PaidUpTo(id)
	}
	second, _ := ledger.PaidUpTo("2")
	require.True(t, first.Equal(second))
	require.Equal(t, "35.00", money(second))

	reversed := []Payment{payments[3], payments[2], payments[1], payments[0]}
	again, _ := NewLedger(reversed).PaidUpTo("2")
	require.True(t, again.Equal(second))
}

func TestAppendingPaymentIsMonotonic(t *testing.T) {
	base := []Payment{
		pay("1", "r1", "10", "2024-03-01"),
		pay("2", "r1", "20", "2024-03-05"),
		pay("3", "r1", "30", "2024-03-09"),
	}
	before := NewLedger(base)
	for _, extra := range []Payment{
		pay("0", "r1", "5", "2024-02-01"),
		pay("9", "r1", "5", "2024-03-05"),
		pay("z", "r1", "0", "2024-04-01"),
	} {
		after := NewLedger(append(append([]Payment(nil), base...), extra))
		assert.True(t, after.TotalPaid("r1").GreaterThanOrEqual(before.TotalPaid("r1")), extra.ID)
		for _, p := range base {
			b, _ := before.PaidUpTo(p.ID)
			a, _ := after.PaidUpTo(p.ID)
			assert.True(t, a.GreaterThanOrEqual(b), "payment %s after adding %s", p.ID, extra.ID)
		}
	}
}

func TestCheckNewPayment(t *testing.T) {
	cases := []struct {
		name      string
		remaining string
		amount    string
		outcome   CheckOutcome
		confirm   bool
		diff      string
	}{
		{"exact", "30", "30.00", CheckExact, false, "0.00"},
		{"partial", "30", "10", CheckPartial, true, "-20.00"},
		{"overpayment", "30", "45.5", CheckOverpayment, true, "15.50"},
		{"closed", "0", "10", CheckSkipped, false, "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := CheckNewPayment(dec(tc.remaining), dec(tc.amount))
			require.Equal(t, tc.outcome, check.Outcome)
			require.Equal(t, tc.confirm, check.RequiresConfirmation)
			require.Equal(t, tc.diff, money(check.Difference))
		})
	}
}

func TestConfirmationRequiredErrorMessage(t *testing.T) {
	err := &ConfirmationRequiredError{Check: CheckNewPayment(dec("30"), dec("10"))}
	require.Contains(t, err.Error(), "leaves 20.00 open")
	require.Equal(t, 409, err.HTTPStatus())
	require.Equal(t, err.Check, err.ProblemData())
}
