package financeiro

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

// ComparePayments orders payments by paid-at date, then creation time, then
// numeric id, then id as text. Payments without a usable paid-at date sort
// after dated ones.
func ComparePayments(a, b Payment) int {
	da, db := shared.ToISODate(a.PaidAt, nil), shared.ToISODate(b.PaidAt, nil)
	switch {
	case da == "" && db != "":
		return 1
	case da != "" && db == "":
		return -1
	case da < db:
		return -1
	case da > db:
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	na, errA := strconv.ParseInt(a.ID, 10, 64)
	nb, errB := strconv.ParseInt(b.ID, 10, 64)
	switch {
	case errA == nil && errB == nil && na != nb:
		if na < nb {
			return -1
		}
		return 1
	case errA == nil && errB != nil:
		return -1
	case errA != nil && errB == nil:
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Ledger reconciles payments against romaneio totals. Every figure is
// recomputed from the payment list; nothing is stored as "paid in full".
type Ledger struct {
	byRomaneio map[string][]Payment
	paid       map[string]decimal.Decimal
	paidUpTo   map[string]decimal.Decimal
}

// NewLedger groups payments by romaneio in settlement order and precomputes
// running totals.
func NewLedger(payments []Payment) *Ledger {
	l := &Ledger{
		byRomaneio: make(map[string][]Payment),
		paid:       make(map[string]decimal.Decimal),
		paidUpTo:   make(map[string]decimal.Decimal, len(payments)),
	}
	for _, p := range payments {
		l.byRomaneio[p.RomaneioID] = append(l.byRomaneio[p.RomaneioID], p)
	}
	for id, list := range l.byRomaneio {
		sort.SliceStable(list, func(i, j int) bool { return ComparePayments(list[i], list[j]) < 0 })
		running := decimal.Zero
		for _, p := range list {
			running = shared.AddMoney(running, p.Amount)
			l.paidUpTo[p.ID] = running
		}
		l.paid[id] = running
	}
	return l
}

// Payments returns the romaneio's payments in settlement order.
func (l *Ledger) Payments(romaneioID string) []Payment {
	return l.byRomaneio[romaneioID]
}

// TotalPaid sums every payment against the romaneio.
func (l *Ledger) TotalPaid(romaneioID string) decimal.Decimal {
	if paid, ok := l.paid[romaneioID]; ok {
		return paid
	}
	return decimal.Zero
}

// Balance is total minus paid, negative when overpaid.
func (l *Ledger) Balance(total decimal.Decimal, romaneioID string) decimal.Decimal {
	return shared.SubMoney(total, l.TotalPaid(romaneioID))
}

// Remaining is Balance clamped at zero.
func (l *Ledger) Remaining(total decimal.Decimal, romaneioID string) decimal.Decimal {
	return shared.ClampZero(l.Balance(total, romaneioID))
}

// PaidUpTo is the amount paid on the romaneio up to and including the
// payment, following settlement order.
func (l *Ledger) PaidUpTo(paymentID string) (decimal.Decimal, bool) {
	v, ok := l.paidUpTo[paymentID]
	return v, ok
}

// Status is CLOSED once nothing remains.
func (l *Ledger) Status(total decimal.Decimal, romaneioID string) InvoiceStatus {
	if l.Remaining(total, romaneioID).Sign() <= 0 {
		return InvoiceClosed
	}
	return InvoiceOpen
}

// CheckOutcome classifies a new payment against the open balance.
type CheckOutcome string

const (
	CheckExact       CheckOutcome = "EXACT"
	CheckPartial     CheckOutcome = "PARTIAL"
	CheckOverpayment CheckOutcome = "OVERPAYMENT"
	// CheckSkipped means no positive balance was known to compare against.
	CheckSkipped CheckOutcome = "SKIPPED"
)

// PaymentCheck is the reconciliation verdict for a payment about to be created.
type PaymentCheck struct {
	Outcome              CheckOutcome    `json:"outcome"`
	Remaining            decimal.Decimal `json:"remaining"`
	Amount               decimal.Decimal `json:"amount"`
	Difference           decimal.Decimal `json:"difference"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
}

// CheckNewPayment compares amount with a known remaining balance. Partial
// payments and overpayments are allowed but need confirmation; when the
// balance is not positive there is nothing to compare and the check is skipped.
func CheckNewPayment(remaining, amount decimal.Decimal) PaymentCheck {
	check := PaymentCheck{
		Outcome:    CheckSkipped,
		Remaining:  remaining,
		Amount:     amount,
		Difference: shared.SubMoney(amount, remaining),
	}
	if remaining.Sign() <= 0 {
		check.Difference = decimal.Zero
		return check
	}
	switch check.Difference.Sign() {
	case 0:
		check.Outcome = CheckExact
	case -1:
		check.Outcome = CheckPartial
		check.RequiresConfirmation = true
	default:
		check.Outcome = CheckOverpayment
		check.RequiresConfirmation = true
	}
	return check
}

// ConfirmationRequiredError blocks a create until the caller resubmits with
// Confirmed set.
type ConfirmationRequiredError struct {
	Check PaymentCheck
}

func (e *ConfirmationRequiredError) Error() string {
	switch e.Check.Outcome {
	case CheckPartial:
		return fmt.Sprintf("partial payment: %s of %s leaves %s open; confirm to proceed",
			shared.FormatMoney(e.Check.Amount), shared.FormatMoney(e.Check.Remaining), shared.FormatMoney(e.Check.Difference.Neg()))
	default:
		return fmt.Sprintf("overpayment: %s exceeds the remaining %s by %s; confirm to proceed",
			shared.FormatMoney(e.Check.Amount), shared.FormatMoney(e.Check.Remaining), shared.FormatMoney(e.Check.Difference))
	}
}

// HTTPStatus maps the error to 409 Conflict.
func (e *ConfirmationRequiredError) HTTPStatus() int { return http.StatusConflict }

// ProblemData exposes the check to the client.
func (e *ConfirmationRequiredError) ProblemData() any { return e.Check }
