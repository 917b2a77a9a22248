package financeiro

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

// Payment settles part of a purchase romaneio with its producer.
type Payment struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	RomaneioID string          `json:"romaneio_id"`
	ProducerID string          `json:"producer_id"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     string          `json:"paid_at"`
	Method     string          `json:"method,omitempty"`
	Reference  string          `json:"reference,omitempty"`
	Note       string          `json:"note,omitempty"`
}

// PaymentInput is the payload for creating or editing a payment.
type PaymentInput struct {
	RomaneioID string          `json:"romaneio_id" validate:"required"`
	ProducerID string          `json:"producer_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     string          `json:"paid_at" validate:"required,loosedate"`
	Method     string          `json:"method" validate:"omitempty,max=40"`
	Reference  string          `json:"reference" validate:"omitempty,max=120"`
	Note       string          `json:"note" validate:"omitempty,max=500"`
	// Confirmed acknowledges a partial or excess payment flagged by the
	// reconciliation check.
	Confirmed bool `json:"confirmed"`
}

// PaymentFilter scopes payment fetches. Zero values mean "any".
type PaymentFilter struct {
	RomaneioID string
	ProducerID string
}

// InvoiceStatus is the settlement state of a romaneio.
type InvoiceStatus string

const (
	InvoiceOpen   InvoiceStatus = "OPEN"
	InvoiceClosed InvoiceStatus = "CLOSED"
)

// LedgerRow is one payment with its historical running balance.
type LedgerRow struct {
	Payment
	ProducerName   string          `json:"producer_name"`
	RomaneioNumber string          `json:"romaneio_number"`
	RomaneioTotal  decimal.Decimal `json:"romaneio_total"`
	PaidUpTo       decimal.Decimal `json:"paid_up_to"`
	RemainingAfter decimal.Decimal `json:"remaining_after"`
}

// InvoiceSummary is the settlement position of one purchase romaneio.
type InvoiceSummary struct {
	RomaneioID   string          `json:"romaneio_id"`
	Number       string          `json:"number"`
	ProducerID   string          `json:"producer_id,omitempty"`
	ProducerName string          `json:"producer_name"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Balance      decimal.Decimal `json:"balance"`
	Remaining    decimal.Decimal `json:"remaining"`
	Overpaid     bool            `json:"overpaid"`
	Status       InvoiceStatus   `json:"status"`
	Payments     int             `json:"payments"`
}

// View is the producer settlement screen.
type View struct {
	Rows     []LedgerRow          `json:"rows"`
	Invoices []InvoiceSummary     `json:"invoices"`
	Warnings []shared.LoadWarning `json:"warnings,omitempty"`
}

// PaymentResult reports a stored payment and the check it passed.
type PaymentResult struct {
	Payment Payment      `json:"payment"`
	Check   PaymentCheck `json:"check"`
}

// unknownProducer is shown when a payment's producer cannot be joined.
const unknownProducer = "-"
