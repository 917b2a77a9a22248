package romaneio

import (
	"github.com/shopspring/decimal"
)

// Kind classifies a romaneio as a sale or a purchase.
type Kind string

const (
	KindSale     Kind = "SALE"
	KindPurchase Kind = "PURCHASE"
)

// Status enumerates romaneio lifecycle states.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusDone     Status = "DONE"
	StatusCanceled Status = "CANCELED"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusDone, StatusPending, StatusCanceled}

// ProductLine is one product row of a romaneio.
type ProductLine struct {
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
}

// Amount is quantity times unit value.
func (p ProductLine) Amount() decimal.Decimal {
	return p.Quantity.Mul(p.UnitValue)
}

// ExpenseLine is one expense row. Total, when present, wins over
// Quantity x UnitValue.
type ExpenseLine struct {
	Description string           `json:"description,omitempty"`
	Total       *decimal.Decimal `json:"total,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitValue   decimal.Decimal  `json:"unit_value"`
}

// Amount returns the precomputed total or quantity times unit value.
func (e ExpenseLine) Amount() decimal.Decimal {
	if e.Total != nil {
		return *e.Total
	}
	return e.Quantity.Mul(e.UnitValue)
}

// Invoice is the canonical romaneio record. Dates are YYYY-MM-DD or empty.
type Invoice struct {
	ID                string           `json:"id"`
	Number            string           `json:"number"`
	Kind              Kind             `json:"kind"`
	Status            Status           `json:"status"`
	NatureOfOperation string           `json:"nature_of_operation,omitempty"`
	EmissionDate      string           `json:"emission_date,omitempty"`
	SaleDate          string           `json:"sale_date,omitempty"`
	DueDate           string           `json:"due_date,omitempty"`
	CreatedDate       string           `json:"created_date,omitempty"`
	Products          []ProductLine    `json:"products"`
	Expenses          []ExpenseLine    `json:"expenses"`
	Client            string           `json:"client,omitempty"`
	Customer          string           `json:"customer,omitempty"`
	CompanyID         string           `json:"company_id,omitempty"`
	CustomerID        string           `json:"customer_id,omitempty"`
	ProducerID        string           `json:"producer_id,omitempty"`
	StoredTotal       *decimal.Decimal `json:"stored_total,omitempty"`
}

// HasLineItems reports whether any product or expense line exists.
func (inv Invoice) HasLineItems() bool {
	return len(inv.Products) > 0 || len(inv.Expenses) > 0
}

// PrimaryDate is the first available of sale, emission and creation date.
func (inv Invoice) PrimaryDate() string {
	for _, d := range []string{inv.SaleDate, inv.EmissionDate, inv.CreatedDate} {
		if d != "" {
			return d
		}
	}
	return ""
}

// MetricDate is the creation date when known, else the primary date. Daily
// revenue cards bucket by this date.
func (inv Invoice) MetricDate() string {
	if inv.CreatedDate != "" {
		return inv.CreatedDate
	}
	return inv.PrimaryDate()
}

// ListFilter scopes invoice fetches. Zero values mean "any".
type ListFilter struct {
	Statuses   []Status
	CompanyID  string
	CustomerID string
	ProducerID string
	Kind       Kind
	From       string
	To         string
	Limit      int
}

// InvoiceView pairs an invoice with its derived total.
type InvoiceView struct {
	Invoice
	Total decimal.Decimal `json:"total"`
}

// Match applies the filter to a normalized invoice. Kind and dates are only
// known after normalization, so they are checked here rather than in SQL.
func (f ListFilter) Match(inv Invoice) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, inv.Status) {
		return false
	}
	if f.Kind != "" && inv.Kind != f.Kind {
		return false
	}
	if f.CompanyID != "" && inv.CompanyID != f.CompanyID {
		return false
	}
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if f.ProducerID != "" && inv.ProducerID != f.ProducerID {
		return false
	}
	if f.From != "" || f.To != "" {
		day := inv.PrimaryDate()
		if day == "" {
			return false
		}
		// ISO dates compare lexically.
		if f.From != "" && day < f.From {
			return false
		}
		if f.To != "" && day > f.To {
			return false
		}
	}
	return true
}

func (f ListFilter) postFiltered() bool {
	return f.Kind != "" || f.From != "" || f.To != ""
}

func containsStatus(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
