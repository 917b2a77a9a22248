package masterdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind names one of the registries.
type Kind string

const (
	KindCompanies Kind = "companies"
	KindCustomers Kind = "customers"
	KindProducers Kind = "producers"
	KindProducts  Kind = "products"
)

// Kinds lists every registry in display order.
var Kinds = []Kind{KindCompanies, KindCustomers, KindProducers, KindProducts}

// ParseKind resolves a registry name from a URL segment.
func ParseKind(raw string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}

// ListFilters represents registry list filters.
type ListFilters struct {
	Search string
	Limit  int
}

// Record is one registry entry. Parties (companies, customers, producers)
// use the contact fields; products use Unit and UnitPrice.
type Record struct {
	ID        string           `json:"id"`
	Kind      Kind             `json:"kind"`
	Name      string           `json:"name"`
	Document  string           `json:"document,omitempty"`
	Email     string           `json:"email,omitempty"`
	Phone     string           `json:"phone,omitempty"`
	City      string           `json:"city,omitempty"`
	State     string           `json:"state,omitempty"`
	Unit      string           `json:"unit,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// PartyInput is the payload for companies, customers and producers.
type PartyInput struct {
	Name     string `json:"name" validate:"required,max=160"`
	Document string `json:"document" validate:"omitempty,taxid"`
	Email    string `json:"email" validate:"omitempty,email,max=160"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	City     string `json:"city" validate:"omitempty,max=80"`
	State    string `json:"state" validate:"omitempty,len=2,alpha"`
}

// ProductInput is the payload for products.
type ProductInput struct {
	Name      string           `json:"name" validate:"required,max=160"`
	Unit      string           `json:"unit" validate:"required,max=8"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}
