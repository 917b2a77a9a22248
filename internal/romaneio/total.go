package romaneio

import (
	"github.com/shopspring/decimal"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

// ProductsTotal sums quantity x unit value over the product lines.
func ProductsTotal(inv Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, p := range inv.Products {
		total = shared.AddMoney(total, p.Amount())
	}
	return total
}

// ExpensesTotal sums the expense lines.
func ExpensesTotal(inv Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, e := range inv.Expenses {
		total = shared.AddMoney(total, e.Amount())
	}
	return total
}

// ComputeTotal derives the invoice total from its line items. Sales add
// expenses to products, purchases subtract them. The stored aggregate is only
// consulted when the invoice carries no line items at all. The result may be
// negative for purchases whose expenses exceed the products.
func ComputeTotal(inv Invoice) decimal.Decimal {
	if !inv.HasLineItems() {
		if inv.StoredTotal != nil {
			return shared.Round2(*inv.StoredTotal)
		}
		return decimal.Zero
	}
	products := ProductsTotal(inv)
	expenses := ExpensesTotal(inv)
	if inv.Kind == KindPurchase {
		return shared.SubMoney(products, expenses)
	}
	return shared.AddMoney(products, expenses)
}

// View pairs inv with its computed total.
func View(inv Invoice) InvoiceView {
	return InvoiceView{Invoice: inv, Total: ComputeTotal(inv)}
}
