// Package aging classifies romaneios by urgency. Two distinct measures live
// here and must not be mixed: days until a due date (negative once overdue)
// and the age of a pending romaneio counted forward from its primary date.
package aging

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

const (
	// DefaultDueSoonWindow is the look-ahead, in days, for due-soon listings.
	DefaultDueSoonWindow = 3
	// DefaultPendingAgeThreshold is the age past which a pending romaneio is stale.
	DefaultPendingAgeThreshold = 3
)

// Today is the calendar day of now in now's location.
func Today(now time.Time) time.Time {
	return shared.DateOf(now, now.Location())
}

// DaysUntilDue counts calendar days from today to the due date. Negative
// values mean overdue by that many days; false means the date is unusable.
func DaysUntilDue(due string, now time.Time) (int, bool) {
	day, ok := shared.ParseDate(due, now.Location())
	if !ok {
		return 0, false
	}
	return shared.DaysBetween(Today(now), day), true
}

// PendingAgeDays counts calendar days elapsed since ref.
func PendingAgeDays(ref string, now time.Time) (int, bool) {
	day, ok := shared.ParseDate(ref, now.Location())
	if !ok {
		return 0, false
	}
	return shared.DaysBetween(day, Today(now)), true
}

// DueItem is a pending romaneio inside the due-soon window.
type DueItem struct {
	romaneio.InvoiceView
	DaysUntilDue int  `json:"days_until_due"`
	Overdue      bool `json:"overdue"`
}

// DueSoon lists pending romaneios due within window days, overdue ones
// included, most urgent first. Ties sort by number with digit runs compared
// numerically. A non-positive window falls back to DefaultDueSoonWindow.
func DueSoon(invoices []romaneio.Invoice, now time.Time, window int) []DueItem {
	if window <= 0 {
		window = DefaultDueSoonWindow
	}
	items := make([]DueItem, 0)
	for _, inv := range invoices {
		if inv.Status != romaneio.StatusPending {
			continue
		}
		days, ok := DaysUntilDue(inv.DueDate, now)
		if !ok || days > window {
			continue
		}
		items = append(items, DueItem{
			InvoiceView:  romaneio.View(inv),
			DaysUntilDue: days,
			Overdue:      days < 0,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DaysUntilDue != items[j].DaysUntilDue {
			return items[i].DaysUntilDue < items[j].DaysUntilDue
		}
		return shared.CompareNumeric(items[i].Number, items[j].Number) < 0
	})
	return items
}

// PendingSummary aggregates the age of pending romaneios.
type PendingSummary struct {
	Pending        int             `json:"pending"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	Stale          int             `json:"stale"`
	OldestAgeDays  *int            `json:"oldest_age_days"`
	OldestID       string          `json:"oldest_id,omitempty"`
	ThresholdDays  int             `json:"threshold_days"`
	UndatedPending int             `json:"undated_pending"`
}

// SummarizePending counts pending romaneios, how many are older than
// threshold days and the age of the oldest. Age is measured from the primary
// date. A non-positive threshold falls back to DefaultPendingAgeThreshold.
func SummarizePending(invoices []romaneio.Invoice, now time.Time, threshold int) PendingSummary {
	if threshold <= 0 {
		threshold = DefaultPendingAgeThreshold
	}
	summary := PendingSummary{ThresholdDays: threshold, PendingAmount: decimal.Zero}
	for _, inv := range invoices {
		if inv.Status != romaneio.StatusPending {
			continue
		}
		summary.Pending++
		summary.PendingAmount = shared.AddMoney(summary.PendingAmount, romaneio.ComputeTotal(inv))
		age, ok := PendingAgeDays(inv.PrimaryDate(), now)
		if !ok {
			summary.UndatedPending++
			continue
		}
		if age > threshold {
			summary.Stale++
		}
		if summary.OldestAgeDays == nil || age > *summary.OldestAgeDays {
			oldest := age
			summary.OldestAgeDays = &oldest
			summary.OldestID = inv.ID
		}
	}
	return summary
}
