package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// TrailingDays is the length of the dashboard revenue series.
const TrailingDays = 7

const isoDay = "2006-01-02"

// MonthSummary is the month-to-date revenue card.
type MonthSummary struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// SeriesPoint is one day of the trailing revenue series.
type SeriesPoint struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// StatusCount is one slice of the status distribution. Loaded is false when
// the bucket could not be fetched, so a zero count is not mistaken for data.
type StatusCount struct {
	Status romaneio.Status `json:"status"`
	Count  int             `json:"count"`
	Loaded bool            `json:"loaded"`
}

func day(t time.Time) string {
	return shared.DateOf(t, t.Location()).Format(isoDay)
}

// RevenueOn sums totals of non-canceled invoices whose metric date is the
// calendar day of on.
func RevenueOn(invoices []romaneio.Invoice, on time.Time) decimal.Decimal {
	target := day(on)
	total := decimal.Zero
	for _, inv := range invoices {
		if inv.Status == romaneio.StatusCanceled || inv.MetricDate() != target {
			continue
		}
		total = shared.AddMoney(total, romaneio.ComputeTotal(inv))
	}
	return total
}

// MonthToDate totals non-canceled invoices whose primary date falls in the
// year-month of now.
func MonthToDate(invoices []romaneio.Invoice, now time.Time) MonthSummary {
	month := day(now)[:7]
	summary := MonthSummary{Month: month, Total: decimal.Zero}
	for _, inv := range invoices {
		primary := inv.PrimaryDate()
		if inv.Status == romaneio.StatusCanceled || len(primary) < 7 || primary[:7] != month {
			continue
		}
		summary.Total = shared.AddMoney(summary.Total, romaneio.ComputeTotal(inv))
		summary.Count++
	}
	return summary
}

// TrailingSeries returns exactly days points ending today, oldest first.
// Days without revenue are zero.
func TrailingSeries(invoices []romaneio.Invoice, now time.Time, days int) []SeriesPoint {
	if days <= 0 {
		days = TrailingDays
	}
	today := shared.DateOf(now, now.Location())
	points := make([]SeriesPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, i-days+1).Format(isoDay)
		points[i] = SeriesPoint{Date: d, Total: decimal.Zero}
		index[d] = i
	}
	for _, inv := range invoices {
		if inv.Status == romaneio.StatusCanceled {
			continue
		}
		i, ok := index[inv.PrimaryDate()]
		if !ok {
			continue
		}
		points[i].Total = shared.AddMoney(points[i].Total, romaneio.ComputeTotal(inv))
	}
	return points
}

// StatusDistribution counts each status bucket. Buckets come from separate
// per-status fetches; a missing key means the fetch failed.
func StatusDistribution(buckets map[romaneio.Status][]romaneio.Invoice) []StatusCount {
	out := make([]StatusCount, 0, len(romaneio.Statuses))
	for _, status := range romaneio.Statuses {
		invoices, ok := buckets[status]
		out = append(out, StatusCount{Status: status, Count: len(invoices), Loaded: ok})
	}
	return out
}

// PercentDelta is (today - yesterday) / yesterday * 100, or nil when
// yesterday is not positive.
func PercentDelta(today, yesterday decimal.Decimal) *float64 {
	if yesterday.Sign() <= 0 {
		return nil
	}
	pct, _ := today.Sub(yesterday).Div(yesterday).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return &pct
}
