package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

var brt = time.FixedZone("BRT", -3*60*60)

func stored(id string, status romaneio.Status, amount string, dates ...string) romaneio.Invoice {
	total := decimal.RequireFromString(amount)
	inv := romaneio.Invoice{ID: id, Number: id, Kind: romaneio.KindSale, Status: status, StoredTotal: &total}
	if len(dates) > 0 {
		inv.SaleDate = dates[0]
	}
	if len(dates) > 1 {
		inv.CreatedDate = dates[1]
	}
	return inv
}

func money(d decimal.Decimal) string { return shared.FormatMoney(d) }

func TestRevenueOnUsesMetricDate(t *testing.T) {
	now := time.Date(2024, 3, 10, 22, 30, 0, 0, brt)
	invoices := []romaneio.Invoice{
		stored("1", romaneio.StatusDone, "100", "2024-03-01", "2024-03-10"),
		stored("2", romaneio.StatusPending, "50.25", "2024-03-10"),
		stored("3", romaneio.StatusCanceled, "999", "2024-03-10"),
		stored("4", romaneio.StatusDone, "10", "2024-03-10", "2024-03-09"),
	}
	require.Equal(t, "150.25", money(RevenueOn(invoices, now)))
	require.Equal(t, "10.00", money(RevenueOn(invoices, now.AddDate(0, 0, -1))))
}

func TestMonthToDate(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, brt)
	invoices := []romaneio.Invoice{
		stored("1", romaneio.StatusDone, "100", "2024-03-01"),
		stored("2", romaneio.StatusPending, "20", "2024-03-31"),
		stored("3", romaneio.StatusDone, "7", "2024-02-29"),
		stored("4", romaneio.StatusCanceled, "5", "2024-03-02"),
		stored("5", romaneio.StatusDone, "1"),
	}
	summary := MonthToDate(invoices, now)
	require.Equal(t, "2024-03", summary.Month)
	require.Equal(t, 2, summary.Count)
	require.Equal(t, "120.00", money(summary.Total))
}

func TestTrailingSeriesAlwaysHasSevenPoints(t *testing.T) {
	now := time.Date(2024, 3, 2, 8, 0, 0, 0, brt)
	series := TrailingSeries([]romaneio.Invoice{
		stored("1", romaneio.StatusDone, "10", "2024-03-02"),
		stored("2", romaneio.StatusDone, "5", "2024-02-25"),
		stored("3", romaneio.StatusDone, "3", "2024-02-24"),
		stored("4", romaneio.StatusCanceled, "8", "2024-03-01"),
	}, now, TrailingDays)

	require.Len(t, series, 7)
	require.Equal(t, "2024-02-25", series[0].Date)
	require.Equal(t, "2024-03-02", series[6].Date)
	require.Equal(t, "5.00", money(series[0].Total))
	require.Equal(t, "10.00", money(series[6].Total))
	for _, p := range series[1:6] {
		assert.True(t, p.Total.IsZero(), p.Date)
	}

	require.Len(t, TrailingSeries(nil, now, 0), TrailingDays)
}

func TestStatusDistributionMarksMissingBuckets(t *testing.T) {
	dist := StatusDistribution(map[romaneio.Status][]romaneio.Invoice{
		romaneio.StatusDone:    {stored("1", romaneio.StatusDone, "1"), stored("2", romaneio.StatusDone, "1")},
		romaneio.StatusPending: nil,
	})
	require.Equal(t, []StatusCount{
		{Status: romaneio.StatusDone, Count: 2, Loaded: true},
		{Status: romaneio.StatusPending, Count: 0, Loaded: true},
		{Status: romaneio.StatusCanceled, Count: 0, Loaded: false},
	}, dist)
}

func TestPercentDelta(t *testing.T) {
	require.Nil(t, PercentDelta(decimal.NewFromInt(500), decimal.Zero))
	require.Nil(t, PercentDelta(decimal.NewFromInt(500), decimal.NewFromInt(-10)))

	up := PercentDelta(decimal.NewFromInt(150), decimal.NewFromInt(100))
	require.NotNil(t, up)
	require.InDelta(t, 50.0, *up, 1e-9)

	down := PercentDelta(decimal.NewFromInt(1), decimal.NewFromInt(3))
	require.NotNil(t, down)
	require.InDelta(t, -66.67, *down, 1e-9)
}
