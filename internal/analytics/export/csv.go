package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/romaneio-erp/romaneio/internal/aging"
	"github.com/romaneio-erp/romaneio/internal/analytics"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

// WriteSummaryCSV serialises the dashboard cards to a CSV representation.
func WriteSummaryCSV(w io.Writer, snap analytics.Snapshot) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Date", snap.Date},
		{"Company", snap.CompanyID},
		{"Revenue Today", shared.FormatMoney(snap.RevenueToday)},
		{"Revenue Yesterday", shared.FormatMoney(snap.RevenueYesterday)},
		{"Delta %", formatPercent(snap.DeltaPercent)},
		{"Month", snap.MonthToDate.Month},
		{"Month To Date", shared.FormatMoney(snap.MonthToDate.Total)},
		{"Month To Date Count", strconv.Itoa(snap.MonthToDate.Count)},
		{"Pending", strconv.Itoa(snap.Pending.Pending)},
		{"Pending Amount", shared.FormatMoney(snap.Pending.PendingAmount)},
		{"Pending Stale", strconv.Itoa(snap.Pending.Stale)},
		{"Oldest Pending Days", formatOptionalInt(snap.Pending.OldestAgeDays)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSeriesCSV emits the trailing revenue series as CSV.
func WriteSeriesCSV(w io.Writer, points []analytics.SeriesPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Date", "Revenue"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{point.Date, shared.FormatMoney(point.Total)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDistributionCSV prints status counts. Buckets that failed to load are
// written with an empty count.
func WriteDistributionCSV(w io.Writer, counts []analytics.StatusCount) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Status", "Count"}); err != nil {
		return err
	}
	for _, c := range counts {
		count := ""
		if c.Loaded {
			count = strconv.Itoa(c.Count)
		}
		if err := writer.Write([]string{string(c.Status), count}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDueSoonCSV lists romaneios inside the due-soon window.
func WriteDueSoonCSV(w io.Writer, items []aging.DueItem) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Number", "Client", "Due Date", "Days Until Due", "Overdue", "Total"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{
			item.Number,
			item.Client,
			item.DueDate,
			strconv.Itoa(item.DaysUntilDue),
			strconv.FormatBool(item.Overdue),
			shared.FormatMoney(item.Total),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSnapshotCSV writes every section separated by a blank line.
func WriteSnapshotCSV(w io.Writer, snap analytics.Snapshot) error {
	sections := []func(io.Writer) error{
		func(w io.Writer) error { return WriteSummaryCSV(w, snap) },
		func(w io.Writer) error { return WriteSeriesCSV(w, snap.Trailing) },
		func(w io.Writer) error { return WriteDistributionCSV(w, snap.Distribution) },
		func(w io.Writer) error { return WriteDueSoonCSV(w, snap.DueSoon) },
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := section(w); err != nil {
			return err
		}
	}
	return nil
}

func formatPercent(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
