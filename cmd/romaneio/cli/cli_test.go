package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/romaneio-erp/romaneio/internal/analytics"
	"github.com/romaneio-erp/romaneio/internal/financeiro"
	"github.com/romaneio-erp/romaneio/jobs"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "dashboard", "ledger", "jobs"} {
		require.True(t, names[want], want)
	}
}

func TestDashboardRejectsBadFlagsBeforeConnecting(t *testing.T) {
	_, err := run(t, "dashboard", "--format", "xml")
	require.ErrorContains(t, err, "unsupported format")

	_, err = run(t, "dashboard", "--date", "10/03/2024")
	require.ErrorContains(t, err, "invalid --date")
}

func TestLedgerRequiresRomaneio(t *testing.T) {
	_, err := run(t, "ledger")
	require.ErrorContains(t, err, "romaneio")
}

func TestJobsTriggerRejectsUnknownTask(t *testing.T) {
	_, err := run(t, "jobs", "trigger", "report:generate")
	require.ErrorContains(t, err, "unsupported job")
}

func TestBuildTaskDashboardWarmup(t *testing.T) {
	task, err := BuildTask(jobs.TaskDashboardWarmup, TriggerOptions{Date: "2024-03-10", AllCompanies: true})
	require.NoError(t, err)
	require.Equal(t, jobs.TaskDashboardWarmup, task.Type())

	var payload jobs.DashboardWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, jobs.DashboardWarmupPayload{Date: "2024-03-10", AllCompanies: true}, payload)
}

func TestWriteSnapshotFormats(t *testing.T) {
	snap := analytics.Snapshot{Date: "2024-03-10", RevenueToday: decimal.RequireFromString("1500.5")}

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, snap, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "2024-03-10", decoded["date"])

	buf.Reset()
	require.NoError(t, writeSnapshot(&buf, snap, "csv"))
	require.Contains(t, buf.String(), "Revenue Today,1500.50")
}

func TestPrintLedger(t *testing.T) {
	summary := financeiro.InvoiceSummary{
		Number:       "R-7",
		ProducerName: "Sitio Boa Vista",
		Total:        decimal.RequireFromString("1000"),
		Paid:         decimal.RequireFromString("600"),
		Remaining:    decimal.RequireFromString("400"),
		Status:       financeiro.InvoiceOpen,
	}
	rows := []financeiro.LedgerRow{
		{
			Payment:        financeiro.Payment{PaidAt: "2024-03-01", Amount: decimal.RequireFromString("250"), Method: "pix"},
			PaidUpTo:       decimal.RequireFromString("250"),
			RemainingAfter: decimal.RequireFromString("750"),
		},
		{
			Payment:        financeiro.Payment{PaidAt: "2024-03-05", Amount: decimal.RequireFromString("350")},
			PaidUpTo:       decimal.RequireFromString("600"),
			RemainingAfter: decimal.RequireFromString("400"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printLedger(&buf, summary, rows))
	out := buf.String()
	require.Contains(t, out, "Romaneio R-7  producer=Sitio Boa Vista  status=OPEN")
	require.Contains(t, out, "Total 1000.00  Paid 600.00  Remaining 400.00")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	require.Contains(t, lines[3], "Remaining after")
	require.Contains(t, lines[4], "250.00")
	require.Contains(t, lines[4], "750.00")
	require.Contains(t, lines[5], "600.00")
}
