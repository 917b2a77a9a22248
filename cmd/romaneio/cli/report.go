package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/romaneio-erp/romaneio/internal/analytics"
	"github.com/romaneio-erp/romaneio/internal/analytics/export"
	"github.com/romaneio-erp/romaneio/internal/financeiro"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

func newDashboardCommand() *cobra.Command {
	var (
		filter analytics.SnapshotFilter
		format string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard snapshot for a day",
		Example: `  romaneio dashboard
  romaneio dashboard --date 2024-03-10 --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unsupported format %q (json, csv)", format)
			}
			if filter.Date != "" {
				if _, err := time.Parse("2006-01-02", filter.Date); err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD: %w", filter.Date, err)
				}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rt, err := open(cmd.Context(), cfg, commandLogger(cfg))
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.services.Dashboard.Snapshot(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.OutOrStdout(), snap, format)
		},
	}
	cmd.Flags().StringVar(&filter.Date, "date", "", "reference day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&filter.CompanyID, "company", "", "restrict to one company id")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	return cmd
}

func writeSnapshot(w io.Writer, snap analytics.Snapshot, format string) error {
	if format == "csv" {
		return export.WriteSnapshotCSV(w, snap)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func newLedgerCommand() *cobra.Command {
	var romaneioID string
	cmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Print the payment ledger of one romaneio",
		Example: `  romaneio ledger --romaneio 42`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rt, err := open(cmd.Context(), cfg, commandLogger(cfg))
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, rows, err := rt.services.Financeiro.LedgerFor(cmd.Context(), romaneioID)
			if err != nil {
				return err
			}
			return printLedger(cmd.OutOrStdout(), summary, rows)
		},
	}
	cmd.Flags().StringVar(&romaneioID, "romaneio", "", "romaneio id")
	_ = cmd.MarkFlagRequired("romaneio")
	return cmd
}

func printLedger(w io.Writer, summary financeiro.InvoiceSummary, rows []financeiro.LedgerRow) error {
	fmt.Fprintf(w, "Romaneio %s  producer=%s  status=%s\n", summary.Number, summary.ProducerName, summary.Status)
	fmt.Fprintf(w, "Total %s  Paid %s  Remaining %s\n\n",
		shared.FormatMoney(summary.Total), shared.FormatMoney(summary.Paid), shared.FormatMoney(summary.Remaining))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Paid at\tAmount\tPaid up to\tRemaining after\tMethod\t")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			row.PaidAt,
			shared.FormatMoney(row.Amount),
			shared.FormatMoney(row.PaidUpTo),
			shared.FormatMoney(row.RemainingAfter),
			row.Method)
	}
	return tw.Flush()
}
