package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jportela/comanda/internal/config"
	"github.com/jportela/comanda/internal/orders"
)

// NewTablesCommand prints the per-table pending summary straight from the
// durable store, handy at the counter without the app in hand.
func NewTablesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Show pending orders grouped by table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closeStore, err := openOrderStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := orders.NewService(store)
			if err := svc.Reload(ctx); err != nil {
				return err
			}
			rows := tableRows(svc.Tables())

			if opts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending orders")
				return nil
			}
			for _, row := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s: %d orders, %d items, %.2f total\n",
					row.Table, row.OrderCount, row.TotalItemCount, row.TotalValue)
			}
			return nil
		},
	}
}

// tableRow is the output shape of one table summary: totals and order ids
// only, never the full order snapshots behind them.
type tableRow struct {
	Table          string   `json:"table"`
	OrderCount     int      `json:"order_count"`
	TotalItemCount int      `json:"total_item_count"`
	TotalValue     float64  `json:"total_value"`
	OrderIDs       []string `json:"order_ids"`
}

func tableRows(summaries []orders.TableSummary) []tableRow {
	rows := make([]tableRow, len(summaries))
	for n, sum := range summaries {
		ids := make([]string, len(sum.Orders))
		for i, o := range sum.Orders {
			ids[i] = o.ID
		}
		rows[n] = tableRow{
			Table:          sum.Table,
			OrderCount:     sum.OrderCount,
			TotalItemCount: sum.TotalItemCount,
			TotalValue:     sum.TotalValue,
			OrderIDs:       ids,
		}
	}
	return rows
}
