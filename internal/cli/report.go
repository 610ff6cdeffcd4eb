package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show invoice and stock reports",
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Outstanding, overdue, and paid totals plus low stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sum, err := appInstance.ReportService.Summary(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}

		fmt.Printf("Outstanding: %s\n", money(sum.Outstanding))
		fmt.Printf("Overdue:     %d invoice(s)\n", sum.OverdueCount)
		fmt.Printf("Paid:        %s\n", money(sum.PaidTotal))

		if len(sum.LowStock) > 0 {
			fmt.Printf("\nLow stock (at or below %d):\n", appInstance.Config.Stock.LowThreshold)
			for _, s := range sum.LowStock {
				printStockRow(s)
			}
		}
		return nil
	},
}

var reportRevenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Paid invoice totals by month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = time.Now().Year()
		}

		byMonth, err := appInstance.ReportService.RevenueByMonth(ctx, year)
		if err != nil {
			return fmt.Errorf("failed to build revenue report: %w", err)
		}

		fmt.Printf("Revenue %d\n", year)
		fmt.Println("------------------------")

		total := decimal.Zero
		for m := time.January; m <= time.December; m++ {
			amount := byMonth[m]
			total = total.Add(amount)
			fmt.Printf("%-10s %12s\n", m.String(), money(amount))
		}
		fmt.Println("------------------------")
		fmt.Printf("%-10s %12s\n", "Total", money(total))
		return nil
	},
}

func init() {
	reportCmd.AddCommand(reportSummaryCmd)
	reportCmd.AddCommand(reportRevenueCmd)

	reportRevenueCmd.Flags().Int("year", 0, "Calendar year (defaults to current)")
}
