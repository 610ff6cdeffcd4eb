package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andy/apothecary/internal/db"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data in the database",
	Long: `Reset data in the database.

Examples:
  apothecary reset orders    # Delete all orders and invoices, keep stock levels as they are
  apothecary reset invoices  # Delete all invoices
  apothecary reset all       # Wipe everything: catalog, stock, customers, orders, invoices`,
}

var resetOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Delete all orders and invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL orders and invoices. Reserved stock is NOT returned. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		// Order matters due to foreign keys
		if err := clearTables("invoices", "order_medicines", "orders"); err != nil {
			return err
		}

		fmt.Println("All orders and invoices have been deleted.")
		return nil
	},
}

var resetInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Delete all invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL invoices. Orders stay completed. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := clearTables("invoices"); err != nil {
			return err
		}

		fmt.Println("All invoices have been deleted.")
		return nil
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL data (medicines, stock, customers, orders, invoices, users). Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := clearTables(db.Tables()...); err != nil {
			return err
		}

		fmt.Println("All data has been deleted.")
		return nil
	},
}

func clearTables(tables ...string) error {
	for _, table := range tables {
		if _, err := appInstance.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func init() {
	resetCmd.AddCommand(resetOrdersCmd)
	resetCmd.AddCommand(resetInvoicesCmd)
	resetCmd.AddCommand(resetAllCmd)
}
