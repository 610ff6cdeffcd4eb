package cli

import (
	"github.com/andy/apothecary/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "apothecary",
	Short: "Pharmacy order fulfillment and invoicing",
	Long: `Apothecary tracks medicine stock, customer orders, and invoices.

By default, running apothecary without arguments launches the interactive TUI.
Use subcommands for CLI operations, or "apothecary serve" for the HTTP API.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior: launch TUI
		launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	// Add all subcommands
	rootCmd.AddCommand(medicinesCmd)
	rootCmd.AddCommand(customersCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tuiCmd)
}
