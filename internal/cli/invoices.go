package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/service"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Issue, list, pay, and manage invoices. Each order has at most one invoice.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var status *domain.InvoiceStatus
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			s := domain.InvoiceStatus(statusStr)
			if !s.Valid() {
				return fmt.Errorf("unknown invoice status %q", statusStr)
			}
			status = &s
		}

		invoices, err := appInstance.InvoiceService.ListInvoices(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		printInvoiceTable(invoices)
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id_or_number]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := resolveInvoiceID(ctx, args[0])
		if err != nil {
			return err
		}

		details, err := appInstance.InvoiceService.GetDetails(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Invoice: %s\n", details.InvoiceNumber)
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Customer: %s <%s>\n", details.CustomerName, details.CustomerEmail)
		if details.CustomerPhone != "" {
			fmt.Printf("Phone: %s\n", details.CustomerPhone)
		}
		if details.CustomerAddress != "" {
			fmt.Printf("Address: %s\n", details.CustomerAddress)
		}
		fmt.Printf("Order: #%d placed %s\n", details.OrderID, details.OrderDate.Format("2006-01-02"))
		fmt.Printf("Issued: %s  Due: %s  Paid: %s\n",
			details.IssuedDate.Format("2006-01-02"),
			formatDate(details.DueDate),
			formatDate(details.PaidDate),
		)
		fmt.Printf("Status: %s\n", details.Status)
		fmt.Println()

		if len(details.Lines) > 0 {
			fmt.Println("Line Items:")
			fmt.Println(strings.Repeat("-", 80))
			fmt.Printf("%-40s %-8s %-12s %s\n", "Medicine", "Qty", "Unit", "Amount")
			fmt.Println(strings.Repeat("-", 80))

			for _, line := range details.Lines {
				fmt.Printf("%-40s %-8d %-12s %s\n",
					truncate(line.MedicineName, 40),
					line.Quantity,
					money(line.UnitPrice),
					money(line.TotalPrice),
				)
			}
			fmt.Println(strings.Repeat("-", 80))
		}

		fmt.Printf("\n")
		fmt.Printf("Amount: %s\n", money(details.Amount))
		fmt.Printf("Tax: %s\n", money(details.Tax))
		fmt.Printf("Discount: %s\n", money(details.Discount))
		fmt.Printf("Total: %s\n", money(details.TotalAmount))
		if details.Terms != "" {
			fmt.Printf("\nTerms: %s\n", details.Terms)
		}
		if details.Notes != "" {
			fmt.Printf("Notes: %s\n", details.Notes)
		}
		fmt.Println(strings.Repeat("=", 80))

		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [order_id]",
	Short: "Invoice an order",
	Long: `Invoice an order. The invoice is issued as sent and the order is
marked completed. Amount defaults to the order total.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		orderID, err := parseID(args[0], "order")
		if err != nil {
			return err
		}

		in := service.CreateInvoiceInput{
			OrderID: orderID,
			UserID:  appInstance.OperatorID(),
		}
		if in.Amount, err = decimalFlag(cmd, "amount"); err != nil {
			return err
		}
		if in.Tax, err = decimalFlag(cmd, "tax"); err != nil {
			return err
		}
		if in.Discount, err = decimalFlag(cmd, "discount"); err != nil {
			return err
		}
		in.Notes, _ = cmd.Flags().GetString("notes")
		in.Terms, _ = cmd.Flags().GetString("terms")
		if cmd.Flags().Changed("due") {
			s, _ := cmd.Flags().GetString("due")
			due, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid due date: %w", err)
			}
			in.DueDate = &due
		}

		invoice, err := appInstance.InvoiceService.CreateInvoice(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		fmt.Printf("✓ Invoice created: %s\n", invoice.InvoiceNumber)
		fmt.Printf("  Total: %s\n", money(invoice.TotalAmount))
		fmt.Printf("  Due: %s\n", formatDate(invoice.DueDate))
		return nil
	},
}

var invoicesUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change tax, discount, status, notes, terms, or dates of an unpaid invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		var patch service.InvoicePatch
		if cmd.Flags().Changed("tax") {
			tax, err := decimalFlag(cmd, "tax")
			if err != nil {
				return err
			}
			patch.Tax = &tax
		}
		if cmd.Flags().Changed("discount") {
			discount, err := decimalFlag(cmd, "discount")
			if err != nil {
				return err
			}
			patch.Discount = &discount
		}
		if cmd.Flags().Changed("status") {
			s, _ := cmd.Flags().GetString("status")
			status := domain.InvoiceStatus(s)
			patch.Status = &status
		}
		if cmd.Flags().Changed("notes") {
			notes, _ := cmd.Flags().GetString("notes")
			patch.Notes = &notes
		}
		if cmd.Flags().Changed("terms") {
			terms, _ := cmd.Flags().GetString("terms")
			patch.Terms = &terms
		}
		if cmd.Flags().Changed("due") {
			s, _ := cmd.Flags().GetString("due")
			due, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid due date: %w", err)
			}
			patch.DueDate = &due
		}

		invoice, err := appInstance.InvoiceService.UpdateInvoice(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}

		fmt.Printf("✓ Invoice %s updated\n", invoice.InvoiceNumber)
		fmt.Printf("  Status: %s\n", invoice.Status)
		fmt.Printf("  Total: %s\n", money(invoice.TotalAmount))
		return nil
	},
}

var invoicesMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid [id]",
	Short: "Mark an invoice as paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.MarkPaid(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to mark invoice as paid: %w", err)
		}

		fmt.Printf("✓ Invoice %s marked as paid on %s\n", invoice.InvoiceNumber, formatDate(invoice.PaidDate))
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an unpaid invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("yes")
		if !force && !confirmPrompt(fmt.Sprintf("Delete invoice #%d?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.InvoiceService.DeleteInvoice(ctx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		fmt.Printf("✓ Invoice #%d deleted\n", id)
		return nil
	},
}

var invoicesOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Sweep and list invoices past their due date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoices, err := appInstance.InvoiceService.GetOverdue(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to get overdue invoices: %w", err)
		}

		printInvoiceTable(invoices)
		return nil
	},
}

var invoicesSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move sent invoices past their due date to overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		n, err := appInstance.InvoiceService.SweepOverdue(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to sweep invoices: %w", err)
		}

		fmt.Printf("✓ %d invoice(s) marked overdue\n", n)
		return nil
	},
}

func printInvoiceTable(invoices []*domain.Invoice) {
	if len(invoices) == 0 {
		fmt.Println("No invoices found")
		return
	}

	fmt.Printf("%-5s %-18s %-7s %-12s %-12s %-12s %-10s\n", "ID", "Number", "Order", "Issued", "Due", "Total", "Status")
	fmt.Println("------------------------------------------------------------------------------------")

	for _, invoice := range invoices {
		fmt.Printf("%-5d %-18s %-7d %-12s %-12s %-12s %-10s\n",
			invoice.ID,
			invoice.InvoiceNumber,
			invoice.OrderID,
			invoice.IssuedDate.Format("2006-01-02"),
			formatDate(invoice.DueDate),
			money(invoice.TotalAmount),
			invoice.Status,
		)
	}

	fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
}

// resolveInvoiceID accepts a numeric ID or an invoice number
func resolveInvoiceID(ctx context.Context, arg string) (int64, error) {
	if id, err := parseID(arg, "invoice"); err == nil {
		return id, nil
	}
	invoice, err := appInstance.InvoiceService.GetInvoiceByNumber(ctx, arg)
	if err != nil {
		return 0, fmt.Errorf("failed to find invoice %s: %w", arg, err)
	}
	return invoice.ID, nil
}

func decimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesUpdateCmd)
	invoicesCmd.AddCommand(invoicesMarkPaidCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)
	invoicesCmd.AddCommand(invoicesOverdueCmd)
	invoicesCmd.AddCommand(invoicesSweepCmd)

	// List flags
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, sent, paid, overdue, cancelled)")

	// Create flags
	invoicesCreateCmd.Flags().String("amount", "", "Billed amount (defaults to the order total)")
	invoicesCreateCmd.Flags().String("tax", "", "Tax amount")
	invoicesCreateCmd.Flags().String("discount", "", "Discount amount")
	invoicesCreateCmd.Flags().String("notes", "", "Notes printed on the invoice")
	invoicesCreateCmd.Flags().String("terms", "", "Payment terms")
	invoicesCreateCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")

	// Update flags
	invoicesUpdateCmd.Flags().String("tax", "", "New tax amount")
	invoicesUpdateCmd.Flags().String("discount", "", "New discount amount")
	invoicesUpdateCmd.Flags().String("status", "", "New status")
	invoicesUpdateCmd.Flags().String("notes", "", "New notes")
	invoicesUpdateCmd.Flags().String("terms", "", "New terms")
	invoicesUpdateCmd.Flags().String("due", "", "New due date (YYYY-MM-DD)")

	invoicesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
