package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
	"github.com/andy/apothecary/internal/service"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage customer orders",
	Long:  `Place, list, cancel, and delete orders. Placing an order reserves stock.`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var filter repository.OrderFilter
		if cmd.Flags().Changed("customer") {
			id, _ := cmd.Flags().GetInt64("customer")
			filter.CustomerID = &id
		}
		if cmd.Flags().Changed("status") {
			s, _ := cmd.Flags().GetString("status")
			status := domain.OrderStatus(s)
			if !status.Valid() {
				return fmt.Errorf("unknown order status %q", s)
			}
			filter.Status = &status
		}

		orders, err := appInstance.OrderService.ListOrders(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}

		if len(orders) == 0 {
			fmt.Println("No orders found")
			return nil
		}

		fmt.Printf("%-5s %-10s %-12s %-6s %-12s %-10s\n", "ID", "Customer", "Date", "Items", "Total", "Status")
		fmt.Println("----------------------------------------------------------------")

		for _, o := range orders {
			fmt.Printf("%-5d %-10d %-12s %-6d %-12s %-10s\n",
				o.ID,
				o.CustomerID,
				o.OrderDate.Format("2006-01-02"),
				len(o.Items),
				money(o.TotalAmount),
				o.Status,
			)
		}

		fmt.Printf("\nTotal: %d order(s)\n", len(orders))
		return nil
	},
}

var ordersShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an order and its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "order")
		if err != nil {
			return err
		}

		order, err := appInstance.OrderService.GetOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		printOrder(ctx, order)
		return nil
	},
}

var ordersCreateCmd = &cobra.Command{
	Use:   "create [customer_id]",
	Short: "Place an order, reserving stock for every item",
	Long: `Place an order, reserving stock for every item.

Items are given as medicine_id:quantity, optionally with a unit price
override as medicine_id:quantity:price. If any item cannot be reserved
nothing is saved.

Example:
  apothecary orders create 4 --item 1:2 --item 7:1:3.50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		customerID, err := parseID(args[0], "customer")
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetStringArray("item")
		items := make([]service.OrderItemInput, 0, len(raw))
		for _, s := range raw {
			item, err := parseItem(s)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		operator := appInstance.OperatorID()
		order, err := appInstance.OrderService.CreateOrder(ctx, service.CreateOrderInput{
			CustomerID: customerID,
			Items:      items,
			ActorID:    &operator,
		})
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		fmt.Printf("✓ Order created (ID: %d)\n", order.ID)
		fmt.Printf("  Items: %d\n", len(order.Items))
		fmt.Printf("  Total: %s\n", money(order.TotalAmount))
		return nil
	},
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a pending order",
	Long: `Cancel a pending order. Reserved stock is not returned; delete the
order instead to put its items back on the shelf.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "order")
		if err != nil {
			return err
		}

		status := domain.OrderStatusCancelled
		if _, err := appInstance.OrderService.UpdateOrder(ctx, id, service.OrderPatch{Status: &status}); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		fmt.Printf("✓ Order #%d cancelled\n", id)
		return nil
	},
}

var ordersDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an order and return its stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "order")
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("yes")
		if !force && !confirmPrompt(fmt.Sprintf("Delete order #%d and return its items to stock?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		order, err := appInstance.OrderService.DeleteOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}

		fmt.Printf("✓ Order #%d deleted, %d item(s) returned to stock\n", order.ID, len(order.Items))
		return nil
	},
}

func printOrder(ctx context.Context, order *domain.Order) {
	medicines := appInstance.Store.Repos().Medicines

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Order #%d\n", order.ID)
	fmt.Println(strings.Repeat("=", 70))

	customerName := fmt.Sprintf("Customer #%d", order.CustomerID)
	if c, err := appInstance.Store.Repos().Customers.GetByID(ctx, order.CustomerID); err == nil {
		customerName = c.Name
	}
	fmt.Printf("Customer: %s\n", customerName)
	fmt.Printf("Date: %s\n", order.OrderDate.Format("2006-01-02 15:04"))
	fmt.Printf("Status: %s\n", order.Status)
	fmt.Println()

	fmt.Printf("%-30s %-8s %-12s %s\n", "Medicine", "Qty", "Unit", "Line Total")
	fmt.Println(strings.Repeat("-", 70))
	for _, item := range order.Items {
		name := fmt.Sprintf("Medicine #%d", item.MedicineID)
		if m, err := medicines.GetByID(ctx, item.MedicineID); err == nil {
			name = m.Name
		}
		fmt.Printf("%-30s %-8d %-12s %s\n",
			truncate(name, 30),
			item.Quantity,
			money(item.UnitPrice),
			money(item.LineTotal()),
		)
	}
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Total: %s\n", money(order.TotalAmount))
}

func init() {
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersShowCmd)
	ordersCmd.AddCommand(ordersCreateCmd)
	ordersCmd.AddCommand(ordersCancelCmd)
	ordersCmd.AddCommand(ordersDeleteCmd)

	ordersListCmd.Flags().Int64("customer", 0, "Filter by customer ID")
	ordersListCmd.Flags().String("status", "", "Filter by status (pending, completed, cancelled)")

	ordersCreateCmd.Flags().StringArray("item", nil, "Item as medicine_id:quantity[:unit_price] (repeatable)")
	ordersCreateCmd.MarkFlagRequired("item")

	ordersDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
