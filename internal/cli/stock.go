package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/service"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Manage medicine stock",
	Long:  `Receive, adjust, reserve, and release stock, and inspect the movement log.`,
}

var stockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stock for all medicines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		stocks, err := appInstance.StockService.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stock: %w", err)
		}

		if len(stocks) == 0 {
			fmt.Println("No stock found")
			return nil
		}

		fmt.Printf("%-5s %-30s %-8s %-15s %-12s\n", "Med", "Name", "Qty", "Batch", "Expires")
		fmt.Println("---------------------------------------------------------------------------")

		for _, s := range stocks {
			printStockRow(s)
		}
		return nil
	},
}

var stockShowCmd = &cobra.Command{
	Use:   "show [medicine_id]",
	Short: "Show stock for one medicine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "medicine")
		if err != nil {
			return err
		}

		s, err := appInstance.StockService.Lookup(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get stock: %w", err)
		}

		printStockRow(s)
		return nil
	},
}

var stockReceiveCmd = &cobra.Command{
	Use:   "receive [medicine_id] [quantity]",
	Short: "Create the stock record for a medicine",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "medicine")
		if err != nil {
			return err
		}
		var qty int
		if _, err := fmt.Sscanf(args[1], "%d", &qty); err != nil {
			return fmt.Errorf("invalid quantity: %q", args[1])
		}

		in := service.ReceiveStockInput{MedicineID: id, Quantity: qty}
		in.BatchNumber, _ = cmd.Flags().GetString("batch")
		if cmd.Flags().Changed("expires") {
			s, _ := cmd.Flags().GetString("expires")
			expiry, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid expiry date: %w", err)
			}
			in.ExpiryDate = &expiry
		}
		operator := appInstance.OperatorID()
		in.AdminID = &operator

		stock, err := appInstance.StockService.Receive(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to receive stock: %w", err)
		}

		fmt.Printf("✓ Stock received for medicine #%d: %d on hand\n", stock.MedicineID, stock.Quantity)
		return nil
	},
}

var stockAdjustCmd = &cobra.Command{
	Use:   "adjust [medicine_id]",
	Short: "Correct quantity, batch, or expiry of a stock record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "medicine")
		if err != nil {
			return err
		}

		var adj service.StockAdjustment
		if cmd.Flags().Changed("quantity") {
			qty, _ := cmd.Flags().GetInt("quantity")
			adj.Quantity = &qty
		}
		if cmd.Flags().Changed("batch") {
			batch, _ := cmd.Flags().GetString("batch")
			adj.BatchNumber = &batch
		}
		if cmd.Flags().Changed("expires") {
			s, _ := cmd.Flags().GetString("expires")
			expiry, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid expiry date: %w", err)
			}
			adj.ExpiryDate = &expiry
		}
		operator := appInstance.OperatorID()
		adj.AdminID = &operator

		stock, err := appInstance.StockService.Adjust(ctx, id, adj)
		if err != nil {
			return fmt.Errorf("failed to adjust stock: %w", err)
		}

		fmt.Printf("✓ Stock updated for medicine #%d: %d on hand\n", stock.MedicineID, stock.Quantity)
		return nil
	},
}

var stockReserveCmd = &cobra.Command{
	Use:   "reserve [medicine_id] [quantity]",
	Short: "Take units off the shelf outside of an order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "medicine")
		if err != nil {
			return err
		}
		var qty int
		if _, err := fmt.Sscanf(args[1], "%d", &qty); err != nil {
			return fmt.Errorf("invalid quantity: %q", args[1])
		}

		operator := appInstance.OperatorID()
		stock, err := appInstance.StockService.Reserve(ctx, id, qty, &operator)
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}

		fmt.Printf("✓ Reserved %d of medicine #%d, %d left\n", qty, id, stock.Quantity)
		return nil
	},
}

var stockReleaseCmd = &cobra.Command{
	Use:   "release [medicine_id] [quantity]",
	Short: "Put units back on the shelf",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "medicine")
		if err != nil {
			return err
		}
		var qty int
		if _, err := fmt.Sscanf(args[1], "%d", &qty); err != nil {
			return fmt.Errorf("invalid quantity: %q", args[1])
		}

		stock, err := appInstance.StockService.Release(ctx, id, qty)
		if err != nil {
			return fmt.Errorf("failed to release stock: %w", err)
		}

		fmt.Printf("✓ Released %d of medicine #%d, %d on hand\n", qty, id, stock.Quantity)
		return nil
	},
}

var stockMovementsCmd = &cobra.Command{
	Use:   "movements [medicine_id]",
	Short: "Show the stock movement log for a medicine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "medicine")
		if err != nil {
			return err
		}

		movements, err := appInstance.StockService.Movements(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list movements: %w", err)
		}

		if len(movements) == 0 {
			fmt.Println("No movements recorded")
			return nil
		}

		fmt.Printf("%-20s %-8s %-8s %-8s %-8s\n", "When", "Reason", "Change", "After", "Order")
		fmt.Println("------------------------------------------------------------")

		for _, mv := range movements {
			order := "-"
			if mv.OrderID != nil {
				order = fmt.Sprintf("#%d", *mv.OrderID)
			}
			fmt.Printf("%-20s %-8s %+8d %8d %-8s\n",
				mv.CreatedAt.Format("2006-01-02 15:04"),
				mv.Reason,
				mv.Change,
				mv.QuantityAfter,
				order,
			)
		}
		return nil
	},
}

func printStockRow(s *domain.Stock) {
	name := fmt.Sprintf("Medicine #%d", s.MedicineID)
	if s.Medicine != nil {
		name = s.Medicine.Name
	}
	fmt.Printf("%-5d %-30s %-8d %-15s %-12s\n",
		s.MedicineID,
		truncate(name, 30),
		s.Quantity,
		truncate(s.BatchNumber, 15),
		formatDate(s.ExpiryDate),
	)
}

func init() {
	stockCmd.AddCommand(stockListCmd)
	stockCmd.AddCommand(stockShowCmd)
	stockCmd.AddCommand(stockReceiveCmd)
	stockCmd.AddCommand(stockAdjustCmd)
	stockCmd.AddCommand(stockReserveCmd)
	stockCmd.AddCommand(stockReleaseCmd)
	stockCmd.AddCommand(stockMovementsCmd)

	stockReceiveCmd.Flags().String("batch", "", "Batch number")
	stockReceiveCmd.Flags().String("expires", "", "Expiry date (YYYY-MM-DD)")

	stockAdjustCmd.Flags().Int("quantity", 0, "New quantity on hand")
	stockAdjustCmd.Flags().String("batch", "", "New batch number")
	stockAdjustCmd.Flags().String("expires", "", "New expiry date (YYYY-MM-DD)")
}
