package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/andy/apothecary/internal/domain"
)

var medicinesCmd = &cobra.Command{
	Use:   "medicines",
	Short: "Manage the medicine catalog",
}

var medicinesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all medicines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		medicines, err := appInstance.Store.Repos().Medicines.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list medicines: %w", err)
		}

		if len(medicines) == 0 {
			fmt.Println("No medicines found")
			return nil
		}

		fmt.Printf("%-5s %-30s %-12s\n", "ID", "Name", "Price")
		fmt.Println("--------------------------------------------------")

		for _, m := range medicines {
			fmt.Printf("%-5d %-30s %-12s\n", m.ID, truncate(m.Name, 30), money(m.Price))
		}

		fmt.Printf("\nTotal: %d medicine(s)\n", len(medicines))
		return nil
	},
}

var medicinesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a medicine to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		priceStr, _ := cmd.Flags().GetString("price")
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return fmt.Errorf("invalid price: %w", err)
		}

		medicine := domain.NewMedicine(args[0], price)
		if err := medicine.Validate(); err != nil {
			return fmt.Errorf("invalid medicine: %w", err)
		}

		if err := appInstance.Store.Repos().Medicines.Create(ctx, medicine); err != nil {
			return fmt.Errorf("failed to create medicine: %w", err)
		}

		fmt.Printf("✓ Medicine created: %s (ID: %d)\n", medicine.Name, medicine.ID)
		fmt.Printf("  Price: %s\n", money(medicine.Price))
		return nil
	},
}

var medicinesPriceCmd = &cobra.Command{
	Use:   "price [id] [price]",
	Short: "Change a medicine's catalog price",
	Long: `Change a medicine's catalog price.

Existing orders keep the price captured when they were placed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "medicine")
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid price: %w", err)
		}

		repo := appInstance.Store.Repos().Medicines
		medicine, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get medicine: %w", err)
		}

		medicine.Price = price
		if err := medicine.Validate(); err != nil {
			return fmt.Errorf("invalid medicine: %w", err)
		}
		if err := repo.Update(ctx, medicine); err != nil {
			return fmt.Errorf("failed to update medicine: %w", err)
		}

		fmt.Printf("✓ %s now costs %s\n", medicine.Name, money(medicine.Price))
		return nil
	},
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Manage customers",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		customers, err := appInstance.Store.Repos().Customers.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list customers: %w", err)
		}

		if len(customers) == 0 {
			fmt.Println("No customers found")
			return nil
		}

		fmt.Printf("%-5s %-25s %-30s %-15s\n", "ID", "Name", "Email", "Phone")
		fmt.Println("----------------------------------------------------------------------------")

		for _, c := range customers {
			fmt.Printf("%-5d %-25s %-30s %-15s\n",
				c.ID,
				truncate(c.Name, 25),
				truncate(c.Email, 30),
				truncate(c.Phone, 15),
			)
		}

		fmt.Printf("\nTotal: %d customer(s)\n", len(customers))
		return nil
	},
}

var customersAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		email, _ := cmd.Flags().GetString("email")
		phone, _ := cmd.Flags().GetString("phone")
		address, _ := cmd.Flags().GetString("address")

		customer := domain.NewCustomer(args[0], email)
		customer.Phone = phone
		customer.Address = address

		if err := customer.Validate(); err != nil {
			return fmt.Errorf("invalid customer: %w", err)
		}

		if err := appInstance.Store.Repos().Customers.Create(ctx, customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}

		fmt.Printf("✓ Customer created: %s (ID: %d)\n", customer.Name, customer.ID)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage pharmacy staff",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff users",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		users, err := appInstance.Store.Repos().Users.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}

		fmt.Printf("%-5s %-20s %-30s %-6s\n", "ID", "Username", "Full Name", "Admin")
		fmt.Println("---------------------------------------------------------------")

		for _, u := range users {
			admin := ""
			if u.IsAdmin {
				admin = "yes"
			}
			fmt.Printf("%-5d %-20s %-30s %-6s\n", u.ID, truncate(u.Username, 20), truncate(u.FullName, 30), admin)
		}
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add [username]",
	Short: "Add a staff user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		fullName, _ := cmd.Flags().GetString("name")
		isAdmin, _ := cmd.Flags().GetBool("admin")

		user := &domain.User{Username: args[0], FullName: fullName, IsAdmin: isAdmin}
		if err := user.Validate(); err != nil {
			return fmt.Errorf("invalid user: %w", err)
		}

		if err := appInstance.Store.Repos().Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("✓ User created: %s (ID: %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	medicinesCmd.AddCommand(medicinesListCmd)
	medicinesCmd.AddCommand(medicinesAddCmd)
	medicinesCmd.AddCommand(medicinesPriceCmd)

	medicinesAddCmd.Flags().String("price", "", "Unit price (required)")
	medicinesAddCmd.MarkFlagRequired("price")

	customersCmd.AddCommand(customersListCmd)
	customersCmd.AddCommand(customersAddCmd)

	customersAddCmd.Flags().String("email", "", "Customer email (required)")
	customersAddCmd.MarkFlagRequired("email")
	customersAddCmd.Flags().String("phone", "", "Customer phone")
	customersAddCmd.Flags().String("address", "", "Customer address")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)

	usersAddCmd.Flags().String("name", "", "Full name")
	usersAddCmd.Flags().Bool("admin", false, "Grant stock administration")
}
