package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
	Status      OrderStatus     `json:"status"`

	Items []*OrderMedicine `json:"order_medicines"`
}

// OrderMedicine is one line item. UnitPrice is the catalog price captured when
// the order was placed and is never refreshed afterwards.
type OrderMedicine struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	MedicineID int64           `json:"medicine_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// NewOrder creates a new pending order for a customer
func NewOrder(customerID int64) *Order {
	return &Order{
		CustomerID:  customerID,
		TotalAmount: decimal.Zero,
		OrderDate:   time.Now(),
		Status:      OrderStatusPending,
		Items:       make([]*OrderMedicine, 0),
	}
}

// AddItem appends a line item and recalculates the total
func (o *Order) AddItem(medicineID int64, quantity int, unitPrice decimal.Decimal) *OrderMedicine {
	item := &OrderMedicine{
		OrderID:    o.ID,
		MedicineID: medicineID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
	}
	o.Items = append(o.Items, item)
	o.CalculateTotal()
	return item
}

// CalculateTotal recalculates the order total from its line items
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	o.TotalAmount = total
}

// HasInvoiceableStatus returns true if an invoice may still be issued for the order
func (o *Order) HasInvoiceableStatus() bool {
	return o.Status != OrderStatusCancelled
}

// Validate returns an error if the order is invalid
func (o *Order) Validate() error {
	if o.CustomerID <= 0 {
		return errors.New("customer ID is required")
	}
	if !o.Status.Valid() {
		return fmt.Errorf("unknown order status %q", o.Status)
	}
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one medicine")
	}
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LineTotal returns quantity × unit price
func (i *OrderMedicine) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *OrderMedicine) Validate() error {
	if i.MedicineID <= 0 {
		return errors.New("medicine ID is required")
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("quantity for medicine %d must be greater than 0", i.MedicineID)
	}
	if !i.UnitPrice.IsPositive() {
		return fmt.Errorf("unit price for medicine %d must be greater than 0", i.MedicineID)
	}
	return nil
}
