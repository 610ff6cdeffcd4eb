package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions lists the legal targets for each status. Paid and
// cancelled are terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// Valid reports whether s is a known invoice status
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        InvoiceStatus   `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	Terms         string          `json:"terms,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	IssuedDate    time.Time       `json:"issued_date"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceDetails is the invoice joined with its order, customer and line items,
// shaped for printing.
type InvoiceDetails struct {
	Invoice

	CustomerName    string               `json:"customer_name"`
	CustomerEmail   string               `json:"customer_email"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerAddress string               `json:"customer_address"`
	OrderDate       time.Time            `json:"order_date"`
	Lines           []*InvoiceDetailLine `json:"order_medicines"`
}

type InvoiceDetailLine struct {
	MedicineName string          `json:"medicine_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// NewInvoice creates an invoice for an order. Invoices start out as sent:
// the draft state exists but nothing in the creation path produces it.
func NewInvoice(invoiceNumber string, orderID, userID int64, amount, tax, discount decimal.Decimal, issued time.Time) *Invoice {
	inv := &Invoice{
		InvoiceNumber: invoiceNumber,
		OrderID:       orderID,
		UserID:        userID,
		Amount:        amount,
		Tax:           tax,
		Discount:      discount,
		Status:        InvoiceStatusSent,
		IssuedDate:    issued,
		CreatedAt:     issued,
		UpdatedAt:     issued,
	}
	inv.CalculateTotal()
	return inv
}

// GenerateInvoiceNumber returns "<prefix>-<year>-<8 upper hex chars>"
func GenerateInvoiceNumber(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", prefix, now.Year(), strings.ToUpper(suffix))
}

// CalculateTotal recalculates total = amount - discount + tax
func (i *Invoice) CalculateTotal() {
	i.TotalAmount = i.Amount.Sub(i.Discount).Add(i.Tax)
}

// IsPaid returns true once payment has been recorded
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOverdueAt reports whether the due date passed before t
func (i *Invoice) IsOverdueAt(t time.Time) bool {
	return i.DueDate != nil && i.DueDate.Before(t)
}

// MarkPaid records payment at t
func (i *Invoice) MarkPaid(t time.Time) {
	i.Status = InvoiceStatusPaid
	i.PaidDate = &t
	i.UpdatedAt = t
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return errors.New("invoice number is required")
	}
	if i.OrderID <= 0 {
		return errors.New("order ID is required")
	}
	if i.UserID <= 0 {
		return errors.New("user ID is required")
	}
	if !i.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if i.Tax.IsNegative() {
		return errors.New("tax cannot be negative")
	}
	if i.Discount.IsNegative() {
		return errors.New("discount cannot be negative")
	}
	if i.Discount.GreaterThan(i.Amount.Add(i.Tax)) {
		return errors.New("discount cannot exceed amount plus tax")
	}
	if !i.Status.Valid() {
		return fmt.Errorf("unknown invoice status %q", i.Status)
	}
	if i.Status == InvoiceStatusPaid && i.PaidDate == nil {
		return errors.New("paid invoice requires a paid date")
	}
	return nil
}
