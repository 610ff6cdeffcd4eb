package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	q db.Querier
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(q db.Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, invoice_number, order_id, user_id,
	amount, tax, discount, total_amount, status,
	notes, terms, due_date, issued_date, paid_date,
	created_at, updated_at
`

// Create inserts a new invoice into the database
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	query := `
		INSERT INTO invoices (
			invoice_number, order_id, user_id,
			amount, tax, discount, total_amount, status,
			notes, terms, due_date, issued_date, paid_date,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		invoice.InvoiceNumber,
		invoice.OrderID,
		invoice.UserID,
		invoice.Amount.String(),
		invoice.Tax.String(),
		invoice.Discount.String(),
		invoice.TotalAmount.String(),
		string(invoice.Status),
		nullableString(invoice.Notes),
		nullableString(invoice.Terms),
		nullableTime(invoice.DueDate),
		formatTime(invoice.IssuedDate),
		nullableTime(invoice.PaidDate),
		formatTime(invoice.CreatedAt),
		formatTime(invoice.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice ID: %w", err)
	}

	invoice.ID = id
	return nil
}

// GetByID retrieves an invoice by ID
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return r.getOne(ctx, "id = ?", id, fmt.Sprintf("invoice %d", id))
}

// GetByNumber retrieves an invoice by invoice number
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return r.getOne(ctx, "invoice_number = ?", number, fmt.Sprintf("invoice %s", number))
}

// GetByOrderID retrieves the invoice issued for an order
func (r *InvoiceRepo) GetByOrderID(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	return r.getOne(ctx, "order_id = ?", orderID, fmt.Sprintf("invoice for order %d", orderID))
}

func (r *InvoiceRepo) getOne(ctx context.Context, where string, arg interface{}, label string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + where

	invoice, err := scanInvoice(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", label, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// GetDetails retrieves an invoice joined with its order, customer and line items
func (r *InvoiceRepo) GetDetails(ctx context.Context, id int64) (*domain.InvoiceDetails, error) {
	invoice, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &domain.InvoiceDetails{Invoice: *invoice}
	var orderDate string

	query := `
		SELECT c.name, c.email, c.phone, c.address, o.order_date
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = ?
	`

	err = r.q.QueryRowContext(ctx, query, invoice.OrderID).Scan(
		&details.CustomerName,
		&details.CustomerEmail,
		&details.CustomerPhone,
		&details.CustomerAddress,
		&orderDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", invoice.OrderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice order: %w", err)
	}

	if details.OrderDate, err = parseTime(orderDate); err != nil {
		return nil, fmt.Errorf("failed to parse order_date: %w", err)
	}

	lineQuery := `
		SELECT m.name, om.quantity, om.unit_price
		FROM order_medicines om
		JOIN medicines m ON m.id = om.medicine_id
		WHERE om.order_id = ?
		ORDER BY om.id
	`

	rows, err := r.q.QueryContext(ctx, lineQuery, invoice.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice lines: %w", err)
	}
	defer rows.Close()

	details.Lines = make([]*domain.InvoiceDetailLine, 0)
	for rows.Next() {
		line := &domain.InvoiceDetailLine{}
		if err := rows.Scan(&line.MedicineName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		item := domain.OrderMedicine{Quantity: line.Quantity, UnitPrice: line.UnitPrice}
		line.TotalPrice = item.LineTotal()
		details.Lines = append(details.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice lines: %w", err)
	}

	return details, nil
}

// List retrieves invoices, optionally filtered by status, newest first
func (r *InvoiceRepo) List(ctx context.Context, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY issued_date DESC, id DESC`

	return r.list(ctx, query, args...)
}

// Update saves all mutable invoice fields
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	query := `
		UPDATE invoices
		SET amount = ?, tax = ?, discount = ?, total_amount = ?, status = ?,
		    notes = ?, terms = ?, due_date = ?, paid_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.q.ExecContext(ctx, query,
		invoice.Amount.String(),
		invoice.Tax.String(),
		invoice.Discount.String(),
		invoice.TotalAmount.String(),
		string(invoice.Status),
		nullableString(invoice.Notes),
		nullableString(invoice.Terms),
		nullableTime(invoice.DueDate),
		nullableTime(invoice.PaidDate),
		formatTime(invoice.UpdatedAt),
		invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d: %w", invoice.ID, ErrNotFound)
	}

	return nil
}

// Delete removes an invoice
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}

	return nil
}

// MarkOverdue moves every sent invoice whose due date is before now to overdue.
// Draft invoices are left alone.
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = ?, updated_at = ?
		WHERE status = ? AND due_date IS NOT NULL AND due_date < ?
	`

	result, err := r.q.ExecContext(ctx, query,
		string(domain.InvoiceStatusOverdue),
		formatTime(now),
		string(domain.InvoiceStatusSent),
		formatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// ListOverdue returns sent or draft invoices whose due date is before now,
// oldest due date first
func (r *InvoiceRepo) ListOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status IN (?, ?) AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date, id
	`

	return r.list(ctx, query,
		string(domain.InvoiceStatusSent),
		string(domain.InvoiceStatusDraft),
		formatTime(now),
	)
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Invoice, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

func scanInvoice(s rowScanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var status, issuedDate, createdAt, updatedAt string
	var notes, terms, dueDate, paidDate sql.NullString

	err := s.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.OrderID,
		&invoice.UserID,
		&invoice.Amount,
		&invoice.Tax,
		&invoice.Discount,
		&invoice.TotalAmount,
		&status,
		&notes,
		&terms,
		&dueDate,
		&issuedDate,
		&paidDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Status = domain.InvoiceStatus(status)
	invoice.Notes = notes.String
	invoice.Terms = terms.String

	if invoice.DueDate, err = scanNullableTime(dueDate, "due_date"); err != nil {
		return nil, err
	}
	if invoice.PaidDate, err = scanNullableTime(paidDate, "paid_date"); err != nil {
		return nil, err
	}
	if invoice.IssuedDate, err = parseTime(issuedDate); err != nil {
		return nil, fmt.Errorf("failed to parse issued_date: %w", err)
	}
	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return invoice, nil
}
