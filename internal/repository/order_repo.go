package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/domain"
)

// OrderRepo is a SQLite implementation of OrderRepository
type OrderRepo struct {
	q db.Querier
}

// NewOrderRepo creates a new OrderRepo
func NewOrderRepo(q db.Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create inserts the order header. Line items are added separately with AddItem.
func (r *OrderRepo) Create(ctx context.Context, order *domain.Order) error {
	if order.CustomerID <= 0 {
		return errors.New("invalid order: customer ID is required")
	}
	if !order.Status.Valid() {
		return fmt.Errorf("invalid order: unknown status %q", order.Status)
	}

	query := `
		INSERT INTO orders (customer_id, total_amount, order_date, status)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		order.CustomerID,
		order.TotalAmount.String(),
		formatTime(order.OrderDate),
		string(order.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order ID: %w", err)
	}

	order.ID = id
	for _, item := range order.Items {
		item.OrderID = id
	}
	return nil
}

// AddItem inserts a line item for an existing order
func (r *OrderRepo) AddItem(ctx context.Context, orderID int64, item *domain.OrderMedicine) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid order item: %w", err)
	}

	query := `
		INSERT INTO order_medicines (order_id, medicine_id, quantity, unit_price)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		orderID,
		item.MedicineID,
		item.Quantity,
		item.UnitPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to add order item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order item ID: %w", err)
	}

	item.ID = id
	item.OrderID = orderID
	return nil
}

// GetByID retrieves an order with its line items
func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, total_amount, order_date, status
		FROM orders
		WHERE id = ?
	`

	order, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// List retrieves orders matching the filter, newest first. Line items are not loaded.
func (r *OrderRepo) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error) {
	var where []string
	var args []interface{}

	if filter.CustomerID != nil {
		where = append(where, "customer_id = ?")
		args = append(args, *filter.CustomerID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := `SELECT id, customer_id, total_amount, order_date, status FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY order_date DESC, id DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// Update saves customer, total and status of an order
func (r *OrderRepo) Update(ctx context.Context, order *domain.Order) error {
	if order.CustomerID <= 0 {
		return errors.New("invalid order: customer ID is required")
	}
	if !order.Status.Valid() {
		return fmt.Errorf("invalid order: unknown status %q", order.Status)
	}

	query := `
		UPDATE orders
		SET customer_id = ?, total_amount = ?, status = ?
		WHERE id = ?
	`

	result, err := r.q.ExecContext(ctx, query,
		order.CustomerID,
		order.TotalAmount.String(),
		string(order.Status),
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("order %d: %w", order.ID, ErrNotFound)
	}

	return nil
}

// Delete removes an order and its line items
func (r *OrderRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM order_medicines WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	result, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}

	return nil
}

// GetItems retrieves the line items of an order
func (r *OrderRepo) GetItems(ctx context.Context, orderID int64) ([]*domain.OrderMedicine, error) {
	query := `
		SELECT id, order_id, medicine_id, quantity, unit_price
		FROM order_medicines
		WHERE order_id = ?
		ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.OrderMedicine, 0)
	for rows.Next() {
		item := &domain.OrderMedicine{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.MedicineID,
			&item.Quantity,
			&item.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var orderDate, status string

	err := s.Scan(
		&order.ID,
		&order.CustomerID,
		&order.TotalAmount,
		&orderDate,
		&status,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	if order.OrderDate, err = parseTime(orderDate); err != nil {
		return nil, fmt.Errorf("failed to parse order_date: %w", err)
	}

	return order, nil
}
