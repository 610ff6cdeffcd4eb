package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/domain"
)

// CustomerRepo is a SQLite implementation of CustomerRepository
type CustomerRepo struct {
	q db.Querier
}

// NewCustomerRepo creates a new CustomerRepo
func NewCustomerRepo(q db.Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Create inserts a new customer into the database
func (r *CustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	if err := customer.Validate(); err != nil {
		return fmt.Errorf("invalid customer: %w", err)
	}

	query := `
		INSERT INTO customers (name, email, phone, address)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get customer ID: %w", err)
	}

	customer.ID = id
	return nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `
		SELECT id, name, email, phone, address
		FROM customers
		WHERE id = ?
	`

	customer := &domain.Customer{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

// Exists reports whether a customer with the given ID exists
func (r *CustomerRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check customer: %w", err)
	}
	return exists, nil
}

// List retrieves all customers ordered by name
func (r *CustomerRepo) List(ctx context.Context) ([]*domain.Customer, error) {
	query := `
		SELECT id, name, email, phone, address
		FROM customers
		ORDER BY name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		customer := &domain.Customer{}
		err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.Address,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}
