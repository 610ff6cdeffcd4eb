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

// StockRepo is a SQLite implementation of StockRepository
type StockRepo struct {
	q db.Querier
}

// NewStockRepo creates a new StockRepo
func NewStockRepo(q db.Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `
	s.id, s.medicine_id, s.quantity, s.batch_number, s.expiry_date,
	s.admin_id, s.last_updated, s.created_at,
	m.id, m.name, m.price, m.created_at
`

// Create inserts the stock row for a medicine
func (r *StockRepo) Create(ctx context.Context, stock *domain.Stock) error {
	if err := stock.Validate(); err != nil {
		return fmt.Errorf("invalid stock: %w", err)
	}

	query := `
		INSERT INTO stocks (
			medicine_id, quantity, batch_number, expiry_date,
			admin_id, last_updated, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		stock.MedicineID,
		stock.Quantity,
		stock.BatchNumber,
		nullableTime(stock.ExpiryDate),
		nullableInt64(stock.AdminID),
		formatTime(stock.LastUpdated),
		formatTime(stock.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create stock: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get stock ID: %w", err)
	}

	stock.ID = id
	return nil
}

// GetByMedicineID retrieves the stock row of a medicine, with the medicine attached
func (r *StockRepo) GetByMedicineID(ctx context.Context, medicineID int64) (*domain.Stock, error) {
	query := `SELECT ` + stockColumns + `
		FROM stocks s
		JOIN medicines m ON m.id = s.medicine_id
		WHERE s.medicine_id = ?
	`

	stock, err := scanStock(r.q.QueryRowContext(ctx, query, medicineID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stock for medicine %d: %w", medicineID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

// List retrieves all stock rows ordered by medicine name
func (r *StockRepo) List(ctx context.Context) ([]*domain.Stock, error) {
	query := `SELECT ` + stockColumns + `
		FROM stocks s
		JOIN medicines m ON m.id = s.medicine_id
		ORDER BY m.name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	defer rows.Close()

	stocks := make([]*domain.Stock, 0)
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock: %w", err)
	}

	return stocks, nil
}

// Update overwrites quantity, batch, expiry and admin of a stock row
func (r *StockRepo) Update(ctx context.Context, stock *domain.Stock) error {
	if err := stock.Validate(); err != nil {
		return fmt.Errorf("invalid stock: %w", err)
	}

	stock.LastUpdated = time.Now()

	query := `
		UPDATE stocks
		SET quantity = ?, batch_number = ?, expiry_date = ?, admin_id = ?, last_updated = ?
		WHERE medicine_id = ?
	`

	result, err := r.q.ExecContext(ctx, query,
		stock.Quantity,
		stock.BatchNumber,
		nullableTime(stock.ExpiryDate),
		nullableInt64(stock.AdminID),
		formatTime(stock.LastUpdated),
		stock.MedicineID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("stock for medicine %d: %w", stock.MedicineID, ErrNotFound)
	}

	return nil
}

// Reserve decrements the quantity of a medicine by quantity. The check and the
// decrement are one statement, so two reservations can never both take the
// last units. Returns ErrInsufficientQuantity (wrapped, with the current row)
// when not enough is on hand and ErrNotFound when no stock row exists.
func (r *StockRepo) Reserve(ctx context.Context, medicineID int64, quantity int, actorID *int64) (*domain.Stock, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}

	query := `
		UPDATE stocks
		SET quantity = quantity - ?, admin_id = COALESCE(?, admin_id), last_updated = ?
		WHERE medicine_id = ? AND quantity >= ?
	`

	result, err := r.q.ExecContext(ctx, query,
		quantity,
		nullableInt64(actorID),
		formatTime(time.Now()),
		medicineID,
		quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	stock, err := r.GetByMedicineID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return stock, fmt.Errorf("medicine %d has %d, requested %d: %w",
			medicineID, stock.Quantity, quantity, ErrInsufficientQuantity)
	}

	return stock, nil
}

// Release adds quantity back to a medicine's stock. There is no upper bound.
func (r *StockRepo) Release(ctx context.Context, medicineID int64, quantity int) (*domain.Stock, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("release quantity must be positive, got %d", quantity)
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE stocks SET quantity = quantity + ?, last_updated = ? WHERE medicine_id = ?`,
		quantity, formatTime(time.Now()), medicineID)
	if err != nil {
		return nil, fmt.Errorf("failed to release stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("stock for medicine %d: %w", medicineID, ErrNotFound)
	}

	return r.GetByMedicineID(ctx, medicineID)
}

// RecordMovement appends a stock audit record
func (r *StockRepo) RecordMovement(ctx context.Context, movement *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (
			medicine_id, order_id, change, quantity_after, reason, actor_id, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		movement.MedicineID,
		nullableInt64(movement.OrderID),
		movement.Change,
		movement.QuantityAfter,
		string(movement.Reason),
		nullableInt64(movement.ActorID),
		formatTime(movement.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get stock movement ID: %w", err)
	}

	movement.ID = id
	return nil
}

// ListMovements returns the audit trail of a medicine, oldest first
func (r *StockRepo) ListMovements(ctx context.Context, medicineID int64) ([]*domain.StockMovement, error) {
	query := `
		SELECT id, medicine_id, order_id, change, quantity_after, reason, actor_id, created_at
		FROM stock_movements
		WHERE medicine_id = ?
		ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query, medicineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]*domain.StockMovement, 0)
	for rows.Next() {
		m := &domain.StockMovement{}
		var orderID, actorID sql.NullInt64
		var reason, createdAt string

		err := rows.Scan(
			&m.ID,
			&m.MedicineID,
			&orderID,
			&m.Change,
			&m.QuantityAfter,
			&reason,
			&actorID,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}

		m.OrderID = scanNullableInt64(orderID)
		m.ActorID = scanNullableInt64(actorID)
		m.Reason = domain.MovementReason(reason)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock movements: %w", err)
	}

	return movements, nil
}

func scanStock(s rowScanner) (*domain.Stock, error) {
	stock := &domain.Stock{}
	medicine := &domain.Medicine{}
	var expiryDate sql.NullString
	var adminID sql.NullInt64
	var lastUpdated, createdAt, medicineCreatedAt string

	err := s.Scan(
		&stock.ID,
		&stock.MedicineID,
		&stock.Quantity,
		&stock.BatchNumber,
		&expiryDate,
		&adminID,
		&lastUpdated,
		&createdAt,
		&medicine.ID,
		&medicine.Name,
		&medicine.Price,
		&medicineCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if stock.ExpiryDate, err = scanNullableTime(expiryDate, "expiry_date"); err != nil {
		return nil, err
	}
	stock.AdminID = scanNullableInt64(adminID)

	if stock.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return nil, fmt.Errorf("failed to parse last_updated: %w", err)
	}
	if stock.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if medicine.CreatedAt, err = parseTime(medicineCreatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse medicine created_at: %w", err)
	}

	stock.Medicine = medicine
	return stock, nil
}
