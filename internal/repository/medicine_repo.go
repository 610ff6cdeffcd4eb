package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/domain"
)

// MedicineRepo is a SQLite implementation of MedicineRepository
type MedicineRepo struct {
	q db.Querier
}

// NewMedicineRepo creates a new MedicineRepo
func NewMedicineRepo(q db.Querier) *MedicineRepo {
	return &MedicineRepo{q: q}
}

// Create inserts a new medicine into the catalog
func (r *MedicineRepo) Create(ctx context.Context, medicine *domain.Medicine) error {
	if err := medicine.Validate(); err != nil {
		return fmt.Errorf("invalid medicine: %w", err)
	}

	result, err := r.q.ExecContext(ctx,
		`INSERT INTO medicines (name, price, created_at) VALUES (?, ?, ?)`,
		medicine.Name,
		medicine.Price.String(),
		formatTime(medicine.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get medicine ID: %w", err)
	}

	medicine.ID = id
	return nil
}

// GetByID retrieves a medicine by ID
func (r *MedicineRepo) GetByID(ctx context.Context, id int64) (*domain.Medicine, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, name, price, created_at FROM medicines WHERE id = ?`, id)

	medicine, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("medicine %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return medicine, nil
}

// List retrieves the whole catalog ordered by name
func (r *MedicineRepo) List(ctx context.Context) ([]*domain.Medicine, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, price, created_at FROM medicines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	defer rows.Close()

	medicines := make([]*domain.Medicine, 0)
	for rows.Next() {
		medicine, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, medicine)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medicines: %w", err)
	}

	return medicines, nil
}

// Update changes name and price. Existing order lines keep their own price.
func (r *MedicineRepo) Update(ctx context.Context, medicine *domain.Medicine) error {
	if err := medicine.Validate(); err != nil {
		return fmt.Errorf("invalid medicine: %w", err)
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE medicines SET name = ?, price = ? WHERE id = ?`,
		medicine.Name, medicine.Price.String(), medicine.ID)
	if err != nil {
		return fmt.Errorf("failed to update medicine: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("medicine %d: %w", medicine.ID, ErrNotFound)
	}

	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedicine(s rowScanner) (*domain.Medicine, error) {
	medicine := &domain.Medicine{}
	var createdAt string

	if err := s.Scan(&medicine.ID, &medicine.Name, &medicine.Price, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if medicine.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return medicine, nil
}
