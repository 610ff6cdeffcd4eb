package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Medicine struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewMedicine creates a catalog entry with the given unit price
func NewMedicine(name string, price decimal.Decimal) *Medicine {
	return &Medicine{
		Name:      strings.TrimSpace(name),
		Price:     price,
		CreatedAt: time.Now(),
	}
}

// Validate returns an error if the medicine is invalid
func (m *Medicine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("medicine name is required")
	}
	if !m.Price.IsPositive() {
		return errors.New("medicine price must be positive")
	}
	return nil
}
