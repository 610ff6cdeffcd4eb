package domain

import (
	"errors"
	"time"
)

// Stock is the on-hand quantity for exactly one medicine
type Stock struct {
	ID          int64      `json:"id"`
	MedicineID  int64      `json:"medicine_id"`
	Quantity    int        `json:"quantity"`
	BatchNumber string     `json:"batch_number"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	AdminID     *int64     `json:"admin_id,omitempty"`
	LastUpdated time.Time  `json:"last_updated"`
	CreatedAt   time.Time  `json:"created_at"`

	// Related data (populated by repository)
	Medicine *Medicine `json:"medicine,omitempty"`
}

// NewStock creates a stock row for a medicine
func NewStock(medicineID int64, quantity int, batchNumber string) *Stock {
	now := time.Now()
	return &Stock{
		MedicineID:  medicineID,
		Quantity:    quantity,
		BatchNumber: batchNumber,
		LastUpdated: now,
		CreatedAt:   now,
	}
}

// CanReserve reports whether quantity units are on hand
func (s *Stock) CanReserve(quantity int) bool {
	return quantity > 0 && quantity <= s.Quantity
}

// IsExpired returns true if the batch expired before t
func (s *Stock) IsExpired(t time.Time) bool {
	return s.ExpiryDate != nil && s.ExpiryDate.Before(t)
}

// Validate returns an error if the stock row is invalid
func (s *Stock) Validate() error {
	if s.MedicineID <= 0 {
		return errors.New("medicine ID is required")
	}
	if s.Quantity < 0 {
		return errors.New("stock quantity cannot be negative")
	}
	return nil
}
