package domain

import "time"

type MovementReason string

const (
	MovementReceive MovementReason = "receive"
	MovementReserve MovementReason = "reserve"
	MovementRelease MovementReason = "release"
	MovementAdjust  MovementReason = "adjust"
)

// StockMovement is one audit record of a stock quantity change
type StockMovement struct {
	ID            int64          `json:"id"`
	MedicineID    int64          `json:"medicine_id"`
	OrderID       *int64         `json:"order_id,omitempty"`
	Change        int            `json:"change"`
	QuantityAfter int            `json:"quantity_after"`
	Reason        MovementReason `json:"reason"`
	ActorID       *int64         `json:"actor_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewStockMovement creates a movement record for a quantity change
func NewStockMovement(medicineID int64, change, quantityAfter int, reason MovementReason) *StockMovement {
	return &StockMovement{
		MedicineID:    medicineID,
		Change:        change,
		QuantityAfter: quantityAfter,
		Reason:        reason,
		CreatedAt:     time.Now(),
	}
}
