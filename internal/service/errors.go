package service

import (
	"errors"
	"fmt"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrOrderNotFound    = errors.New("order not found")
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrStockNotFound    = errors.New("stock not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")

	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrStockExists            = errors.New("stock already exists for medicine")
	ErrOrderAlreadyInvoiced   = errors.New("order already has an invoice")
	ErrOrderInvoiced          = errors.New("order has an invoice and cannot be deleted")
	ErrInvoiceAlreadyPaid     = errors.New("invoice is already paid")
	ErrCannotDeletePaid       = errors.New("cannot delete a paid invoice")
	ErrInvoiceImmutable       = errors.New("paid invoices cannot be modified")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrInvoiceNumberCollision = errors.New("invoice number already in use")

	// ErrConcurrencyConflict means the write lock could not be taken in time.
	// The whole operation was rolled back and may be retried.
	ErrConcurrencyConflict = errors.New("concurrent update conflict, retry the operation")
)

// InsufficientStockError reports a reservation larger than the quantity on hand.
// It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	MedicineID   int64
	MedicineName string
	Requested    int
	Available    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.MedicineName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// notFound replaces repository.ErrNotFound with the service sentinel
func notFound(err error, sentinel error, id interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", sentinel, id)
	}
	return err
}

// missingStock reports a medicine without a stock row. The ledger treats it
// as an unknown medicine, and the result also matches ErrStockNotFound.
func missingStock(err error, medicineID int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: no stock for medicine %d (%w)", ErrMedicineNotFound, medicineID, ErrStockNotFound)
	}
	return err
}

// invalid wraps a validation failure as ErrInvalidInput
func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// storageError classifies lock timeouts as ErrConcurrencyConflict
func storageError(err error) error {
	if err != nil && db.IsBusy(err) {
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}
