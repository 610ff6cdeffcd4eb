package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andy/apothecary/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")

	// ErrInsufficientQuantity is returned when a reservation exceeds the quantity on hand
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// MedicineRepository manages the medicine catalog
type MedicineRepository interface {
	Create(ctx context.Context, medicine *domain.Medicine) error
	GetByID(ctx context.Context, id int64) (*domain.Medicine, error)
	List(ctx context.Context) ([]*domain.Medicine, error)
	Update(ctx context.Context, medicine *domain.Medicine) error
}

// CustomerRepository manages customer persistence
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]*domain.Customer, error)
}

// UserRepository manages staff users
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// StockRepository is the stock ledger. Reserve and Release change quantity
// with a single guarded statement so the non-negative invariant holds without
// a read-modify-write race.
type StockRepository interface {
	Create(ctx context.Context, stock *domain.Stock) error
	GetByMedicineID(ctx context.Context, medicineID int64) (*domain.Stock, error)
	List(ctx context.Context) ([]*domain.Stock, error)
	Update(ctx context.Context, stock *domain.Stock) error
	Reserve(ctx context.Context, medicineID int64, quantity int, actorID *int64) (*domain.Stock, error)
	Release(ctx context.Context, medicineID int64, quantity int) (*domain.Stock, error)
	RecordMovement(ctx context.Context, movement *domain.StockMovement) error
	ListMovements(ctx context.Context, medicineID int64) ([]*domain.StockMovement, error)
}

// OrderFilter narrows order listings
type OrderFilter struct {
	CustomerID *int64
	Status     *domain.OrderStatus
}

// OrderRepository manages orders and their line items
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	AddItem(ctx context.Context, orderID int64, item *domain.OrderMedicine) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id int64) error
	GetItems(ctx context.Context, orderID int64) ([]*domain.OrderMedicine, error)
}

// InvoiceRepository manages invoice persistence
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Invoice, error)
	GetDetails(ctx context.Context, id int64) (*domain.InvoiceDetails, error)
	List(ctx context.Context, status *domain.InvoiceStatus) ([]*domain.Invoice, error)
	Update(ctx context.Context, invoice *domain.Invoice) error
	Delete(ctx context.Context, id int64) error

	// MarkOverdue moves sent invoices due before now to overdue and returns the count
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)

	// ListOverdue returns sent or draft invoices due before now
	ListOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error)
}
