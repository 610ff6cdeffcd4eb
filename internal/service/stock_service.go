package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
)

// ReceiveStockInput creates the stock row for a medicine
type ReceiveStockInput struct {
	MedicineID  int64
	Quantity    int
	BatchNumber string
	ExpiryDate  *time.Time
	AdminID     *int64
}

// StockAdjustment overwrites stock bookkeeping. Nil fields are left unchanged.
type StockAdjustment struct {
	Quantity    *int
	BatchNumber *string
	ExpiryDate  *time.Time
	AdminID     *int64
}

// StockService is the stock ledger. Quantity never goes below zero.
type StockService interface {
	// Reserve takes quantity units of a medicine off the shelf
	Reserve(ctx context.Context, medicineID int64, quantity int, actorID *int64) (*domain.Stock, error)

	// Release puts quantity units back. There is no upper bound.
	Release(ctx context.Context, medicineID int64, quantity int) (*domain.Stock, error)

	Lookup(ctx context.Context, medicineID int64) (*domain.Stock, error)
	List(ctx context.Context) ([]*domain.Stock, error)

	// Receive creates the stock row for a medicine that has none yet
	Receive(ctx context.Context, in ReceiveStockInput) (*domain.Stock, error)

	// Adjust sets quantity, batch or expiry of an existing stock row
	Adjust(ctx context.Context, medicineID int64, adj StockAdjustment) (*domain.Stock, error)

	Movements(ctx context.Context, medicineID int64) ([]*domain.StockMovement, error)
}

type stockService struct {
	store  repository.UnitOfWork
	logger *zap.Logger
	now    func() time.Time
}

// NewStockService creates a new stock service
func NewStockService(store repository.UnitOfWork, logger *zap.Logger) StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stockService{
		store:  store,
		logger: logger.Named("stock"),
		now:    time.Now,
	}
}

func (s *stockService) Reserve(ctx context.Context, medicineID int64, quantity int, actorID *int64) (*domain.Stock, error) {
	if quantity <= 0 {
		return nil, invalid(fmt.Errorf("quantity must be greater than 0, got %d", quantity))
	}

	var stock *domain.Stock
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		stock, err = reserveStock(ctx, r, medicineID, quantity, actorID, nil, s.now())
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return stock, nil
}

func (s *stockService) Release(ctx context.Context, medicineID int64, quantity int) (*domain.Stock, error) {
	if quantity <= 0 {
		return nil, invalid(fmt.Errorf("quantity must be greater than 0, got %d", quantity))
	}

	var stock *domain.Stock
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		stock, err = releaseStock(ctx, r, medicineID, quantity, nil, s.now())
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return stock, nil
}

func (s *stockService) Lookup(ctx context.Context, medicineID int64) (*domain.Stock, error) {
	stock, err := s.store.Repos().Stock.GetByMedicineID(ctx, medicineID)
	if err != nil {
		return nil, notFound(err, ErrStockNotFound, medicineID)
	}
	return stock, nil
}

func (s *stockService) List(ctx context.Context) ([]*domain.Stock, error) {
	return s.store.Repos().Stock.List(ctx)
}

func (s *stockService) Receive(ctx context.Context, in ReceiveStockInput) (*domain.Stock, error) {
	stock := domain.NewStock(in.MedicineID, in.Quantity, in.BatchNumber)
	stock.ExpiryDate = in.ExpiryDate
	stock.AdminID = in.AdminID
	if err := stock.Validate(); err != nil {
		return nil, invalid(err)
	}

	err := s.store.Within(ctx, func(r *repository.Repos) error {
		if _, err := r.Medicines.GetByID(ctx, in.MedicineID); err != nil {
			return notFound(err, ErrMedicineNotFound, in.MedicineID)
		}

		if in.AdminID != nil {
			if _, err := r.Users.GetByID(ctx, *in.AdminID); err != nil {
				return notFound(err, ErrUserNotFound, *in.AdminID)
			}
		}

		_, err := r.Stock.GetByMedicineID(ctx, in.MedicineID)
		if err == nil {
			return fmt.Errorf("%w: medicine %d", ErrStockExists, in.MedicineID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := r.Stock.Create(ctx, stock); err != nil {
			return err
		}

		movement := domain.NewStockMovement(in.MedicineID, in.Quantity, in.Quantity, domain.MovementReceive)
		movement.ActorID = in.AdminID
		movement.CreatedAt = s.now()
		return r.Stock.RecordMovement(ctx, movement)
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("stock received",
		zap.Int64("medicine_id", in.MedicineID),
		zap.Int("quantity", in.Quantity),
	)
	return s.Lookup(ctx, in.MedicineID)
}

func (s *stockService) Adjust(ctx context.Context, medicineID int64, adj StockAdjustment) (*domain.Stock, error) {
	var stock *domain.Stock
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		stock, err = r.Stock.GetByMedicineID(ctx, medicineID)
		if err != nil {
			return notFound(err, ErrStockNotFound, medicineID)
		}

		if adj.AdminID != nil {
			if _, err := r.Users.GetByID(ctx, *adj.AdminID); err != nil {
				return notFound(err, ErrUserNotFound, *adj.AdminID)
			}
			stock.AdminID = adj.AdminID
		}

		before := stock.Quantity
		if adj.Quantity != nil {
			stock.Quantity = *adj.Quantity
		}
		if adj.BatchNumber != nil {
			stock.BatchNumber = *adj.BatchNumber
		}
		if adj.ExpiryDate != nil {
			stock.ExpiryDate = adj.ExpiryDate
		}

		if err := stock.Validate(); err != nil {
			return invalid(err)
		}
		if err := r.Stock.Update(ctx, stock); err != nil {
			return err
		}

		if change := stock.Quantity - before; change != 0 {
			movement := domain.NewStockMovement(medicineID, change, stock.Quantity, domain.MovementAdjust)
			movement.ActorID = adj.AdminID
			movement.CreatedAt = s.now()
			return r.Stock.RecordMovement(ctx, movement)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("stock adjusted",
		zap.Int64("medicine_id", medicineID),
		zap.Int("quantity", stock.Quantity),
	)
	return stock, nil
}

func (s *stockService) Movements(ctx context.Context, medicineID int64) ([]*domain.StockMovement, error) {
	return s.store.Repos().Stock.ListMovements(ctx, medicineID)
}

// reserveStock decrements stock inside an open unit of work and records the
// movement. Ledger failures are translated to service errors.
func reserveStock(
	ctx context.Context,
	r *repository.Repos,
	medicineID int64,
	quantity int,
	actorID, orderID *int64,
	now time.Time,
) (*domain.Stock, error) {
	stock, err := r.Stock.Reserve(ctx, medicineID, quantity, actorID)
	switch {
	case errors.Is(err, repository.ErrInsufficientQuantity):
		return nil, &InsufficientStockError{
			MedicineID:   medicineID,
			MedicineName: stock.Medicine.Name,
			Requested:    quantity,
			Available:    stock.Quantity,
		}
	case err != nil:
		return nil, missingStock(err, medicineID)
	}

	movement := domain.NewStockMovement(medicineID, -quantity, stock.Quantity, domain.MovementReserve)
	movement.OrderID = orderID
	movement.ActorID = actorID
	movement.CreatedAt = now
	if err := r.Stock.RecordMovement(ctx, movement); err != nil {
		return nil, err
	}

	return stock, nil
}

// releaseStock returns stock inside an open unit of work and records the movement
func releaseStock(
	ctx context.Context,
	r *repository.Repos,
	medicineID int64,
	quantity int,
	orderID *int64,
	now time.Time,
) (*domain.Stock, error) {
	stock, err := r.Stock.Release(ctx, medicineID, quantity)
	if err != nil {
		return nil, missingStock(err, medicineID)
	}

	movement := domain.NewStockMovement(medicineID, quantity, stock.Quantity, domain.MovementRelease)
	movement.OrderID = orderID
	movement.CreatedAt = now
	if err := r.Stock.RecordMovement(ctx, movement); err != nil {
		return nil, err
	}

	return stock, nil
}
