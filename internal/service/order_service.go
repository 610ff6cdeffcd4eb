package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
)

// OrderItemInput is one requested line. A nil or non-positive UnitPrice
// takes the catalog price.
type OrderItemInput struct {
	MedicineID int64            `json:"medicine_id"`
	Quantity   int              `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateOrderInput is the command for placing an order
type CreateOrderInput struct {
	CustomerID int64            `json:"customer_id"`
	Items      []OrderItemInput `json:"order_medicines"`
	ActorID    *int64           `json:"actor_id,omitempty"`
}

// OrderPatch holds the order fields a caller may change. Line items and the
// total are fixed once the order exists.
type OrderPatch struct {
	CustomerID *int64              `json:"customer_id,omitempty"`
	Status     *domain.OrderStatus `json:"status,omitempty"`
}

// OrderService places orders against the stock ledger
type OrderService interface {
	// CreateOrder reserves stock for every item and persists a pending order.
	// Either every reservation and row is committed or nothing is.
	CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error)

	// UpdateOrder applies a patch. Completed is reachable only by invoicing.
	UpdateOrder(ctx context.Context, id int64, patch OrderPatch) (*domain.Order, error)

	// DeleteOrder releases reserved stock and removes the order
	DeleteOrder(ctx context.Context, id int64) (*domain.Order, error)

	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error)
}

type orderService struct {
	store  repository.UnitOfWork
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(store repository.UnitOfWork, logger *zap.Logger) OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderService{
		store:  store,
		logger: logger.Named("orders"),
		now:    time.Now,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	order := domain.NewOrder(in.CustomerID)
	order.OrderDate = s.now()

	err := s.store.Within(ctx, func(r *repository.Repos) error {
		exists, err := r.Customers.Exists(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %d", ErrCustomerNotFound, in.CustomerID)
		}

		if in.ActorID != nil {
			if _, err := r.Users.GetByID(ctx, *in.ActorID); err != nil {
				return notFound(err, ErrUserNotFound, *in.ActorID)
			}
		}

		if err := r.Orders.Create(ctx, order); err != nil {
			return err
		}

		for _, line := range in.Items {
			medicine, err := r.Medicines.GetByID(ctx, line.MedicineID)
			if err != nil {
				return notFound(err, ErrMedicineNotFound, line.MedicineID)
			}

			// Price is copied now and never follows later catalog changes
			price := medicine.Price
			if line.UnitPrice != nil && line.UnitPrice.IsPositive() {
				price = *line.UnitPrice
			}

			if _, err := reserveStock(ctx, r, line.MedicineID, line.Quantity, in.ActorID, &order.ID, order.OrderDate); err != nil {
				return err
			}

			item := order.AddItem(line.MedicineID, line.Quantity, price)
			if err := r.Orders.AddItem(ctx, order.ID, item); err != nil {
				return err
			}
		}

		return r.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID),
		zap.Int("items", len(order.Items)),
		zap.Stringer("total", order.TotalAmount),
	)
	return order, nil
}

func validateOrderInput(in CreateOrderInput) error {
	if in.CustomerID <= 0 {
		return invalid(errors.New("customer ID is required"))
	}
	if len(in.Items) == 0 {
		return invalid(errors.New("order must contain at least one medicine"))
	}
	for _, line := range in.Items {
		if line.MedicineID <= 0 {
			return invalid(errors.New("medicine ID is required"))
		}
		if line.Quantity <= 0 {
			return invalid(fmt.Errorf("quantity for medicine %d must be greater than 0", line.MedicineID))
		}
	}
	return nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id int64, patch OrderPatch) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		order, err = r.Orders.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrOrderNotFound, id)
		}

		if patch.CustomerID != nil {
			exists, err := r.Customers.Exists(ctx, *patch.CustomerID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %d", ErrCustomerNotFound, *patch.CustomerID)
			}
			order.CustomerID = *patch.CustomerID
		}

		if patch.Status != nil && *patch.Status != order.Status {
			next := *patch.Status
			if !next.Valid() {
				return invalid(fmt.Errorf("unknown order status %q", next))
			}
			if order.Status == domain.OrderStatusCompleted {
				return fmt.Errorf("%w: order %d is completed", ErrInvalidTransition, id)
			}
			if next == domain.OrderStatusCompleted {
				return fmt.Errorf("%w: orders are completed by issuing an invoice", ErrInvalidTransition)
			}
			order.Status = next
		}

		return r.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("order updated",
		zap.Int64("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		order, err = r.Orders.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrOrderNotFound, id)
		}

		_, err = r.Invoices.GetByOrderID(ctx, id)
		if err == nil {
			return fmt.Errorf("%w: order %d", ErrOrderInvoiced, id)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		// Stock goes back before the rows disappear
		for _, item := range order.Items {
			_, err := releaseStock(ctx, r, item.MedicineID, item.Quantity, &order.ID, s.now())
			if errors.Is(err, ErrStockNotFound) {
				s.logger.Warn("no stock row to release into",
					zap.Int64("order_id", id),
					zap.Int64("medicine_id", item.MedicineID),
					zap.Int("quantity", item.Quantity),
				)
				continue
			}
			if err != nil {
				return err
			}
		}

		return r.Orders.Delete(ctx, id)
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("order deleted", zap.Int64("order_id", id))
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.store.Repos().Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound, id)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	orders, err := s.store.Repos().Orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	for _, order := range orders {
		if order.Items, err = repos.Orders.GetItems(ctx, order.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}
