package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
)

func TestCreateOrder_ReservesStock(t *testing.T) {
	e := newEnv(t)

	// 10 on hand, take 3
	order := e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 3})

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, dec("30").Equal(order.TotalAmount), "got %s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 7, e.quantity(t, e.aspirin.ID))

	movements, err := e.stock.Movements(context.Background(), e.aspirin.ID)
	require.NoError(t, err)
	last := movements[len(movements)-1]
	assert.Equal(t, domain.MovementReserve, last.Reason)
	assert.Equal(t, -3, last.Change)
	require.NotNil(t, last.OrderID)
	assert.Equal(t, order.ID, *last.OrderID)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.stock.Adjust(ctx, e.aspirin.ID, StockAdjustment{Quantity: intPtr(2)})
	require.NoError(t, err)

	_, err = e.orders.CreateOrder(ctx, CreateOrderInput{
		CustomerID: e.customer.ID,
		Items:      []OrderItemInput{{MedicineID: e.aspirin.ID, Quantity: 3}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Aspirin", stockErr.MedicineName)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	assert.Equal(t, 2, e.quantity(t, e.aspirin.ID))

	orders, err := e.orders.ListOrders(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_FailureOnLaterItemRollsBackEarlierReservations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.stock.Adjust(ctx, e.ibuprofen.ID, StockAdjustment{Quantity: intPtr(1)})
	require.NoError(t, err)

	_, err = e.orders.CreateOrder(ctx, CreateOrderInput{
		CustomerID: e.customer.ID,
		Items: []OrderItemInput{
			{MedicineID: e.aspirin.ID, Quantity: 2},
			{MedicineID: e.ibuprofen.ID, Quantity: 100},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 10, e.quantity(t, e.aspirin.ID))
	assert.Equal(t, 1, e.quantity(t, e.ibuprofen.ID))

	movements, err := e.stock.Movements(ctx, e.aspirin.ID)
	require.NoError(t, err)
	for _, m := range movements {
		assert.NotEqual(t, domain.MovementReserve, m.Reason, "rolled back reservation left an audit record")
	}
}

func TestCreateOrder_ValidationAndLookups(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	missing := int64(999)

	tests := []struct {
		name    string
		in      CreateOrderInput
		wantErr error
	}{
		{
			name:    "no items",
			in:      CreateOrderInput{CustomerID: e.customer.ID},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "zero quantity",
			in:      CreateOrderInput{CustomerID: e.customer.ID, Items: []OrderItemInput{{MedicineID: e.aspirin.ID}}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown customer",
			in:      CreateOrderInput{CustomerID: missing, Items: []OrderItemInput{{MedicineID: e.aspirin.ID, Quantity: 1}}},
			wantErr: ErrCustomerNotFound,
		},
		{
			name:    "unknown medicine",
			in:      CreateOrderInput{CustomerID: e.customer.ID, Items: []OrderItemInput{{MedicineID: missing, Quantity: 1}}},
			wantErr: ErrMedicineNotFound,
		},
		{
			name: "unknown actor",
			in: CreateOrderInput{
				CustomerID: e.customer.ID,
				Items:      []OrderItemInput{{MedicineID: e.aspirin.ID, Quantity: 1}},
				ActorID:    &missing,
			},
			wantErr: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.orders.CreateOrder(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 10, e.quantity(t, e.aspirin.ID))
}

func TestCreateOrder_MedicineWithoutStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	bare := domain.NewMedicine("Placebo", dec("1"))
	require.NoError(t, e.store.Repos().Medicines.Create(ctx, bare))

	_, err := e.orders.CreateOrder(ctx, CreateOrderInput{
		CustomerID: e.customer.ID,
		Items: []OrderItemInput{
			{MedicineID: e.aspirin.ID, Quantity: 2},
			{MedicineID: bare.ID, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, ErrMedicineNotFound)
	assert.ErrorIs(t, err, ErrStockNotFound)
	assert.Contains(t, err.Error(), fmt.Sprintf("medicine %d", bare.ID))

	assert.Equal(t, 10, e.quantity(t, e.aspirin.ID), "earlier reservation rolled back")
	orders, err := e.orders.ListOrders(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_PriceSnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order := e.placeOrder(t,
		OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 2},
		OrderItemInput{MedicineID: e.ibuprofen.ID, Quantity: 1, UnitPrice: decPtr("4.25")},
	)
	assert.True(t, dec("24.25").Equal(order.TotalAmount), "got %s", order.TotalAmount)

	e.aspirin.Price = dec("99")
	require.NoError(t, e.store.Repos().Medicines.Update(ctx, e.aspirin))

	got, err := e.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, dec("24.25").Equal(got.TotalAmount))
	assert.True(t, dec("10").Equal(got.Items[0].UnitPrice))
	assert.True(t, dec("4.25").Equal(got.Items[1].UnitPrice))
}

func TestCreateOrder_NonPositivePriceTakesCatalogPrice(t *testing.T) {
	e := newEnv(t)

	order := e.placeOrder(t,
		OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 2, UnitPrice: decPtr("0")},
		OrderItemInput{MedicineID: e.ibuprofen.ID, Quantity: 1, UnitPrice: decPtr("-3")},
	)

	require.Len(t, order.Items, 2)
	assert.True(t, dec("10").Equal(order.Items[0].UnitPrice), "got %s", order.Items[0].UnitPrice)
	assert.True(t, dec("5").Equal(order.Items[1].UnitPrice), "got %s", order.Items[1].UnitPrice)
	assert.True(t, dec("25").Equal(order.TotalAmount), "got %s", order.TotalAmount)
}

func TestCreateOrder_LastUnitRace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.stock.Adjust(ctx, e.aspirin.ID, StockAdjustment{Quantity: intPtr(1)})
	require.NoError(t, err)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orders.CreateOrder(ctx, CreateOrderInput{
				CustomerID: e.customer.ID,
				Items:      []OrderItemInput{{MedicineID: e.aspirin.ID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, e.quantity(t, e.aspirin.ID))
}

func TestUpdateOrder_StatusRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order := e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 1})

	completed := domain.OrderStatusCompleted
	_, err := e.orders.UpdateOrder(ctx, order.ID, OrderPatch{Status: &completed})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled := domain.OrderStatusCancelled
	got, err := e.orders.UpdateOrder(ctx, order.ID, OrderPatch{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	assert.True(t, order.TotalAmount.Equal(got.TotalAmount), "patch never touches the total")

	pending := domain.OrderStatusPending
	got, err = e.orders.UpdateOrder(ctx, order.ID, OrderPatch{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)

	bogus := domain.OrderStatus("shipped")
	_, err = e.orders.UpdateOrder(ctx, order.ID, OrderPatch{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)

	e.invoice(t, order.ID)
	_, err = e.orders.UpdateOrder(ctx, order.ID, OrderPatch{Status: &cancelled})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateOrder_Customer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order := e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 1})

	other := domain.NewCustomer("John Roe", "john@example.com")
	require.NoError(t, e.store.Repos().Customers.Create(ctx, other))

	got, err := e.orders.UpdateOrder(ctx, order.ID, OrderPatch{CustomerID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.CustomerID)

	missing := int64(999)
	_, err = e.orders.UpdateOrder(ctx, order.ID, OrderPatch{CustomerID: &missing})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = e.orders.UpdateOrder(ctx, missing, OrderPatch{})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrder_ReleasesStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order := e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 3})
	require.Equal(t, 7, e.quantity(t, e.aspirin.ID))

	deleted, err := e.orders.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, deleted.ID)
	assert.Equal(t, 10, e.quantity(t, e.aspirin.ID))

	_, err = e.orders.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = e.orders.DeleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrder_WithInvoiceRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order := e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 3})
	e.invoice(t, order.ID)

	_, err := e.orders.DeleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderInvoiced)
	assert.Equal(t, 7, e.quantity(t, e.aspirin.ID))
}

func TestDeleteOrder_MissingStockRowSkipped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order := e.placeOrder(t,
		OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 2},
		OrderItemInput{MedicineID: e.ibuprofen.ID, Quantity: 1},
	)

	_, err := e.db.ExecContext(ctx, `DELETE FROM stocks WHERE medicine_id = ?`, e.ibuprofen.ID)
	require.NoError(t, err)

	_, err = e.orders.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, e.quantity(t, e.aspirin.ID))
}

func TestListOrders_Filter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 1})
	e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 1})

	cancelled := domain.OrderStatusCancelled
	_, err := e.orders.UpdateOrder(ctx, first.ID, OrderPatch{Status: &cancelled})
	require.NoError(t, err)

	all, err := e.orders.ListOrders(ctx, repository.OrderFilter{CustomerID: &e.customer.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, o := range all {
		assert.Len(t, o.Items, 1)
	}

	onlyCancelled, err := e.orders.ListOrders(ctx, repository.OrderFilter{Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, onlyCancelled, 1)
	assert.Equal(t, first.ID, onlyCancelled[0].ID)
}

func intPtr(v int) *int {
	return &v
}
