package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andy/apothecary/internal/domain"
)

func TestStockService_ReserveRelease(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	stock, err := e.stock.Reserve(ctx, e.aspirin.ID, 4, &e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stock.Quantity)

	_, err = e.stock.Reserve(ctx, e.aspirin.ID, 7, nil)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = e.stock.Reserve(ctx, e.aspirin.ID, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	stock, err = e.stock.Release(ctx, e.aspirin.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 56, stock.Quantity)

	_, err = e.stock.Release(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrMedicineNotFound)
	assert.ErrorIs(t, err, ErrStockNotFound)

	_, err = e.stock.Reserve(ctx, 999, 1, nil)
	assert.ErrorIs(t, err, ErrMedicineNotFound)

	_, err = e.stock.Lookup(ctx, 999)
	assert.ErrorIs(t, err, ErrStockNotFound)
}

func TestStockService_Receive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.stock.Receive(ctx, ReceiveStockInput{MedicineID: e.aspirin.ID, Quantity: 5})
	assert.ErrorIs(t, err, ErrStockExists)

	_, err = e.stock.Receive(ctx, ReceiveStockInput{MedicineID: 999, Quantity: 5})
	assert.ErrorIs(t, err, ErrMedicineNotFound)

	fresh := domain.NewMedicine("Paracetamol", dec("3"))
	require.NoError(t, e.store.Repos().Medicines.Create(ctx, fresh))

	_, err = e.stock.Receive(ctx, ReceiveStockInput{MedicineID: fresh.ID, Quantity: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	stock, err := e.stock.Receive(ctx, ReceiveStockInput{MedicineID: fresh.ID, Quantity: 12, BatchNumber: "P-7"})
	require.NoError(t, err)
	assert.Equal(t, 12, stock.Quantity)
	assert.Equal(t, "P-7", stock.BatchNumber)

	all, err := e.stock.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStockService_Adjust(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	batch := "B-22"
	expiry := e.clock.Now().AddDate(1, 0, 0)
	stock, err := e.stock.Adjust(ctx, e.aspirin.ID, StockAdjustment{
		Quantity:    intPtr(25),
		BatchNumber: &batch,
		ExpiryDate:  &expiry,
		AdminID:     &e.user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, stock.Quantity)

	got, err := e.stock.Lookup(ctx, e.aspirin.ID)
	require.NoError(t, err)
	assert.Equal(t, "B-22", got.BatchNumber)
	require.NotNil(t, got.ExpiryDate)
	assert.True(t, expiry.Equal(*got.ExpiryDate))
	require.NotNil(t, got.AdminID)
	assert.Equal(t, e.user.ID, *got.AdminID)

	movements, err := e.stock.Movements(ctx, e.aspirin.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, domain.MovementReceive, movements[0].Reason)
	assert.Equal(t, domain.MovementAdjust, movements[1].Reason)
	assert.Equal(t, 15, movements[1].Change)

	_, err = e.stock.Adjust(ctx, e.aspirin.ID, StockAdjustment{Quantity: intPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.stock.Adjust(ctx, 999, StockAdjustment{Quantity: intPtr(1)})
	assert.ErrorIs(t, err, ErrStockNotFound)
}
