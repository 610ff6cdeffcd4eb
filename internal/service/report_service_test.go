package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Summary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Ibuprofen drops to 4, at or below the threshold of 10
	e.placeOrder(t, OrderItemInput{MedicineID: e.ibuprofen.ID, Quantity: 1})

	open := e.invoice(t, e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 1}).ID)
	paid := e.invoice(t, e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 2}).ID)
	_, err := e.invoices.MarkPaid(ctx, paid.ID)
	require.NoError(t, err)

	summary, err := e.reports.Summary(ctx, e.clock.Now())
	require.NoError(t, err)
	assert.True(t, open.TotalAmount.Equal(summary.Outstanding))
	assert.True(t, dec("20").Equal(summary.PaidTotal))
	assert.Equal(t, 0, summary.OverdueCount)

	names := make([]string, 0, len(summary.LowStock))
	for _, s := range summary.LowStock {
		names = append(names, s.Medicine.Name)
	}
	assert.ElementsMatch(t, []string{"Aspirin", "Ibuprofen"}, names)

	later, err := e.reports.Summary(ctx, e.clock.Now().AddDate(0, 0, 45))
	require.NoError(t, err)
	assert.Equal(t, 1, later.OverdueCount)
}

func TestReportService_RevenueByMonth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	inv := e.invoice(t, e.placeOrder(t, OrderItemInput{MedicineID: e.aspirin.ID, Quantity: 3}).ID)
	_, err := e.invoices.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)

	revenue, err := e.reports.RevenueByMonth(ctx, 2026)
	require.NoError(t, err)
	assert.Len(t, revenue, 12)
	assert.True(t, dec("30").Equal(revenue[time.March]))
	assert.True(t, revenue[time.April].IsZero())

	other, err := e.reports.RevenueByMonth(ctx, 2025)
	require.NoError(t, err)
	assert.True(t, other[time.March].IsZero())
}
