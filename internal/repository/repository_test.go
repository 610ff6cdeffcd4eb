package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andy/apothecary/internal/db/dbtest"
	"github.com/andy/apothecary/internal/domain"
)

type fixture struct {
	store    *Store
	user     *domain.User
	customer *domain.Customer
	aspirin  *domain.Medicine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := NewStore(dbtest.Open(t))
	r := store.Repos()

	user := &domain.User{Username: "pharm", FullName: "Pat Pharmacist", IsAdmin: true}
	require.NoError(t, r.Users.Create(ctx, user))

	customer := domain.NewCustomer("Jane Doe", "jane@example.com")
	require.NoError(t, r.Customers.Create(ctx, customer))

	aspirin := domain.NewMedicine("Aspirin", decimal.RequireFromString("2.50"))
	require.NoError(t, r.Medicines.Create(ctx, aspirin))

	require.NoError(t, r.Stock.Create(ctx, domain.NewStock(aspirin.ID, 10, "B-1")))

	return &fixture{store: store, user: user, customer: customer, aspirin: aspirin}
}

func (f *fixture) createOrder(t *testing.T, qty int) *domain.Order {
	t.Helper()
	ctx := context.Background()

	order := domain.NewOrder(f.customer.ID)
	require.NoError(t, f.store.Repos().Orders.Create(ctx, order))

	item := order.AddItem(f.aspirin.ID, qty, f.aspirin.Price)
	require.NoError(t, f.store.Repos().Orders.AddItem(ctx, order.ID, item))
	require.NoError(t, f.store.Repos().Orders.Update(ctx, order))
	return order
}

func TestStockRepo_ReserveAndRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.store.Repos().Stock

	got, err := stock.Reserve(ctx, f.aspirin.ID, 4, &f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	require.NotNil(t, got.AdminID)
	assert.Equal(t, f.user.ID, *got.AdminID)
	assert.Equal(t, "Aspirin", got.Medicine.Name)

	got, err = stock.Release(ctx, f.aspirin.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 26, got.Quantity, "release has no upper bound")
}

func TestStockRepo_ReserveInsufficient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.store.Repos().Stock.Reserve(ctx, f.aspirin.ID, 11, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientQuantity))
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Quantity)

	after, err := f.store.Repos().Stock.GetByMedicineID(ctx, f.aspirin.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Quantity)
}

func TestStockRepo_ReserveExactlyAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.store.Repos().Stock.Reserve(ctx, f.aspirin.ID, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	_, err = f.store.Repos().Stock.Reserve(ctx, f.aspirin.ID, 1, nil)
	assert.ErrorIs(t, err, ErrInsufficientQuantity)
}

func TestStockRepo_MissingRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Repos().Stock.Reserve(ctx, 999, 1, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.store.Repos().Stock.Release(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockRepo_Movements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.store.Repos().Stock

	orderID := int64(7)
	m := domain.NewStockMovement(f.aspirin.ID, -3, 7, domain.MovementReserve)
	m.OrderID = &orderID
	require.NoError(t, stock.RecordMovement(ctx, m))
	require.NoError(t, stock.RecordMovement(ctx, domain.NewStockMovement(f.aspirin.ID, 3, 10, domain.MovementRelease)))

	movements, err := stock.ListMovements(ctx, f.aspirin.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, domain.MovementReserve, movements[0].Reason)
	require.NotNil(t, movements[0].OrderID)
	assert.Equal(t, orderID, *movements[0].OrderID)
	assert.Nil(t, movements[1].OrderID)
}

func TestStore_WithinRollsBackOnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.store.Within(ctx, func(r *Repos) error {
		if _, err := r.Stock.Reserve(ctx, f.aspirin.ID, 5, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stock, err := f.store.Repos().Stock.GetByMedicineID(ctx, f.aspirin.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.Quantity)
}

func TestStore_WithinCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.Within(ctx, func(r *Repos) error {
		_, err := r.Stock.Reserve(ctx, f.aspirin.ID, 5, nil)
		return err
	})
	require.NoError(t, err)

	stock, err := f.store.Repos().Stock.GetByMedicineID(ctx, f.aspirin.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity)
}

func TestOrderRepo_CreateGetListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders := f.store.Repos().Orders

	order := f.createOrder(t, 2)

	got, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.True(t, decimal.RequireFromString("5.00").Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.RequireFromString("2.50").Equal(got.Items[0].UnitPrice))

	pending := domain.OrderStatusPending
	list, err := orders.List(ctx, OrderFilter{CustomerID: &f.customer.ID, Status: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	cancelled := domain.OrderStatusCancelled
	list, err = orders.List(ctx, OrderFilter{Status: &cancelled})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, orders.Delete(ctx, order.ID))
	_, err = orders.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, orders.Delete(ctx, order.ID), ErrNotFound)
}

func TestInvoiceRepo_CreateAndLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoices := f.store.Repos().Invoices

	order := f.createOrder(t, 2)
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	due := issued.AddDate(0, 0, 30)

	inv := domain.NewInvoice("INV-2026-ABCDEF12", order.ID, f.user.ID,
		order.TotalAmount, decimal.RequireFromString("0.50"), decimal.RequireFromString("1"), issued)
	inv.DueDate = &due
	inv.Terms = "Payment due within 30 days of invoice date."
	require.NoError(t, invoices.Create(ctx, inv))

	byNumber, err := invoices.GetByNumber(ctx, "INV-2026-ABCDEF12")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byNumber.ID)
	assert.True(t, decimal.RequireFromString("4.50").Equal(byNumber.TotalAmount))
	assert.Equal(t, "", byNumber.Notes)
	require.NotNil(t, byNumber.DueDate)
	assert.True(t, due.Equal(*byNumber.DueDate))

	byOrder, err := invoices.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, byOrder.ID)

	details, err := invoices.GetDetails(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", details.CustomerName)
	require.Len(t, details.Lines, 1)
	assert.Equal(t, "Aspirin", details.Lines[0].MedicineName)
	assert.True(t, decimal.RequireFromString("5").Equal(details.Lines[0].TotalPrice))

	_, err = invoices.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoiceRepo_OrderUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoices := f.store.Repos().Invoices

	order := f.createOrder(t, 1)
	now := time.Now()

	first := domain.NewInvoice("INV-2026-00000001", order.ID, f.user.ID, order.TotalAmount, decimal.Zero, decimal.Zero, now)
	require.NoError(t, invoices.Create(ctx, first))

	second := domain.NewInvoice("INV-2026-00000002", order.ID, f.user.ID, order.TotalAmount, decimal.Zero, decimal.Zero, now)
	assert.Error(t, invoices.Create(ctx, second))
}

func TestInvoiceRepo_MarkOverdueAndListOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoices := f.store.Repos().Invoices

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	mk := func(number string, status domain.InvoiceStatus, due *time.Time) *domain.Invoice {
		order := f.createOrder(t, 1)
		inv := domain.NewInvoice(number, order.ID, f.user.ID, order.TotalAmount, decimal.Zero, decimal.Zero, now.AddDate(0, -1, 0))
		inv.Status = status
		inv.DueDate = due
		if status == domain.InvoiceStatusPaid {
			inv.PaidDate = &now
		}
		require.NoError(t, invoices.Create(ctx, inv))
		return inv
	}

	sentPast := mk("INV-2026-00000001", domain.InvoiceStatusSent, &past)
	draftPast := mk("INV-2026-00000002", domain.InvoiceStatusDraft, &past)
	mk("INV-2026-00000003", domain.InvoiceStatusSent, &future)
	mk("INV-2026-00000004", domain.InvoiceStatusPaid, &past)
	mk("INV-2026-00000005", domain.InvoiceStatusSent, nil)

	overdue, err := invoices.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	n, err := invoices.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := invoices.GetByID(ctx, sentPast.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusOverdue, got.Status)

	got, err = invoices.GetByID(ctx, draftPast.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, got.Status, "sweep leaves drafts alone")

	n, err = invoices.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	overdue, err = invoices.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, draftPast.ID, overdue[0].ID)
}

func TestInvoiceRepo_MarkOverdueWithinSameSecond(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoices := f.store.Repos().Invoices

	due := time.Date(2026, 6, 1, 12, 0, 0, 100*int(time.Millisecond), time.UTC)
	order := f.createOrder(t, 1)
	inv := domain.NewInvoice("INV-2026-0000000A", order.ID, f.user.ID, order.TotalAmount, decimal.Zero, decimal.Zero, due.AddDate(0, 0, -30))
	inv.DueDate = &due
	require.NoError(t, invoices.Create(ctx, inv))

	got, err := invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate), "due date keeps its fraction")

	n, err := invoices.MarkOverdue(ctx, due.Add(-time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = invoices.MarkOverdue(ctx, due.Add(400*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTimeLayout_OrdersAsStrings(t *testing.T) {
	early := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	late := early.Add(time.Millisecond)

	assert.Len(t, formatTime(late), len(formatTime(early)))
	assert.Less(t, formatTime(early), formatTime(late))

	parsed, err := parseTime(formatTime(late))
	require.NoError(t, err)
	assert.True(t, late.Equal(parsed))
}
