package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/db/dbtest"
	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
)

// testClock is a settable clock shared by the services under test
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	db       *db.DB
	store    *repository.Store
	clock    *testClock
	orders   *orderService
	invoices *invoiceService
	stock    *stockService
	reports  ReportService

	user      *domain.User
	customer  *domain.Customer
	aspirin   *domain.Medicine
	ibuprofen *domain.Medicine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	database := dbtest.Open(t)
	store := repository.NewStore(database)
	logger := zaptest.NewLogger(t)
	clock := &testClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	e := &env{
		db:       database,
		store:    store,
		clock:    clock,
		orders:   NewOrderService(store, logger).(*orderService),
		invoices: NewInvoiceService(store, DefaultInvoiceSettings(), logger).(*invoiceService),
		stock:    NewStockService(store, logger).(*stockService),
		reports:  NewReportService(store, 10),
	}
	e.orders.now = clock.Now
	e.invoices.now = clock.Now
	e.stock.now = clock.Now

	r := store.Repos()

	e.user = &domain.User{Username: "pharm", FullName: "Pat Pharmacist", IsAdmin: true}
	require.NoError(t, r.Users.Create(ctx, e.user))

	e.customer = domain.NewCustomer("Jane Doe", "jane@example.com")
	require.NoError(t, r.Customers.Create(ctx, e.customer))

	e.aspirin = domain.NewMedicine("Aspirin", decimal.RequireFromString("10.00"))
	require.NoError(t, r.Medicines.Create(ctx, e.aspirin))

	e.ibuprofen = domain.NewMedicine("Ibuprofen", decimal.RequireFromString("5.00"))
	require.NoError(t, r.Medicines.Create(ctx, e.ibuprofen))

	_, err := e.stock.Receive(ctx, ReceiveStockInput{MedicineID: e.aspirin.ID, Quantity: 10, AdminID: &e.user.ID})
	require.NoError(t, err)
	_, err = e.stock.Receive(ctx, ReceiveStockInput{MedicineID: e.ibuprofen.ID, Quantity: 5})
	require.NoError(t, err)

	return e
}

func (e *env) quantity(t *testing.T, medicineID int64) int {
	t.Helper()
	stock, err := e.stock.Lookup(context.Background(), medicineID)
	require.NoError(t, err)
	return stock.Quantity
}

func (e *env) placeOrder(t *testing.T, items ...OrderItemInput) *domain.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: e.customer.ID,
		Items:      items,
	})
	require.NoError(t, err)
	return order
}

func (e *env) invoice(t *testing.T, orderID int64) *domain.Invoice {
	t.Helper()
	inv, err := e.invoices.CreateInvoice(context.Background(), CreateInvoiceInput{
		OrderID: orderID,
		UserID:  e.user.ID,
	})
	require.NoError(t, err)
	return inv
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
