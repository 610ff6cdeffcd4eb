package tui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andy/apothecary/internal/app"
	"github.com/andy/apothecary/internal/config"
	"github.com/andy/apothecary/internal/crypto"
	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/service"
)

type fixture struct {
	app   *app.App
	order *domain.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv(crypto.EnvVar, "tui-test-key")
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "apothecary.db")

	a, err := app.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	r := a.Store.Repos()
	user := &domain.User{Username: "pharm"}
	require.NoError(t, r.Users.Create(ctx, user))
	a.Config.Operator.UserID = user.ID

	customer := domain.NewCustomer("Jane Doe", "jane@example.com")
	require.NoError(t, r.Customers.Create(ctx, customer))
	med := domain.NewMedicine("Aspirin", decimal.RequireFromString("4.00"))
	require.NoError(t, r.Medicines.Create(ctx, med))
	_, err = a.StockService.Receive(ctx, service.ReceiveStockInput{MedicineID: med.ID, Quantity: 3})
	require.NoError(t, err)

	order, err := a.OrderService.CreateOrder(ctx, service.CreateOrderInput{
		CustomerID: customer.ID,
		Items:      []service.OrderItemInput{{MedicineID: med.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	return &fixture{app: a, order: order}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive feeds msg to the model and then runs every resulting command
// synchronously, feeding its output back in, until no command is left.
func drive(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	for i := 0; msg != nil; i++ {
		require.Less(t, i, 10, "too many command round trips")
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		if cmd == nil {
			return m
		}
		msg = cmd()
	}
	return m
}

func TestOrdersScreen_BillRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := NewOrdersModel(f.app)
	m = drive(t, m, m.Init()())
	require.Contains(t, m.View(), "Jane Doe")

	m = drive(t, m, keyPress("b"))
	om := m.(*OrdersModel)
	assert.True(t, om.IsCapturingInput())
	assert.Contains(t, m.View(), "[y/N]")

	// declining leaves the order alone
	m = drive(t, m, keyPress("n"))
	assert.False(t, m.(*OrdersModel).IsCapturingInput())
	got, err := f.app.OrderService.GetOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)

	m = drive(t, m, keyPress("b"))
	m = drive(t, m, keyPress("y"))
	assert.NoError(t, m.(*OrdersModel).err)
	assert.Contains(t, m.(*OrdersModel).statusMsg, "Invoice")

	got, err = f.app.OrderService.GetOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, got.Status)

	// billing twice surfaces the conflict instead of crashing
	m = drive(t, m, keyPress("b"))
	m = drive(t, m, keyPress("y"))
	assert.ErrorIs(t, m.(*OrdersModel).err, service.ErrOrderAlreadyInvoiced)
}

func TestOrdersScreen_DeleteReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := NewOrdersModel(f.app)
	m = drive(t, m, m.Init()())
	m = drive(t, m, keyPress("d"))
	m = drive(t, m, keyPress("y"))
	require.NoError(t, m.(*OrdersModel).err)
	assert.Empty(t, m.(*OrdersModel).orders)

	stock, err := f.app.StockService.Lookup(ctx, f.order.Items[0].MedicineID)
	require.NoError(t, err)
	assert.Equal(t, 3, stock.Quantity)
}

func TestInvoicesScreen_MarkPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.app.InvoiceService.CreateInvoice(ctx, service.CreateInvoiceInput{
		OrderID: f.order.ID,
		UserID:  f.app.OperatorID(),
	})
	require.NoError(t, err)

	m := NewInvoicesModel(f.app)
	m = drive(t, m, m.Init()())
	require.Contains(t, m.View(), inv.InvoiceNumber)

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, invoiceViewDetail, m.(*InvoicesModel).mode)
	assert.Contains(t, m.View(), "Jane Doe")

	m = drive(t, m, keyPress("p"))
	require.NoError(t, m.(*InvoicesModel).err)

	got, err := f.app.InvoiceService.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, got.Status)

	// paid invoices cannot be deleted
	m = drive(t, m, keyPress("d"))
	m = drive(t, m, keyPress("y"))
	assert.ErrorIs(t, m.(*InvoicesModel).err, service.ErrCannotDeletePaid)
}

func TestStockScreen_Movements(t *testing.T) {
	f := newFixture(t)

	m := NewStockModel(f.app)
	m = drive(t, m, m.Init()())
	assert.Contains(t, m.View(), "Aspirin")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stockViewMovements, m.(*StockModel).mode)
	assert.Len(t, m.(*StockModel).movements, 2) // receive + reserve

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stockViewList, m.(*StockModel).mode)
}

func TestRootModel_Navigation(t *testing.T) {
	f := newFixture(t)

	var m tea.Model = New(f.app)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = drive(t, m, keyPress("s"))
	assert.Equal(t, ScreenStock, m.(Model).currentScreen)

	m = drive(t, m, keyPress("i"))
	assert.Equal(t, ScreenInvoices, m.(Model).currentScreen)
	assert.Contains(t, m.View(), "apothecary - Invoices")
}
