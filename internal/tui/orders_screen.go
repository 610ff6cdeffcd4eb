package tui

import (
	"context"
	"fmt"

	"github.com/andy/apothecary/internal/app"
	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
	"github.com/andy/apothecary/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type orderViewMode int

const (
	orderViewList orderViewMode = iota
	orderViewDetail
)

// orderAction is a mutation waiting for y/n confirmation
type orderAction int

const (
	orderActionNone orderAction = iota
	orderActionBill
	orderActionCancel
	orderActionDelete
)

// OrdersModel lists orders and lets the operator invoice, cancel, or delete them
type OrdersModel struct {
	app       *app.App
	mode      orderViewMode
	orders    []*domain.Order
	cursor    int
	selected  *domain.Order
	names     map[int64]string // medicine names for the detail view
	customers map[int64]string
	pending   orderAction
	loading   bool
	err       error
	statusMsg string
}

type ordersDataMsg struct {
	orders    []*domain.Order
	customers map[int64]string
	err       error
}

type orderDetailMsg struct {
	order *domain.Order
	names map[int64]string
	err   error
}

// NewOrdersModel creates a new orders screen model
func NewOrdersModel(a *app.App) tea.Model {
	return &OrdersModel{
		app:     a,
		mode:    orderViewList,
		loading: true,
	}
}

// IsCapturingInput returns true while a confirmation prompt is open
func (m *OrdersModel) IsCapturingInput() bool {
	return m.pending != orderActionNone
}

func (m *OrdersModel) Init() tea.Cmd {
	return m.loadOrders()
}

func (m *OrdersModel) loadOrders() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		orders, err := m.app.OrderService.ListOrders(ctx, repository.OrderFilter{})
		if err != nil {
			return ordersDataMsg{err: err}
		}

		customers := make(map[int64]string)
		for _, o := range orders {
			if _, ok := customers[o.CustomerID]; ok {
				continue
			}
			if c, err := m.app.Store.Repos().Customers.GetByID(ctx, o.CustomerID); err == nil {
				customers[o.CustomerID] = c.Name
			}
		}

		return ordersDataMsg{orders: orders, customers: customers}
	}
}

func (m *OrdersModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		order, err := m.app.OrderService.GetOrder(ctx, id)
		if err != nil {
			return orderDetailMsg{err: err}
		}

		names := make(map[int64]string)
		for _, item := range order.Items {
			if med, err := m.app.Store.Repos().Medicines.GetByID(ctx, item.MedicineID); err == nil {
				names[item.MedicineID] = med.Name
			}
		}

		return orderDetailMsg{order: order, names: names}
	}
}

// runAction performs the confirmed action against the selected order
func (m *OrdersModel) runAction(action orderAction, order *domain.Order) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx := context.Background()

		switch action {
		case orderActionBill:
			inv, err := a.InvoiceService.CreateInvoice(ctx, service.CreateInvoiceInput{
				OrderID: order.ID,
				UserID:  a.OperatorID(),
			})
			if err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{status: fmt.Sprintf("Invoice %s issued for %s", inv.InvoiceNumber, formatMoney(inv.TotalAmount))}

		case orderActionCancel:
			status := domain.OrderStatusCancelled
			if _, err := a.OrderService.UpdateOrder(ctx, order.ID, service.OrderPatch{Status: &status}); err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{status: fmt.Sprintf("Order #%d cancelled", order.ID)}

		case orderActionDelete:
			if _, err := a.OrderService.DeleteOrder(ctx, order.ID); err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{status: fmt.Sprintf("Order #%d deleted, stock returned", order.ID)}
		}
		return nil
	}
}

func (m *OrdersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadOrders()

	case ordersDataMsg:
		m.loading = false
		m.err = msg.err
		m.orders = msg.orders
		m.customers = msg.customers
		if m.cursor >= len(m.orders) {
			m.cursor = max(len(m.orders)-1, 0)
		}
		return m, nil

	case orderDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selected = msg.order
		m.names = msg.names
		m.mode = orderViewDetail
		return m, nil

	case actionDoneMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.statusMsg = msg.status
		m.mode = orderViewList
		m.selected = nil
		return m, m.loadOrders()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.pending != orderActionNone {
			return m.updateConfirm(msg)
		}

		switch m.mode {
		case orderViewList:
			return m.updateList(msg)
		case orderViewDetail:
			return m.updateDetail(msg)
		}
	}

	return m, nil
}

func (m *OrdersModel) current() *domain.Order {
	if m.mode == orderViewDetail {
		return m.selected
	}
	if len(m.orders) == 0 {
		return nil
	}
	return m.orders[m.cursor]
}

func (m *OrdersModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.pending
	switch {
	case key.Matches(msg, DefaultKeyMap.Confirm):
		m.pending = orderActionNone
		if order := m.current(); order != nil {
			m.loading = true
			return m, m.runAction(action, order)
		}
	case key.Matches(msg, DefaultKeyMap.Deny):
		m.pending = orderActionNone
	}
	return m, nil
}

// updateActions handles keys shared by list and detail views
func (m *OrdersModel) updateActions(msg tea.KeyMsg) bool {
	if m.current() == nil {
		return false
	}
	switch {
	case key.Matches(msg, DefaultKeyMap.Bill):
		m.pending = orderActionBill
	case key.Matches(msg, DefaultKeyMap.Cancel):
		m.pending = orderActionCancel
	case key.Matches(msg, DefaultKeyMap.Delete):
		m.pending = orderActionDelete
	default:
		return false
	}
	m.statusMsg = ""
	return true
}

func (m *OrdersModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	if m.updateActions(msg) {
		return m, nil
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.orders)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if len(m.orders) > 0 {
			m.loading = true
			return m, m.loadDetail(m.orders[m.cursor].ID)
		}
	case key.Matches(msg, DefaultKeyMap.Refresh):
		m.loading = true
		return m, m.loadOrders()
	}

	return m, nil
}

func (m *OrdersModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	if m.updateActions(msg) {
		return m, nil
	}
	if key.Matches(msg, DefaultKeyMap.Back) {
		m.mode = orderViewList
		m.selected = nil
		m.names = nil
	}
	return m, nil
}

func (m *OrdersModel) View() string {
	if m.loading {
		return "Loading..."
	}

	var s string
	if m.mode == orderViewDetail {
		s = m.viewDetail()
	} else {
		s = m.viewList()
	}

	if m.pending != orderActionNone {
		s += "\n\n" + confirmStyle.Render("  "+m.confirmText()+" [y/N]")
	}
	return s
}

func (m *OrdersModel) confirmText() string {
	order := m.current()
	if order == nil {
		return ""
	}
	switch m.pending {
	case orderActionBill:
		return fmt.Sprintf("Issue an invoice for order #%d (%s)?", order.ID, formatMoney(order.TotalAmount))
	case orderActionCancel:
		return fmt.Sprintf("Cancel order #%d? Reserved stock is not returned.", order.ID)
	case orderActionDelete:
		return fmt.Sprintf("Delete order #%d and return its items to stock?", order.ID)
	}
	return ""
}

func (m *OrdersModel) viewList() string {
	var s string
	s += titleStyle.Render("Orders") + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.orders) == 0 && m.err == nil {
		s += subtitleStyle.Render("  No orders yet. Place one with `apothecary orders create`.")
		return s
	}

	// Header
	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-6s  %-12s  %-22s  %5s  %12s  %s",
		"ID", "Date", "Customer", "Items", "Total", "Status",
	)) + "\n"

	for i, o := range m.orders {
		customerName, ok := m.customers[o.CustomerID]
		if !ok {
			customerName = fmt.Sprintf("Customer #%d", o.CustomerID)
		}

		line := fmt.Sprintf("  %-6d  %-12s  %-22s  %5d  %12s  %s",
			o.ID,
			o.OrderDate.Format("Jan 02, 2006"),
			truncateStr(customerName, 22),
			len(o.Items),
			formatMoney(o.TotalAmount),
			orderStatusBadge(o.Status),
		)

		if i == m.cursor {
			s += selectedStyle.Render(line) + "\n"
		} else {
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: view  b: invoice  c: cancel  d: delete  r: refresh")

	return s
}

func (m *OrdersModel) viewDetail() string {
	o := m.selected
	if o == nil {
		return "No order selected"
	}

	var s string

	customerName, ok := m.customers[o.CustomerID]
	if !ok {
		customerName = fmt.Sprintf("Customer #%d", o.CustomerID)
	}

	s += titleStyle.Render(fmt.Sprintf("Order #%d", o.ID)) + "\n\n"
	s += fmt.Sprintf("  Customer: %s\n", customerName)
	s += fmt.Sprintf("  Placed:   %s\n", o.OrderDate.Format("Jan 02, 2006 15:04"))
	s += fmt.Sprintf("  Status:   %s\n", orderStatusBadge(o.Status))
	s += "\n"

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-30s  %5s  %10s  %12s",
		"Medicine", "Qty", "Unit", "Amount",
	)) + "\n"

	for _, item := range o.Items {
		name, ok := m.names[item.MedicineID]
		if !ok {
			name = fmt.Sprintf("Medicine #%d", item.MedicineID)
		}
		s += fmt.Sprintf("  %-30s  %5d  %10s  %12s\n",
			truncateStr(name, 30),
			item.Quantity,
			formatMoney(item.UnitPrice),
			formatMoney(item.LineTotal()),
		)
	}

	s += "\n"
	s += lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("  %-30s  %5s  %10s  %12s", "Total", "", "", formatMoney(o.TotalAmount)),
	) + "\n"

	s += "\n" + helpStyle.Render("  b: invoice  c: cancel  d: delete  esc: back to list")

	return s
}

// orderStatusBadge renders an order status with color
func orderStatusBadge(status domain.OrderStatus) string {
	switch status {
	case domain.OrderStatusPending:
		return lipgloss.NewStyle().Foreground(warningColor).Render("PENDING")
	case domain.OrderStatusCompleted:
		return lipgloss.NewStyle().Foreground(successColor).Render("COMPLETED")
	case domain.OrderStatusCancelled:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("CANCELLED")
	default:
		return string(status)
	}
}
