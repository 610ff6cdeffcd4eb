package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/apothecary/internal/app"
	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
	"github.com/andy/apothecary/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const dashboardRecentOrders = 8

// DashboardModel represents the dashboard home screen
type DashboardModel struct {
	app *app.App

	// Data
	summary       *service.Summary
	pendingOrders int
	recentOrders  []*domain.Order
	customerCache map[int64]*domain.Customer

	loading bool
	err     error
}

type dashboardDataMsg struct {
	summary       *service.Summary
	pendingOrders int
	recentOrders  []*domain.Order
	customerCache map[int64]*domain.Customer
	err           error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App) tea.Model {
	return &DashboardModel{
		app:           a,
		loading:       true,
		customerCache: make(map[int64]*domain.Customer),
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		msg := dashboardDataMsg{
			customerCache: make(map[int64]*domain.Customer),
		}

		summary, err := m.app.ReportService.Summary(ctx, time.Now())
		if err != nil {
			msg.err = fmt.Errorf("summary: %w", err)
			return msg
		}
		msg.summary = summary

		pending := domain.OrderStatusPending
		pendingOrders, err := m.app.OrderService.ListOrders(ctx, repository.OrderFilter{Status: &pending})
		if err != nil {
			msg.err = fmt.Errorf("pending orders: %w", err)
			return msg
		}
		msg.pendingOrders = len(pendingOrders)

		// Listing is newest first
		orders, err := m.app.OrderService.ListOrders(ctx, repository.OrderFilter{})
		if err == nil {
			if len(orders) > dashboardRecentOrders {
				orders = orders[:dashboardRecentOrders]
			}
			msg.recentOrders = orders
			for _, o := range orders {
				if _, ok := msg.customerCache[o.CustomerID]; !ok {
					customer, err := m.app.Store.Repos().Customers.GetByID(ctx, o.CustomerID)
					if err == nil {
						msg.customerCache[o.CustomerID] = customer
					}
				}
			}
		}

		return msg
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.summary = msg.summary
		m.pendingOrders = msg.pendingOrders
		m.recentOrders = msg.recentOrders
		m.customerCache = msg.customerCache
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()

	case tea.KeyMsg:
		if key.Matches(msg, DefaultKeyMap.Refresh) {
			m.loading = true
			return m, m.loadData()
		}
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	var s string

	s += fmt.Sprintf(
		"  Outstanding:  %-14s  Overdue:  %d invoice(s)\n  Paid:         %-14s  Pending:  %d order(s)\n",
		amountStyle.Render(formatMoney(m.summary.Outstanding)),
		m.summary.OverdueCount,
		formatMoney(m.summary.PaidTotal),
		m.pendingOrders,
	)

	s += "\n" + m.renderLowStock()
	s += "\n" + m.renderRecentOrders()

	return s
}

func (m *DashboardModel) renderLowStock() string {
	header := fmt.Sprintf("  Low Stock (at or below %d)\n", m.app.Config.Stock.LowThreshold)
	if len(m.summary.LowStock) == 0 {
		return header + subtitleStyle.Render("  All medicines are well stocked") + "\n"
	}

	s := header
	for _, st := range m.summary.LowStock {
		name := fmt.Sprintf("Medicine #%d", st.MedicineID)
		if st.Medicine != nil {
			name = st.Medicine.Name
		}
		style := lowStockStyle
		if st.Quantity == 0 {
			style = outStockStyle
		}
		s += fmt.Sprintf("  %-30s %s\n", truncateStr(name, 30), style.Render(fmt.Sprintf("%d", st.Quantity)))
	}
	return s
}

func (m *DashboardModel) renderRecentOrders() string {
	header := "  Recent Orders\n"
	if len(m.recentOrders) == 0 {
		return header + subtitleStyle.Render("  No orders yet") + "\n"
	}

	s := header
	for _, o := range m.recentOrders {
		customerName := fmt.Sprintf("Customer #%d", o.CustomerID)
		if c, ok := m.customerCache[o.CustomerID]; ok {
			customerName = c.Name
		}

		s += fmt.Sprintf("  %-7s #%-5d %-22s %12s  %s\n",
			o.OrderDate.Format("Jan 2"),
			o.ID,
			truncateStr(customerName, 22),
			formatMoney(o.TotalAmount),
			orderStatusBadge(o.Status),
		)
	}

	return s
}
