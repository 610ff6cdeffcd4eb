package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/apothecary/internal/app"
	"github.com/andy/apothecary/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type invoiceViewMode int

const (
	invoiceViewList   invoiceViewMode = iota
	invoiceViewDetail                 // Viewing a single invoice
)

// statusFilters is the cycle order for the list filter; nil shows everything
var statusFilters = []*domain.InvoiceStatus{
	nil,
	statusPtr(domain.InvoiceStatusSent),
	statusPtr(domain.InvoiceStatusOverdue),
	statusPtr(domain.InvoiceStatusPaid),
	statusPtr(domain.InvoiceStatusCancelled),
	statusPtr(domain.InvoiceStatusDraft),
}

func statusPtr(s domain.InvoiceStatus) *domain.InvoiceStatus { return &s }

// InvoicesModel displays invoices in list and detail views
type InvoicesModel struct {
	app       *app.App
	mode      invoiceViewMode
	invoices  []*domain.Invoice
	cursor    int
	filter    int
	details   *domain.InvoiceDetails
	confirm   bool // delete awaiting y/n
	loading   bool
	err       error
	statusMsg string
}

type invoicesDataMsg struct {
	invoices []*domain.Invoice
	err      error
}

type invoiceDetailMsg struct {
	details *domain.InvoiceDetails
	err     error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App) tea.Model {
	return &InvoicesModel{
		app:     a,
		mode:    invoiceViewList,
		loading: true,
	}
}

// IsCapturingInput returns true while a delete confirmation is open
func (m *InvoicesModel) IsCapturingInput() bool {
	return m.confirm
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	status := statusFilters[m.filter]
	return func() tea.Msg {
		invoices, err := m.app.InvoiceService.ListInvoices(context.Background(), status)
		return invoicesDataMsg{invoices: invoices, err: err}
	}
}

func (m *InvoicesModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		details, err := m.app.InvoiceService.GetDetails(context.Background(), id)
		return invoiceDetailMsg{details: details, err: err}
	}
}

func (m *InvoicesModel) markPaid(id int64) tea.Cmd {
	return func() tea.Msg {
		inv, err := m.app.InvoiceService.MarkPaid(context.Background(), id)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Invoice %s marked paid", inv.InvoiceNumber)}
	}
}

func (m *InvoicesModel) deleteInvoice(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.InvoiceService.DeleteInvoice(context.Background(), id); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Invoice #%d deleted", id)}
	}
}

func (m *InvoicesModel) sweep() tea.Cmd {
	return func() tea.Msg {
		n, err := m.app.InvoiceService.SweepOverdue(context.Background(), time.Now())
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("%d invoice(s) marked overdue", n)}
	}
}

// selectedID returns the invoice the actions apply to
func (m *InvoicesModel) selectedID() (int64, bool) {
	if m.mode == invoiceViewDetail && m.details != nil {
		return m.details.ID, true
	}
	if len(m.invoices) == 0 {
		return 0, false
	}
	return m.invoices[m.cursor].ID, true
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		m.invoices = msg.invoices
		if m.cursor >= len(m.invoices) {
			m.cursor = max(len(m.invoices)-1, 0)
		}
		return m, nil

	case invoiceDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.details = msg.details
		m.mode = invoiceViewDetail
		return m, nil

	case actionDoneMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.statusMsg = msg.status
		if m.mode == invoiceViewDetail && m.details != nil {
			// Reload so the detail view shows the new status
			id := m.details.ID
			return m, tea.Batch(m.loadInvoices(), m.loadDetail(id))
		}
		return m, m.loadInvoices()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.confirm {
			return m.updateConfirm(msg)
		}

		switch m.mode {
		case invoiceViewList:
			return m.updateList(msg)
		case invoiceViewDetail:
			return m.updateDetail(msg)
		}
	}

	return m, nil
}

func (m *InvoicesModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Confirm):
		m.confirm = false
		if id, ok := m.selectedID(); ok {
			m.loading = true
			m.mode = invoiceViewList
			m.details = nil
			return m, m.deleteInvoice(id)
		}
	case key.Matches(msg, DefaultKeyMap.Deny):
		m.confirm = false
	}
	return m, nil
}

// updateActions handles keys shared by list and detail views
func (m *InvoicesModel) updateActions(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Sweep):
		m.loading = true
		return m.sweep(), true
	case key.Matches(msg, DefaultKeyMap.MarkPaid):
		if id, ok := m.selectedID(); ok {
			m.loading = true
			return m.markPaid(id), true
		}
		return nil, true
	case key.Matches(msg, DefaultKeyMap.Delete):
		if _, ok := m.selectedID(); ok {
			m.confirm = true
		}
		return nil, true
	}
	return nil, false
}

func (m *InvoicesModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	if cmd, handled := m.updateActions(msg); handled {
		m.statusMsg = ""
		return m, cmd
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if len(m.invoices) > 0 {
			m.loading = true
			return m, m.loadDetail(m.invoices[m.cursor].ID)
		}
	case key.Matches(msg, DefaultKeyMap.Refresh):
		m.loading = true
		return m, m.loadInvoices()
	case msg.String() == "f":
		m.filter = (m.filter + 1) % len(statusFilters)
		m.cursor = 0
		m.loading = true
		return m, m.loadInvoices()
	}

	return m, nil
}

func (m *InvoicesModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	if cmd, handled := m.updateActions(msg); handled {
		m.statusMsg = ""
		return m, cmd
	}
	if key.Matches(msg, DefaultKeyMap.Back) {
		m.mode = invoiceViewList
		m.details = nil
	}
	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading..."
	}

	var s string
	switch m.mode {
	case invoiceViewDetail:
		s = m.viewDetail()
	default:
		s = m.viewList()
	}

	if m.confirm {
		id, _ := m.selectedID()
		s += "\n\n" + confirmStyle.Render(fmt.Sprintf("  Delete invoice #%d? [y/N]", id))
	}
	return s
}

func (m *InvoicesModel) viewList() string {
	var s string
	title := "Invoices"
	if f := statusFilters[m.filter]; f != nil {
		title += fmt.Sprintf(" (%s)", *f)
	}
	s += titleStyle.Render(title) + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.invoices) == 0 && m.err == nil {
		s += subtitleStyle.Render("  No invoices. Press 'b' on an order to issue one.")
		s += "\n\n" + helpStyle.Render("  f: filter  x: sweep overdue  r: refresh")
		return s
	}

	// Header
	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-18s  %-7s  %-12s  %-12s  %12s  %s",
		"Number", "Order", "Issued", "Due", "Total", "Status",
	)) + "\n"

	for i, inv := range m.invoices {
		invLine := fmt.Sprintf("  %-18s  #%-6d  %-12s  %-12s  %12s  %s",
			inv.InvoiceNumber,
			inv.OrderID,
			inv.IssuedDate.Format("Jan 02, 2006"),
			formatDate(inv.DueDate),
			formatMoney(inv.TotalAmount),
			statusBadge(inv.Status),
		)

		if i == m.cursor {
			s += selectedStyle.Render(invLine) + "\n"
		} else {
			s += invLine + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: view  p: mark paid  d: delete  x: sweep overdue  f: filter  r: refresh")

	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.details
	if inv == nil {
		return "No invoice selected"
	}

	var s string

	s += titleStyle.Render(fmt.Sprintf("Invoice %s", inv.InvoiceNumber)) + "\n\n"
	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	s += fmt.Sprintf("  Customer: %s <%s>\n", inv.CustomerName, inv.CustomerEmail)
	if inv.CustomerAddress != "" {
		s += fmt.Sprintf("            %s\n", inv.CustomerAddress)
	}
	s += fmt.Sprintf("  Order:    #%d placed %s\n", inv.OrderID, inv.OrderDate.Format("Jan 02, 2006"))
	s += fmt.Sprintf("  Issued:   %s\n", inv.IssuedDate.Format("Jan 02, 2006"))
	s += fmt.Sprintf("  Due:      %s\n", formatDate(inv.DueDate))
	if inv.PaidDate != nil {
		s += fmt.Sprintf("  Paid:     %s\n", formatDate(inv.PaidDate))
	}
	s += fmt.Sprintf("  Status:   %s\n", statusBadge(inv.Status))
	s += "\n"

	// Line items
	if len(inv.Lines) == 0 {
		s += subtitleStyle.Render("  No line items") + "\n"
	} else {
		s += subtitleStyle.Render(fmt.Sprintf(
			"  %-30s  %5s  %10s  %12s",
			"Medicine", "Qty", "Unit", "Amount",
		)) + "\n"

		for _, line := range inv.Lines {
			s += fmt.Sprintf("  %-30s  %5d  %10s  %12s\n",
				truncateStr(line.MedicineName, 30),
				line.Quantity,
				formatMoney(line.UnitPrice),
				formatMoney(line.TotalPrice),
			)
		}
	}

	s += "\n"
	s += fmt.Sprintf("  Amount:    %12s\n", formatMoney(inv.Amount))
	s += fmt.Sprintf("  Tax:       %12s\n", formatMoney(inv.Tax))
	s += fmt.Sprintf("  Discount:  %12s\n", formatMoney(inv.Discount))
	s += lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("  Total:     %12s", formatMoney(inv.TotalAmount)),
	) + "\n"
	if inv.Terms != "" {
		s += "\n" + subtitleStyle.Render("  "+inv.Terms) + "\n"
	}

	s += "\n" + helpStyle.Render("  p: mark paid  d: delete  esc: back to list")

	return s
}

// statusBadge renders an invoice status with color
func statusBadge(status domain.InvoiceStatus) string {
	switch status {
	case domain.InvoiceStatusDraft:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("DRAFT")
	case domain.InvoiceStatusSent:
		return lipgloss.NewStyle().Foreground(warningColor).Render("SENT")
	case domain.InvoiceStatusPaid:
		return lipgloss.NewStyle().Foreground(successColor).Render("PAID")
	case domain.InvoiceStatusOverdue:
		return lipgloss.NewStyle().Foreground(errorColor).Render("OVERDUE")
	case domain.InvoiceStatusCancelled:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("CANCELLED")
	default:
		return string(status)
	}
}
