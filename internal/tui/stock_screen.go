package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/apothecary/internal/app"
	"github.com/andy/apothecary/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type stockViewMode int

const (
	stockViewList stockViewMode = iota
	stockViewMovements
)

// StockModel shows on-hand quantities and the movement log per medicine
type StockModel struct {
	app       *app.App
	mode      stockViewMode
	stocks    []*domain.Stock
	cursor    int
	movements []*domain.StockMovement
	loading   bool
	err       error
}

type stockDataMsg struct {
	stocks []*domain.Stock
	err    error
}

type stockMovementsMsg struct {
	movements []*domain.StockMovement
	err       error
}

// NewStockModel creates a new stock screen model
func NewStockModel(a *app.App) tea.Model {
	return &StockModel{
		app:     a,
		mode:    stockViewList,
		loading: true,
	}
}

func (m *StockModel) Init() tea.Cmd {
	return m.loadStock()
}

func (m *StockModel) loadStock() tea.Cmd {
	return func() tea.Msg {
		stocks, err := m.app.StockService.List(context.Background())
		return stockDataMsg{stocks: stocks, err: err}
	}
}

func (m *StockModel) loadMovements(medicineID int64) tea.Cmd {
	return func() tea.Msg {
		movements, err := m.app.StockService.Movements(context.Background(), medicineID)
		return stockMovementsMsg{movements: movements, err: err}
	}
}

func (m *StockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		m.mode = stockViewList
		return m, m.loadStock()

	case stockDataMsg:
		m.loading = false
		m.err = msg.err
		m.stocks = msg.stocks
		if m.cursor >= len(m.stocks) {
			m.cursor = max(len(m.stocks)-1, 0)
		}
		return m, nil

	case stockMovementsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.movements = msg.movements
		m.mode = stockViewMovements
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		m.err = nil

		if m.mode == stockViewMovements {
			if key.Matches(msg, DefaultKeyMap.Back) {
				m.mode = stockViewList
				m.movements = nil
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.stocks)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.Select):
			if len(m.stocks) > 0 {
				m.loading = true
				return m, m.loadMovements(m.stocks[m.cursor].MedicineID)
			}
		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.loadStock()
		}
	}

	return m, nil
}

func (m *StockModel) View() string {
	if m.loading {
		return "Loading..."
	}
	if m.mode == stockViewMovements {
		return m.viewMovements()
	}
	return m.viewList()
}

func (m *StockModel) viewList() string {
	var s string
	s += titleStyle.Render("Stock") + "\n\n"

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.stocks) == 0 && m.err == nil {
		s += subtitleStyle.Render("  No stock recorded. Use `apothecary stock receive` to add some.")
		return s
	}

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-30s  %8s  %-14s  %-12s  %s",
		"Medicine", "On Hand", "Batch", "Expires", "Updated",
	)) + "\n"

	threshold := m.app.Config.Stock.LowThreshold
	now := time.Now()

	for i, st := range m.stocks {
		name := fmt.Sprintf("Medicine #%d", st.MedicineID)
		if st.Medicine != nil {
			name = st.Medicine.Name
		}

		qty := fmt.Sprintf("%8d", st.Quantity)
		expires := formatDate(st.ExpiryDate)
		if i != m.cursor {
			switch {
			case st.Quantity == 0:
				qty = outStockStyle.Render(qty)
			case st.Quantity <= threshold:
				qty = lowStockStyle.Render(qty)
			}
			if st.IsExpired(now) {
				expires = outStockStyle.Render(expires)
			}
		}

		line := fmt.Sprintf("  %-30s  %s  %-14s  %-12s  %s",
			truncateStr(name, 30),
			qty,
			truncateStr(st.BatchNumber, 14),
			expires,
			st.LastUpdated.Format("Jan 02 15:04"),
		)

		if i == m.cursor {
			s += selectedStyle.Render(line) + "\n"
		} else {
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: movements  r: refresh")

	return s
}

func (m *StockModel) viewMovements() string {
	st := m.stocks[m.cursor]
	name := fmt.Sprintf("Medicine #%d", st.MedicineID)
	if st.Medicine != nil {
		name = st.Medicine.Name
	}

	var s string
	s += titleStyle.Render(fmt.Sprintf("Movements - %s", name)) + "\n\n"

	if len(m.movements) == 0 {
		s += subtitleStyle.Render("  No movements recorded") + "\n"
	} else {
		s += subtitleStyle.Render(fmt.Sprintf(
			"  %-18s  %-8s  %7s  %7s  %s",
			"When", "Reason", "Change", "After", "Order",
		)) + "\n"

		for _, mv := range m.movements {
			order := ""
			if mv.OrderID != nil {
				order = fmt.Sprintf("#%d", *mv.OrderID)
			}
			s += fmt.Sprintf("  %-18s  %-8s  %+7d  %7d  %s\n",
				mv.CreatedAt.Local().Format("Jan 02 15:04"),
				mv.Reason,
				mv.Change,
				mv.QuantityAfter,
				order,
			)
		}
	}

	s += "\n" + helpStyle.Render("  esc: back to list")

	return s
}
