package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/apothecary/internal/app"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenOrders
	ScreenInvoices
	ScreenStock
	ScreenSettings
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenDashboard:
		return "Dashboard"
	case ScreenOrders:
		return "Orders"
	case ScreenInvoices:
		return "Invoices"
	case ScreenStock:
		return "Stock"
	case ScreenSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model
type Model struct {
	app           *app.App
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized)
	dashboard tea.Model
	orders    tea.Model
	invoices  tea.Model
	stock     tea.Model
	settings  tea.Model

	// First-run state
	checkedFirstRun bool
	firstRunHint    string

	err error
}

// New creates a new root model
func New(a *app.App) Model {
	dashboard := NewDashboardModel(a)
	return Model{
		app:           a,
		currentScreen: ScreenDashboard,
		dashboard:     dashboard,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.checkFirstRun(),
	}
	if m.dashboard != nil {
		cmds = append(cmds, m.dashboard.Init())
	}
	return tea.Batch(cmds...)
}

// checkFirstRun checks if the catalog has any medicines yet
func (m *Model) checkFirstRun() tea.Cmd {
	return func() tea.Msg {
		medicines, err := m.app.Store.Repos().Medicines.List(context.Background())
		if err != nil {
			return firstRunCheckMsg{hasMedicines: true} // assume yes on error
		}
		return firstRunCheckMsg{hasMedicines: len(medicines) > 0}
	}
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	refresh := func() tea.Msg { return RefreshDataMsg{} }

	switch screen {
	case ScreenDashboard:
		if m.dashboard == nil {
			m.dashboard = NewDashboardModel(m.app)
			return m.dashboard.Init()
		}
		return refresh
	case ScreenOrders:
		if m.orders == nil {
			m.orders = NewOrdersModel(m.app)
			return m.orders.Init()
		}
		return refresh
	case ScreenInvoices:
		if m.invoices == nil {
			m.invoices = NewInvoicesModel(m.app)
			return m.invoices.Init()
		}
		return refresh
	case ScreenStock:
		if m.stock == nil {
			m.stock = NewStockModel(m.app)
			return m.stock.Init()
		}
		return refresh
	case ScreenSettings:
		if m.settings == nil {
			m.settings = NewSettingsModel(m.app)
			return m.settings.Init()
		}
		return refresh
	}
	return nil
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text
// forms or a pending confirmation). When active, global navigation keys are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

func (m *Model) activeScreen() tea.Model {
	switch m.currentScreen {
	case ScreenDashboard:
		return m.dashboard
	case ScreenOrders:
		return m.orders
	case ScreenInvoices:
		return m.invoices
	case ScreenStock:
		return m.stock
	case ScreenSettings:
		return m.settings
	}
	return nil
}

func (m *Model) setActiveScreen(s tea.Model) {
	switch m.currentScreen {
	case ScreenDashboard:
		m.dashboard = s
	case ScreenOrders:
		m.orders = s
	case ScreenInvoices:
		m.invoices = s
	case ScreenStock:
		m.stock = s
	case ScreenSettings:
		m.settings = s
	}
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.activeScreen().(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

func (m *Model) switchTo(screen Screen) tea.Cmd {
	m.currentScreen = screen
	return m.initScreen(screen)
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.err = nil

		// Skip global navigation when a screen is capturing text input
		if !m.activeScreenCapturingInput() {
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				return m, tea.Quit
			case key.Matches(msg, DefaultKeyMap.Dashboard):
				return m, m.switchTo(ScreenDashboard)
			case key.Matches(msg, DefaultKeyMap.Orders):
				return m, m.switchTo(ScreenOrders)
			case key.Matches(msg, DefaultKeyMap.Invoices):
				return m, m.switchTo(ScreenInvoices)
			case key.Matches(msg, DefaultKeyMap.Stock):
				return m, m.switchTo(ScreenStock)
			case key.Matches(msg, DefaultKeyMap.Settings):
				return m, m.switchTo(ScreenSettings)
			}
		}

	case firstRunCheckMsg:
		m.checkedFirstRun = true
		if !msg.hasMedicines {
			m.firstRunHint = "The catalog is empty. Add medicines with `apothecary medicines add` and stock with `apothecary stock receive`."
		}
		return m, nil

	case SwitchScreenMsg:
		return m, m.switchTo(msg.Screen)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	// Route message to current screen
	var cmd tea.Cmd
	if screen := m.activeScreen(); screen != nil {
		screen, cmd = screen.Update(msg)
		m.setActiveScreen(screen)
	}
	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("apothecary - %s", m.currentScreen.String()))
	footer := footerStyle.Render("[H]ome  [O]rders  [I]nvoices  [S]tock  [,] Settings  [Q]uit")

	content := "Loading..."
	if screen := m.activeScreen(); screen != nil {
		content = screen.View()
	}

	// Error/hint display
	notice := ""
	if m.err != nil {
		notice = errorStyle.Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	} else if m.firstRunHint != "" && m.currentScreen == ScreenDashboard {
		notice = lipgloss.NewStyle().Foreground(warningColor).Render("\n" + m.firstRunHint)
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, notice, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
