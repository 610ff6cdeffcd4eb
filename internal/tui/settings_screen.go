package tui

import (
	"fmt"
	"strconv"

	"github.com/andy/apothecary/internal/app"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type settingsMode int

const (
	settingsModeView settingsMode = iota
	settingsModeEdit
)

// settings form field indices
const (
	settingsFieldPrefix = iota
	settingsFieldDueDays
	settingsFieldTerms
	settingsFieldLowStock
	settingsFieldCount
)

type settingsSavedMsg struct {
	err error
}

// SettingsModel manages the settings screen
type SettingsModel struct {
	app        *app.App
	mode       settingsMode
	fields     []textinput.Model
	fieldFocus int
	err        error
	statusMsg  string
}

// NewSettingsModel creates a new settings screen
func NewSettingsModel(a *app.App) tea.Model {
	return &SettingsModel{
		app:  a,
		mode: settingsModeView,
	}
}

// IsCapturingInput returns true when the edit form is active
func (m *SettingsModel) IsCapturingInput() bool {
	return m.mode == settingsModeEdit
}

func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

func newField(placeholder, value string, limit, width int) textinput.Model {
	f := textinput.New()
	f.Placeholder = placeholder
	f.CharLimit = limit
	f.Width = width
	f.SetValue(value)
	return f
}

func (m *SettingsModel) initForm() {
	cfg := m.app.Config

	m.fields = make([]textinput.Model, settingsFieldCount)
	m.fields[settingsFieldPrefix] = newField("INV", cfg.Invoice.NumberPrefix, 20, 20)
	m.fields[settingsFieldDueDays] = newField("30", strconv.Itoa(cfg.Invoice.DefaultDueDays), 5, 10)
	m.fields[settingsFieldTerms] = newField("Payment due within 30 days", cfg.Invoice.DefaultTerms, 256, 60)
	m.fields[settingsFieldLowStock] = newField("10", strconv.Itoa(cfg.Stock.LowThreshold), 6, 10)

	m.fieldFocus = settingsFieldPrefix
	m.fields[settingsFieldPrefix].Focus()
}

func (m *SettingsModel) saveSettings() tea.Cmd {
	return func() tea.Msg {
		prefix := m.fields[settingsFieldPrefix].Value()
		dueDaysStr := m.fields[settingsFieldDueDays].Value()
		terms := m.fields[settingsFieldTerms].Value()
		lowStr := m.fields[settingsFieldLowStock].Value()

		if prefix == "" {
			return settingsSavedMsg{err: fmt.Errorf("invoice prefix is required")}
		}

		dueDays, err := strconv.Atoi(dueDaysStr)
		if err != nil || dueDays < 0 {
			return settingsSavedMsg{err: fmt.Errorf("due days must be zero or a positive number")}
		}

		low, err := strconv.Atoi(lowStr)
		if err != nil || low < 0 {
			return settingsSavedMsg{err: fmt.Errorf("low stock threshold must be zero or a positive number")}
		}

		m.app.Config.Invoice.NumberPrefix = prefix
		m.app.Config.Invoice.DefaultDueDays = dueDays
		m.app.Config.Invoice.DefaultTerms = terms
		m.app.Config.Stock.LowThreshold = low

		if err := m.app.SaveConfig(); err != nil {
			return settingsSavedMsg{err: fmt.Errorf("failed to save config: %w", err)}
		}

		return settingsSavedMsg{}
	}
}

func (m *SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == settingsModeEdit {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		if msg.String() == "enter" {
			m.mode = settingsModeEdit
			m.statusMsg = ""
			m.initForm()
			return m, m.fields[m.fieldFocus].Focus()
		}
	}

	return m, nil
}

func (m *SettingsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = settingsModeView
		m.statusMsg = "Settings saved. Restart apothecary to apply them."
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = settingsModeView
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + settingsFieldCount) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == settingsFieldCount-1 {
				return m, m.saveSettings()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveSettings()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *SettingsModel) View() string {
	if m.mode == settingsModeEdit {
		return m.viewForm()
	}
	return m.viewSettings()
}

func (m *SettingsModel) viewSettings() string {
	var s string
	s += titleStyle.Render("Settings") + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	cfg := m.app.Config

	labelStyle := lipgloss.NewStyle().Bold(true).Width(22)
	valueStyle := lipgloss.NewStyle().Foreground(primaryColor)

	s += subtitleStyle.Render("  Invoices") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Number Prefix:"), valueStyle.Render(cfg.Invoice.NumberPrefix))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Default Due Days:"), valueStyle.Render(strconv.Itoa(cfg.Invoice.DefaultDueDays)))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Default Terms:"), valueStyle.Render(truncateStr(cfg.Invoice.DefaultTerms, 50)))

	s += "\n" + subtitleStyle.Render("  Stock") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Low Stock Threshold:"), valueStyle.Render(strconv.Itoa(cfg.Stock.LowThreshold)))

	s += "\n" + subtitleStyle.Render("  Server") + "\n\n"
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Listen Address:"), valueStyle.Render(cfg.Server.Addr))
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Overdue Sweep Every:"), valueStyle.Render(cfg.Sweeper.Interval.String()))

	s += "\n" + helpStyle.Render("  enter: edit settings")

	return s
}

func (m *SettingsModel) viewForm() string {
	var s string
	s += titleStyle.Render("Edit Settings") + "\n\n"

	labels := []string{"Invoice Number Prefix:", "Default Due Days:", "Default Terms:", "Low Stock Threshold:"}
	for i, label := range labels {
		indicator := "  "
		if i == m.fieldFocus {
			indicator = "> "
		}
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.fields[i].View())
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")

	return s
}
