package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit key.Binding
	Back key.Binding

	// Navigation
	Dashboard key.Binding
	Orders    key.Binding
	Invoices  key.Binding
	Stock     key.Binding
	Settings  key.Binding

	// Actions
	Select   key.Binding
	Refresh  key.Binding
	Delete   key.Binding
	Bill     key.Binding
	Cancel   key.Binding
	MarkPaid key.Binding
	Sweep    key.Binding
	Confirm  key.Binding
	Deny     key.Binding

	// Movement
	Up   key.Binding
	Down key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Dashboard: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "home")),
	Orders:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "orders")),
	Invoices:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invoices")),
	Stock:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stock")),
	Settings:  key.NewBinding(key.WithKeys(","), key.WithHelp(",", "settings")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Bill:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "invoice order")),
	Cancel:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel order")),
	MarkPaid:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "mark paid")),
	Sweep:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "sweep overdue")),
	Confirm:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
	Deny:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
}
