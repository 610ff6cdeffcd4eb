package tui

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// actionDoneMsg reports the outcome of a mutating action on a screen
type actionDoneMsg struct {
	status string
	err    error
}

// firstRunCheckMsg reports whether the catalog has any medicines
type firstRunCheckMsg struct {
	hasMedicines bool
}
