package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the screen.
type Styles struct {
	Logo           lipgloss.Style
	Title          lipgloss.Style
	Label          lipgloss.Style
	Invalid        lipgloss.Style
	Error          lipgloss.Style
	Button         lipgloss.Style
	ButtonDisabled lipgloss.Style
	Spinner        lipgloss.Style
	Success        lipgloss.Style
	Help           lipgloss.Style
}

// DefaultStyles returns the built-in palette.
func DefaultStyles() Styles {
	return Styles{
		Logo:           lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true),
		Title:          lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("63")).Padding(0, 1),
		Label:          lipgloss.NewStyle().Width(10),
		Invalid:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:          lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Button:         lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("63")).Padding(0, 2),
		ButtonDisabled: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Background(lipgloss.Color("237")).Padding(0, 2),
		Spinner:        lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Success:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Help:           lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
