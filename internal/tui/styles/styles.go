// Package styles provides the shared lipgloss palette for terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

// ANSI colors, so output follows the terminal theme.
var (
	Primary   = lipgloss.Color("4")
	Secondary = lipgloss.Color("245")
	Success   = lipgloss.Color("2")
	Warning   = lipgloss.Color("3")
	Error     = lipgloss.Color("1")
	Highlight = lipgloss.Color("12")
	Muted     = lipgloss.Color("245")
)

// Text styles.
var (
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Section = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Width(18)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningText = lipgloss.NewStyle().
			Foreground(Warning)

	SuccessText = lipgloss.NewStyle().
			Foreground(Success)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	HelpKey = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)
)

// Component styles.
var (
	Unfocused = lipgloss.NewStyle().
			Foreground(Secondary)

	Cursor = lipgloss.NewStyle().
		Foreground(Highlight).
		Bold(true)

	Container = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2)
)

// Indicators.
const (
	CheckboxSelected   = "[✓]"
	CheckboxUnselected = "[ ]"

	ProgressFilled = "●"
	ProgressEmpty  = "○"

	CursorIndicator = "▸"
)
