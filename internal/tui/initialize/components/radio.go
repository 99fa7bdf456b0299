package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

// RadioOption is one choice in a RadioGroup.
type RadioOption struct {
	Label       string
	Value       string
	Description string
}

// RadioGroup selects one option from a list. Up/down, tab and j/k move the
// cursor, wrapping at either end.
type RadioGroup struct {
	options []RadioOption
	cursor  int
}

// NewRadioGroup creates a radio group with the cursor on the first option.
func NewRadioGroup(options []RadioOption) RadioGroup {
	return RadioGroup{options: options}
}

// Update moves the cursor on navigation keys.
func (r RadioGroup) Update(msg tea.Msg) (RadioGroup, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(r.options) == 0 {
		return r, nil
	}

	switch {
	case keyMsg.Type == tea.KeyUp, keyMsg.Type == tea.KeyShiftTab, keyMsg.String() == "k":
		r.cursor = (r.cursor - 1 + len(r.options)) % len(r.options)
	case keyMsg.Type == tea.KeyDown, keyMsg.Type == tea.KeyTab, keyMsg.String() == "j":
		r.cursor = (r.cursor + 1) % len(r.options)
	}

	return r, nil
}

// View renders the options with their descriptions.
func (r RadioGroup) View() string {
	var b strings.Builder

	descStyle := lipgloss.NewStyle().
		Foreground(styles.Muted).
		MarginLeft(4)

	for i, opt := range r.options {
		prefix := "  "
		style := styles.Unfocused
		if i == r.cursor {
			prefix = styles.CursorIndicator + " "
			style = styles.Cursor
		}

		b.WriteString(prefix + style.Render(opt.Label) + "\n")
		if opt.Description != "" {
			b.WriteString(descStyle.Render(opt.Description) + "\n")
		}
	}

	return b.String()
}

// Selected returns the value under the cursor.
func (r RadioGroup) Selected() string {
	if len(r.options) == 0 {
		return ""
	}
	return r.options[r.cursor].Value
}

// SelectedLabel returns the label under the cursor.
func (r RadioGroup) SelectedLabel() string {
	if len(r.options) == 0 {
		return ""
	}
	return r.options[r.cursor].Label
}

// Select moves the cursor to the option with value. It reports false and
// leaves the cursor alone when no option matches.
func (r *RadioGroup) Select(value string) bool {
	for i, opt := range r.options {
		if opt.Value == value {
			r.cursor = i
			return true
		}
	}
	return false
}

// Cursor returns the cursor position.
func (r RadioGroup) Cursor() int {
	return r.cursor
}
