package components

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

// Toggle is a labelled checkbox flipped with space or x.
type Toggle struct {
	label   string
	checked bool
	focused bool
}

// NewToggle creates a toggle.
func NewToggle(label string, checked bool) Toggle {
	return Toggle{label: label, checked: checked}
}

// Update flips the toggle when it has focus.
func (t Toggle) Update(msg tea.Msg) (Toggle, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !t.focused {
		return t, nil
	}
	switch keyMsg.String() {
	case " ", "x":
		t.checked = !t.checked
	}
	return t, nil
}

// View renders the checkbox and label.
func (t Toggle) View() string {
	box := styles.CheckboxUnselected
	if t.checked {
		box = styles.CheckboxSelected
	}
	style := styles.Unfocused
	if t.focused {
		style = styles.Cursor
	}
	return style.Render(box + " " + t.label)
}

// Checked reports the toggle state.
func (t Toggle) Checked() bool {
	return t.checked
}

// SetChecked sets the toggle state.
func (t *Toggle) SetChecked(checked bool) {
	t.checked = checked
}

// Focus gives the toggle focus.
func (t *Toggle) Focus() {
	t.focused = true
}

// Blur removes focus.
func (t *Toggle) Blur() {
	t.focused = false
}

// Focused reports whether the toggle has focus.
func (t Toggle) Focused() bool {
	return t.focused
}
