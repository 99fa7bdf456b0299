package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

// ValidatorFunc checks an input value.
type ValidatorFunc func(string) error

// TextInput is a labelled single-line input.
type TextInput struct {
	input     textinput.Model
	label     string
	validator ValidatorFunc
}

// NewTextInput creates an unfocused input holding value.
func NewTextInput(label, value string) TextInput {
	ti := textinput.New()
	ti.SetValue(value)
	ti.CharLimit = 512
	ti.Width = 48

	return TextInput{input: ti, label: label}
}

// Update forwards msg to the underlying input.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

// View renders the label above the input.
func (t TextInput) View() string {
	label := lipgloss.NewStyle().Foreground(styles.Secondary)
	return label.Render(t.label) + "\n" + t.input.View()
}

// Value returns the current value.
func (t TextInput) Value() string {
	return t.input.Value()
}

// SetValue replaces the value.
func (t *TextInput) SetValue(value string) {
	t.input.SetValue(value)
}

// Focus focuses the input.
func (t *TextInput) Focus() tea.Cmd {
	return t.input.Focus()
}

// Blur removes focus.
func (t *TextInput) Blur() {
	t.input.Blur()
}

// Focused reports whether the input has focus.
func (t TextInput) Focused() bool {
	return t.input.Focused()
}

// SetPlaceholder sets the text shown while the input is empty.
func (t *TextInput) SetPlaceholder(placeholder string) {
	t.input.Placeholder = placeholder
}

// SetMasked hides the value behind bullets.
func (t *TextInput) SetMasked(masked bool) {
	if masked {
		t.input.EchoMode = textinput.EchoPassword
		t.input.EchoCharacter = '•'
		return
	}
	t.input.EchoMode = textinput.EchoNormal
}

// SetValidator sets the function run by Validate.
func (t *TextInput) SetValidator(fn ValidatorFunc) {
	t.validator = fn
}

// Validate runs the validator, if any.
func (t TextInput) Validate() error {
	if t.validator == nil {
		return nil
	}
	return t.validator(t.input.Value())
}
