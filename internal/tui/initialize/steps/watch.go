package steps

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/tui/initialize/components"
)

// WatchStep configures the drop folders used by watch.
type WatchStep struct {
	BaseStep

	dirsInput components.TextInput
	notify    components.Toggle
	err       error
	warning   string
}

// NewWatchStep creates the drop folder step.
func NewWatchStep() *WatchStep {
	dirs := components.NewTextInput("Drop folders (comma separated):", "")
	dirs.SetPlaceholder("~/Pictures/Drops")

	return &WatchStep{
		BaseStep:  NewBaseStep("Drop Folders"),
		dirsInput: dirs,
		notify:    components.NewToggle("Desktop notification for each dropped image", config.DefaultWatchNotify),
	}
}

// Init pre-fills the folders and notification toggle from cfg.
func (s *WatchStep) Init(cfg *config.Config) tea.Cmd {
	s.dirsInput.SetValue(strings.Join(cfg.Watch.Dirs, ", "))
	s.notify.SetChecked(cfg.Watch.Notify)
	s.notify.Blur()
	s.err = nil
	s.checkDirs()

	return s.dirsInput.Focus()
}

// Update handles input.
func (s *WatchStep) Update(msg tea.Msg) (tea.Cmd, StepResult) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, StepContinue
	}

	switch keyMsg.Type {
	case tea.KeyEnter:
		if err := s.Validate(); err != nil {
			s.err = err
			return nil, StepContinue
		}
		s.err = nil
		return nil, StepNext

	case tea.KeyEsc:
		return nil, StepPrev

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		if s.dirsInput.Focused() {
			s.dirsInput.Blur()
			s.notify.Focus()
			return nil, StepContinue
		}
		s.notify.Blur()
		return s.dirsInput.Focus(), StepContinue
	}

	if s.notify.Focused() {
		s.notify, _ = s.notify.Update(msg)
		return nil, StepContinue
	}

	var cmd tea.Cmd
	s.dirsInput, cmd = s.dirsInput.Update(msg)
	s.err = nil
	s.checkDirs()
	return cmd, StepContinue
}

func (s *WatchStep) checkDirs() {
	s.warning = ""
	var missing []string
	for _, d := range splitList(s.dirsInput.Value()) {
		if _, err := os.Stat(config.ExpandPath(d)); os.IsNotExist(err) {
			missing = append(missing, d)
		}
	}
	if len(missing) > 0 {
		s.warning = "Not found: " + strings.Join(missing, ", ") + ". Create them before running imagedrop watch."
	}
}

// View renders the step.
func (s *WatchStep) View() string {
	var b strings.Builder

	b.WriteString(stepHeading("Drop Folders", "Images saved into these folders are inserted by imagedrop watch:"))
	b.WriteString(s.dirsInput.View())
	b.WriteString("\n\n")
	b.WriteString(s.notify.View())
	b.WriteString("\n\n")
	b.WriteString(FormatMuted("Leave empty to pass folders as watch arguments instead. Space toggles the checkbox."))

	if s.warning != "" {
		b.WriteString("\n\n")
		b.WriteString(FormatWarning(s.warning))
	}
	if s.err != nil {
		b.WriteString("\n\n")
		b.WriteString(FormatError(s.err))
	}

	b.WriteString("\n\n")
	b.WriteString(NavigationHelpWithInput())

	return b.String()
}

// Validate rejects entries that exist but are not directories.
func (s *WatchStep) Validate() error {
	for _, d := range splitList(s.dirsInput.Value()) {
		info, err := os.Stat(config.ExpandPath(d))
		if err == nil && !info.IsDir() {
			return fmt.Errorf("%s is not a directory", d)
		}
	}
	return nil
}

// Apply writes the watch settings.
func (s *WatchStep) Apply(cfg *config.Config) error {
	dirs := splitList(s.dirsInput.Value())
	if dirs == nil {
		dirs = []string{}
	}
	cfg.Watch.Dirs = dirs
	cfg.Watch.Notify = s.notify.Checked()
	return nil
}
