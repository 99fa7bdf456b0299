package steps

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/tui/initialize/components"
)

// PortChecker reports whether host:port is already taken.
type PortChecker func(host string, port int) bool

const (
	serverFieldBind = iota
	serverFieldPort
	serverFieldSecret
	serverFieldCount
)

// ServerStep configures the HTTP listener used by serve.
type ServerStep struct {
	BaseStep

	inputs      [serverFieldCount]components.TextInput
	focus       int
	err         error
	warning     string
	portChecker PortChecker
}

// NewServerStep creates the server step.
func NewServerStep() *ServerStep {
	secret := components.NewTextInput("Auth secret (optional):", "")
	secret.SetMasked(true)
	secret.SetPlaceholder("leave empty for an open server")

	return &ServerStep{
		BaseStep: NewBaseStep("Server"),
		inputs: [serverFieldCount]components.TextInput{
			components.NewTextInput("Bind address:", config.DefaultServerBind),
			components.NewTextInput("Port:", strconv.Itoa(config.DefaultServerPort)),
			secret,
		},
		portChecker: CheckPortInUse,
	}
}

// SetPortChecker replaces the port probe.
func (s *ServerStep) SetPortChecker(checker PortChecker) {
	s.portChecker = checker
}

// Init pre-fills the inputs from cfg.
func (s *ServerStep) Init(cfg *config.Config) tea.Cmd {
	if cfg.Server.Bind != "" {
		s.inputs[serverFieldBind].SetValue(cfg.Server.Bind)
	}
	if cfg.Server.Port != 0 {
		s.inputs[serverFieldPort].SetValue(strconv.Itoa(cfg.Server.Port))
	}
	s.inputs[serverFieldSecret].SetValue(cfg.Server.AuthSecret)

	s.err = nil
	s.setFocus(serverFieldBind)
	s.checkPortAvailability()

	return nil
}

// Update handles input.
func (s *ServerStep) Update(msg tea.Msg) (tea.Cmd, StepResult) {
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

	case tea.KeyTab, tea.KeyDown:
		s.setFocus((s.focus + 1) % serverFieldCount)
		return nil, StepContinue

	case tea.KeyShiftTab, tea.KeyUp:
		s.setFocus((s.focus - 1 + serverFieldCount) % serverFieldCount)
		return nil, StepContinue

	default:
		var cmd tea.Cmd
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
		s.err = nil
		s.checkPortAvailability()
		return cmd, StepContinue
	}
}

func (s *ServerStep) setFocus(field int) {
	for i := range s.inputs {
		s.inputs[i].Blur()
	}
	s.focus = field
	s.inputs[field].Focus()
}

func (s *ServerStep) checkPortAvailability() {
	s.warning = ""

	port, err := parsePort(s.inputs[serverFieldPort].Value())
	if err != nil || s.portChecker == nil {
		return
	}

	bind := strings.TrimSpace(s.inputs[serverFieldBind].Value())
	if s.portChecker(bind, port) {
		s.warning = "Port " + strconv.Itoa(port) + " is in use. serve will fail to start until it is freed."
	}
}

// View renders the step.
func (s *ServerStep) View() string {
	var b strings.Builder

	b.WriteString(stepHeading("HTTP Server", "Where imagedrop serve listens for pastes, events and MCP clients:"))

	for i := range s.inputs {
		b.WriteString(s.inputs[i].View())
		b.WriteString("\n\n")
	}

	b.WriteString(FormatMuted("With a secret set, /paste, /events and /mcp require a bearer token from imagedrop token."))

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

// Validate checks the bind address and port.
func (s *ServerStep) Validate() error {
	if strings.TrimSpace(s.inputs[serverFieldBind].Value()) == "" {
		return errors.New("bind address is required")
	}
	_, err := parsePort(s.inputs[serverFieldPort].Value())
	return err
}

// Apply writes the server settings.
func (s *ServerStep) Apply(cfg *config.Config) error {
	port, err := parsePort(s.inputs[serverFieldPort].Value())
	if err != nil {
		return err
	}

	cfg.Server.Bind = strings.TrimSpace(s.inputs[serverFieldBind].Value())
	cfg.Server.Port = port
	cfg.Server.AuthSecret = strings.TrimSpace(s.inputs[serverFieldSecret].Value())

	return nil
}
