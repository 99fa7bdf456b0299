package steps

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

// ConfirmStep shows the collected settings before they are saved.
type ConfirmStep struct {
	BaseStep

	cfg  *config.Config
	path string
}

// NewConfirmStep creates the confirmation step for a file at path.
func NewConfirmStep(path string) *ConfirmStep {
	return &ConfirmStep{
		BaseStep: NewBaseStep("Confirm"),
		path:     path,
	}
}

// Init captures the configuration to summarize.
func (s *ConfirmStep) Init(cfg *config.Config) tea.Cmd {
	s.cfg = cfg
	return nil
}

// Update handles input.
func (s *ConfirmStep) Update(msg tea.Msg) (tea.Cmd, StepResult) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, StepContinue
	}

	switch keyMsg.Type {
	case tea.KeyEnter:
		return nil, StepNext
	case tea.KeyEsc:
		return nil, StepPrev
	}

	return nil, StepContinue
}

// View renders the summary.
func (s *ConfirmStep) View() string {
	var b strings.Builder

	b.WriteString(stepHeading("Configuration Summary", "Review your settings before saving:"))

	if s.cfg == nil {
		return b.String()
	}
	cfg := s.cfg

	b.WriteString(section("Server"))
	b.WriteString(row("Listen", cfg.Server.Addr()))
	auth := "Open"
	if cfg.Server.AuthSecret != "" {
		auth = "Bearer token (secret set)"
	}
	b.WriteString(row("Auth", auth))
	b.WriteString("\n")

	b.WriteString(section("Minify"))
	if cfg.Minify.Enabled {
		b.WriteString(row("Bounds", fmt.Sprintf("%dx%d", cfg.Minify.MaxWidth, cfg.Minify.MaxHeight)))
	} else {
		b.WriteString(row("Bounds", "Off"))
	}
	b.WriteString("\n")

	b.WriteString(section("Drop Folders"))
	if len(cfg.Watch.Dirs) == 0 {
		b.WriteString(row("Folders", "None"))
	} else {
		b.WriteString(row("Folders", strings.Join(cfg.Watch.Dirs, ", ")))
	}
	b.WriteString(row("Notify", yesNo(cfg.Watch.Notify)))
	b.WriteString("\n")

	b.WriteString(section("Probe Cache"))
	switch {
	case cfg.Probe.CacheTTLSeconds <= 0:
		b.WriteString(row("Cache", "Off"))
	case cfg.Probe.RedisAddr != "":
		b.WriteString(row("Cache", fmt.Sprintf("Redis %s/%d", cfg.Probe.RedisAddr, cfg.Probe.RedisDB)))
	default:
		b.WriteString(row("Cache", "In-process"))
	}
	b.WriteString(row("TTL", fmt.Sprintf("%ds", cfg.Probe.CacheTTLSeconds)))
	b.WriteString("\n")

	save := lipgloss.NewStyle().Bold(true).Foreground(styles.Success)
	b.WriteString(save.Render("Press Enter to save to " + s.path))
	b.WriteString("\n\n")
	b.WriteString(NavigationHelp())

	return b.String()
}

func section(title string) string {
	return styles.Section.Render(title) + "\n"
}

func row(label, value string) string {
	return styles.Label.Render(label+":") + " " + value + "\n"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// Validate always passes.
func (s *ConfirmStep) Validate() error {
	return nil
}

// Apply runs the full configuration validation before saving.
func (s *ConfirmStep) Apply(cfg *config.Config) error {
	return config.Validate(cfg)
}
