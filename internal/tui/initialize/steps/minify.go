package steps

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/tui/initialize/components"
)

const (
	minifyOff  = "off"
	minifyKeep = "keep"
)

// minifyPresets are the bounding boxes offered, in pixels.
var minifyPresets = []int{800, 1280, 1920}

// MinifyStep chooses whether images are downsized before insertion.
type MinifyStep struct {
	BaseStep

	radio  components.RadioGroup
	keepW  int
	keepH  int
	chosen string
}

// NewMinifyStep creates the minify step.
func NewMinifyStep() *MinifyStep {
	return &MinifyStep{BaseStep: NewBaseStep("Minify")}
}

// Init builds the options and selects the one matching cfg.
func (s *MinifyStep) Init(cfg *config.Config) tea.Cmd {
	options := []components.RadioOption{{
		Label:       "Insert images unchanged",
		Value:       minifyOff,
		Description: "Dropped and pasted images keep their original size",
	}}
	for _, px := range minifyPresets {
		options = append(options, components.RadioOption{
			Label:       fmt.Sprintf("Downsize to fit %dx%d", px, px),
			Value:       strconv.Itoa(px),
			Description: "Larger images are scaled down and re-encoded before insertion",
		})
	}

	current := minifyOff
	if cfg.Minify.Enabled {
		current = minifyKeep
		if cfg.Minify.MaxWidth == cfg.Minify.MaxHeight {
			for _, px := range minifyPresets {
				if px == cfg.Minify.MaxWidth {
					current = strconv.Itoa(px)
				}
			}
		}
	}
	if current == minifyKeep {
		s.keepW, s.keepH = cfg.Minify.MaxWidth, cfg.Minify.MaxHeight
		options = append(options, components.RadioOption{
			Label:       fmt.Sprintf("Keep current bounds (%dx%d)", s.keepW, s.keepH),
			Value:       minifyKeep,
			Description: "Leave the configured minify settings as they are",
		})
	}

	s.radio = components.NewRadioGroup(options)
	s.radio.Select(current)
	s.chosen = ""

	return nil
}

// Update handles input.
func (s *MinifyStep) Update(msg tea.Msg) (tea.Cmd, StepResult) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, StepContinue
	}

	switch keyMsg.Type {
	case tea.KeyEnter:
		s.chosen = s.radio.Selected()
		return nil, StepNext
	case tea.KeyEsc:
		return nil, StepPrev
	default:
		s.radio, _ = s.radio.Update(msg)
		return nil, StepContinue
	}
}

// View renders the step.
func (s *MinifyStep) View() string {
	var b strings.Builder

	b.WriteString(stepHeading("Image Minify", "Choose how images are sized before they are inserted:"))
	b.WriteString(s.radio.View())
	b.WriteString("\n")
	b.WriteString(NavigationHelp())

	return b.String()
}

// Validate always passes; every option is valid.
func (s *MinifyStep) Validate() error {
	return nil
}

// Apply writes the minify settings.
func (s *MinifyStep) Apply(cfg *config.Config) error {
	choice := s.chosen
	if choice == "" {
		choice = s.radio.Selected()
	}

	switch choice {
	case minifyOff:
		cfg.Minify.Enabled = false
	case minifyKeep:
		cfg.Minify.Enabled = true
		cfg.Minify.MaxWidth, cfg.Minify.MaxHeight = s.keepW, s.keepH
	default:
		px, err := strconv.Atoi(choice)
		if err != nil {
			return fmt.Errorf("unknown minify option %q", choice)
		}
		cfg.Minify.Enabled = true
		cfg.Minify.MaxWidth, cfg.Minify.MaxHeight = px, px
	}

	return nil
}
