// Package steps provides the pages of the init wizard.
package steps

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
)

// StepResult tells the wizard what to do after an update.
type StepResult int

const (
	// StepContinue keeps the current step active.
	StepContinue StepResult = iota
	// StepNext validates and applies the step, then advances.
	StepNext
	// StepPrev returns to the previous step.
	StepPrev
)

// Step is one page of the wizard.
type Step interface {
	// Init is called each time the step becomes active and pre-fills it
	// from cfg.
	Init(cfg *config.Config) tea.Cmd

	Update(msg tea.Msg) (tea.Cmd, StepResult)
	View() string
	Title() string

	// Validate checks the input before Apply.
	Validate() error

	// Apply writes the step's values into cfg.
	Apply(cfg *config.Config) error
}

// BaseStep carries the step title.
type BaseStep struct {
	title string
}

// NewBaseStep creates a base step with the given title.
func NewBaseStep(title string) BaseStep {
	return BaseStep{title: title}
}

// Title returns the step's title.
func (b BaseStep) Title() string {
	return b.title
}
