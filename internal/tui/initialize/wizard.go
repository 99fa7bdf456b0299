// Package initialize provides the interactive configuration wizard.
package initialize

import (
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/tui/initialize/components"
	"github.com/leefowlercu/imagedrop/internal/tui/initialize/steps"
	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

type Step = steps.Step
type StepResult = steps.StepResult

const (
	StepContinue = steps.StepContinue
	StepNext     = steps.StepNext
	StepPrev     = steps.StepPrev
)

// WizardResult is the outcome of a wizard run.
type WizardResult struct {
	// Config holds the edited configuration. It is only complete when
	// Confirmed is true.
	Config    *config.Config
	Confirmed bool
	Cancelled bool
	Err       error
}

// WizardModel is the bubbletea model driving a list of steps.
type WizardModel struct {
	steps       []Step
	currentStep int
	config      *config.Config
	progress    components.Progress
	err         error
	cancelled   bool
	confirmed   bool
	quitting    bool
}

// DefaultSteps returns the standard step list for a config written to path.
func DefaultSteps(path string) []Step {
	return []Step{
		steps.NewServerStep(),
		steps.NewMinifyStep(),
		steps.NewWatchStep(),
		steps.NewProbeCacheStep(),
		steps.NewConfirmStep(path),
	}
}

// NewWizard creates a wizard that edits cfg in place.
func NewWizard(cfg *config.Config, stepList []Step) WizardModel {
	titles := make([]string, len(stepList))
	for i, s := range stepList {
		titles[i] = s.Title()
	}

	slog.Debug("creating wizard model", "step_count", len(stepList))

	return WizardModel{
		steps:    stepList,
		config:   cfg,
		progress: components.NewProgress(titles),
	}
}

// Init initializes the first step.
func (m WizardModel) Init() tea.Cmd {
	if len(m.steps) == 0 {
		return tea.Quit
	}
	return m.steps[0].Init(m.config)
}

// Update handles ctrl+c and delegates everything else to the current step.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyCtrlC {
		slog.Debug("wizard cancelled")
		m.cancelled = true
		m.quitting = true
		return m, tea.Quit
	}

	if m.currentStep < 0 || m.currentStep >= len(m.steps) {
		return m, nil
	}

	cmd, result := m.steps[m.currentStep].Update(msg)
	switch result {
	case StepNext:
		return m.nextStep()
	case StepPrev:
		return m.prevStep()
	}

	return m, cmd
}

// View renders the header, progress and current step.
func (m WizardModel) View() string {
	if m.quitting {
		if m.cancelled {
			return styles.ErrorText.Render("Setup cancelled.") + "\n"
		}
		return ""
	}

	var b strings.Builder

	b.WriteString(styles.Header.Render("imagedrop setup"))
	b.WriteString("\n\n")
	b.WriteString(m.progress.View())
	b.WriteString("\n")

	if m.currentStep >= 0 && m.currentStep < len(m.steps) {
		b.WriteString(m.steps[m.currentStep].View())
	}

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.ErrorText.Render(m.err.Error()))
	}

	return styles.Container.Render(b.String())
}

func (m WizardModel) nextStep() (tea.Model, tea.Cmd) {
	current := m.steps[m.currentStep]

	if err := current.Validate(); err != nil {
		slog.Debug("step validation failed", "step", current.Title(), "error", err)
		m.err = err
		return m, nil
	}
	if err := current.Apply(m.config); err != nil {
		slog.Debug("step apply failed", "step", current.Title(), "error", err)
		m.err = err
		return m, nil
	}
	m.err = nil

	if m.currentStep == len(m.steps)-1 {
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit
	}

	m.currentStep++
	m.progress.SetCurrent(m.currentStep)
	slog.Debug("advancing wizard", "step", m.steps[m.currentStep].Title())

	return m, m.steps[m.currentStep].Init(m.config)
}

func (m WizardModel) prevStep() (tea.Model, tea.Cmd) {
	if m.currentStep == 0 {
		return m, nil
	}

	m.err = nil
	m.currentStep--
	m.progress.SetCurrent(m.currentStep)

	return m, m.steps[m.currentStep].Init(m.config)
}

// Result returns the outcome so far.
func (m WizardModel) Result() WizardResult {
	return WizardResult{
		Config:    m.config,
		Confirmed: m.confirmed,
		Cancelled: m.cancelled,
		Err:       m.err,
	}
}

// RunWizard runs the wizard on the terminal, or on the IO given in opts.
func RunWizard(cfg *config.Config, stepList []Step, opts ...tea.ProgramOption) (WizardResult, error) {
	p := tea.NewProgram(NewWizard(cfg, stepList), opts...)

	final, err := p.Run()
	if err != nil {
		return WizardResult{Err: err}, err
	}

	m, ok := final.(WizardModel)
	if !ok {
		return WizardResult{}, nil
	}
	return m.Result(), nil
}
