// Package components provides the input widgets used by the init wizard.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

// Progress renders a dot trail and the name of the active step.
type Progress struct {
	steps   []string
	current int
}

// NewProgress creates a progress indicator over the given step names.
func NewProgress(steps []string) Progress {
	return Progress{steps: steps}
}

// SetCurrent moves to step, clamped to the valid range.
func (p *Progress) SetCurrent(step int) {
	switch {
	case step < 0:
		p.current = 0
	case step >= len(p.steps):
		p.current = len(p.steps) - 1
	default:
		p.current = step
	}
}

// Current returns the active step index.
func (p Progress) Current() int {
	return p.current
}

// Total returns the number of steps.
func (p Progress) Total() int {
	return len(p.steps)
}

// CurrentName returns the name of the active step.
func (p Progress) CurrentName() string {
	if p.current < 0 || p.current >= len(p.steps) {
		return ""
	}
	return p.steps[p.current]
}

// View renders the indicator.
func (p Progress) View() string {
	var b strings.Builder

	filled := lipgloss.NewStyle().Foreground(styles.Primary)
	empty := lipgloss.NewStyle().Foreground(styles.Muted)

	for i := range p.steps {
		if i > 0 {
			b.WriteString(" ")
		}
		if i <= p.current {
			b.WriteString(filled.Render(styles.ProgressFilled))
		} else {
			b.WriteString(empty.Render(styles.ProgressEmpty))
		}
	}

	b.WriteString("  ")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("Step %d of %d:", p.current+1, len(p.steps))))
	b.WriteString(" ")
	b.WriteString(styles.Title.Render(p.CurrentName()))
	b.WriteString("\n")

	return b.String()
}
