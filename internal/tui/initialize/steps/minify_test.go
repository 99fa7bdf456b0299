package steps

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
)

func TestMinifyStep_Choices(t *testing.T) {
	tests := []struct {
		name       string
		downs      int
		wantOn     bool
		wantBounds int
	}{
		{name: "unchanged", downs: 0, wantOn: false},
		{name: "800", downs: 1, wantOn: true, wantBounds: 800},
		{name: "1920", downs: 3, wantOn: true, wantBounds: 1920},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			s := NewMinifyStep()
			s.Init(&cfg)

			for range tt.downs {
				s.Update(tea.KeyMsg{Type: tea.KeyDown})
			}
			if _, result := s.Update(tea.KeyMsg{Type: tea.KeyEnter}); result != StepNext {
				t.Fatalf("Enter result = %v, want StepNext", result)
			}
			if err := s.Apply(&cfg); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}

			if cfg.Minify.Enabled != tt.wantOn {
				t.Errorf("enabled = %v, want %v", cfg.Minify.Enabled, tt.wantOn)
			}
			if tt.wantOn && (cfg.Minify.MaxWidth != tt.wantBounds || cfg.Minify.MaxHeight != tt.wantBounds) {
				t.Errorf("bounds = %dx%d, want %d", cfg.Minify.MaxWidth, cfg.Minify.MaxHeight, tt.wantBounds)
			}
		})
	}
}

func TestMinifyStep_PreselectsPreset(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Minify.Enabled = true
	cfg.Minify.MaxWidth, cfg.Minify.MaxHeight = 1280, 1280

	s := NewMinifyStep()
	s.Init(&cfg)

	if got := s.radio.Selected(); got != "1280" {
		t.Errorf("Selected() = %q, want 1280", got)
	}
}

func TestMinifyStep_KeepsCustomBounds(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Minify.Enabled = true
	cfg.Minify.MaxWidth, cfg.Minify.MaxHeight = 640, 480

	s := NewMinifyStep()
	s.Init(&cfg)

	if !strings.Contains(s.View(), "Keep current bounds (640x480)") {
		t.Fatalf("view missing keep option: %q", s.View())
	}

	s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cfg.Minify.MaxWidth, cfg.Minify.MaxHeight = 0, 0
	if err := s.Apply(&cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !cfg.Minify.Enabled || cfg.Minify.MaxWidth != 640 || cfg.Minify.MaxHeight != 480 {
		t.Errorf("minify = %+v, want enabled 640x480", cfg.Minify)
	}
}

func TestMinifyStep_Esc(t *testing.T) {
	cfg := config.NewDefaultConfig()
	s := NewMinifyStep()
	s.Init(&cfg)

	if _, result := s.Update(tea.KeyMsg{Type: tea.KeyEsc}); result != StepPrev {
		t.Errorf("Esc result = %v, want StepPrev", result)
	}
}
