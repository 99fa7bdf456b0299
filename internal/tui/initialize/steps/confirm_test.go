package steps

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
)

func TestConfirmStep_View(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Server.AuthSecret = "s3cret"
	cfg.Minify.Enabled = true
	cfg.Watch.Dirs = []string{"~/Drops"}
	cfg.Probe.RedisAddr = "localhost:6379"

	s := NewConfirmStep("/tmp/imagedrop/config.yaml")
	s.Init(&cfg)
	view := s.View()

	for _, want := range []string{
		"127.0.0.1:7610",
		"Bearer token",
		"800x800",
		"~/Drops",
		"Redis localhost:6379/0",
		"/tmp/imagedrop/config.yaml",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "s3cret") {
		t.Error("view shows the auth secret")
	}
}

func TestConfirmStep_ViewDefaults(t *testing.T) {
	cfg := config.NewDefaultConfig()
	s := NewConfirmStep("config.yaml")
	s.Init(&cfg)
	view := s.View()

	for _, want := range []string{"Open", "Off", "None", "In-process"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestConfirmStep_Navigation(t *testing.T) {
	tests := []struct {
		key  tea.KeyType
		want StepResult
	}{
		{tea.KeyEnter, StepNext},
		{tea.KeyEsc, StepPrev},
		{tea.KeyDown, StepContinue},
	}

	cfg := config.NewDefaultConfig()
	s := NewConfirmStep("config.yaml")
	s.Init(&cfg)

	for _, tt := range tests {
		if _, got := s.Update(tea.KeyMsg{Type: tt.key}); got != tt.want {
			t.Errorf("key %v: result %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestConfirmStep_ApplyValidates(t *testing.T) {
	s := NewConfirmStep("config.yaml")

	cfg := config.NewDefaultConfig()
	if err := s.Apply(&cfg); err != nil {
		t.Errorf("Apply(defaults) = %v", err)
	}

	cfg.Server.Port = 0
	if err := s.Apply(&cfg); !config.IsValidationError(err) {
		t.Errorf("Apply(port 0) = %v, want validation error", err)
	}
}
