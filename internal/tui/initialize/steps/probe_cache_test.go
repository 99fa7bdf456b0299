package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leefowlercu/imagedrop/internal/config"
)

// runCmd executes cmd and feeds the messages it produces back into the step
// until the step stops returning commands or advances.
func runCmd(t *testing.T, s Step, cmd tea.Cmd) StepResult {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			var next tea.Cmd
			for _, c := range batch {
				if c == nil {
					continue
				}
				m := c()
				if _, ok := m.(redisCheckedMsg); ok {
					next, _ = s.Update(m)
				}
			}
			cmd = next
			continue
		}
		var result StepResult
		cmd, result = s.Update(msg)
		if result != StepContinue {
			return result
		}
	}
	return StepContinue
}

func TestProbeCacheStep_Memory(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Probe.RedisAddr = ""

	s := NewProbeCacheStep()
	s.Init(&cfg)

	if got := s.radio.Selected(); got != cacheMemory {
		t.Fatalf("Selected() = %q, want %q", got, cacheMemory)
	}
	if _, result := s.Update(tea.KeyMsg{Type: tea.KeyEnter}); result != StepNext {
		t.Fatalf("Enter result = %v, want StepNext", result)
	}
	if err := s.Apply(&cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if cfg.Probe.CacheTTLSeconds != config.DefaultProbeCacheTTLSeconds || cfg.Probe.RedisAddr != "" {
		t.Errorf("probe = %+v, want in-process cache", cfg.Probe)
	}
}

func TestProbeCacheStep_Off(t *testing.T) {
	cfg := config.NewDefaultConfig()
	s := NewProbeCacheStep()
	s.Init(&cfg)

	s.Update(tea.KeyMsg{Type: tea.KeyUp})
	if _, result := s.Update(tea.KeyMsg{Type: tea.KeyEnter}); result != StepNext {
		t.Fatalf("Enter result = %v, want StepNext", result)
	}
	if err := s.Apply(&cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if cfg.Probe.CacheTTLSeconds != 0 {
		t.Errorf("cache ttl = %d, want 0", cfg.Probe.CacheTTLSeconds)
	}
}

func TestProbeCacheStep_RedisReachable(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.NewDefaultConfig()
	s := NewProbeCacheStep()
	s.Init(&cfg)

	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	if _, result := s.Update(tea.KeyMsg{Type: tea.KeyEnter}); result != StepContinue {
		t.Fatalf("selecting redis result = %v, want StepContinue", result)
	}
	if s.phase != phaseRedisEntry {
		t.Fatalf("phase = %v, want redis entry", s.phase)
	}

	s.addrInput.SetValue(mr.Addr())
	s.dbInput.SetValue("2")

	cmd, _ := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if s.phase != phaseRedisCheck {
		t.Fatalf("phase = %v, want redis check", s.phase)
	}
	if !strings.Contains(s.View(), "Connecting to "+mr.Addr()) {
		t.Errorf("view = %q", s.View())
	}

	if result := runCmd(t, s, cmd); result != StepNext {
		t.Fatalf("check result = %v, want StepNext", result)
	}
	if err := s.Apply(&cfg); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if cfg.Probe.RedisAddr != mr.Addr() || cfg.Probe.RedisDB != 2 {
		t.Errorf("probe = %+v, want redis %s/2", cfg.Probe, mr.Addr())
	}
}

func TestProbeCacheStep_RedisUnreachable(t *testing.T) {
	cfg := config.NewDefaultConfig()
	s := NewProbeCacheStep()
	s.SetPinger(func(context.Context, string, int) error {
		return errors.New("connection refused")
	})
	s.Init(&cfg)

	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cmd, _ := s.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if result := runCmd(t, s, cmd); result != StepContinue {
		t.Fatalf("check result = %v, want StepContinue", result)
	}
	if s.phase != phaseRedisEntry {
		t.Errorf("phase = %v, want redis entry after failure", s.phase)
	}
	if !strings.Contains(s.View(), "connection refused") {
		t.Errorf("view missing check error: %q", s.View())
	}

	if _, result := s.Update(tea.KeyMsg{Type: tea.KeyEsc}); result != StepContinue || s.phase != phaseCacheSelect {
		t.Errorf("Esc from entry: result %v phase %v", result, s.phase)
	}
}

func TestProbeCacheStep_RedisValidation(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		db      string
		wantErr string
	}{
		{name: "no address", addr: " ", db: "0", wantErr: "address is required"},
		{name: "bad db", addr: "localhost:6379", db: "x", wantErr: "non-negative"},
		{name: "negative db", addr: "localhost:6379", db: "-1", wantErr: "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			s := NewProbeCacheStep()
			s.Init(&cfg)
			s.Update(tea.KeyMsg{Type: tea.KeyDown})
			s.Update(tea.KeyMsg{Type: tea.KeyEnter})

			s.addrInput.SetValue(tt.addr)
			s.dbInput.SetValue(tt.db)
			s.Update(tea.KeyMsg{Type: tea.KeyEnter})

			if s.phase != phaseRedisEntry {
				t.Fatalf("phase = %v, want redis entry", s.phase)
			}
			if s.checkErr == nil || !strings.Contains(s.checkErr.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", s.checkErr, tt.wantErr)
			}
		})
	}
}

func TestProbeCacheStep_InitSelectsRedis(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Probe.RedisAddr = "cache:6379"
	cfg.Probe.RedisDB = 3

	s := NewProbeCacheStep()
	s.Init(&cfg)

	if s.radio.Selected() != cacheRedis {
		t.Errorf("Selected() = %q, want redis", s.radio.Selected())
	}
	if s.addrInput.Value() != "cache:6379" || s.dbInput.Value() != "3" {
		t.Errorf("inputs = %q/%q", s.addrInput.Value(), s.dbInput.Value())
	}
}
