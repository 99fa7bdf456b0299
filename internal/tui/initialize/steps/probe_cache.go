package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"

	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/tui/initialize/components"
	"github.com/leefowlercu/imagedrop/internal/tui/styles"
)

type probeCachePhase int

const (
	phaseCacheSelect probeCachePhase = iota
	phaseRedisEntry
	phaseRedisCheck
	phaseComplete
)

const (
	cacheMemory = "memory"
	cacheRedis  = "redis"
	cacheOff    = "off"
)

const redisPingTimeout = 2 * time.Second

// RedisPinger checks that a Redis server answers at addr.
type RedisPinger func(ctx context.Context, addr string, db int) error

type redisCheckedMsg struct {
	err error
}

type delayCompleteMsg struct{}

// PingRedis connects to addr and sends PING.
func PingRedis(ctx context.Context, addr string, db int) error {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis at %s did not answer; %w", addr, err)
	}
	return nil
}

// ProbeCacheStep chooses where URL probe results are cached.
type ProbeCacheStep struct {
	BaseStep

	phase     probeCachePhase
	radio     components.RadioGroup
	addrInput components.TextInput
	dbInput   components.TextInput
	spinner   spinner.Model
	pinger    RedisPinger
	checkErr  error
	choice    string
	ttl       int
}

// NewProbeCacheStep creates the probe cache step.
func NewProbeCacheStep() *ProbeCacheStep {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &ProbeCacheStep{
		BaseStep:  NewBaseStep("Probe Cache"),
		addrInput: components.NewTextInput("Redis address:", "localhost:6379"),
		dbInput:   components.NewTextInput("Database:", "0"),
		spinner:   sp,
		pinger:    PingRedis,
	}
}

// SetPinger replaces the Redis connection check.
func (s *ProbeCacheStep) SetPinger(p RedisPinger) {
	s.pinger = p
}

// Init selects the option matching cfg.
func (s *ProbeCacheStep) Init(cfg *config.Config) tea.Cmd {
	s.radio = components.NewRadioGroup([]components.RadioOption{
		{
			Label:       "In-process cache",
			Value:       cacheMemory,
			Description: "Each imagedrop process remembers the URLs it has probed",
		},
		{
			Label:       "Shared Redis cache",
			Value:       cacheRedis,
			Description: "serve, watch and paste share probe results through Redis",
		},
		{
			Label:       "No cache",
			Value:       cacheOff,
			Description: "Probe every pasted URL",
		},
	})

	switch {
	case cfg.Probe.CacheTTLSeconds <= 0:
		s.radio.Select(cacheOff)
	case cfg.Probe.RedisAddr != "":
		s.radio.Select(cacheRedis)
	}

	if cfg.Probe.RedisAddr != "" {
		s.addrInput.SetValue(cfg.Probe.RedisAddr)
	}
	s.dbInput.SetValue(strconv.Itoa(cfg.Probe.RedisDB))

	s.ttl = cfg.Probe.CacheTTLSeconds
	s.phase = phaseCacheSelect
	s.checkErr = nil
	s.choice = ""
	s.addrInput.Blur()
	s.dbInput.Blur()

	return nil
}

// Update handles input and the Redis check.
func (s *ProbeCacheStep) Update(msg tea.Msg) (tea.Cmd, StepResult) {
	switch msg := msg.(type) {
	case delayCompleteMsg:
		return nil, StepNext

	case redisCheckedMsg:
		if msg.err != nil {
			slog.Debug("redis check failed", "addr", s.addrInput.Value(), "error", msg.err)
			s.checkErr = msg.err
			s.phase = phaseRedisEntry
			return s.addrInput.Focus(), StepContinue
		}
		s.phase = phaseComplete
		return tea.Tick(800*time.Millisecond, func(time.Time) tea.Msg {
			return delayCompleteMsg{}
		}), StepContinue

	case spinner.TickMsg:
		if s.phase != phaseRedisCheck {
			return nil, StepContinue
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd, StepContinue

	case tea.KeyMsg:
		switch s.phase {
		case phaseCacheSelect:
			return s.handleSelect(msg)
		case phaseRedisEntry:
			return s.handleRedisEntry(msg)
		}
	}

	return nil, StepContinue
}

func (s *ProbeCacheStep) handleSelect(msg tea.KeyMsg) (tea.Cmd, StepResult) {
	switch msg.Type {
	case tea.KeyEnter:
		s.choice = s.radio.Selected()
		if s.choice == cacheRedis {
			s.phase = phaseRedisEntry
			s.checkErr = nil
			return s.addrInput.Focus(), StepContinue
		}
		return nil, StepNext

	case tea.KeyEsc:
		return nil, StepPrev

	default:
		s.radio, _ = s.radio.Update(msg)
		return nil, StepContinue
	}
}

func (s *ProbeCacheStep) handleRedisEntry(msg tea.KeyMsg) (tea.Cmd, StepResult) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := s.Validate(); err != nil {
			s.checkErr = err
			return nil, StepContinue
		}
		s.phase = phaseRedisCheck
		s.checkErr = nil
		s.addrInput.Blur()
		s.dbInput.Blur()
		return tea.Batch(s.spinner.Tick, s.checkRedis()), StepContinue

	case tea.KeyEsc:
		s.phase = phaseCacheSelect
		s.addrInput.Blur()
		s.dbInput.Blur()
		return nil, StepContinue

	case tea.KeyTab, tea.KeyShiftTab:
		if s.addrInput.Focused() {
			s.addrInput.Blur()
			return s.dbInput.Focus(), StepContinue
		}
		s.dbInput.Blur()
		return s.addrInput.Focus(), StepContinue

	default:
		var cmd tea.Cmd
		if s.addrInput.Focused() {
			s.addrInput, cmd = s.addrInput.Update(msg)
		} else {
			s.dbInput, cmd = s.dbInput.Update(msg)
		}
		return cmd, StepContinue
	}
}

func (s *ProbeCacheStep) checkRedis() tea.Cmd {
	addr := strings.TrimSpace(s.addrInput.Value())
	db, _ := strconv.Atoi(strings.TrimSpace(s.dbInput.Value()))
	pinger := s.pinger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		return redisCheckedMsg{err: pinger(ctx, addr, db)}
	}
}

// View renders the step.
func (s *ProbeCacheStep) View() string {
	var b strings.Builder

	switch s.phase {
	case phaseCacheSelect:
		b.WriteString(stepHeading("Probe Cache", "Pasted URLs are probed to see whether they are images. Cache results in:"))
		b.WriteString(s.radio.View())
	case phaseRedisEntry:
		b.WriteString(stepHeading("Probe Cache", "Enter the Redis connection details:"))
		b.WriteString(s.addrInput.View())
		b.WriteString("\n\n")
		b.WriteString(s.dbInput.View())
		b.WriteString("\n")
	case phaseRedisCheck:
		b.WriteString(stepHeading("Probe Cache", "Checking the Redis connection:"))
		b.WriteString(s.spinner.View() + " Connecting to " + strings.TrimSpace(s.addrInput.Value()) + "...\n")
	case phaseComplete:
		b.WriteString(stepHeading("Probe Cache", "Checking the Redis connection:"))
		b.WriteString(FormatSuccess("Redis is reachable") + "\n")
	}

	if s.checkErr != nil {
		b.WriteString("\n")
		b.WriteString(FormatError(s.checkErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if s.phase == phaseRedisEntry {
		b.WriteString(NavigationHelpWithInput())
	} else {
		b.WriteString(NavigationHelp())
	}

	return b.String()
}

// Validate checks the Redis details when Redis is chosen.
func (s *ProbeCacheStep) Validate() error {
	if s.phase != phaseRedisEntry && s.choice != cacheRedis {
		return nil
	}

	if strings.TrimSpace(s.addrInput.Value()) == "" {
		return errors.New("redis address is required")
	}
	db, err := strconv.Atoi(strings.TrimSpace(s.dbInput.Value()))
	if err != nil || db < 0 {
		return errors.New("database must be a non-negative number")
	}
	return nil
}

// Apply writes the probe cache settings.
func (s *ProbeCacheStep) Apply(cfg *config.Config) error {
	choice := s.choice
	if choice == "" {
		choice = s.radio.Selected()
	}

	ttl := s.ttl
	if ttl <= 0 {
		ttl = config.DefaultProbeCacheTTLSeconds
	}

	switch choice {
	case cacheOff:
		cfg.Probe.CacheTTLSeconds = 0
		cfg.Probe.RedisAddr = ""
	case cacheMemory:
		cfg.Probe.CacheTTLSeconds = ttl
		cfg.Probe.RedisAddr = ""
	case cacheRedis:
		db, err := strconv.Atoi(strings.TrimSpace(s.dbInput.Value()))
		if err != nil {
			return fmt.Errorf("invalid redis database; %w", err)
		}
		cfg.Probe.CacheTTLSeconds = ttl
		cfg.Probe.RedisAddr = strings.TrimSpace(s.addrInput.Value())
		cfg.Probe.RedisDB = db
	}

	slog.Debug("applying probe cache configuration", "cache", choice, "redis_addr", cfg.Probe.RedisAddr)
	return nil
}
