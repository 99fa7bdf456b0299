// Package daemon runs the long-lived imagedrop process: it claims a PID file,
// starts registered components in order, aggregates their health, and stops
// them in reverse order on shutdown.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DaemonState represents the lifecycle state of the daemon.
type DaemonState string

const (
	// DaemonStateStarting indicates the daemon is initializing.
	DaemonStateStarting DaemonState = "starting"

	// DaemonStateRunning indicates the daemon is serving.
	DaemonStateRunning DaemonState = "running"

	// DaemonStateDegraded indicates some components have failed.
	DaemonStateDegraded DaemonState = "degraded"

	// DaemonStateStopping indicates graceful shutdown is in progress.
	DaemonStateStopping DaemonState = "stopping"

	// DaemonStateStopped indicates the daemon has terminated.
	DaemonStateStopped DaemonState = "stopped"
)

// IsTerminal returns true if this state is a terminal state (no further transitions).
func (s DaemonState) IsTerminal() bool {
	return s == DaemonStateStopped
}

// CanTransitionTo returns true if transitioning to the target state is valid.
func (s DaemonState) CanTransitionTo(target DaemonState) bool {
	switch s {
	case DaemonStateStarting:
		return target == DaemonStateRunning || target == DaemonStateStopped
	case DaemonStateRunning:
		return target == DaemonStateDegraded || target == DaemonStateStopping
	case DaemonStateDegraded:
		return target == DaemonStateRunning || target == DaemonStateStopping
	case DaemonStateStopping:
		return target == DaemonStateStopped
	default:
		return false
	}
}

// Component is a unit of work with a start/stop lifecycle.
type Component interface {
	Name() string

	// Start must not block; long-running work belongs in goroutines
	// that end when ctx is cancelled or Stop is called.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health() ComponentHealth
}

// DaemonConfig holds the configuration values for the daemon.
type DaemonConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// PIDFile is the path to the PID file. Empty disables PID file handling.
	PIDFile string
}

// ConfigReloadFunc is a callback function invoked when config is reloaded.
type ConfigReloadFunc func() error

// Daemon is the main process manager. It is safe for concurrent use.
type Daemon struct {
	mu              sync.RWMutex
	config          DaemonConfig
	state           DaemonState
	health          *HealthManager
	pidFile         *PIDFile
	components      []Component
	started         []Component
	failed          map[string]ComponentHealth
	reloadCallbacks []ConfigReloadFunc
	logger          *slog.Logger
}

// NewDaemon creates a new Daemon instance with the given configuration.
func NewDaemon(cfg DaemonConfig) *Daemon {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	d := &Daemon{
		config: cfg,
		state:  DaemonStateStopped,
		health: NewHealthManager(),
		failed: make(map[string]ComponentHealth),
		logger: slog.Default().With("component", "daemon"),
	}
	if cfg.PIDFile != "" {
		d.pidFile = NewPIDFile(cfg.PIDFile)
	}
	return d
}

// RegisterComponent adds a component. Components start in registration
// order and stop in reverse.
func (d *Daemon) RegisterComponent(c Component) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.components = append(d.components, c)
}

// State returns the current daemon state.
func (d *Daemon) State() DaemonState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Daemon) setState(state DaemonState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
}

// Health refreshes component health and returns the aggregate status.
func (d *Daemon) Health() HealthStatus {
	d.mu.RLock()
	started := make([]Component, len(d.started))
	copy(started, d.started)
	failed := make(map[string]ComponentHealth, len(d.failed))
	for name, h := range d.failed {
		failed[name] = h
	}
	d.mu.RUnlock()

	for _, c := range started {
		d.health.UpdateComponent(c.Name(), c.Health())
	}
	for name, h := range failed {
		d.health.UpdateComponent(name, h)
	}

	status := d.health.Status()

	d.mu.Lock()
	switch {
	case d.state == DaemonStateRunning && status.Status == "degraded":
		d.state = DaemonStateDegraded
	case d.state == DaemonStateDegraded && status.Status == "healthy":
		d.state = DaemonStateRunning
	}
	d.mu.Unlock()

	return status
}

// Readiness reports health in the form served at /readyz.
func (d *Daemon) Readiness() (bool, any) {
	status := d.Health()
	return status.Ready && !d.State().IsTerminal(), status
}

// OnConfigReload registers a callback to be invoked when config is reloaded.
func (d *Daemon) OnConfigReload(fn ConfigReloadFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reloadCallbacks = append(d.reloadCallbacks, fn)
}

// TriggerConfigReload invokes all registered config reload callbacks.
// Errors are logged and aggregated, but all callbacks are attempted.
func (d *Daemon) TriggerConfigReload() error {
	d.logger.Info("config reload triggered")

	d.mu.RLock()
	callbacks := make([]ConfigReloadFunc, len(d.reloadCallbacks))
	copy(callbacks, d.reloadCallbacks)
	d.mu.RUnlock()

	var failedCount int
	for i, fn := range callbacks {
		if err := fn(); err != nil {
			d.logger.Error("config reload callback failed", "callback_index", i, "error", err)
			failedCount++
		}
	}

	if failedCount > 0 {
		return fmt.Errorf("%d of %d reload callbacks failed", failedCount, len(callbacks))
	}
	return nil
}

// Start claims the PID file, starts components, and blocks until ctx is
// cancelled. A component that fails to start leaves the daemon degraded
// rather than stopping it.
func (d *Daemon) Start(ctx context.Context) error {
	d.setState(DaemonStateStarting)

	if d.pidFile != nil {
		if err := d.pidFile.CheckAndClaim(); err != nil {
			d.setState(DaemonStateStopped)
			return fmt.Errorf("failed to claim PID file; %w", err)
		}
		defer func() { _ = d.pidFile.Remove() }()
	}

	d.mu.RLock()
	components := make([]Component, len(d.components))
	copy(components, d.components)
	d.mu.RUnlock()

	for _, c := range components {
		if err := c.Start(ctx); err != nil {
			d.logger.Error("component failed to start", "name", c.Name(), "error", err)
			now := time.Now()
			d.mu.Lock()
			d.failed[c.Name()] = ComponentHealth{
				Status:      ComponentStatusFailed,
				Error:       err.Error(),
				LastChecked: now,
				Since:       now,
			}
			d.mu.Unlock()
			continue
		}

		d.mu.Lock()
		d.started = append(d.started, c)
		d.mu.Unlock()
		d.logger.Debug("component started", "name", c.Name())
	}

	d.setState(DaemonStateRunning)
	d.Health()
	d.logger.Info("daemon started", "state", d.State(), "components", len(components))

	<-ctx.Done()
	d.logger.Info("shutdown signal received")

	return d.Stop()
}

// Stop stops started components in reverse order.
func (d *Daemon) Stop() error {
	d.setState(DaemonStateStopping)
	d.logger.Info("stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownTimeout)
	defer cancel()

	d.mu.Lock()
	started := d.started
	d.started = nil
	d.mu.Unlock()

	for i := len(started) - 1; i >= 0; i-- {
		c := started[i]
		if err := c.Stop(shutdownCtx); err != nil {
			d.logger.Error("failed to stop component", "name", c.Name(), "error", err)
		}
		d.health.RemoveComponent(c.Name())
	}

	d.setState(DaemonStateStopped)
	d.logger.Info("daemon stopped")

	return nil
}
