package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDaemonState_IsTerminal(t *testing.T) {
	tests := []struct {
		state DaemonState
		want  bool
	}{
		{DaemonStateStarting, false},
		{DaemonStateRunning, false},
		{DaemonStateDegraded, false},
		{DaemonStateStopping, false},
		{DaemonStateStopped, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaemonState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from DaemonState
		to   DaemonState
		want bool
	}{
		{DaemonStateStarting, DaemonStateRunning, true},
		{DaemonStateStarting, DaemonStateStopped, true},
		{DaemonStateStarting, DaemonStateDegraded, false},
		{DaemonStateRunning, DaemonStateDegraded, true},
		{DaemonStateRunning, DaemonStateStopping, true},
		{DaemonStateRunning, DaemonStateStarting, false},
		{DaemonStateDegraded, DaemonStateRunning, true},
		{DaemonStateDegraded, DaemonStateStopping, true},
		{DaemonStateStopping, DaemonStateStopped, true},
		{DaemonStateStopping, DaemonStateRunning, false},
		{DaemonStateStopped, DaemonStateStarting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaemon_NewDaemon(t *testing.T) {
	d := NewDaemon(DaemonConfig{})

	if d.State() != DaemonStateStopped {
		t.Errorf("State() = %v, want %v", d.State(), DaemonStateStopped)
	}
	if d.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default 10s", d.config.ShutdownTimeout)
	}
	if d.pidFile != nil {
		t.Error("pidFile set without a configured path")
	}
	if h := d.Health(); h.Status != "healthy" {
		t.Errorf("Health().Status = %q, want healthy", h.Status)
	}
}

// recordingComponent tracks start/stop order across components.
type recordingComponent struct {
	name     string
	startErr error
	status   ComponentStatus

	mu     *sync.Mutex
	starts *[]string
	stops  *[]string
}

func (c *recordingComponent) Name() string { return c.name }

func (c *recordingComponent) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.starts = append(*c.starts, c.name)
	return c.startErr
}

func (c *recordingComponent) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.stops = append(*c.stops, c.name)
	return nil
}

func (c *recordingComponent) Health() ComponentHealth {
	status := c.status
	if status == "" {
		status = ComponentStatusRunning
	}
	return ComponentHealth{Status: status, LastChecked: time.Now()}
}

type recorder struct {
	mu     sync.Mutex
	starts []string
	stops  []string
}

func (r *recorder) component(name string) *recordingComponent {
	return &recordingComponent{name: name, mu: &r.mu, starts: &r.starts, stops: &r.stops}
}

func (r *recorder) snapshot() (starts, stops []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.starts...), append([]string(nil), r.stops...)
}

func runDaemon(t *testing.T, d *Daemon) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for d.State() != DaemonStateRunning && d.State() != DaemonStateDegraded {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("daemon did not start; state = %v", d.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	return cancel, errCh
}

func waitStopped(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
}

func TestDaemon_Start_ContextCancellation(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "imagedrop.pid")
	d := NewDaemon(DaemonConfig{ShutdownTimeout: time.Second, PIDFile: pidPath})

	cancel, errCh := runDaemon(t, d)

	if _, err := os.Stat(pidPath); err != nil {
		t.Errorf("PID file not written while running: %v", err)
	}

	cancel()
	waitStopped(t, errCh)

	if d.State() != DaemonStateStopped {
		t.Errorf("State() after cancel = %v, want %v", d.State(), DaemonStateStopped)
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("PID file not removed on shutdown")
	}
}

func TestDaemon_Start_AlreadyRunning(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "imagedrop.pid")
	if err := os.WriteFile(pidPath, []byte("1"), 0o644); err != nil {
		t.Fatalf("failed to seed PID file: %v", err)
	}

	d := NewDaemon(DaemonConfig{PIDFile: pidPath})
	err := d.Start(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Start() error = %v, want ErrAlreadyRunning", err)
	}
	if d.State() != DaemonStateStopped {
		t.Errorf("State() = %v, want %v", d.State(), DaemonStateStopped)
	}
}

func TestDaemon_ComponentOrder(t *testing.T) {
	r := &recorder{}
	d := NewDaemon(DaemonConfig{ShutdownTimeout: time.Second})
	for _, name := range []string{"watcher", "metrics", "server"} {
		d.RegisterComponent(r.component(name))
	}

	cancel, errCh := runDaemon(t, d)
	cancel()
	waitStopped(t, errCh)

	starts, stops := r.snapshot()
	wantStarts := []string{"watcher", "metrics", "server"}
	wantStops := []string{"server", "metrics", "watcher"}

	for i := range wantStarts {
		if i >= len(starts) || starts[i] != wantStarts[i] {
			t.Fatalf("start order = %v, want %v", starts, wantStarts)
		}
		if i >= len(stops) || stops[i] != wantStops[i] {
			t.Fatalf("stop order = %v, want %v", stops, wantStops)
		}
	}
}

func TestDaemon_DegradedOnComponentFailure(t *testing.T) {
	r := &recorder{}
	d := NewDaemon(DaemonConfig{ShutdownTimeout: time.Second})

	broken := r.component("watcher")
	broken.startErr = errors.New("no inotify instances left")
	d.RegisterComponent(broken)
	d.RegisterComponent(r.component("server"))

	cancel, errCh := runDaemon(t, d)
	defer func() {
		cancel()
		waitStopped(t, errCh)

		_, stops := r.snapshot()
		if len(stops) != 1 || stops[0] != "server" {
			t.Errorf("stops = %v, want only the started server", stops)
		}
	}()

	ready, detail := d.Readiness()
	if !ready {
		t.Error("Readiness() = false, want ready while degraded")
	}

	status, ok := detail.(HealthStatus)
	if !ok {
		t.Fatalf("Readiness() detail type = %T", detail)
	}
	if status.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", status.Status)
	}
	if h := status.Components["watcher"]; h.Status != ComponentStatusFailed || h.Error == "" {
		t.Errorf("watcher health = %+v", h)
	}
	if d.State() != DaemonStateDegraded {
		t.Errorf("State() = %v, want %v", d.State(), DaemonStateDegraded)
	}
}

func TestDaemon_Readiness_Stopped(t *testing.T) {
	d := NewDaemon(DaemonConfig{})
	if ready, _ := d.Readiness(); ready {
		t.Error("Readiness() = true for a stopped daemon")
	}
}

func TestDaemon_TriggerConfigReload(t *testing.T) {
	d := NewDaemon(DaemonConfig{})

	var calls int
	d.OnConfigReload(func() error {
		calls++
		return nil
	})
	d.OnConfigReload(func() error {
		calls++
		return errors.New("bad value")
	})
	d.OnConfigReload(func() error {
		calls++
		return nil
	})

	err := d.TriggerConfigReload()
	if err == nil {
		t.Fatal("TriggerConfigReload() expected error")
	}
	if calls != 3 {
		t.Errorf("callbacks run = %d, want 3", calls)
	}
}
