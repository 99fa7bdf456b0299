package daemon

import (
	"sync"
	"time"
)

// ComponentStatus represents the health state of a component.
type ComponentStatus string

const (
	// ComponentStatusRunning indicates the component is operating normally.
	ComponentStatusRunning ComponentStatus = "running"

	// ComponentStatusFailed indicates the component has encountered an error.
	ComponentStatusFailed ComponentStatus = "failed"

	// ComponentStatusDegraded indicates the component is running with reduced capabilities.
	ComponentStatusDegraded ComponentStatus = "degraded"

	// ComponentStatusStopped indicates the component has been intentionally stopped.
	ComponentStatusStopped ComponentStatus = "stopped"
)

// IsHealthy returns true if the component status indicates healthy operation.
func (s ComponentStatus) IsHealthy() bool {
	return s == ComponentStatusRunning
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status ComponentStatus `json:"status"`

	// Error is set when Status is "failed" or "degraded".
	Error string `json:"error,omitempty"`

	LastChecked time.Time `json:"last_checked"`

	// Since is when the component entered the current state.
	Since time.Time `json:"since,omitempty"`

	// Details carries optional, non-sensitive diagnostic data.
	Details map[string]any `json:"details,omitempty"`
}

// IsHealthy returns true if the component health indicates healthy operation.
func (h ComponentHealth) IsHealthy() bool {
	return h.Status.IsHealthy()
}

// HealthStatus is the aggregate health served at /readyz.
type HealthStatus struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Ready is true for both healthy and degraded states.
	Ready bool `json:"ready"`

	Uptime time.Duration `json:"uptime"`

	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// HealthManager aggregates health status from multiple components.
// It is safe for concurrent use.
type HealthManager struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	startTime  time.Time
}

// NewHealthManager creates a new HealthManager instance.
func NewHealthManager() *HealthManager {
	return &HealthManager{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}
}

// UpdateComponent updates the health status for a named component.
func (m *HealthManager) UpdateComponent(name string, health ComponentHealth) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = health
}

// RemoveComponent removes a component from health tracking.
func (m *HealthManager) RemoveComponent(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.components, name)
}

// Status returns the aggregate health status of all components.
func (m *HealthManager) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := HealthStatus{
		Status:     "healthy",
		Ready:      true,
		Uptime:     time.Since(m.startTime),
		Components: make(map[string]ComponentHealth, len(m.components)),
	}

	for name, health := range m.components {
		status.Components[name] = health
		if !health.IsHealthy() {
			status.Status = "degraded"
		}
	}

	return status
}
