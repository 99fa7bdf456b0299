package watcher

import (
	"sync"
	"time"
)

// ChangeType is the kind of filesystem change fed to the Coalescer.
type ChangeType int

const (
	ChangeWrite ChangeType = iota
	ChangeRemove
)

// Change is a single filesystem change for a path.
type Change struct {
	Path      string
	Type      ChangeType
	Timestamp time.Time
}

// Settled is emitted once a path has seen no writes for the debounce window.
type Settled struct {
	Path string
	// Writes is the number of write changes folded into this emission.
	Writes    int
	FirstSeen time.Time
	SettledAt time.Time
}

// Coalescer folds bursts of writes to the same path into one Settled
// emission. A removal before the path settles discards it.
type Coalescer struct {
	debounceWindow time.Duration

	mu      sync.Mutex
	pending map[string]*pendingPath
	settled chan Settled
	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

type pendingPath struct {
	firstSeen time.Time
	writes    int
	timer     *time.Timer
}

// NewCoalescer creates a Coalescer with the given debounce window.
func NewCoalescer(debounceWindow time.Duration) *Coalescer {
	return &Coalescer{
		debounceWindow: debounceWindow,
		pending:        make(map[string]*pendingPath),
		settled:        make(chan Settled, 256),
		stopCh:         make(chan struct{}),
	}
}

// Add feeds a change into the coalescer.
func (c *Coalescer) Add(change Change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	pp, exists := c.pending[change.Path]

	if change.Type == ChangeRemove {
		if exists {
			pp.timer.Stop()
			delete(c.pending, change.Path)
		}
		return
	}

	if exists {
		// emit() re-checks the pending map, so a timer that already fired is harmless.
		pp.timer.Stop()
		pp.writes++
	} else {
		pp = &pendingPath{firstSeen: change.Timestamp, writes: 1}
		c.pending[change.Path] = pp
	}

	path := change.Path
	pp.timer = time.AfterFunc(c.debounceWindow, func() {
		c.emit(path, pp)
	})
}

func (c *Coalescer) emit(path string, pp *pendingPath) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	current, exists := c.pending[path]
	if !exists || current != pp {
		c.mu.Unlock()
		return
	}
	delete(c.pending, path)
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()

	s := Settled{
		Path:      path,
		Writes:    pp.writes,
		FirstSeen: pp.firstSeen,
		SettledAt: time.Now(),
	}

	select {
	case c.settled <- s:
	case <-c.stopCh:
	}
}

// Settled returns the channel of settled paths. It is closed by Stop.
func (c *Coalescer) Settled() <-chan Settled {
	return c.settled
}

// PendingCount returns the number of paths still waiting to settle.
func (c *Coalescer) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stop cancels pending timers and closes the Settled channel.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	for path, pp := range c.pending {
		pp.timer.Stop()
		delete(c.pending, path)
	}
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	close(c.settled)
}
