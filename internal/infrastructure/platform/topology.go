package platform

import (
	"context"
	"sync"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
)

// StaticTopology implements ports.MonitorTopology over a fixed monitor set,
// with Connect/Disconnect hooks to simulate hot-plug events.
type StaticTopology struct {
	mu       sync.Mutex
	monitors map[string]monitor.Snapshot
	order    []string
	changes  chan ports.TopologyChange
	closed   bool
}

// NewStaticTopology creates a topology with the given monitors. With none
// given, a single 1920x1080 primary monitor is installed.
func NewStaticTopology(monitors ...monitor.Snapshot) *StaticTopology {
	t := &StaticTopology{
		monitors: make(map[string]monitor.Snapshot),
		changes:  make(chan ports.TopologyChange, 8),
	}
	if len(monitors) == 0 {
		monitors = []monitor.Snapshot{DefaultMonitor()}
	}
	for _, m := range monitors {
		t.monitors[m.ID] = m
		t.order = append(t.order, m.ID)
	}
	return t
}

// DefaultMonitor returns the standard simulated display.
func DefaultMonitor() monitor.Snapshot {
	bounds := geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	return monitor.Snapshot{
		ID:         "display-1",
		Name:       "Simulated Display",
		Bounds:     bounds,
		UsableArea: bounds,
		Scale:      1,
		Primary:    true,
	}
}

// EnumerateMonitors returns a snapshot of all connected monitors.
func (t *StaticTopology) EnumerateMonitors(ctx context.Context) ([]monitor.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]monitor.Snapshot, 0, len(t.order))
	for _, id := range t.order {
		if m, ok := t.monitors[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Connect adds a monitor and emits a topology change.
func (t *StaticTopology) Connect(m monitor.Snapshot) {
	t.mu.Lock()
	if _, ok := t.monitors[m.ID]; !ok {
		t.order = append(t.order, m.ID)
	}
	t.monitors[m.ID] = m
	closed := t.closed
	t.mu.Unlock()

	if !closed {
		t.emit(ports.TopologyChange{Connected: true, Monitor: m})
	}
}

// Disconnect removes a monitor and emits a topology change.
func (t *StaticTopology) Disconnect(id string) {
	t.mu.Lock()
	m, ok := t.monitors[id]
	if ok {
		delete(t.monitors, id)
	}
	closed := t.closed
	t.mu.Unlock()

	if ok && !closed {
		t.emit(ports.TopologyChange{Connected: false, Monitor: m})
	}
}

// Changes returns the connect/disconnect notification stream.
func (t *StaticTopology) Changes() <-chan ports.TopologyChange {
	return t.changes
}

// Close shuts down the change stream.
func (t *StaticTopology) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.changes)
}

func (t *StaticTopology) emit(ch ports.TopologyChange) {
	select {
	case t.changes <- ch:
	default:
		// Drop change if channel is full
	}
}
