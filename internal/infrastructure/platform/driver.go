// Package platform provides the simulated platform driver and static monitor
// topology. The simulated driver keeps an in-memory window set and applies
// placement plans to it, which backs dry-run mode and tests; a real
// compositor adapter plugs in behind the same ports.
package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/window"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
)

// SimulatedDriver implements ports.PlatformDriver against an in-memory
// window set. Every applied placement is immediately acknowledged.
type SimulatedDriver struct {
	mu      sync.Mutex
	windows map[window.Handle]*simWindow
	changes chan window.Change
	logger  *logging.Logger
	closed  bool
}

type simWindow struct {
	snapshot window.Snapshot
	frame    geometry.Rect
}

// NewSimulatedDriver creates an empty simulated driver.
func NewSimulatedDriver(logger *logging.Logger) *SimulatedDriver {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedDriver{
		windows: make(map[window.Handle]*simWindow),
		changes: make(chan window.Change, 64),
		logger:  logger,
	}
}

// AddWindow introduces a window to the simulation and emits a change.
func (d *SimulatedDriver) AddWindow(snap window.Snapshot) {
	d.mu.Lock()
	d.windows[snap.Handle] = &simWindow{snapshot: snap, frame: snap.Frame}
	d.mu.Unlock()
	d.emit(window.Change{Kind: window.ChangeCreated, Window: snap})
}

// RemoveWindow drops a window from the simulation and emits a change.
func (d *SimulatedDriver) RemoveWindow(handle window.Handle) {
	d.mu.Lock()
	sw, ok := d.windows[handle]
	if ok {
		delete(d.windows, handle)
	}
	d.mu.Unlock()
	if ok {
		d.emit(window.Change{Kind: window.ChangeDestroyed, Window: sw.snapshot})
	}
}

// EnumerateWindows returns a snapshot of all managed windows.
func (d *SimulatedDriver) EnumerateWindows(ctx context.Context) ([]window.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]window.Snapshot, 0, len(d.windows))
	for _, sw := range d.windows {
		snap := sw.snapshot
		snap.Frame = sw.frame
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

// ApplyPlan moves the simulated windows to their target frames.
func (d *SimulatedDriver) ApplyPlan(ctx context.Context, plan *ports.PlacementPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, pl := range plan.Placements {
		sw, ok := d.windows[pl.Window]
		if !ok {
			// window vanished between planning and apply; skip it
			d.logger.Debug("skipping placement for missing window", "handle", string(pl.Window))
			continue
		}
		sw.frame = pl.Frame
		d.logger.Debug("placed window",
			"handle", string(pl.Window),
			"frame", fmt.Sprintf("%.0fx%.0f@%.0f,%.0f", pl.Frame.Width, pl.Frame.Height, pl.Frame.X, pl.Frame.Y),
			"z_order", pl.ZOrder,
			"fullscreen", pl.Fullscreen)
	}
	return nil
}

// Focus gives a window keyboard focus.
func (d *SimulatedDriver) Focus(ctx context.Context, handle window.Handle) error {
	d.mu.Lock()
	target, ok := d.windows[handle]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("unknown window %q", handle)
	}
	for _, sw := range d.windows {
		sw.snapshot.Focused = false
	}
	target.snapshot.Focused = true
	snap := target.snapshot
	d.mu.Unlock()

	d.emit(window.Change{Kind: window.ChangeFocused, Window: snap})
	return nil
}

// CloseWindow removes a window, as the platform would on a close request.
func (d *SimulatedDriver) CloseWindow(ctx context.Context, handle window.Handle) error {
	d.mu.Lock()
	_, ok := d.windows[handle]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown window %q", handle)
	}
	d.RemoveWindow(handle)
	return nil
}

// Changes returns the window change-notification stream.
func (d *SimulatedDriver) Changes() <-chan window.Change {
	return d.changes
}

// Close shuts down the change stream.
func (d *SimulatedDriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.changes)
}

// FrameOf reports the current frame of a simulated window.
func (d *SimulatedDriver) FrameOf(handle window.Handle) (geometry.Rect, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sw, ok := d.windows[handle]
	if !ok {
		return geometry.Rect{}, false
	}
	return sw.frame, true
}

func (d *SimulatedDriver) emit(ch window.Change) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	select {
	case d.changes <- ch:
	default:
		// Drop change if channel is full
	}
}
