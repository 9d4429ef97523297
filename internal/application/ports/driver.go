// Package ports defines the application layer port interfaces following
// hexagonal architecture. Ports are abstractions that allow the core to
// interact with external collaborators (the platform driver, the monitor
// topology provider, persistence) without knowing their implementations.
package ports

import (
	"context"

	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
	"github.com/jbctechsolutions/tilekit/internal/domain/window"
)

// Placement is one window's target position in a plan.
type Placement struct {
	Window window.Handle
	Frame  geometry.Rect
	// ZOrder orders placements front-to-back per monitor; 0 is the tiled layer.
	ZOrder int
	// Layered marks overflow windows stacked behind the last tiled slot.
	Layered bool
	// Fullscreen asks the driver to use its native fullscreen transition.
	Fullscreen bool
}

// PlacementPlan is the computed set of target rectangles and z-orders for a
// workspace's windows on one monitor set. It carries no side effects until
// applied by the platform driver.
type PlacementPlan struct {
	WorkspaceID string
	Placements  []Placement
	// FocusTarget optionally names the window to focus after the plan lands.
	FocusTarget window.Handle
}

// WindowCount returns the number of placements in the plan.
func (p *PlacementPlan) WindowCount() int {
	return len(p.Placements)
}

// PlatformDriver positions real windows. Implementations wrap the host
// compositor or accessibility APIs; the core only ever hands them plans.
type PlatformDriver interface {
	// EnumerateWindows returns a snapshot of all managed windows.
	EnumerateWindows(ctx context.Context) ([]window.Snapshot, error)

	// ApplyPlan positions windows per the plan. It returns once the platform
	// has acknowledged the placement; the caller bounds the wait through ctx.
	ApplyPlan(ctx context.Context, plan *PlacementPlan) error

	// Focus gives a window keyboard focus.
	Focus(ctx context.Context, handle window.Handle) error

	// CloseWindow asks the platform to close a window.
	CloseWindow(ctx context.Context, handle window.Handle) error

	// Changes returns the window change-notification stream. The channel is
	// closed when the driver shuts down.
	Changes() <-chan window.Change
}

// TopologyChange is one entry in the monitor change-notification stream.
type TopologyChange struct {
	Connected bool
	Monitor   monitor.Snapshot
}

// MonitorTopology reports connected monitors and hot-plug events.
type MonitorTopology interface {
	// EnumerateMonitors returns a snapshot of all connected monitors.
	EnumerateMonitors(ctx context.Context) ([]monitor.Snapshot, error)

	// Changes returns the connect/disconnect notification stream.
	Changes() <-chan TopologyChange
}
