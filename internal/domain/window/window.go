// Package window defines the live window snapshot types the platform driver
// reports. The core never owns windows; it only computes where they go.
package window

import "github.com/jbctechsolutions/tilekit/internal/domain/geometry"

// Handle identifies a window to the platform driver.
type Handle string

// Snapshot is the observed state of one window at plan-computation time.
type Snapshot struct {
	Handle Handle
	// AppID is the bundle or process identifier reported by the platform.
	AppID string
	Title string
	// MonitorID is the monitor currently hosting the window.
	MonitorID string
	Frame     geometry.Rect
	Focused   bool
	Minimized bool
}

// ChangeKind classifies a window change notification.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "created"
	ChangeDestroyed ChangeKind = "destroyed"
	ChangeMoved     ChangeKind = "moved"
	ChangeFocused   ChangeKind = "focused"
)

// Change is one entry in the platform driver's change-notification stream.
type Change struct {
	Kind   ChangeKind
	Window Snapshot
}
