// Package event defines the events the workspace manager and shortcut table
// emit. Events are observations, not commands: consumers must never assume
// emission ordering implies causality beyond what each event states.
package event

import "time"

// Kind identifies an event type.
type Kind string

const (
	KindWorkspaceActivated Kind = "workspace-activated"
	KindShortcutMigrated   Kind = "shortcut-migrated"
	KindShortcutConflict   Kind = "shortcut-conflict"
	KindLayoutApplied      Kind = "layout-applied"
	KindTilingFailed       Kind = "tiling-failed"
)

// Event is implemented by every emitted event.
type Event interface {
	Kind() Kind
	OccurredAt() time.Time
}

type base struct {
	At time.Time
}

func (b base) OccurredAt() time.Time { return b.At }

// WorkspaceActivated reports a completed workspace switch.
type WorkspaceActivated struct {
	base
	WorkspaceID string
	PreviousID  string
	LatencyMS   int64
}

func (WorkspaceActivated) Kind() Kind { return KindWorkspaceActivated }

// NewWorkspaceActivated builds the event with the current timestamp.
func NewWorkspaceActivated(workspaceID, previousID string, latency time.Duration) WorkspaceActivated {
	return WorkspaceActivated{
		base:        base{At: time.Now().UTC()},
		WorkspaceID: workspaceID,
		PreviousID:  previousID,
		LatencyMS:   latency.Milliseconds(),
	}
}

// ShortcutMigrated reports a legacy combination rewritten to the safe modifier.
type ShortcutMigrated struct {
	base
	MappingID string
	Old       string
	New       string
}

func (ShortcutMigrated) Kind() Kind { return KindShortcutMigrated }

// NewShortcutMigrated builds the event with the current timestamp.
func NewShortcutMigrated(mappingID, oldChord, newChord string) ShortcutMigrated {
	return ShortcutMigrated{base: base{At: time.Now().UTC()}, MappingID: mappingID, Old: oldChord, New: newChord}
}

// ShortcutConflict reports a rejected registration.
type ShortcutConflict struct {
	base
	Attempted  string
	ExistingID string
}

func (ShortcutConflict) Kind() Kind { return KindShortcutConflict }

// NewShortcutConflict builds the event with the current timestamp.
func NewShortcutConflict(attempted, existingID string) ShortcutConflict {
	return ShortcutConflict{base: base{At: time.Now().UTC()}, Attempted: attempted, ExistingID: existingID}
}

// LayoutApplied reports a placement plan acknowledged by the driver.
type LayoutApplied struct {
	base
	WorkspaceID string
	WindowCount int
}

func (LayoutApplied) Kind() Kind { return KindLayoutApplied }

// NewLayoutApplied builds the event with the current timestamp.
func NewLayoutApplied(workspaceID string, windowCount int) LayoutApplied {
	return LayoutApplied{base: base{At: time.Now().UTC()}, WorkspaceID: workspaceID, WindowCount: windowCount}
}

// TilingFailed reports a plan computation or application failure.
type TilingFailed struct {
	base
	WorkspaceID string
	Reason      string
}

func (TilingFailed) Kind() Kind { return KindTilingFailed }

// NewTilingFailed builds the event with the current timestamp.
func NewTilingFailed(workspaceID, reason string) TilingFailed {
	return TilingFailed{base: base{At: time.Now().UTC()}, WorkspaceID: workspaceID, Reason: reason}
}
