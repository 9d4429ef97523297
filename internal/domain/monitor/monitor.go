// Package monitor defines monitor configurations and the live snapshot types
// the topology provider reports.
package monitor

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
)

// Orientation is a monitor orientation preference.
type Orientation string

const (
	OrientationCurrent      Orientation = "current"
	OrientationLandscape    Orientation = "landscape"
	OrientationPortrait     Orientation = "portrait"
	OrientationMatchPrimary Orientation = "match-primary"
)

// Snapshot is the live state of a connected monitor as reported by the
// topology provider. Snapshots are inputs to plan computation, never stored.
type Snapshot struct {
	ID     string
	Name   string
	Bounds geometry.Rect
	// UsableArea excludes system-reserved regions (menu bar, dock).
	UsableArea geometry.Rect
	Scale      float64
	Primary    bool
}

// Configuration binds a workspace to layout preferences for one monitor.
type Configuration struct {
	ID          string `yaml:"id"`
	WorkspaceID string `yaml:"workspace_id"`
	// MonitorID matches Snapshot.ID from the topology provider.
	MonitorID string `yaml:"monitor_id"`
	// PatternID is the primary pattern on this monitor.
	PatternID string `yaml:"pattern_id"`
	// SecondaryPatternID optionally handles overflow windows.
	SecondaryPatternID string `yaml:"secondary_pattern_id,omitempty"`
	// UsableArea restricts tiling to a sub-rectangle of the monitor. It must
	// lie within the monitor's physical bounds; validated against the live
	// snapshot at plan time.
	UsableArea  geometry.Rect `yaml:"usable_area"`
	Orientation Orientation   `yaml:"orientation"`
	ScaleFactor float64       `yaml:"scale_factor"`
	Primary     bool          `yaml:"primary"`
}

// New creates a monitor configuration with a fresh id.
func New(workspaceID, monitorID, patternID string, usable geometry.Rect, orientation Orientation, scale float64) (*Configuration, error) {
	c := &Configuration{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		MonitorID:   strings.TrimSpace(monitorID),
		PatternID:   patternID,
		UsableArea:  usable,
		Orientation: orientation,
		ScaleFactor: scale,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration invariants.
func (c *Configuration) Validate() error {
	if c.WorkspaceID == "" {
		return errors.Validation("monitor configuration requires an owning workspace", nil)
	}
	if strings.TrimSpace(c.MonitorID) == "" {
		return errors.Validation("monitor identifier cannot be empty", nil)
	}
	if c.PatternID == "" {
		return errors.Validation("monitor configuration requires a primary pattern", nil)
	}
	if c.UsableArea.IsEmpty() {
		return errors.Validation("usable area cannot be empty", errors.ErrZeroUsableArea)
	}
	switch c.Orientation {
	case OrientationCurrent, OrientationLandscape, OrientationPortrait, OrientationMatchPrimary:
	default:
		return errors.Validation("unknown orientation preference: "+string(c.Orientation), nil)
	}
	if c.ScaleFactor <= 0 {
		return errors.Validation("scale factor must be greater than zero", nil)
	}
	return nil
}

// ValidateAgainst checks the snapshot-dependent invariant: the configured
// usable area must lie within the monitor's physical bounds.
func (c *Configuration) ValidateAgainst(snap Snapshot) error {
	if !snap.Bounds.Contains(c.UsableArea) {
		return errors.Validation(
			"usable area "+c.UsableArea.String()+" exceeds monitor bounds "+snap.Bounds.String(), nil)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Configuration) Clone() *Configuration {
	cp := *c
	return &cp
}
