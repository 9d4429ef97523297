package ports

import (
	"context"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
	"github.com/jbctechsolutions/tilekit/internal/domain/profile"
	"github.com/jbctechsolutions/tilekit/internal/domain/rule"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
)

// RegistrySnapshot is the full persisted entity set, loaded and saved as one
// unit. Persistence is atomic: load-at-startup and save-on-mutation, never
// partial.
type RegistrySnapshot struct {
	Workspaces []*workspace.Workspace
	Patterns   []*pattern.Pattern
	Rules      []*rule.Rule
	Monitors   []*monitor.Configuration
	Profiles   []*profile.Profile
	Mappings   []*keymap.Mapping
}

// EntityStore persists the registry snapshot. The on-disk representation is
// one structured text document per entity kind.
type EntityStore interface {
	// LoadSnapshot reads the full entity set. A missing store yields an
	// empty snapshot, not an error.
	LoadSnapshot(ctx context.Context) (*RegistrySnapshot, error)

	// SaveSnapshot writes the full entity set atomically.
	SaveSnapshot(ctx context.Context, snap *RegistrySnapshot) error
}

// SwitchRecord is one workspace switch for the metrics history.
type SwitchRecord struct {
	WorkspaceID string
	PreviousID  string
	Latency     time.Duration
	WindowCount int
	Success     bool
	Reason      string
	SwitchedAt  time.Time
}

// TilingRecord is one plan computation for the metrics history.
type TilingRecord struct {
	WorkspaceID string
	Algorithm   string
	WindowCount int
	Duration    time.Duration
	Success     bool
	Reason      string
	ComputedAt  time.Time
}

// MetricsFilter narrows metrics queries.
type MetricsFilter struct {
	WorkspaceID string
	Since       time.Time
	Limit       int
}

// SwitchAggregate summarizes switch history for reporting.
type SwitchAggregate struct {
	Count        int64
	Failures     int64
	AvgLatencyMS float64
	MaxLatencyMS int64
}

// MetricsStore persists switch and tiling history. Writers must treat it as
// fire-and-forget: recording must never block the switch critical path.
type MetricsStore interface {
	// RecordSwitch appends a switch record.
	RecordSwitch(ctx context.Context, rec *SwitchRecord) error

	// RecordTiling appends a tiling record.
	RecordTiling(ctx context.Context, rec *TilingRecord) error

	// SwitchHistory returns switch records matching the filter, most recent
	// first.
	SwitchHistory(ctx context.Context, filter MetricsFilter) ([]SwitchRecord, error)

	// Aggregate summarizes switch records matching the filter.
	Aggregate(ctx context.Context, filter MetricsFilter) (*SwitchAggregate, error)
}
