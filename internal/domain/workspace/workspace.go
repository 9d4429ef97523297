// Package workspace defines the workspace entity: a named, switchable
// grouping of windows with an associated layout policy.
package workspace

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
)

// State tracks where a workspace sits in its activation lifecycle.
// Switching and Modified are transient: Switching is held only for the
// duration of a switch transition, Modified only between a window-set change
// and the completion of the automatic re-tile.
type State string

const (
	StateInactive  State = "inactive"
	StateActive    State = "active"
	StateModified  State = "modified"
	StateSwitching State = "switching"
)

// Workspace is a logical grouping of applications and windows.
type Workspace struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Shortcut is the textual chord assigned to this workspace, unique
	// across the whole shortcut space. Empty means no shortcut.
	Shortcut string `yaml:"shortcut,omitempty"`
	// PatternID references the default tiling pattern.
	PatternID string `yaml:"pattern_id"`
	// MonitorOverrides maps monitor identifiers to pattern ids that take
	// precedence over PatternID on that monitor.
	MonitorOverrides map[string]string `yaml:"monitor_overrides,omitempty"`
	AutoArrange      bool              `yaml:"auto_arrange"`
	CreatedAt        time.Time         `yaml:"created_at"`
	LastUsedAt       time.Time         `yaml:"last_used_at,omitempty"`

	// State is runtime-only and never persisted.
	State State `yaml:"-"`
}

// CreateRequest carries the caller-supplied fields for a new workspace.
type CreateRequest struct {
	Name        string
	Description string
	Shortcut    string
	PatternID   string // empty uses the registry default
	AutoArrange *bool  // nil defaults to true
}

// UpdateRequest carries optional changes to an existing workspace.
// Nil fields are left untouched.
type UpdateRequest struct {
	Name        *string
	Description *string
	Shortcut    *string
	PatternID   *string
	AutoArrange *bool
}

// New creates a workspace from a create request, applying the default
// pattern id when the request leaves it empty.
func New(req CreateRequest, defaultPatternID string) (*Workspace, error) {
	patternID := req.PatternID
	if patternID == "" {
		patternID = defaultPatternID
	}
	autoArrange := true
	if req.AutoArrange != nil {
		autoArrange = *req.AutoArrange
	}

	ws := &Workspace{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		Shortcut:         strings.TrimSpace(req.Shortcut),
		PatternID:        patternID,
		MonitorOverrides: make(map[string]string),
		AutoArrange:      autoArrange,
		CreatedAt:        time.Now().UTC(),
		State:            StateInactive,
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Validate checks the workspace invariants. Name and shortcut uniqueness are
// registry-level invariants enforced at mutation time; this covers the
// entity-local rules.
func (w *Workspace) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return errors.Validation("workspace name cannot be empty", errors.ErrNameRequired)
	}
	if len(w.Name) > 64 {
		return errors.Validation("workspace name exceeds 64 characters", nil)
	}
	if w.PatternID == "" {
		return errors.Validation("workspace requires a default tiling pattern", nil)
	}
	return nil
}

// Apply folds an update request into the workspace, re-validating the result.
// The workspace is unchanged when validation fails.
func (w *Workspace) Apply(req UpdateRequest) error {
	next := w.Clone()
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}
	if req.Shortcut != nil {
		next.Shortcut = strings.TrimSpace(*req.Shortcut)
	}
	if req.PatternID != nil {
		next.PatternID = *req.PatternID
	}
	if req.AutoArrange != nil {
		next.AutoArrange = *req.AutoArrange
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*w = *next
	return nil
}

// Touch records an activation timestamp.
func (w *Workspace) Touch(now time.Time) {
	w.LastUsedAt = now.UTC()
}

// PatternFor resolves the pattern id for a monitor, honoring per-monitor
// overrides before the workspace default.
func (w *Workspace) PatternFor(monitorID string) string {
	if id, ok := w.MonitorOverrides[monitorID]; ok && id != "" {
		return id
	}
	return w.PatternID
}

// Clone returns a deep copy of the workspace.
func (w *Workspace) Clone() *Workspace {
	c := *w
	c.MonitorOverrides = make(map[string]string, len(w.MonitorOverrides))
	for k, v := range w.MonitorOverrides {
		c.MonitorOverrides[k] = v
	}
	return &c
}
