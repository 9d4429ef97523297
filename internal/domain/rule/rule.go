// Package rule defines window rules: per-workspace overrides that decide how
// windows of a matching application are placed.
package rule

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
)

// PlacementMode is how a matched window is positioned.
type PlacementMode string

const (
	// PlacementAuto follows the workspace tiling pattern.
	PlacementAuto PlacementMode = "auto-tile"
	// PlacementFixed pins the window to FixedGeometry.
	PlacementFixed PlacementMode = "fixed"
	// PlacementFloating leaves position to the user.
	PlacementFloating PlacementMode = "floating"
	// PlacementFullscreen covers the monitor's usable area.
	PlacementFullscreen PlacementMode = "fullscreen"
)

// FocusPolicy is when a matched window receives focus automatically.
type FocusPolicy string

const (
	FocusNever    FocusPolicy = "never"
	FocusOnCreate FocusPolicy = "on-create"
	FocusOnSwitch FocusPolicy = "on-switch"
)

// Rule decides placement for windows of a matching application within its
// owning workspace. Rules are evaluated in priority order; first match wins.
type Rule struct {
	ID          string `yaml:"id"`
	WorkspaceID string `yaml:"workspace_id"`
	// AppID matches the window's bundle or process identifier exactly.
	AppID string `yaml:"app_id"`
	// TitlePattern optionally narrows the match to window titles; compiled
	// once at load time, never at evaluation sites.
	TitlePattern string         `yaml:"title_pattern,omitempty"`
	Placement    PlacementMode  `yaml:"placement"`
	Fixed        *geometry.Rect `yaml:"fixed,omitempty"`
	Priority     int            `yaml:"priority"`
	Focus        FocusPolicy    `yaml:"focus"`
	// ProfileID optionally links the application profile supplying defaults.
	ProfileID string `yaml:"profile_id,omitempty"`

	titleRe *regexp.Regexp
}

// New creates a rule with a fresh id and compiles the title pattern.
func New(workspaceID, appID, titlePattern string, placement PlacementMode, fixed *geometry.Rect, priority int, focus FocusPolicy) (*Rule, error) {
	r := &Rule{
		ID:           uuid.New().String(),
		WorkspaceID:  workspaceID,
		AppID:        strings.TrimSpace(appID),
		TitlePattern: titlePattern,
		Placement:    placement,
		Fixed:        fixed,
		Priority:     priority,
		Focus:        focus,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.Compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the rule invariants: fixed geometry exactly when the
// placement mode is fixed, non-negative priority, known enums.
func (r *Rule) Validate() error {
	if r.WorkspaceID == "" {
		return errors.Validation("window rule requires an owning workspace", nil)
	}
	if strings.TrimSpace(r.AppID) == "" && strings.TrimSpace(r.TitlePattern) == "" {
		return errors.Validation("window rule requires an application id or title pattern", nil)
	}
	switch r.Placement {
	case PlacementAuto, PlacementFixed, PlacementFloating, PlacementFullscreen:
	default:
		return errors.Validation("unknown placement mode: "+string(r.Placement), nil)
	}
	if r.Placement == PlacementFixed && r.Fixed == nil {
		return errors.Validation("fixed placement requires fixed geometry", nil)
	}
	if r.Placement != PlacementFixed && r.Fixed != nil {
		return errors.Validation("fixed geometry is only valid for fixed placement", nil)
	}
	if r.Priority < 0 {
		return errors.Validation("stacking priority cannot be negative", nil)
	}
	switch r.Focus {
	case FocusNever, FocusOnCreate, FocusOnSwitch:
	default:
		return errors.Validation("unknown focus policy: "+string(r.Focus), nil)
	}
	return nil
}

// Compile builds the title matcher. Call after loading rules from storage;
// evaluation sites only ever use the compiled matcher.
func (r *Rule) Compile() error {
	if strings.TrimSpace(r.TitlePattern) == "" {
		r.titleRe = nil
		return nil
	}
	re, err := regexp.Compile(r.TitlePattern)
	if err != nil {
		return errors.Validation("invalid title pattern: "+r.TitlePattern, err)
	}
	r.titleRe = re
	return nil
}

// Matches reports whether the rule applies to a window with the given
// application id and title.
func (r *Rule) Matches(appID, title string) bool {
	if r.AppID != "" && r.AppID != appID {
		return false
	}
	if r.titleRe != nil && !r.titleRe.MatchString(title) {
		return false
	}
	return true
}

// Clone returns a deep copy of the rule, including the compiled matcher.
func (r *Rule) Clone() *Rule {
	c := *r
	if r.Fixed != nil {
		f := *r.Fixed
		c.Fixed = &f
	}
	return &c
}

// SortByPriority orders rules for evaluation: higher priority first, id as
// the tie-breaker so evaluation order is deterministic.
func SortByPriority(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}
