// Package profile defines application profiles: per-application placement
// defaults used when no window rule matches.
package profile

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/rule"
)

// DetectionStrategy is how windows are attributed to an application.
type DetectionStrategy string

const (
	DetectByBundleID    DetectionStrategy = "bundle-id"
	DetectByProcessName DetectionStrategy = "process-name"
	DetectByWindowClass DetectionStrategy = "window-class"
	DetectCombined      DetectionStrategy = "combined"
)

// FocusStealing describes how aggressively an application takes focus.
type FocusStealing string

const (
	FocusStealingNormal     FocusStealing = "normal"
	FocusStealingAggressive FocusStealing = "aggressive"
	FocusStealingPassive    FocusStealing = "passive"
	FocusStealingNewWindows FocusStealing = "new-windows-only"
)

// DetectionRule identifies which windows belong to the application.
type DetectionRule struct {
	Strategy     DetectionStrategy `yaml:"strategy"`
	Identifier   string            `yaml:"identifier"`
	TitlePattern string            `yaml:"title_pattern,omitempty"`

	titleRe *regexp.Regexp
}

// Profile carries an application's default window behavior. It is the
// fallback source when no window rule matches a window.
type Profile struct {
	ID       string `yaml:"id"`
	BundleID string `yaml:"bundle_id"`
	Name     string `yaml:"name"`
	// DefaultPlacement applies when neither rules nor preferred patterns decide.
	DefaultPlacement rule.PlacementMode `yaml:"default_placement"`
	// PreferredPatternIDs is an ordered preference list; the first pattern
	// that exists in the registry wins.
	PreferredPatternIDs []string      `yaml:"preferred_pattern_ids,omitempty"`
	Notes               string        `yaml:"notes,omitempty"`
	Detection           DetectionRule `yaml:"detection"`
	FocusStealing       FocusStealing `yaml:"focus_stealing"`
}

// New creates a profile with a fresh id.
func New(bundleID, name string, placement rule.PlacementMode) (*Profile, error) {
	p := &Profile{
		ID:               uuid.New().String(),
		BundleID:         strings.TrimSpace(bundleID),
		Name:             strings.TrimSpace(name),
		DefaultPlacement: placement,
		Detection: DetectionRule{
			Strategy:   DetectByBundleID,
			Identifier: strings.TrimSpace(bundleID),
		},
		FocusStealing: FocusStealingNormal,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the profile invariants. BundleID uniqueness is a registry
// invariant enforced at mutation time.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.BundleID) == "" {
		return errors.Validation("profile bundle id cannot be empty", nil)
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.Validation("profile name cannot be empty", errors.ErrNameRequired)
	}
	switch p.DefaultPlacement {
	case rule.PlacementAuto, rule.PlacementFixed, rule.PlacementFloating, rule.PlacementFullscreen:
	default:
		return errors.Validation("unknown placement mode: "+string(p.DefaultPlacement), nil)
	}
	switch p.Detection.Strategy {
	case DetectByBundleID, DetectByProcessName, DetectByWindowClass, DetectCombined:
	default:
		return errors.Validation("unknown detection strategy: "+string(p.Detection.Strategy), nil)
	}
	switch p.FocusStealing {
	case FocusStealingNormal, FocusStealingAggressive, FocusStealingPassive, FocusStealingNewWindows:
	default:
		return errors.Validation("unknown focus stealing behavior: "+string(p.FocusStealing), nil)
	}
	return nil
}

// Compile builds the detection title matcher once at load time.
func (p *Profile) Compile() error {
	if strings.TrimSpace(p.Detection.TitlePattern) == "" {
		p.Detection.titleRe = nil
		return nil
	}
	re, err := regexp.Compile(p.Detection.TitlePattern)
	if err != nil {
		return errors.Validation("invalid detection title pattern: "+p.Detection.TitlePattern, err)
	}
	p.Detection.titleRe = re
	return nil
}

// MatchesWindow reports whether a window with the given identifier and title
// belongs to this application.
func (p *Profile) MatchesWindow(appID, title string) bool {
	if p.Detection.Identifier != "" && p.Detection.Identifier != appID {
		return false
	}
	if p.Detection.titleRe != nil && !p.Detection.titleRe.MatchString(title) {
		return false
	}
	return true
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.PreferredPatternIDs = append([]string(nil), p.PreferredPatternIDs...)
	return &c
}
