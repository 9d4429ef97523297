// Package pattern defines the tiling pattern entity: the named set of layout
// parameters a workspace or monitor references by id.
package pattern

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
)

// Algorithm selects the layout computation for a pattern.
type Algorithm string

const (
	AlgorithmPrimaryStack Algorithm = "primary-stack" // one main window, remainder stacked
	AlgorithmGrid         Algorithm = "grid"          // near-square grid of equal cells
	AlgorithmColumns      Algorithm = "columns"       // equal-width vertical columns
	AlgorithmCustom       Algorithm = "custom"        // reserved; falls back to columns
)

// OverflowPolicy governs layout when the window count exceeds MaxWindows.
type OverflowPolicy string

const (
	// OverflowShrink recomputes cell sizes so every window fits the usable area.
	OverflowShrink OverflowPolicy = "shrink-to-fit"
	// OverflowStack tiles up to capacity and layers the remainder behind the
	// last slot.
	OverflowStack OverflowPolicy = "stack-excess"
	// OverflowAllow lets windows extend beyond the usable area unclamped.
	OverflowAllow OverflowPolicy = "allow-overflow"
)

// Ratio bounds for the main area of primary-stack layouts.
const (
	MinMainAreaRatio = 0.1
	MaxMainAreaRatio = 0.9
)

// Pattern describes how windows are arranged within a usable area.
// Patterns are shared: workspaces and monitor configurations reference them
// by id and never own them.
type Pattern struct {
	ID             string         `yaml:"id"`
	Name           string         `yaml:"name"`
	Algorithm      Algorithm      `yaml:"algorithm"`
	MainAreaRatio  float64        `yaml:"main_area_ratio"`
	GapSize        float64        `yaml:"gap_size"`
	WindowMargin   float64        `yaml:"window_margin"`
	MaxWindows     int            `yaml:"max_windows"`
	OverflowPolicy OverflowPolicy `yaml:"overflow_policy"`
}

// New creates a pattern with a fresh id, validating all parameters.
func New(name string, algorithm Algorithm, mainRatio, gap, margin float64, maxWindows int, overflow OverflowPolicy) (*Pattern, error) {
	p := &Pattern{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(name),
		Algorithm:      algorithm,
		MainAreaRatio:  mainRatio,
		GapSize:        gap,
		WindowMargin:   margin,
		MaxWindows:     maxWindows,
		OverflowPolicy: overflow,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the pattern invariants.
func (p *Pattern) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Validation("pattern name cannot be empty", errors.ErrNameRequired)
	}
	switch p.Algorithm {
	case AlgorithmPrimaryStack, AlgorithmGrid, AlgorithmColumns, AlgorithmCustom:
	default:
		return errors.Validation("unknown layout algorithm: "+string(p.Algorithm), nil)
	}
	if p.MainAreaRatio < MinMainAreaRatio || p.MainAreaRatio > MaxMainAreaRatio {
		return errors.Validation("main area ratio must be between 0.1 and 0.9", nil)
	}
	if p.GapSize < 0 {
		return errors.Validation("gap size cannot be negative", nil)
	}
	if p.WindowMargin < 0 {
		return errors.Validation("window margin cannot be negative", nil)
	}
	if p.MaxWindows <= 0 {
		return errors.Validation("max windows must be greater than zero", nil)
	}
	switch p.OverflowPolicy {
	case OverflowShrink, OverflowStack, OverflowAllow:
	default:
		return errors.Validation("unknown overflow policy: "+string(p.OverflowPolicy), nil)
	}
	return nil
}

// Clone returns a deep copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	c := *p
	return &c
}

// Default returns the built-in primary-stack pattern installed on first run.
func Default() *Pattern {
	return &Pattern{
		ID:             uuid.New().String(),
		Name:           "Primary Stack",
		Algorithm:      AlgorithmPrimaryStack,
		MainAreaRatio:  0.6,
		GapSize:        8,
		WindowMargin:   8,
		MaxWindows:     8,
		OverflowPolicy: OverflowShrink,
	}
}
