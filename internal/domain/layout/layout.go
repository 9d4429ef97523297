// Package layout computes window rectangles from tiling patterns.
// Everything here is a pure function of (window count, pattern parameters,
// usable area); no state, no side effects. The tiling engine composes these
// results with window rules and monitor configuration to build placement plans.
package layout

import (
	"math"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
)

// Slot is one computed window position within an arrangement.
type Slot struct {
	Frame geometry.Rect
	// ZOrder orders slots front-to-back within a monitor; tiled slots share
	// z-order 0, layered overflow slots stack above it.
	ZOrder int
	// Layered marks overflow windows stacked behind the last tiled slot
	// under the stack-excess policy.
	Layered bool
}

// Arrangement is the ordered result of a layout computation. Slot i holds the
// frame for the i-th window in the input order.
type Arrangement struct {
	Slots []Slot
}

// Arrange computes slots for n windows under the given pattern and usable
// area. The overflow policy decides what happens when n exceeds the pattern
// capacity:
//
//   - shrink-to-fit sizes cells for all n windows,
//   - stack-excess tiles up to capacity and layers the remainder at the last
//     slot's position,
//   - allow-overflow keeps cell geometry at capacity and lets the remaining
//     windows continue the sequence past the bottom/right edge. Overflowing
//     frames stay within the owning monitor's plane; they never shift into
//     adjacent monitor space.
func Arrange(p *pattern.Pattern, n int, area geometry.Rect) (*Arrangement, error) {
	if n <= 0 {
		return &Arrangement{}, nil
	}

	usable := area.Inset(p.WindowMargin)
	if area.Width <= 2*p.WindowMargin || area.Height <= 2*p.WindowMargin {
		return nil, errors.NewError(errors.CodeTiling, "usable area too small for tiling", errors.ErrZeroUsableArea)
	}

	sizeN, placeN := n, n
	layerFrom := -1
	if n > p.MaxWindows {
		switch p.OverflowPolicy {
		case pattern.OverflowShrink:
			// cells shrink to fit all n
		case pattern.OverflowStack:
			sizeN, placeN = p.MaxWindows, p.MaxWindows
			layerFrom = p.MaxWindows
		case pattern.OverflowAllow:
			sizeN = p.MaxWindows
		}
	}

	frames := computeFrames(p, sizeN, placeN, usable)

	slots := make([]Slot, 0, n)
	for _, f := range frames {
		slots = append(slots, Slot{Frame: f})
	}

	if layerFrom >= 0 {
		last := frames[len(frames)-1]
		for i := layerFrom; i < n; i++ {
			slots = append(slots, Slot{
				Frame:   last,
				ZOrder:  i - layerFrom + 1,
				Layered: true,
			})
		}
	}

	return &Arrangement{Slots: slots}, nil
}

// computeFrames dispatches on the algorithm. sizeN controls cell sizing,
// placeN how many frames are emitted; they differ only under allow-overflow.
func computeFrames(p *pattern.Pattern, sizeN, placeN int, usable geometry.Rect) []geometry.Rect {
	switch p.Algorithm {
	case pattern.AlgorithmPrimaryStack:
		return primaryStack(p, sizeN, placeN, usable)
	case pattern.AlgorithmGrid:
		return grid(p, sizeN, placeN, usable)
	default:
		// columns; custom falls back to columns until a pattern DSL exists
		return columns(p, sizeN, placeN, usable)
	}
}

// primaryStack places one window over MainAreaRatio of the usable width and
// stacks the rest evenly in the remainder, separated by GapSize.
func primaryStack(p *pattern.Pattern, sizeN, placeN int, usable geometry.Rect) []geometry.Rect {
	if placeN == 1 {
		return []geometry.Rect{usable}
	}

	mainWidth := usable.Width * p.MainAreaRatio
	stackX := usable.X + mainWidth + p.GapSize
	stackWidth := usable.Width - mainWidth - p.GapSize

	stackCount := sizeN - 1
	totalGap := p.GapSize * float64(stackCount-1)
	stackHeight := (usable.Height - totalGap) / float64(stackCount)

	frames := make([]geometry.Rect, 0, placeN)
	frames = append(frames, geometry.NewRect(usable.X, usable.Y, mainWidth, usable.Height))
	for i := 0; i < placeN-1; i++ {
		y := usable.Y + float64(i)*(stackHeight+p.GapSize)
		frames = append(frames, geometry.NewRect(stackX, y, stackWidth, stackHeight))
	}
	return frames
}

// grid places windows into ceil(sqrt(n)) columns and ceil(n/columns) rows.
func grid(p *pattern.Pattern, sizeN, placeN int, usable geometry.Rect) []geometry.Rect {
	cols := int(math.Ceil(math.Sqrt(float64(sizeN))))
	rows := int(math.Ceil(float64(sizeN) / float64(cols)))

	cellWidth := (usable.Width - p.GapSize*float64(cols-1)) / float64(cols)
	cellHeight := (usable.Height - p.GapSize*float64(rows-1)) / float64(rows)

	frames := make([]geometry.Rect, 0, placeN)
	for i := 0; i < placeN; i++ {
		row := i / cols
		col := i % cols
		x := usable.X + float64(col)*(cellWidth+p.GapSize)
		y := usable.Y + float64(row)*(cellHeight+p.GapSize)
		frames = append(frames, geometry.NewRect(x, y, cellWidth, cellHeight))
	}
	return frames
}

// columns places windows into equal-width vertical columns.
func columns(p *pattern.Pattern, sizeN, placeN int, usable geometry.Rect) []geometry.Rect {
	totalGap := p.GapSize * float64(sizeN-1)
	colWidth := (usable.Width - totalGap) / float64(sizeN)

	frames := make([]geometry.Rect, 0, placeN)
	for i := 0; i < placeN; i++ {
		x := usable.X + float64(i)*(colWidth+p.GapSize)
		frames = append(frames, geometry.NewRect(x, usable.Y, colWidth, usable.Height))
	}
	return frames
}

// GridDimensions returns the column and row counts the grid algorithm would
// use for n windows. Exposed for callers that render previews.
func GridDimensions(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	return cols, rows
}
