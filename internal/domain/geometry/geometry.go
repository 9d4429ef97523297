// Package geometry defines the rectangle math shared by layout computation
// and monitor configuration.
package geometry

import "fmt"

// Rect is an axis-aligned rectangle in screen coordinates.
// The origin is the top-left corner; Y grows downward.
type Rect struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// NewRect returns a rectangle, clamping width and height to at least 1.
func NewRect(x, y, width, height float64) Rect {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Inset returns the rectangle shrunk by the given margin on all sides.
// The result never collapses below 1x1.
func (r Rect) Inset(margin float64) Rect {
	return NewRect(r.X+margin, r.Y+margin, r.Width-2*margin, r.Height-2*margin)
}

// Contains reports whether other lies entirely within r.
// A small tolerance absorbs floating point drift from gap arithmetic.
func (r Rect) Contains(other Rect) bool {
	const eps = 1e-6
	return other.X >= r.X-eps &&
		other.Y >= r.Y-eps &&
		other.Right() <= r.Right()+eps &&
		other.Bottom() <= r.Bottom()+eps
}

// Intersects reports whether r and other share any interior area.
// Edge-touching rectangles do not intersect.
func (r Rect) Intersects(other Rect) bool {
	const eps = 1e-6
	return r.X < other.Right()-eps &&
		other.X < r.Right()-eps &&
		r.Y < other.Bottom()-eps &&
		other.Y < r.Bottom()-eps
}

// IsEmpty reports whether the rectangle has no usable area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("%.0fx%.0f@(%.0f,%.0f)", r.Width, r.Height, r.X, r.Y)
}
