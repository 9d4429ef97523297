package geometry

import "testing"

func TestNewRect(t *testing.T) {
	r := NewRect(10, 20, 300, 200)
	if r.X != 10 || r.Y != 20 || r.Width != 300 || r.Height != 200 {
		t.Errorf("unexpected rect: %v", r)
	}

	clamped := NewRect(0, 0, -5, 0)
	if clamped.Width != 1 || clamped.Height != 1 {
		t.Errorf("degenerate dimensions should clamp to 1x1, got %v", clamped)
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(10, 20, 300, 200)
	if r.Right() != 310 {
		t.Errorf("Right() = %v, want 310", r.Right())
	}
	if r.Bottom() != 220 {
		t.Errorf("Bottom() = %v, want 220", r.Bottom())
	}
	if r.Area() != 60000 {
		t.Errorf("Area() = %v, want 60000", r.Area())
	}
}

func TestInset(t *testing.T) {
	r := NewRect(0, 0, 100, 80).Inset(10)
	if r.X != 10 || r.Y != 10 || r.Width != 80 || r.Height != 60 {
		t.Errorf("Inset(10) = %v", r)
	}

	tiny := NewRect(0, 0, 10, 10).Inset(20)
	if tiny.Width != 1 || tiny.Height != 1 {
		t.Errorf("over-inset should clamp to 1x1, got %v", tiny)
	}
}

func TestContains(t *testing.T) {
	outer := NewRect(0, 0, 100, 100)

	if !outer.Contains(NewRect(10, 10, 50, 50)) {
		t.Error("inner rect should be contained")
	}
	if !outer.Contains(outer) {
		t.Error("a rect contains itself")
	}
	if outer.Contains(NewRect(60, 60, 50, 50)) {
		t.Error("rect extending past the edge is not contained")
	}
}

func TestIntersects(t *testing.T) {
	a := NewRect(0, 0, 100, 100)

	if !a.Intersects(NewRect(50, 50, 100, 100)) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(NewRect(100, 0, 50, 50)) {
		t.Error("edge-touching rects should not intersect")
	}
	if a.Intersects(NewRect(200, 200, 10, 10)) {
		t.Error("disjoint rects should not intersect")
	}
}

func TestString(t *testing.T) {
	if got := NewRect(10, 20, 300, 200).String(); got != "300x200@(10,20)" {
		t.Errorf("String() = %q", got)
	}
}
