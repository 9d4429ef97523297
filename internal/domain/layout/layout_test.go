package layout

import (
	"math"
	"testing"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
)

func mustPattern(t *testing.T, algorithm pattern.Algorithm, ratio, gap, margin float64, maxWindows int, overflow pattern.OverflowPolicy) *pattern.Pattern {
	t.Helper()
	p, err := pattern.New("test", algorithm, ratio, gap, margin, maxWindows, overflow)
	if err != nil {
		t.Fatalf("pattern.New: %v", err)
	}
	return p
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s = %.2f, want %.2f", name, got, want)
	}
}

func TestArrangePrimaryStack(t *testing.T) {
	area := geometry.NewRect(0, 0, 1200, 800)

	t.Run("single window fills usable area", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmPrimaryStack, 0.6, 0, 0, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 1, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if len(arr.Slots) != 1 {
			t.Fatalf("slots = %d, want 1", len(arr.Slots))
		}
		if arr.Slots[0].Frame != area {
			t.Errorf("frame = %v, want %v", arr.Slots[0].Frame, area)
		}
	})

	t.Run("three windows split main and stack", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmPrimaryStack, 0.6, 0, 0, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 3, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if len(arr.Slots) != 3 {
			t.Fatalf("slots = %d, want 3", len(arr.Slots))
		}

		main := arr.Slots[0].Frame
		approx(t, "main width", main.Width, 720)
		approx(t, "main height", main.Height, 800)

		for i, slot := range arr.Slots[1:] {
			approx(t, "stack width", slot.Frame.Width, 480)
			approx(t, "stack height", slot.Frame.Height, 400)
			approx(t, "stack x", slot.Frame.X, 720)
			approx(t, "stack y", slot.Frame.Y, float64(i)*400)
		}
	})

	t.Run("gap separates main and stack", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmPrimaryStack, 0.5, 10, 0, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 3, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		main := arr.Slots[0].Frame
		first := arr.Slots[1].Frame
		second := arr.Slots[2].Frame
		approx(t, "stack x", first.X, main.Right()+10)
		approx(t, "second y", second.Y, first.Bottom()+10)
	})

	t.Run("no slot overlaps another", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmPrimaryStack, 0.6, 8, 5, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 5, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		for i := range arr.Slots {
			for j := i + 1; j < len(arr.Slots); j++ {
				if arr.Slots[i].Frame.Intersects(arr.Slots[j].Frame) {
					t.Errorf("slot %d overlaps slot %d: %v vs %v", i, j, arr.Slots[i].Frame, arr.Slots[j].Frame)
				}
			}
			if !area.Contains(arr.Slots[i].Frame) {
				t.Errorf("slot %d %v escapes area %v", i, arr.Slots[i].Frame, area)
			}
		}
	})
}

func TestArrangeGrid(t *testing.T) {
	area := geometry.NewRect(0, 0, 1200, 800)

	t.Run("five windows use a 3x2 grid", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmGrid, 0.5, 0, 0, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 5, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if len(arr.Slots) != 5 {
			t.Fatalf("slots = %d, want 5", len(arr.Slots))
		}
		for _, slot := range arr.Slots {
			approx(t, "cell width", slot.Frame.Width, 400)
			approx(t, "cell height", slot.Frame.Height, 400)
		}
		// fourth window wraps to the second row
		approx(t, "fourth y", arr.Slots[3].Frame.Y, 400)
		approx(t, "fourth x", arr.Slots[3].Frame.X, 0)
	})

	t.Run("four windows use a 2x2 grid", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmGrid, 0.5, 0, 0, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 4, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		approx(t, "cell width", arr.Slots[0].Frame.Width, 600)
		approx(t, "cell height", arr.Slots[0].Frame.Height, 400)
	})
}

func TestArrangeColumns(t *testing.T) {
	area := geometry.NewRect(0, 0, 1200, 800)
	p := mustPattern(t, pattern.AlgorithmColumns, 0.5, 0, 0, 10, pattern.OverflowShrink)

	arr, err := Arrange(p, 4, area)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	for i, slot := range arr.Slots {
		approx(t, "column width", slot.Frame.Width, 300)
		approx(t, "column height", slot.Frame.Height, 800)
		approx(t, "column x", slot.Frame.X, float64(i)*300)
	}
}

func TestArrangeOverflow(t *testing.T) {
	area := geometry.NewRect(0, 0, 1200, 800)

	t.Run("shrink-to-fit sizes cells for all windows", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmColumns, 0.5, 0, 0, 3, pattern.OverflowShrink)
		arr, err := Arrange(p, 6, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if len(arr.Slots) != 6 {
			t.Fatalf("slots = %d, want 6", len(arr.Slots))
		}
		approx(t, "column width", arr.Slots[0].Frame.Width, 200)
	})

	t.Run("stack-excess layers windows past capacity", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmColumns, 0.5, 0, 0, 4, pattern.OverflowStack)
		arr, err := Arrange(p, 6, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if len(arr.Slots) != 6 {
			t.Fatalf("slots = %d, want 6", len(arr.Slots))
		}

		last := arr.Slots[3].Frame
		for i := 0; i < 4; i++ {
			if arr.Slots[i].Layered {
				t.Errorf("slot %d is layered, want tiled", i)
			}
			if arr.Slots[i].ZOrder != 0 {
				t.Errorf("slot %d z-order = %d, want 0", i, arr.Slots[i].ZOrder)
			}
		}
		for i := 4; i < 6; i++ {
			if !arr.Slots[i].Layered {
				t.Errorf("slot %d not layered", i)
			}
			if arr.Slots[i].Frame != last {
				t.Errorf("slot %d frame = %v, want last tiled frame %v", i, arr.Slots[i].Frame, last)
			}
			if arr.Slots[i].ZOrder != i-3 {
				t.Errorf("slot %d z-order = %d, want %d", i, arr.Slots[i].ZOrder, i-3)
			}
		}
	})

	t.Run("allow-overflow keeps capacity geometry and extends the sequence", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmColumns, 0.5, 0, 0, 3, pattern.OverflowAllow)
		arr, err := Arrange(p, 5, area)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if len(arr.Slots) != 5 {
			t.Fatalf("slots = %d, want 5", len(arr.Slots))
		}
		approx(t, "column width", arr.Slots[0].Frame.Width, 400)
		// fifth column continues past the right edge at capacity sizing
		approx(t, "fifth x", arr.Slots[4].Frame.X, 1600)
	})
}

func TestArrangeEdgeCases(t *testing.T) {
	t.Run("zero windows yields empty arrangement", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmGrid, 0.5, 0, 0, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 0, geometry.NewRect(0, 0, 1200, 800))
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if len(arr.Slots) != 0 {
			t.Errorf("slots = %d, want 0", len(arr.Slots))
		}
	})

	t.Run("margin larger than area fails", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmGrid, 0.5, 0, 50, 10, pattern.OverflowShrink)
		_, err := Arrange(p, 2, geometry.NewRect(0, 0, 80, 60))
		if err == nil {
			t.Fatal("expected error for unusable area")
		}
		if !errors.IsCode(err, errors.CodeTiling) {
			t.Errorf("error code = %v, want tiling", err)
		}
	})

	t.Run("margin insets every frame", func(t *testing.T) {
		p := mustPattern(t, pattern.AlgorithmColumns, 0.5, 0, 20, 10, pattern.OverflowShrink)
		arr, err := Arrange(p, 2, geometry.NewRect(0, 0, 1200, 800))
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		approx(t, "first x", arr.Slots[0].Frame.X, 20)
		approx(t, "first y", arr.Slots[0].Frame.Y, 20)
		approx(t, "height", arr.Slots[0].Frame.Height, 760)
	})
}

func TestGridDimensions(t *testing.T) {
	tests := []struct {
		n, cols, rows int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 2, 1},
		{4, 2, 2},
		{5, 3, 2},
		{9, 3, 3},
		{10, 4, 3},
	}
	for _, tt := range tests {
		cols, rows := GridDimensions(tt.n)
		if cols != tt.cols || rows != tt.rows {
			t.Errorf("GridDimensions(%d) = (%d, %d), want (%d, %d)", tt.n, cols, rows, tt.cols, tt.rows)
		}
	}
}
