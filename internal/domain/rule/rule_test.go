package rule

import (
	"testing"

	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
)

func TestNew(t *testing.T) {
	t.Run("app id rule", func(t *testing.T) {
		r, err := New("ws-1", "com.example.editor", "", PlacementAuto, nil, 0, FocusNever)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if r.ID == "" {
			t.Error("id not assigned")
		}
	})

	t.Run("requires workspace", func(t *testing.T) {
		if _, err := New("", "com.example.editor", "", PlacementAuto, nil, 0, FocusNever); err == nil {
			t.Error("expected error for missing workspace")
		}
	})

	t.Run("requires app id or title pattern", func(t *testing.T) {
		if _, err := New("ws-1", "", "", PlacementAuto, nil, 0, FocusNever); err == nil {
			t.Error("expected error for empty match criteria")
		}
	})

	t.Run("fixed placement requires geometry", func(t *testing.T) {
		if _, err := New("ws-1", "com.example.editor", "", PlacementFixed, nil, 0, FocusNever); err == nil {
			t.Error("expected error for fixed placement without geometry")
		}
	})

	t.Run("geometry only valid for fixed placement", func(t *testing.T) {
		f := geometry.NewRect(0, 0, 400, 300)
		if _, err := New("ws-1", "com.example.editor", "", PlacementFloating, &f, 0, FocusNever); err == nil {
			t.Error("expected error for stray fixed geometry")
		}
	})

	t.Run("negative priority rejected", func(t *testing.T) {
		if _, err := New("ws-1", "com.example.editor", "", PlacementAuto, nil, -1, FocusNever); err == nil {
			t.Error("expected error for negative priority")
		}
	})

	t.Run("invalid title pattern rejected", func(t *testing.T) {
		if _, err := New("ws-1", "com.example.editor", "([", PlacementAuto, nil, 0, FocusNever); err == nil {
			t.Error("expected error for malformed regexp")
		}
	})
}

func TestMatches(t *testing.T) {
	t.Run("app id only", func(t *testing.T) {
		r, _ := New("ws-1", "com.example.editor", "", PlacementAuto, nil, 0, FocusNever)
		if !r.Matches("com.example.editor", "anything") {
			t.Error("exact app id should match regardless of title")
		}
		if r.Matches("com.example.browser", "anything") {
			t.Error("different app id should not match")
		}
	})

	t.Run("title narrows the match", func(t *testing.T) {
		r, _ := New("ws-1", "com.example.editor", `^Scratch`, PlacementAuto, nil, 0, FocusNever)
		if !r.Matches("com.example.editor", "Scratch Buffer") {
			t.Error("matching title should pass")
		}
		if r.Matches("com.example.editor", "main.go") {
			t.Error("non-matching title should fail")
		}
	})

	t.Run("title-only rule matches any app", func(t *testing.T) {
		r, _ := New("ws-1", "", `Preferences$`, PlacementFloating, nil, 0, FocusNever)
		if !r.Matches("com.example.anything", "System Preferences") {
			t.Error("title-only rule should match any app id")
		}
	})
}

func TestCompileAfterLoad(t *testing.T) {
	// rules deserialized from storage arrive without a compiled matcher
	r := &Rule{
		ID:           "r-1",
		WorkspaceID:  "ws-1",
		AppID:        "com.example.editor",
		TitlePattern: `^Scratch`,
		Placement:    PlacementAuto,
		Focus:        FocusNever,
	}
	if !r.Matches("com.example.editor", "main.go") {
		t.Error("uncompiled title pattern should not filter")
	}
	if err := r.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if r.Matches("com.example.editor", "main.go") {
		t.Error("compiled title pattern should filter")
	}
}

func TestSortByPriority(t *testing.T) {
	a, _ := New("ws-1", "app-a", "", PlacementAuto, nil, 5, FocusNever)
	b, _ := New("ws-1", "app-b", "", PlacementAuto, nil, 10, FocusNever)
	c, _ := New("ws-1", "app-c", "", PlacementAuto, nil, 5, FocusNever)

	rules := []*Rule{a, b, c}
	SortByPriority(rules)

	if rules[0] != b {
		t.Errorf("highest priority first, got %s", rules[0].AppID)
	}
	// equal priorities order by id for determinism
	if !(rules[1].ID < rules[2].ID) {
		t.Errorf("tie-break by id violated: %s before %s", rules[1].ID, rules[2].ID)
	}
}

func TestClone(t *testing.T) {
	f := geometry.NewRect(0, 0, 400, 300)
	r, _ := New("ws-1", "com.example.editor", "", PlacementFixed, &f, 0, FocusOnCreate)

	c := r.Clone()
	c.Fixed.Width = 999
	if r.Fixed.Width != 400 {
		t.Error("clone shares fixed geometry with original")
	}
	if !c.Matches("com.example.editor", "x") {
		t.Error("clone should keep the compiled matcher")
	}
}
