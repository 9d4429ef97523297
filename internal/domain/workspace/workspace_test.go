package workspace

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		ws, err := New(CreateRequest{Name: "Coding"}, "pattern-default")
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if ws.ID == "" {
			t.Error("id not assigned")
		}
		if ws.PatternID != "pattern-default" {
			t.Errorf("pattern id = %q, want default", ws.PatternID)
		}
		if !ws.AutoArrange {
			t.Error("auto-arrange should default to true")
		}
		if ws.State != StateInactive {
			t.Errorf("state = %s, want inactive", ws.State)
		}
		if ws.CreatedAt.IsZero() {
			t.Error("created timestamp not set")
		}
	})

	t.Run("explicit fields win over defaults", func(t *testing.T) {
		f := false
		ws, err := New(CreateRequest{
			Name:        "  Comms  ",
			PatternID:   "pattern-grid",
			AutoArrange: &f,
		}, "pattern-default")
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if ws.Name != "Comms" {
			t.Errorf("name = %q, want trimmed", ws.Name)
		}
		if ws.PatternID != "pattern-grid" {
			t.Errorf("pattern id = %q", ws.PatternID)
		}
		if ws.AutoArrange {
			t.Error("auto-arrange should honor explicit false")
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		if _, err := New(CreateRequest{Name: "   "}, "p"); err == nil {
			t.Error("expected error for blank name")
		}
	})

	t.Run("name over 64 characters rejected", func(t *testing.T) {
		if _, err := New(CreateRequest{Name: strings.Repeat("x", 65)}, "p"); err == nil {
			t.Error("expected error for oversized name")
		}
	})

	t.Run("missing pattern rejected", func(t *testing.T) {
		if _, err := New(CreateRequest{Name: "Coding"}, ""); err == nil {
			t.Error("expected error when no pattern resolves")
		}
	})
}

func TestApply(t *testing.T) {
	ws, err := New(CreateRequest{Name: "Coding", Shortcut: "opt+1"}, "pattern-default")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Run("nil fields untouched", func(t *testing.T) {
		desc := "editor and terminals"
		if err := ws.Apply(UpdateRequest{Description: &desc}); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if ws.Name != "Coding" || ws.Shortcut != "opt+1" {
			t.Errorf("unrelated fields changed: %+v", ws)
		}
		if ws.Description != desc {
			t.Errorf("description = %q", ws.Description)
		}
	})

	t.Run("failed validation leaves workspace unchanged", func(t *testing.T) {
		bad := ""
		if err := ws.Apply(UpdateRequest{Name: &bad}); err == nil {
			t.Fatal("expected validation error")
		}
		if ws.Name != "Coding" {
			t.Errorf("name changed after failed update: %q", ws.Name)
		}
	})

	t.Run("shortcut can be cleared", func(t *testing.T) {
		empty := ""
		if err := ws.Apply(UpdateRequest{Shortcut: &empty}); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if ws.Shortcut != "" {
			t.Errorf("shortcut = %q, want empty", ws.Shortcut)
		}
	})
}

func TestPatternFor(t *testing.T) {
	ws, _ := New(CreateRequest{Name: "Coding"}, "pattern-default")
	ws.MonitorOverrides["display-2"] = "pattern-columns"

	if got := ws.PatternFor("display-2"); got != "pattern-columns" {
		t.Errorf("override monitor pattern = %q", got)
	}
	if got := ws.PatternFor("display-1"); got != "pattern-default" {
		t.Errorf("default monitor pattern = %q", got)
	}
}

func TestTouch(t *testing.T) {
	ws, _ := New(CreateRequest{Name: "Coding"}, "p")
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	ws.Touch(now)
	if !ws.LastUsedAt.Equal(now) {
		t.Errorf("last used = %v, want %v", ws.LastUsedAt, now)
	}
	if ws.LastUsedAt.Location() != time.UTC {
		t.Error("last used should be stored in UTC")
	}
}

func TestClone(t *testing.T) {
	ws, _ := New(CreateRequest{Name: "Coding"}, "p")
	ws.MonitorOverrides["display-2"] = "pattern-grid"

	c := ws.Clone()
	c.MonitorOverrides["display-2"] = "pattern-columns"
	if ws.MonitorOverrides["display-2"] != "pattern-grid" {
		t.Error("clone shares override map with original")
	}
}
