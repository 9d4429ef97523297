package registry

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
	"github.com/jbctechsolutions/tilekit/internal/domain/rule"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
)

// memStore is an in-memory EntityStore for tests. failNext makes the next
// save fail so rollback behavior can be observed.
type memStore struct {
	snap     *ports.RegistrySnapshot
	saves    int
	failNext bool
}

func (s *memStore) LoadSnapshot(ctx context.Context) (*ports.RegistrySnapshot, error) {
	if s.snap == nil {
		return &ports.RegistrySnapshot{}, nil
	}
	return s.snap, nil
}

func (s *memStore) SaveSnapshot(ctx context.Context, snap *ports.RegistrySnapshot) error {
	if s.failNext {
		s.failNext = false
		return stderrors.New("disk full")
	}
	s.snap = snap
	s.saves++
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *memStore) {
	t.Helper()
	store := &memStore{}
	r := New(store, nil)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return r, store
}

func TestLoadInstallsDefaultPattern(t *testing.T) {
	r, _ := newTestRegistry(t)

	patterns := r.ListPatterns()
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern after first load, got %d", len(patterns))
	}
	if patterns[0].Algorithm != pattern.AlgorithmPrimaryStack {
		t.Errorf("expected primary-stack default, got %s", patterns[0].Algorithm)
	}
	if r.DefaultPatternID() != patterns[0].ID {
		t.Errorf("default pattern id mismatch")
	}
}

func TestCreateWorkspace(t *testing.T) {
	t.Run("assigns default pattern", func(t *testing.T) {
		r, store := newTestRegistry(t)

		ws, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding"})
		if err != nil {
			t.Fatalf("CreateWorkspace() error = %v", err)
		}
		if ws.PatternID != r.DefaultPatternID() {
			t.Errorf("expected default pattern, got %s", ws.PatternID)
		}
		if ws.State != workspace.StateInactive {
			t.Errorf("new workspace state = %s, want inactive", ws.State)
		}
		if store.saves != 1 {
			t.Errorf("expected 1 save, got %d", store.saves)
		}
	})

	t.Run("rejects duplicate name case-insensitively", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		if _, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding"}); err != nil {
			t.Fatalf("first create error = %v", err)
		}
		_, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "coding"})
		if !errors.IsCode(err, errors.CodeConflict) {
			t.Errorf("expected CONFLICT, got %v", err)
		}
	})

	t.Run("rejects duplicate shortcut", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		first, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "A", Shortcut: "opt+1"})
		if err != nil {
			t.Fatalf("first create error = %v", err)
		}
		_, err = r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "B", Shortcut: "opt+1"})
		if !errors.IsCode(err, errors.CodeConflict) {
			t.Fatalf("expected CONFLICT, got %v", err)
		}
		if got := errors.ExistingID(err); got != first.ID {
			t.Errorf("ExistingID() = %q, want %q", got, first.ID)
		}
	})

	t.Run("rejects unparseable shortcut", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		_, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "A", Shortcut: "not a chord"})
		if !errors.IsCode(err, errors.CodeValidation) {
			t.Errorf("expected VALIDATION, got %v", err)
		}
	})

	t.Run("rejects unknown pattern", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		_, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "A", PatternID: "missing"})
		if !errors.Is(err, errors.ErrPatternNotFound) {
			t.Errorf("expected ErrPatternNotFound, got %v", err)
		}
	})

	t.Run("rolls back when persistence fails", func(t *testing.T) {
		r, store := newTestRegistry(t)
		store.failNext = true

		_, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding"})
		if err == nil {
			t.Fatal("expected error from failing store")
		}
		if got := len(r.ListWorkspaces()); got != 0 {
			t.Errorf("expected registry unchanged after failed save, got %d workspaces", got)
		}
	})
}

func TestUpdateWorkspace(t *testing.T) {
	r, _ := newTestRegistry(t)
	ws, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding"})
	if err != nil {
		t.Fatalf("CreateWorkspace() error = %v", err)
	}

	t.Run("applies fields", func(t *testing.T) {
		name := "Research"
		updated, err := r.UpdateWorkspace(context.Background(), ws.ID, workspace.UpdateRequest{Name: &name})
		if err != nil {
			t.Fatalf("UpdateWorkspace() error = %v", err)
		}
		if updated.Name != "Research" {
			t.Errorf("name = %q, want Research", updated.Name)
		}
	})

	t.Run("leaves registry unchanged on invalid update", func(t *testing.T) {
		empty := ""
		_, err := r.UpdateWorkspace(context.Background(), ws.ID, workspace.UpdateRequest{Name: &empty})
		if !errors.IsCode(err, errors.CodeValidation) {
			t.Fatalf("expected VALIDATION, got %v", err)
		}
		current, err := r.GetWorkspace(ws.ID)
		if err != nil {
			t.Fatalf("GetWorkspace() error = %v", err)
		}
		if current.Name != "Research" {
			t.Errorf("name = %q after failed update, want Research", current.Name)
		}
	})

	t.Run("not found", func(t *testing.T) {
		name := "X"
		_, err := r.UpdateWorkspace(context.Background(), "missing", workspace.UpdateRequest{Name: &name})
		if !errors.Is(err, errors.ErrWorkspaceNotFound) {
			t.Errorf("expected ErrWorkspaceNotFound, got %v", err)
		}
	})
}

func TestDeleteWorkspace(t *testing.T) {
	setup := func(t *testing.T) (*Registry, *workspace.Workspace) {
		t.Helper()
		r, _ := newTestRegistry(t)
		ws, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding"})
		if err != nil {
			t.Fatalf("CreateWorkspace() error = %v", err)
		}

		rl, err := rule.New(ws.ID, "com.example.editor", "", rule.PlacementAuto, nil, 0, rule.FocusNever)
		if err != nil {
			t.Fatalf("rule.New() error = %v", err)
		}
		if _, err := r.CreateRule(context.Background(), rl); err != nil {
			t.Fatalf("CreateRule() error = %v", err)
		}

		mc, err := monitor.New(ws.ID, "display-1", r.DefaultPatternID(),
			geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, monitor.OrientationCurrent, 1.0)
		if err != nil {
			t.Fatalf("monitor.New() error = %v", err)
		}
		if _, err := r.CreateMonitorConfig(context.Background(), mc); err != nil {
			t.Fatalf("CreateMonitorConfig() error = %v", err)
		}

		m, err := keymap.NewMapping("Switch to Coding",
			keymap.NewCombination("1", keymap.SafeModifier),
			keymap.ActionSwitchWorkspace, keymap.Params{TargetID: ws.ID})
		if err != nil {
			t.Fatalf("NewMapping() error = %v", err)
		}
		if err := r.PutMapping(context.Background(), m); err != nil {
			t.Fatalf("PutMapping() error = %v", err)
		}
		return r, ws
	}

	t.Run("without cascade fails while dependents exist", func(t *testing.T) {
		r, ws := setup(t)

		err := r.DeleteWorkspace(context.Background(), ws.ID, false)
		if !errors.Is(err, errors.ErrHasDependents) {
			t.Fatalf("expected ErrHasDependents, got %v", err)
		}
		if _, err := r.GetWorkspace(ws.ID); err != nil {
			t.Errorf("workspace should survive failed delete: %v", err)
		}
	})

	t.Run("with cascade removes dependents", func(t *testing.T) {
		r, ws := setup(t)

		if err := r.DeleteWorkspace(context.Background(), ws.ID, true); err != nil {
			t.Fatalf("DeleteWorkspace() error = %v", err)
		}
		if _, err := r.GetWorkspace(ws.ID); !errors.Is(err, errors.ErrWorkspaceNotFound) {
			t.Errorf("expected workspace gone, got %v", err)
		}
		if got := len(r.RulesForWorkspace(ws.ID)); got != 0 {
			t.Errorf("expected 0 rules after cascade, got %d", got)
		}
		if mc := r.MonitorConfigFor(ws.ID, "display-1"); mc != nil {
			t.Error("expected monitor config removed by cascade")
		}
		if got := len(r.ListMappings()); got != 0 {
			t.Errorf("expected 0 mappings after cascade, got %d", got)
		}
	})
}

func TestWorkspaceByPosition(t *testing.T) {
	r, _ := newTestRegistry(t)
	names := []string{"First", "Second", "Third"}
	for _, n := range names {
		if _, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: n}); err != nil {
			t.Fatalf("CreateWorkspace(%s) error = %v", n, err)
		}
	}

	for i, want := range names {
		ws, err := r.WorkspaceByPosition(i + 1)
		if err != nil {
			t.Fatalf("WorkspaceByPosition(%d) error = %v", i+1, err)
		}
		if ws.Name != want {
			t.Errorf("position %d = %q, want %q", i+1, ws.Name, want)
		}
	}

	if _, err := r.WorkspaceByPosition(4); !errors.Is(err, errors.ErrWorkspaceNotFound) {
		t.Errorf("expected ErrWorkspaceNotFound for out-of-range position, got %v", err)
	}
}

func TestDeletePatternInUse(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding"}); err != nil {
		t.Fatalf("CreateWorkspace() error = %v", err)
	}

	err := r.DeletePattern(context.Background(), r.DefaultPatternID())
	if !errors.Is(err, errors.ErrHasDependents) {
		t.Errorf("expected ErrHasDependents, got %v", err)
	}
}

func TestCloneOnRead(t *testing.T) {
	r, _ := newTestRegistry(t)
	ws, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding"})
	if err != nil {
		t.Fatalf("CreateWorkspace() error = %v", err)
	}

	ws.Name = "mutated"
	ws.MonitorOverrides["display-1"] = "p1"

	stored, err := r.GetWorkspace(ws.ID)
	if err != nil {
		t.Fatalf("GetWorkspace() error = %v", err)
	}
	if stored.Name != "Coding" {
		t.Errorf("caller mutation leaked into registry: name = %q", stored.Name)
	}
	if len(stored.MonitorOverrides) != 0 {
		t.Error("caller mutation leaked into registry overrides")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	store := &memStore{}
	r := New(store, nil)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ws, err := r.CreateWorkspace(context.Background(), workspace.CreateRequest{Name: "Coding", Shortcut: "opt+1"})
	if err != nil {
		t.Fatalf("CreateWorkspace() error = %v", err)
	}
	if err := r.SetWorkspaceState(ws.ID, workspace.StateActive); err != nil {
		t.Fatalf("SetWorkspaceState() error = %v", err)
	}

	// A second registry loading the same store sees the entities with
	// runtime state reset.
	r2 := New(store, nil)
	if err := r2.Load(context.Background()); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	got, err := r2.GetWorkspace(ws.ID)
	if err != nil {
		t.Fatalf("GetWorkspace() after reload error = %v", err)
	}
	if got.Shortcut != "opt+1" {
		t.Errorf("shortcut = %q after reload, want opt+1", got.Shortcut)
	}
	if got.State != workspace.StateInactive {
		t.Errorf("state = %s after reload, want inactive", got.State)
	}
}
