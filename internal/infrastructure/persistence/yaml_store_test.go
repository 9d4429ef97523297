package persistence

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
)

func testSnapshot(t *testing.T) *ports.RegistrySnapshot {
	t.Helper()
	p := pattern.Default()
	ws := &workspace.Workspace{
		ID:          "ws-1",
		Name:        "Coding",
		PatternID:   p.ID,
		AutoArrange: true,
		CreatedAt:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	m, err := keymap.NewMapping("Switch 1", keymap.NewCombination("1", keymap.SafeModifier),
		keymap.ActionSwitchWorkspace, keymap.Params{Position: 1})
	if err != nil {
		t.Fatalf("NewMapping() error = %v", err)
	}
	return &ports.RegistrySnapshot{
		Workspaces: []*workspace.Workspace{ws},
		Patterns:   []*pattern.Pattern{p},
		Mappings:   []*keymap.Mapping{m},
	}
}

func TestYAMLStore(t *testing.T) {
	t.Run("missing directory loads empty", func(t *testing.T) {
		store := NewYAMLStore(filepath.Join(t.TempDir(), "entities"))
		snap, err := store.LoadSnapshot(context.Background())
		if err != nil {
			t.Fatalf("LoadSnapshot() error = %v", err)
		}
		if len(snap.Workspaces) != 0 || len(snap.Patterns) != 0 {
			t.Errorf("expected empty snapshot, got %+v", snap)
		}
	})

	t.Run("save and load round trip", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "entities")
		store := NewYAMLStore(dir)
		want := testSnapshot(t)

		if err := store.SaveSnapshot(context.Background(), want); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		got, err := store.LoadSnapshot(context.Background())
		if err != nil {
			t.Fatalf("LoadSnapshot() error = %v", err)
		}
		if len(got.Workspaces) != 1 || got.Workspaces[0].Name != "Coding" {
			t.Errorf("workspaces = %+v, want Coding", got.Workspaces)
		}
		if got.Workspaces[0].PatternID != want.Patterns[0].ID {
			t.Errorf("pattern ref = %s, want %s", got.Workspaces[0].PatternID, want.Patterns[0].ID)
		}
		if len(got.Mappings) != 1 || got.Mappings[0].Combination.Key != "1" {
			t.Errorf("mappings = %+v, want one opt+1 binding", got.Mappings)
		}
	})

	t.Run("one file per entity kind", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "entities")
		store := NewYAMLStore(dir)
		if err := store.SaveSnapshot(context.Background(), testSnapshot(t)); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		for _, name := range []string{
			workspacesFile, patternsFile, rulesFile,
			monitorsFile, profilesFile, mappingsFile,
		} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("missing entity file %s: %v", name, err)
			}
		}

		// each kind lives only in its own file
		data, err := os.ReadFile(filepath.Join(dir, workspacesFile))
		if err != nil {
			t.Fatalf("reading %s: %v", workspacesFile, err)
		}
		if strings.Contains(string(data), "patterns:") {
			t.Errorf("%s holds pattern entities:\n%s", workspacesFile, data)
		}
		data, err = os.ReadFile(filepath.Join(dir, mappingsFile))
		if err != nil {
			t.Fatalf("reading %s: %v", mappingsFile, err)
		}
		if !strings.Contains(string(data), "keyboard_mappings:") {
			t.Errorf("%s lacks its mapping section:\n%s", mappingsFile, data)
		}
	})

	t.Run("save replaces atomically", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "entities")
		store := NewYAMLStore(dir)

		if err := store.SaveSnapshot(context.Background(), testSnapshot(t)); err != nil {
			t.Fatalf("first save error = %v", err)
		}
		if err := store.SaveSnapshot(context.Background(), &ports.RegistrySnapshot{}); err != nil {
			t.Fatalf("second save error = %v", err)
		}

		// no temp files left behind, one file per kind
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("reading dir: %v", err)
		}
		if len(entries) != 6 {
			t.Errorf("dir entries = %d, want 6", len(entries))
		}
		for _, e := range entries {
			if filepath.Ext(e.Name()) != ".yaml" {
				t.Errorf("leftover file %s", e.Name())
			}
		}

		got, err := store.LoadSnapshot(context.Background())
		if err != nil {
			t.Fatalf("LoadSnapshot() error = %v", err)
		}
		if len(got.Workspaces) != 0 {
			t.Errorf("expected empty store after overwrite, got %d workspaces", len(got.Workspaces))
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, workspacesFile), []byte("workspaces: [broken"), 0600); err != nil {
			t.Fatalf("writing file: %v", err)
		}
		store := NewYAMLStore(dir)
		if _, err := store.LoadSnapshot(context.Background()); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("future schema version rejected", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, rulesFile), []byte("version: 99\n"), 0600); err != nil {
			t.Fatalf("writing file: %v", err)
		}
		store := NewYAMLStore(dir)
		if _, err := store.LoadSnapshot(context.Background()); err == nil {
			t.Error("expected version error")
		}
	})
}

func TestWatcher(t *testing.T) {
	t.Run("external edit emits one reload per burst", func(t *testing.T) {
		dir := t.TempDir()

		w, err := NewWatcher(dir, WatcherConfig{DebounceDuration: 50 * time.Millisecond, BufferSize: 4})
		if err != nil {
			t.Fatalf("NewWatcher() error = %v", err)
		}
		defer w.Close()
		if err := w.Watch(context.Background()); err != nil {
			t.Fatalf("Watch() error = %v", err)
		}

		// burst of writes across entity files, as an editor or a save would
		// produce
		for _, name := range []string{workspacesFile, patternsFile, workspacesFile} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("version: 1\n"), 0600); err != nil {
				t.Fatalf("writing file: %v", err)
			}
			time.Sleep(5 * time.Millisecond)
		}

		select {
		case ev := <-w.Events():
			if filepath.Clean(ev.Dir) != filepath.Clean(dir) {
				t.Errorf("event dir = %s, want %s", ev.Dir, dir)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no reload event")
		}

		// debounce coalesced the burst
		select {
		case <-w.Events():
			t.Error("expected a single event for the burst")
		case <-time.After(150 * time.Millisecond):
		}
	})

	t.Run("non-yaml files ignored", func(t *testing.T) {
		dir := t.TempDir()

		w, err := NewWatcher(dir, WatcherConfig{DebounceDuration: 30 * time.Millisecond})
		if err != nil {
			t.Fatalf("NewWatcher() error = %v", err)
		}
		defer w.Close()
		if err := w.Watch(context.Background()); err != nil {
			t.Fatalf("Watch() error = %v", err)
		}

		// an in-flight save's temp file carries a non-yaml suffix
		if err := os.WriteFile(filepath.Join(dir, workspacesFile+".tmp-1"), []byte("x"), 0600); err != nil {
			t.Fatalf("writing file: %v", err)
		}

		select {
		case <-w.Events():
			t.Error("unexpected event for non-yaml file")
		case <-time.After(150 * time.Millisecond):
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		w, err := NewWatcher(t.TempDir(), DefaultWatcherConfig())
		if err != nil {
			t.Fatalf("NewWatcher() error = %v", err)
		}
		if err := w.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if err := w.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})
}
