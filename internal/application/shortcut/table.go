// Package shortcut implements the shortcut table: the single authority for
// keyboard mapping registration, lookup, and legacy migration. Conflicts are
// detected at registration time and reported to the caller; the table never
// auto-resolves by replacing an existing binding.
package shortcut

import (
	"context"
	"sync"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/application/registry"
	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/event"
	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
)

// reservedChords are combinations claimed by the host system that cannot be
// grabbed even with the safe modifier. Registration against them fails with
// ErrShortcutReserved.
var reservedChords = map[string]struct{}{
	"ctrl+up":    {},
	"ctrl+down":  {},
	"ctrl+left":  {},
	"ctrl+right": {},
	"ctrl+space": {},
}

// Metrics is a point-in-time snapshot of table counters.
type Metrics struct {
	Registered          int
	ConflictsPrevented  int64
	MigrationsPerformed int64
}

// ImportReport summarizes a legacy import: what was migrated, what collided.
type ImportReport struct {
	Imported  int
	Migrated  []string // mapping ids rewritten to the safe modifier
	Conflicts []string // chords skipped because the slot was taken
}

// Table indexes enabled mappings by chord and scope. The registry remains the
// entity owner; the table is the gatekeeper that enforces shortcut-space
// invariants before any mapping reaches storage.
type Table struct {
	mu     sync.RWMutex
	reg    *registry.Registry
	sink   ports.EventSink
	logger *logging.Logger

	// index maps chord|scope to the owning mapping id, enabled mappings only.
	index map[string]string

	conflictsPrevented  int64
	migrationsPerformed int64
}

// NewTable creates a shortcut table over the given registry.
func NewTable(reg *registry.Registry, sink ports.EventSink, logger *logging.Logger) *Table {
	if sink == nil {
		sink = ports.NopEventSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Table{
		reg:    reg,
		sink:   sink,
		logger: logger,
		index:  make(map[string]string),
	}
}

func indexKey(combo keymap.Combination, scope keymap.Scope) string {
	return combo.ChordKey() + "|" + string(scope)
}

// Rebuild re-derives the chord index from the registry. Called after load and
// after external-edit reloads.
func (t *Table) Rebuild(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.index = make(map[string]string)
	for _, m := range t.reg.ListMappings() {
		if !m.Enabled {
			continue
		}
		key := indexKey(m.Combination, m.Scope)
		if existing, taken := t.index[key]; taken {
			t.logger.WarnContext(ctx, "duplicate chord in stored mappings",
				"chord", m.Combination.String(), "mapping_id", m.ID, "existing_id", existing)
			continue
		}
		t.index[key] = m.ID
	}
	t.logger.DebugContext(ctx, "shortcut index rebuilt", "entries", len(t.index))
	return nil
}

// InstallDefaults registers the built-in mapping set when the table is empty.
// Existing user mappings always win; defaults that collide are skipped.
func (t *Table) InstallDefaults(ctx context.Context) error {
	if len(t.reg.ListMappings()) > 0 {
		return nil
	}
	for _, m := range keymap.DefaultMappings() {
		if err := t.Register(ctx, m); err != nil {
			if errors.IsCode(err, errors.CodeConflict) {
				continue
			}
			return err
		}
	}
	t.logger.InfoContext(ctx, "default mappings installed")
	return nil
}

// Register validates and stores a mapping. A chord already held in the same
// scope yields a CONFLICT error carrying the existing mapping's id; reserved
// system combinations are rejected outright. The table and registry are
// unchanged on any failure.
func (t *Table) Register(ctx context.Context, m *keymap.Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, reserved := reservedChords[m.Combination.ChordKey()]; reserved {
		return errors.NewError(errors.CodeValidation,
			"combination "+m.Combination.String()+" is claimed by the system", errors.ErrShortcutReserved)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if m.Enabled {
		key := indexKey(m.Combination, m.Scope)
		if existingID, taken := t.index[key]; taken && existingID != m.ID {
			t.conflictsPrevented++
			t.sink.Publish(event.NewShortcutConflict(m.Combination.String(), existingID))
			return errors.Conflict("combination "+m.Combination.String()+" already registered", existingID)
		}
	}

	previous := t.findByIDLocked(m.ID)
	if err := t.reg.PutMapping(ctx, m); err != nil {
		return err
	}
	if previous != nil && previous.Enabled {
		delete(t.index, indexKey(previous.Combination, previous.Scope))
	}
	if m.Enabled {
		t.index[indexKey(m.Combination, m.Scope)] = m.ID
	}
	return nil
}

// Unregister removes a mapping and frees its chord.
func (t *Table) Unregister(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.findByIDLocked(id)
	if err := t.reg.DeleteMapping(ctx, id); err != nil {
		return err
	}
	if existing != nil && existing.Enabled {
		delete(t.index, indexKey(existing.Combination, existing.Scope))
	}
	return nil
}

// findByIDLocked scans the registry for a mapping id. Registration and
// removal are rare; lookup speed matters only for Resolve.
func (t *Table) findByIDLocked(id string) *keymap.Mapping {
	for _, m := range t.reg.ListMappings() {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Resolve looks up the mapping bound to a chord. Application-scoped bindings
// shadow global ones while appFocused is true.
func (t *Table) Resolve(raw string, appFocused bool) (*keymap.Mapping, error) {
	combo, err := keymap.ParseCombination(raw)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if appFocused {
		if id, ok := t.index[indexKey(combo, keymap.ScopeApplication)]; ok {
			if m := t.findByIDLocked(id); m != nil {
				return m, nil
			}
		}
	}
	if id, ok := t.index[indexKey(combo, keymap.ScopeGlobal)]; ok {
		if m := t.findByIDLocked(id); m != nil {
			return m, nil
		}
	}
	return nil, errors.NewError(errors.CodeNotFound, "no mapping for "+combo.String(), errors.ErrMappingNotFound)
}

// ImportLegacy brings mappings from a legacy source into the table, rewriting
// any combination that uses the OS-reserved modifier to the safe modifier in
// the same chord position. The rewrite is idempotent: importing an already
// migrated set changes nothing. Collisions after migration are reported in
// the result and skipped, never auto-resolved.
func (t *Table) ImportLegacy(ctx context.Context, mappings []*keymap.Mapping) (*ImportReport, error) {
	report := &ImportReport{}
	for _, src := range mappings {
		m := src.Clone()
		migrated, changed := m.Combination.MigrateToSafe()
		if changed {
			oldChord := m.Combination.String()
			m.Combination = migrated
			t.mu.Lock()
			t.migrationsPerformed++
			t.mu.Unlock()
			t.sink.Publish(event.NewShortcutMigrated(m.ID, oldChord, migrated.String()))
			logging.LogShortcutMigrated(ctx, t.logger, m.ID, oldChord, migrated.String())
			report.Migrated = append(report.Migrated, m.ID)
		}

		if err := t.Register(ctx, m); err != nil {
			if errors.IsCode(err, errors.CodeConflict) {
				report.Conflicts = append(report.Conflicts, m.Combination.String())
				continue
			}
			return report, err
		}
		report.Imported++
	}
	return report, nil
}

// Snapshot returns the current table counters.
func (t *Table) Snapshot() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Metrics{
		Registered:          len(t.index),
		ConflictsPrevented:  t.conflictsPrevented,
		MigrationsPerformed: t.migrationsPerformed,
	}
}
