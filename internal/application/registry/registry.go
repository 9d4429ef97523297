// Package registry implements the in-memory entity registry: the single
// source of truth for workspaces, tiling patterns, window rules, monitor
// configurations, application profiles, and keyboard mappings.
//
// The registry follows a single-writer discipline: one mutation at a time,
// validated before anything is touched, persisted before anything is
// published. A failed mutation leaves the registry exactly as it was.
// Readers always receive deep copies of the last committed state and never
// observe a partially applied mutation.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
	"github.com/jbctechsolutions/tilekit/internal/domain/profile"
	"github.com/jbctechsolutions/tilekit/internal/domain/rule"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
)

// nowFunc is swapped in tests for deterministic timestamps.
var nowFunc = time.Now

// Registry owns all configuration entities. Every other component holds only
// by-id references obtained through the accessors here.
type Registry struct {
	mu sync.RWMutex

	workspaces map[string]*workspace.Workspace
	patterns   map[string]*pattern.Pattern
	rules      map[string]*rule.Rule
	monitors   map[string]*monitor.Configuration
	profiles   map[string]*profile.Profile
	mappings   map[string]*keymap.Mapping

	defaultPatternID string

	store  ports.EntityStore
	logger *logging.Logger
}

// New creates an empty registry. The store may be nil for tests; mutations
// then skip the save-on-mutation step.
func New(store ports.EntityStore, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		workspaces: make(map[string]*workspace.Workspace),
		patterns:   make(map[string]*pattern.Pattern),
		rules:      make(map[string]*rule.Rule),
		monitors:   make(map[string]*monitor.Configuration),
		profiles:   make(map[string]*profile.Profile),
		mappings:   make(map[string]*keymap.Mapping),
		store:      store,
		logger:     logger,
	}
}

// Load replaces the registry contents with the persisted snapshot and
// installs the built-in default pattern when the store is empty. Compiled
// matchers are rebuilt here so evaluation sites never compile.
func (r *Registry) Load(ctx context.Context) error {
	var snap *ports.RegistrySnapshot
	if r.store != nil {
		loaded, err := r.store.LoadSnapshot(ctx)
		if err != nil {
			return errors.NewError(errors.CodeValidation, "loading entity snapshot", err)
		}
		snap = loaded
	} else {
		snap = &ports.RegistrySnapshot{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.workspaces = make(map[string]*workspace.Workspace, len(snap.Workspaces))
	for _, ws := range snap.Workspaces {
		c := ws.Clone()
		c.State = workspace.StateInactive
		r.workspaces[c.ID] = c
	}
	r.patterns = make(map[string]*pattern.Pattern, len(snap.Patterns))
	for _, p := range snap.Patterns {
		r.patterns[p.ID] = p.Clone()
	}
	r.rules = make(map[string]*rule.Rule, len(snap.Rules))
	for _, rl := range snap.Rules {
		c := rl.Clone()
		if err := c.Compile(); err != nil {
			return err
		}
		r.rules[c.ID] = c
	}
	r.monitors = make(map[string]*monitor.Configuration, len(snap.Monitors))
	for _, m := range snap.Monitors {
		r.monitors[m.ID] = m.Clone()
	}
	r.profiles = make(map[string]*profile.Profile, len(snap.Profiles))
	for _, p := range snap.Profiles {
		c := p.Clone()
		if err := c.Compile(); err != nil {
			return err
		}
		r.profiles[c.ID] = c
	}
	r.mappings = make(map[string]*keymap.Mapping, len(snap.Mappings))
	for _, m := range snap.Mappings {
		r.mappings[m.ID] = m.Clone()
	}

	if len(r.patterns) == 0 {
		def := pattern.Default()
		r.patterns[def.ID] = def
		r.defaultPatternID = def.ID
	} else {
		r.defaultPatternID = r.pickDefaultPatternLocked()
	}

	r.logger.Info("registry loaded",
		"workspaces", len(r.workspaces),
		"patterns", len(r.patterns),
		"rules", len(r.rules),
		"monitors", len(r.monitors),
		"profiles", len(r.profiles),
		"mappings", len(r.mappings),
	)
	return nil
}

func (r *Registry) pickDefaultPatternLocked() string {
	ids := make([]string, 0, len(r.patterns))
	for id := range r.patterns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[0]
}

// DefaultPatternID returns the pattern used when a workspace does not name one.
func (r *Registry) DefaultPatternID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultPatternID
}

// persistLocked writes the current state through the store. Called with the
// write lock held, after in-memory state has been updated; the caller reverts
// on error so the registry never diverges from disk.
func (r *Registry) persistLocked(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.SaveSnapshot(ctx, r.snapshotLocked())
}

func (r *Registry) snapshotLocked() *ports.RegistrySnapshot {
	snap := &ports.RegistrySnapshot{}
	for _, ws := range r.workspaces {
		snap.Workspaces = append(snap.Workspaces, ws.Clone())
	}
	for _, p := range r.patterns {
		snap.Patterns = append(snap.Patterns, p.Clone())
	}
	for _, rl := range r.rules {
		snap.Rules = append(snap.Rules, rl.Clone())
	}
	for _, m := range r.monitors {
		snap.Monitors = append(snap.Monitors, m.Clone())
	}
	for _, p := range r.profiles {
		snap.Profiles = append(snap.Profiles, p.Clone())
	}
	for _, m := range r.mappings {
		snap.Mappings = append(snap.Mappings, m.Clone())
	}
	sort.Slice(snap.Workspaces, func(i, j int) bool { return snap.Workspaces[i].Name < snap.Workspaces[j].Name })
	sort.Slice(snap.Patterns, func(i, j int) bool { return snap.Patterns[i].Name < snap.Patterns[j].Name })
	return snap
}

// Snapshot returns a deep copy of the full entity set.
func (r *Registry) Snapshot() *ports.RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// ---------------------------------------------------------------------------
// Workspaces
// ---------------------------------------------------------------------------

// CreateWorkspace validates and stores a new workspace. Name uniqueness and
// shortcut-space uniqueness are enforced here; the mutation is all-or-nothing.
func (r *Registry) CreateWorkspace(ctx context.Context, req workspace.CreateRequest) (*workspace.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, err := workspace.New(req, r.defaultPatternID)
	if err != nil {
		return nil, err
	}
	if err := r.checkWorkspaceInvariantsLocked(ws); err != nil {
		return nil, err
	}
	if _, ok := r.patterns[ws.PatternID]; !ok {
		return nil, errors.Validation("workspace references unknown pattern "+ws.PatternID, errors.ErrPatternNotFound)
	}

	r.workspaces[ws.ID] = ws
	if err := r.persistLocked(ctx); err != nil {
		delete(r.workspaces, ws.ID)
		return nil, err
	}
	r.logger.Info("workspace created", "workspace_id", ws.ID, "name", ws.Name)
	return ws.Clone(), nil
}

// UpdateWorkspace applies an update request to an existing workspace.
func (r *Registry) UpdateWorkspace(ctx context.Context, id string, req workspace.UpdateRequest) (*workspace.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.workspaces[id]
	if !ok {
		return nil, errors.NewError(errors.CodeNotFound, "workspace "+id, errors.ErrWorkspaceNotFound)
	}

	next := current.Clone()
	if err := next.Apply(req); err != nil {
		return nil, err
	}
	if err := r.checkWorkspaceInvariantsLocked(next); err != nil {
		return nil, err
	}
	if _, ok := r.patterns[next.PatternID]; !ok {
		return nil, errors.Validation("workspace references unknown pattern "+next.PatternID, errors.ErrPatternNotFound)
	}

	r.workspaces[id] = next
	if err := r.persistLocked(ctx); err != nil {
		r.workspaces[id] = current
		return nil, err
	}
	return next.Clone(), nil
}

// SetMonitorOverride maps a monitor to a pattern for one workspace; an empty
// patternID removes the override.
func (r *Registry) SetMonitorOverride(ctx context.Context, workspaceID, monitorID, patternID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.workspaces[workspaceID]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "workspace "+workspaceID, errors.ErrWorkspaceNotFound)
	}
	if patternID != "" {
		if _, ok := r.patterns[patternID]; !ok {
			return errors.Validation("override references unknown pattern "+patternID, errors.ErrPatternNotFound)
		}
	}

	next := current.Clone()
	if patternID == "" {
		delete(next.MonitorOverrides, monitorID)
	} else {
		next.MonitorOverrides[monitorID] = patternID
	}

	r.workspaces[workspaceID] = next
	if err := r.persistLocked(ctx); err != nil {
		r.workspaces[workspaceID] = current
		return err
	}
	return nil
}

// DeleteWorkspace removes a workspace. With cascade, dependent window rules,
// monitor configurations, and keyboard mappings targeting the workspace are
// removed in the same mutation; without it, the delete fails while any
// dependent exists.
func (r *Registry) DeleteWorkspace(ctx context.Context, id string, cascade bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[id]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "workspace "+id, errors.ErrWorkspaceNotFound)
	}

	depRules := make([]string, 0)
	for rid, rl := range r.rules {
		if rl.WorkspaceID == id {
			depRules = append(depRules, rid)
		}
	}
	depMonitors := make([]string, 0)
	for mid, mc := range r.monitors {
		if mc.WorkspaceID == id {
			depMonitors = append(depMonitors, mid)
		}
	}
	depMappings := make([]string, 0)
	for kid, km := range r.mappings {
		if km.Params.TargetID == id {
			depMappings = append(depMappings, kid)
		}
	}

	if !cascade && (len(depRules) > 0 || len(depMonitors) > 0 || len(depMappings) > 0) {
		err := errors.NewError(errors.CodeValidation, "workspace "+ws.Name+" has dependent entities", errors.ErrHasDependents)
		errors.WithContext(err, "rules", len(depRules))
		errors.WithContext(err, "monitors", len(depMonitors))
		errors.WithContext(err, "mappings", len(depMappings))
		return err
	}

	removedRules := make(map[string]*rule.Rule, len(depRules))
	removedMonitors := make(map[string]*monitor.Configuration, len(depMonitors))
	removedMappings := make(map[string]*keymap.Mapping, len(depMappings))
	for _, rid := range depRules {
		removedRules[rid] = r.rules[rid]
		delete(r.rules, rid)
	}
	for _, mid := range depMonitors {
		removedMonitors[mid] = r.monitors[mid]
		delete(r.monitors, mid)
	}
	for _, kid := range depMappings {
		removedMappings[kid] = r.mappings[kid]
		delete(r.mappings, kid)
	}
	delete(r.workspaces, id)

	if err := r.persistLocked(ctx); err != nil {
		r.workspaces[id] = ws
		for rid, rl := range removedRules {
			r.rules[rid] = rl
		}
		for mid, mc := range removedMonitors {
			r.monitors[mid] = mc
		}
		for kid, km := range removedMappings {
			r.mappings[kid] = km
		}
		return err
	}
	r.logger.Info("workspace deleted", "workspace_id", id, "cascade", cascade,
		"rules_removed", len(depRules), "monitors_removed", len(depMonitors), "mappings_removed", len(depMappings))
	return nil
}

// GetWorkspace returns a copy of the workspace with the given id.
func (r *Registry) GetWorkspace(id string) (*workspace.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, errors.NewError(errors.CodeNotFound, "workspace "+id, errors.ErrWorkspaceNotFound)
	}
	return ws.Clone(), nil
}

// WorkspaceByName returns a copy of the workspace with the given name.
func (r *Registry) WorkspaceByName(name string) (*workspace.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ws := range r.workspaces {
		if strings.EqualFold(ws.Name, name) {
			return ws.Clone(), nil
		}
	}
	return nil, errors.NewError(errors.CodeNotFound, "workspace "+name, errors.ErrWorkspaceNotFound)
}

// WorkspaceByPosition returns the workspace at the given 1-based ordinal in
// creation order. Numeric shortcuts use this before ids are bound.
func (r *Registry) WorkspaceByPosition(pos int) (*workspace.Workspace, error) {
	list := r.ListWorkspaces()
	if pos < 1 || pos > len(list) {
		return nil, errors.NewError(errors.CodeNotFound, "no workspace at position", errors.ErrWorkspaceNotFound)
	}
	return list[pos-1], nil
}

// ListWorkspaces returns copies of all workspaces in creation order.
func (r *Registry) ListWorkspaces() []*workspace.Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*workspace.Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		out = append(out, ws.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SetWorkspaceState updates the runtime state of a workspace. State is not
// persisted; no store round-trip happens here.
func (r *Registry) SetWorkspaceState(id string, state workspace.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "workspace "+id, errors.ErrWorkspaceNotFound)
	}
	ws.State = state
	return nil
}

// TouchWorkspace persists a new last-used timestamp after activation.
func (r *Registry) TouchWorkspace(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.workspaces[id]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "workspace "+id, errors.ErrWorkspaceNotFound)
	}
	next := current.Clone()
	next.Touch(nowFunc())
	r.workspaces[id] = next
	if err := r.persistLocked(ctx); err != nil {
		r.workspaces[id] = current
		return err
	}
	return nil
}

func (r *Registry) checkWorkspaceInvariantsLocked(ws *workspace.Workspace) error {
	for _, other := range r.workspaces {
		if other.ID == ws.ID {
			continue
		}
		if strings.EqualFold(other.Name, ws.Name) {
			return errors.NewError(errors.CodeConflict, "workspace name "+ws.Name+" already in use", errors.ErrNameTaken)
		}
		if ws.Shortcut != "" && other.Shortcut == ws.Shortcut {
			return errors.Conflict("workspace shortcut "+ws.Shortcut+" already assigned", other.ID)
		}
	}
	if ws.Shortcut != "" {
		if _, err := keymap.ParseCombination(ws.Shortcut); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tiling patterns
// ---------------------------------------------------------------------------

// CreatePattern validates and stores a new tiling pattern.
func (r *Registry) CreatePattern(ctx context.Context, p *pattern.Pattern) (*pattern.Pattern, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.patterns {
		if other.ID != p.ID && strings.EqualFold(other.Name, p.Name) {
			return nil, errors.NewError(errors.CodeConflict, "pattern name "+p.Name+" already in use", errors.ErrNameTaken)
		}
	}
	stored := p.Clone()
	r.patterns[stored.ID] = stored
	if err := r.persistLocked(ctx); err != nil {
		delete(r.patterns, stored.ID)
		return nil, err
	}
	return stored.Clone(), nil
}

// UpdatePattern replaces a pattern's parameters. Callers that hold an active
// plan against the pattern must re-tile afterwards; the workspace manager's
// UpdatePatternAndRetile wraps both steps.
func (r *Registry) UpdatePattern(ctx context.Context, p *pattern.Pattern) (*pattern.Pattern, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.patterns[p.ID]
	if !ok {
		return nil, errors.NewError(errors.CodeNotFound, "pattern "+p.ID, errors.ErrPatternNotFound)
	}
	next := p.Clone()
	r.patterns[p.ID] = next
	if err := r.persistLocked(ctx); err != nil {
		r.patterns[p.ID] = current
		return nil, err
	}
	return next.Clone(), nil
}

// DeletePattern removes a pattern unless a workspace or monitor
// configuration still references it.
func (r *Registry) DeletePattern(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.patterns[id]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "pattern "+id, errors.ErrPatternNotFound)
	}
	for _, ws := range r.workspaces {
		if ws.PatternID == id {
			return errors.NewError(errors.CodeValidation, "pattern referenced by workspace "+ws.Name, errors.ErrHasDependents)
		}
		for _, pid := range ws.MonitorOverrides {
			if pid == id {
				return errors.NewError(errors.CodeValidation, "pattern referenced by workspace "+ws.Name, errors.ErrHasDependents)
			}
		}
	}
	for _, mc := range r.monitors {
		if mc.PatternID == id || mc.SecondaryPatternID == id {
			return errors.NewError(errors.CodeValidation, "pattern referenced by monitor configuration", errors.ErrHasDependents)
		}
	}
	delete(r.patterns, id)
	if err := r.persistLocked(ctx); err != nil {
		r.patterns[id] = current
		return err
	}
	return nil
}

// GetPattern returns a copy of the pattern with the given id.
func (r *Registry) GetPattern(id string) (*pattern.Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[id]
	if !ok {
		return nil, errors.NewError(errors.CodeNotFound, "pattern "+id, errors.ErrPatternNotFound)
	}
	return p.Clone(), nil
}

// ListPatterns returns copies of all patterns sorted by name.
func (r *Registry) ListPatterns() []*pattern.Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*pattern.Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ---------------------------------------------------------------------------
// Window rules
// ---------------------------------------------------------------------------

// CreateRule validates and stores a new window rule.
func (r *Registry) CreateRule(ctx context.Context, rl *rule.Rule) (*rule.Rule, error) {
	if err := rl.Validate(); err != nil {
		return nil, err
	}
	if err := rl.Compile(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[rl.WorkspaceID]; !ok {
		return nil, errors.Validation("rule references unknown workspace "+rl.WorkspaceID, errors.ErrWorkspaceNotFound)
	}
	stored := rl.Clone()
	r.rules[stored.ID] = stored
	if err := r.persistLocked(ctx); err != nil {
		delete(r.rules, stored.ID)
		return nil, err
	}
	return stored.Clone(), nil
}

// DeleteRule removes a window rule.
func (r *Registry) DeleteRule(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rules[id]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "rule "+id, errors.ErrRuleNotFound)
	}
	delete(r.rules, id)
	if err := r.persistLocked(ctx); err != nil {
		r.rules[id] = current
		return err
	}
	return nil
}

// RulesForWorkspace returns the workspace's rules in evaluation order.
func (r *Registry) RulesForWorkspace(workspaceID string) []*rule.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*rule.Rule, 0)
	for _, rl := range r.rules {
		if rl.WorkspaceID == workspaceID {
			out = append(out, rl.Clone())
		}
	}
	rule.SortByPriority(out)
	return out
}

// ---------------------------------------------------------------------------
// Monitor configurations
// ---------------------------------------------------------------------------

// CreateMonitorConfig validates and stores a monitor configuration.
func (r *Registry) CreateMonitorConfig(ctx context.Context, mc *monitor.Configuration) (*monitor.Configuration, error) {
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[mc.WorkspaceID]; !ok {
		return nil, errors.Validation("monitor configuration references unknown workspace "+mc.WorkspaceID, errors.ErrWorkspaceNotFound)
	}
	if _, ok := r.patterns[mc.PatternID]; !ok {
		return nil, errors.Validation("monitor configuration references unknown pattern "+mc.PatternID, errors.ErrPatternNotFound)
	}
	if mc.SecondaryPatternID != "" {
		if _, ok := r.patterns[mc.SecondaryPatternID]; !ok {
			return nil, errors.Validation("monitor configuration references unknown secondary pattern "+mc.SecondaryPatternID, errors.ErrPatternNotFound)
		}
	}
	stored := mc.Clone()
	r.monitors[stored.ID] = stored
	if err := r.persistLocked(ctx); err != nil {
		delete(r.monitors, stored.ID)
		return nil, err
	}
	return stored.Clone(), nil
}

// DeleteMonitorConfig removes a monitor configuration.
func (r *Registry) DeleteMonitorConfig(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.monitors[id]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "monitor configuration "+id, errors.ErrMonitorConfigNotFound)
	}
	delete(r.monitors, id)
	if err := r.persistLocked(ctx); err != nil {
		r.monitors[id] = current
		return err
	}
	return nil
}

// MonitorConfigFor returns the configuration for a workspace/monitor pair,
// or nil when none exists.
func (r *Registry) MonitorConfigFor(workspaceID, monitorID string) *monitor.Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, mc := range r.monitors {
		if mc.WorkspaceID == workspaceID && mc.MonitorID == monitorID {
			return mc.Clone()
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Application profiles
// ---------------------------------------------------------------------------

// CreateProfile validates and stores an application profile; bundle ids are
// unique across profiles.
func (r *Registry) CreateProfile(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.Compile(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.profiles {
		if other.ID != p.ID && other.BundleID == p.BundleID {
			return nil, errors.NewError(errors.CodeConflict, "profile for "+p.BundleID+" already exists", errors.ErrNameTaken)
		}
	}
	stored := p.Clone()
	r.profiles[stored.ID] = stored
	if err := r.persistLocked(ctx); err != nil {
		delete(r.profiles, stored.ID)
		return nil, err
	}
	return stored.Clone(), nil
}

// ProfileForApp returns the profile matching a window's application id and
// title, or nil when none matches.
func (r *Registry) ProfileForApp(appID, title string) *profile.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if p.MatchesWindow(appID, title) {
			return p.Clone()
		}
	}
	return nil
}

// ListProfiles returns copies of all profiles sorted by name.
func (r *Registry) ListProfiles() []*profile.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*profile.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ---------------------------------------------------------------------------
// Keyboard mappings
// ---------------------------------------------------------------------------
//
// The shortcut table is the gatekeeper for mapping registration; these
// methods are its storage primitives and enforce only entity-local
// validation plus persistence atomicity.

// PutMapping stores a mapping, replacing any previous version with the same id.
func (r *Registry) PutMapping(ctx context.Context, m *keymap.Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.mappings[m.ID]
	r.mappings[m.ID] = m.Clone()
	if err := r.persistLocked(ctx); err != nil {
		if previous != nil {
			r.mappings[m.ID] = previous
		} else {
			delete(r.mappings, m.ID)
		}
		return err
	}
	return nil
}

// DeleteMapping removes a mapping.
func (r *Registry) DeleteMapping(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.mappings[id]
	if !ok {
		return errors.NewError(errors.CodeNotFound, "mapping "+id, errors.ErrMappingNotFound)
	}
	delete(r.mappings, id)
	if err := r.persistLocked(ctx); err != nil {
		r.mappings[id] = current
		return err
	}
	return nil
}

// ListMappings returns copies of all keyboard mappings sorted by name.
func (r *Registry) ListMappings() []*keymap.Mapping {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*keymap.Mapping, 0, len(r.mappings))
	for _, m := range r.mappings {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
