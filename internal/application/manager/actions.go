package manager

import (
	"context"
	"sort"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/keymap"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
	"github.com/jbctechsolutions/tilekit/internal/domain/window"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
)

// ratioStep converts a mapping's resize amount (percent) to a main-area
// ratio delta.
const ratioStepDivisor = 100.0

// HandleAction executes a resolved keyboard mapping.
func (m *Manager) HandleAction(ctx context.Context, mp *keymap.Mapping) error {
	ctx = logging.WithAction(ctx, string(mp.Action))
	logging.LogShortcutDispatched(ctx, m.logger, mp.Combination.ChordKey(), string(mp.Action))

	switch mp.Action {
	case keymap.ActionSwitchWorkspace:
		if mp.Params.TargetID != "" {
			return m.Switch(ctx, mp.Params.TargetID)
		}
		if mp.Params.Position > 0 {
			return m.SwitchByPosition(ctx, mp.Params.Position)
		}
		return errors.Validation("switch mapping has no target", nil)

	case keymap.ActionMoveWindow:
		return m.moveFocusedWindow(ctx, mp.Params)

	case keymap.ActionResizeWindow:
		return m.resizeActivePattern(ctx, mp.Params)

	case keymap.ActionCreateWorkspace:
		ws, err := m.reg.CreateWorkspace(ctx, workspace.CreateRequest{Name: mp.Params.WorkspaceName})
		if err != nil {
			return err
		}
		return m.Switch(ctx, ws.ID)

	case keymap.ActionDeleteWorkspace:
		return m.deleteActiveWorkspace(ctx)

	case keymap.ActionToggleFloating:
		return m.toggleFocused(ctx, m.floating)

	case keymap.ActionToggleFullscreen:
		return m.toggleFocused(ctx, m.fullscreen)

	case keymap.ActionFocusNext:
		return m.cycleFocus(ctx, 1)

	case keymap.ActionFocusPrevious:
		return m.cycleFocus(ctx, -1)

	case keymap.ActionCloseWindow:
		focused, err := m.focusedWindow(ctx)
		if err != nil {
			return err
		}
		return m.driver.CloseWindow(ctx, focused.Handle)

	case keymap.ActionRefreshLayout:
		return m.Retile(ctx)
	}
	return errors.Validation("unknown action kind: "+string(mp.Action), nil)
}

// moveFocusedWindow pins the focused window to the target workspace and
// re-tiles; the window disappears from the current layout and joins the
// target's the next time it activates.
func (m *Manager) moveFocusedWindow(ctx context.Context, params keymap.Params) error {
	targetID := params.TargetID
	if targetID == "" && params.Position > 0 {
		ws, err := m.reg.WorkspaceByPosition(params.Position)
		if err != nil {
			return err
		}
		targetID = ws.ID
	}
	if _, err := m.reg.GetWorkspace(targetID); err != nil {
		return err
	}
	focused, err := m.focusedWindow(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[focused.Handle] = targetID
	return m.retileLocked(ctx)
}

// resizeActivePattern nudges the active workspace's main-area ratio and
// re-tiles. Only width-affecting directions change primary-stack layouts;
// the ratio stays inside the validated bounds.
func (m *Manager) resizeActivePattern(ctx context.Context, params keymap.Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return errors.NewError(errors.CodeValidation, "no active workspace", nil)
	}
	ws, err := m.reg.GetWorkspace(m.activeID)
	if err != nil {
		return err
	}
	p, err := m.reg.GetPattern(ws.PatternID)
	if err != nil {
		return err
	}

	delta := float64(params.ResizeAmount) / ratioStepDivisor
	switch params.Resize {
	case keymap.ResizeShrink, keymap.ResizeShrinkWidth, keymap.ResizeShrinkHeight:
		delta = -delta
	}

	next := p.Clone()
	next.MainAreaRatio += delta
	if next.MainAreaRatio < pattern.MinMainAreaRatio {
		next.MainAreaRatio = pattern.MinMainAreaRatio
	}
	if next.MainAreaRatio > pattern.MaxMainAreaRatio {
		next.MainAreaRatio = pattern.MaxMainAreaRatio
	}
	if _, err := m.reg.UpdatePattern(ctx, next); err != nil {
		return err
	}
	return m.retileLocked(ctx)
}

// deleteActiveWorkspace removes the active workspace and activates the first
// remaining one, if any.
func (m *Manager) deleteActiveWorkspace(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return errors.NewError(errors.CodeValidation, "no active workspace", nil)
	}
	deletedID := m.activeID
	if err := m.reg.DeleteWorkspace(ctx, deletedID, true); err != nil {
		return err
	}
	m.activeID = ""

	remaining := m.reg.ListWorkspaces()
	if len(remaining) == 0 {
		return nil
	}
	return m.switchLocked(ctx, remaining[0].ID)
}

// toggleFocused flips a per-window toggle for the focused window and re-tiles.
func (m *Manager) toggleFocused(ctx context.Context, set map[window.Handle]bool) error {
	focused, err := m.focusedWindow(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if set[focused.Handle] {
		delete(set, focused.Handle)
	} else {
		set[focused.Handle] = true
	}
	return m.retileLocked(ctx)
}

// cycleFocus moves keyboard focus to the next or previous window in a stable
// handle order.
func (m *Manager) cycleFocus(ctx context.Context, direction int) error {
	windows, err := m.driver.EnumerateWindows(ctx)
	if err != nil {
		return errors.NewError(errors.CodeDriver, "enumerating windows", err)
	}
	candidates := make([]window.Snapshot, 0, len(windows))
	for _, w := range windows {
		if !w.Minimized {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Handle < candidates[j].Handle })

	current := 0
	for i, w := range candidates {
		if w.Focused {
			current = i
			break
		}
	}
	next := (current + direction + len(candidates)) % len(candidates)
	return m.driver.Focus(ctx, candidates[next].Handle)
}

// focusedWindow returns the currently focused window.
func (m *Manager) focusedWindow(ctx context.Context) (window.Snapshot, error) {
	windows, err := m.driver.EnumerateWindows(ctx)
	if err != nil {
		return window.Snapshot{}, errors.NewError(errors.CodeDriver, "enumerating windows", err)
	}
	for _, w := range windows {
		if w.Focused {
			return w, nil
		}
	}
	return window.Snapshot{}, errors.NewError(errors.CodeNotFound, "no focused window", nil)
}
