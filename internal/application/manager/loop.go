package manager

import (
	"context"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/domain/window"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
)

// retileDebounce coalesces bursts of window changes into one re-tile.
const retileDebounce = 100 * time.Millisecond

// Run is the manager's event loop: one goroutine multiplexing window change
// notifications, monitor topology changes, and the debounced re-tile timer.
// All state transitions funnel through the same single-writer mutex the
// command surface uses, so the loop and direct calls never interleave
// partially. Run blocks until ctx is canceled or the driver's change stream
// closes.
func (m *Manager) Run(ctx context.Context) error {
	timer := time.NewTimer(retileDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	schedule := func() {
		if pending {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(retileDebounce)
		pending = true
	}

	windowChanges := m.driver.Changes()
	topologyChanges := m.topology.Changes()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ch, ok := <-windowChanges:
			if !ok {
				return nil
			}
			if m.handleWindowChange(ch) {
				schedule()
			}

		case tc, ok := <-topologyChanges:
			if !ok {
				topologyChanges = nil
				continue
			}
			m.logger.Info("monitor topology changed",
				"monitor_id", tc.Monitor.ID, "connected", tc.Connected)
			// monitor layout changed under us; re-tile immediately
			pending = false
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			if err := m.Retile(ctx); err != nil {
				m.logger.Warn("re-tile after topology change failed", "error", err)
			}

		case <-timer.C:
			pending = false
			if err := m.Retile(ctx); err != nil {
				m.logger.Warn("re-tile after window change failed", "error", err)
			}
		}
	}
}

// handleWindowChange updates bookkeeping for one change and reports whether
// a re-tile should be scheduled.
func (m *Manager) handleWindowChange(ch window.Change) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ch.Kind {
	case window.ChangeDestroyed:
		delete(m.floating, ch.Window.Handle)
		delete(m.fullscreen, ch.Window.Handle)
		delete(m.assignments, ch.Window.Handle)
	case window.ChangeFocused:
		// focus moves do not disturb the layout
		return false
	}

	if m.activeID == "" {
		return false
	}
	ws, err := m.reg.GetWorkspace(m.activeID)
	if err != nil || !ws.AutoArrange {
		return false
	}
	// the window set diverged from the applied layout
	_ = m.reg.SetWorkspaceState(m.activeID, workspace.StateModified)
	return true
}
