// Package manager implements the workspace manager: the state machine that
// owns activation, the switch protocol, and the reaction to window and
// monitor changes. All transitions run under a single-writer mutex; reads of
// registry state never wait on an in-flight switch.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/application/registry"
	"github.com/jbctechsolutions/tilekit/internal/application/tiling"
	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/event"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
	"github.com/jbctechsolutions/tilekit/internal/domain/window"
	"github.com/jbctechsolutions/tilekit/internal/domain/workspace"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/tracing"
)

const (
	// DefaultAckBudget bounds how long a switch waits for the driver to
	// acknowledge a placement plan, derived from the switch-latency target.
	DefaultAckBudget = 200 * time.Millisecond

	// driver retry policy for transient failures
	driverAttempts = 3
	retryBackoff   = 20 * time.Millisecond
)

// SwitchRecorder receives switch records. Implementations must not block.
type SwitchRecorder interface {
	Switch(rec *ports.SwitchRecord)
}

type nopRecorder struct{}

func (nopRecorder) Switch(*ports.SwitchRecord) {}

// Config tunes the manager's timing behavior.
type Config struct {
	AckBudget    time.Duration
	RetryBackoff time.Duration
}

// DefaultManagerConfig returns the standard timing configuration.
func DefaultManagerConfig() Config {
	return Config{
		AckBudget:    DefaultAckBudget,
		RetryBackoff: retryBackoff,
	}
}

// Manager coordinates workspace activation against the platform driver.
type Manager struct {
	mu sync.Mutex

	reg      *registry.Registry
	engine   *tiling.Engine
	driver   ports.PlatformDriver
	topology ports.MonitorTopology
	rec      SwitchRecorder
	sink     ports.EventSink
	tracer   *tracing.Tracer
	logger   *logging.Logger
	cfg      Config

	activeID string

	// user toggles, keyed by window handle; cleared when the window goes away
	floating   map[window.Handle]bool
	fullscreen map[window.Handle]bool

	// assignments pins windows to workspaces; unassigned windows belong to
	// whichever workspace is active
	assignments map[window.Handle]string
}

// New creates a workspace manager.
func New(reg *registry.Registry, engine *tiling.Engine, driver ports.PlatformDriver, topology ports.MonitorTopology, rec SwitchRecorder, sink ports.EventSink, tracer *tracing.Tracer, logger *logging.Logger, cfg Config) *Manager {
	if rec == nil {
		rec = nopRecorder{}
	}
	if sink == nil {
		sink = ports.NopEventSink{}
	}
	if tracer == nil {
		tracer = tracing.Default()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.AckBudget <= 0 {
		cfg.AckBudget = DefaultAckBudget
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = retryBackoff
	}
	return &Manager{
		reg:         reg,
		engine:      engine,
		driver:      driver,
		topology:    topology,
		rec:         rec,
		sink:        sink,
		tracer:      tracer,
		logger:      logger,
		cfg:         cfg,
		floating:    make(map[window.Handle]bool),
		fullscreen:  make(map[window.Handle]bool),
		assignments: make(map[window.Handle]string),
	}
}

// ActiveWorkspaceID returns the id of the active workspace, empty when none.
func (m *Manager) ActiveWorkspaceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Switch activates the target workspace. The protocol: validate, mark the
// target Switching, compute the plan, apply it through the driver within the
// acknowledgment budget, then commit. Any failure rolls the transition back
// wholesale: the previous workspace stays Active and the target returns to
// Inactive. Switching to the already-active workspace is a no-op.
func (m *Manager) Switch(ctx context.Context, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.switchLocked(ctx, targetID)
}

func (m *Manager) switchLocked(ctx context.Context, targetID string) error {
	if targetID == m.activeID {
		return nil
	}
	if _, err := m.reg.GetWorkspace(targetID); err != nil {
		return err
	}

	previousID := m.activeID
	started := time.Now()
	ctx = logging.WithWorkspaceID(ctx, targetID)
	ctx, span := m.tracer.StartSwitchSpan(ctx, targetID, previousID)
	logging.LogSwitchStart(ctx, m.logger, previousID)

	if err := m.reg.SetWorkspaceState(targetID, workspace.StateSwitching); err != nil {
		span.EndWithError(err)
		return err
	}

	plan, err := m.planFor(ctx, targetID)
	planned := err == nil
	if planned {
		err = m.applyWithRetry(ctx, plan)
	}

	latency := time.Since(started)
	if err != nil {
		// wholesale rollback: the previous workspace never left Active
		_ = m.reg.SetWorkspaceState(targetID, workspace.StateInactive)
		if planned {
			// the plan failed at application; planning failures already
			// published before the error reached us
			m.sink.Publish(event.NewTilingFailed(targetID, err.Error()))
		}
		m.recordSwitch(targetID, previousID, latency, 0, false, err.Error())
		logging.LogSwitchFailed(ctx, m.logger, previousID, err, latency)
		span.SetRolledBack(previousID)
		span.EndWithError(err)
		return err
	}

	if previousID != "" {
		_ = m.reg.SetWorkspaceState(previousID, workspace.StateInactive)
	}
	_ = m.reg.SetWorkspaceState(targetID, workspace.StateActive)
	m.activeID = targetID
	if err := m.reg.TouchWorkspace(ctx, targetID); err != nil {
		m.logger.Warn("recording workspace activation time", "error", err)
	}

	if plan.FocusTarget != "" {
		if err := m.driver.Focus(ctx, plan.FocusTarget); err != nil {
			m.logger.Warn("focusing window after switch", "error", err)
		}
	}

	m.recordSwitch(targetID, previousID, latency, plan.WindowCount(), true, "")
	m.sink.Publish(event.NewWorkspaceActivated(targetID, previousID, latency))
	m.sink.Publish(event.NewLayoutApplied(targetID, plan.WindowCount()))
	logging.LogSwitchComplete(ctx, m.logger, latency, plan.WindowCount())
	span.SetWindowCount(plan.WindowCount())
	span.SetLatencyMS(latency.Milliseconds())
	span.End()
	return nil
}

// SwitchByPosition activates the workspace at a 1-based creation-order
// ordinal, the binding used by numeric shortcuts.
func (m *Manager) SwitchByPosition(ctx context.Context, pos int) error {
	ws, err := m.reg.WorkspaceByPosition(pos)
	if err != nil {
		return err
	}
	return m.Switch(ctx, ws.ID)
}

// SwitchByName activates the workspace with the given name.
func (m *Manager) SwitchByName(ctx context.Context, name string) error {
	ws, err := m.reg.WorkspaceByName(name)
	if err != nil {
		return err
	}
	return m.Switch(ctx, ws.ID)
}

// Retile recomputes and applies the active workspace's layout. The workspace
// passes through Modified for the duration and returns to Active on success.
func (m *Manager) Retile(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retileLocked(ctx)
}

func (m *Manager) retileLocked(ctx context.Context) error {
	if m.activeID == "" {
		return nil
	}
	ws, err := m.reg.GetWorkspace(m.activeID)
	if err != nil {
		return err
	}
	if !ws.AutoArrange {
		return nil
	}

	_ = m.reg.SetWorkspaceState(m.activeID, workspace.StateModified)
	plan, err := m.planFor(ctx, m.activeID)
	planned := err == nil
	if planned {
		err = m.applyWithRetry(ctx, plan)
	}
	if err != nil {
		if planned {
			m.sink.Publish(event.NewTilingFailed(m.activeID, err.Error()))
		}
		// stays Modified so the next change triggers another attempt
		m.logger.Warn("re-tile failed", "workspace_id", m.activeID, "error", err)
		return err
	}
	_ = m.reg.SetWorkspaceState(m.activeID, workspace.StateActive)
	m.sink.Publish(event.NewLayoutApplied(m.activeID, plan.WindowCount()))
	return nil
}

// planFor computes the placement plan from live snapshots, honoring the
// per-window floating and fullscreen toggles.
func (m *Manager) planFor(ctx context.Context, workspaceID string) (*ports.PlacementPlan, error) {
	monitors, err := m.topology.EnumerateMonitors(ctx)
	if err != nil {
		wrapped := errors.NewError(errors.CodeDriver, "enumerating monitors", err)
		m.sink.Publish(event.NewTilingFailed(workspaceID, wrapped.Error()))
		return nil, wrapped
	}
	windows, err := m.driver.EnumerateWindows(ctx)
	if err != nil {
		wrapped := errors.NewError(errors.CodeDriver, "enumerating windows", err)
		m.sink.Publish(event.NewTilingFailed(workspaceID, wrapped.Error()))
		return nil, wrapped
	}

	tiled := make([]window.Snapshot, 0, len(windows))
	for _, w := range windows {
		if m.floating[w.Handle] {
			continue
		}
		if assigned, ok := m.assignments[w.Handle]; ok && assigned != workspaceID {
			continue
		}
		tiled = append(tiled, w)
	}

	plan, err := m.engine.ComputePlan(ctx, workspaceID, monitors, tiled)
	if err != nil {
		return nil, err
	}

	for i, pl := range plan.Placements {
		if m.fullscreen[pl.Window] {
			plan.Placements[i].Fullscreen = true
			if frame, ok := usableAreaFor(monitors, windows, pl.Window); ok {
				plan.Placements[i].Frame = frame
			}
		}
	}
	return plan, nil
}

// applyWithRetry drives the plan through the platform within the ack budget,
// retrying transient driver failures with a bounded backoff. Validation-class
// failures and context expiry are not retried.
func (m *Manager) applyWithRetry(ctx context.Context, plan *ports.PlacementPlan) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.AckBudget)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= driverAttempts; attempt++ {
		lastErr = m.driver.ApplyPlan(ctx, plan)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return errors.NewError(errors.CodeDriver, "placement not acknowledged within budget", errors.ErrDriverTimeout)
		}
		if errors.IsCode(lastErr, errors.CodePermission) {
			return lastErr
		}
		if attempt < driverAttempts {
			logging.LogDriverRetry(ctx, m.logger, attempt, lastErr)
			select {
			case <-ctx.Done():
				return errors.NewError(errors.CodeDriver, "placement not acknowledged within budget", errors.ErrDriverTimeout)
			case <-time.After(m.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}
	}
	return errors.NewError(errors.CodeDriver, "applying placement plan", lastErr)
}

func (m *Manager) recordSwitch(targetID, previousID string, latency time.Duration, windows int, success bool, reason string) {
	m.rec.Switch(&ports.SwitchRecord{
		WorkspaceID: targetID,
		PreviousID:  previousID,
		Latency:     latency,
		WindowCount: windows,
		Success:     success,
		Reason:      reason,
		SwitchedAt:  time.Now().UTC(),
	})
}

// usableAreaFor finds the usable area of the monitor hosting a window.
func usableAreaFor(monitors []monitor.Snapshot, windows []window.Snapshot, h window.Handle) (geometry.Rect, bool) {
	monitorID := ""
	for _, w := range windows {
		if w.Handle == h {
			monitorID = w.MonitorID
			break
		}
	}
	for _, mon := range monitors {
		if mon.ID == monitorID {
			return mon.UsableArea, true
		}
	}
	return geometry.Rect{}, false
}
