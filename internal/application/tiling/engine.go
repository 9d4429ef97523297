// Package tiling implements the tiling engine: pure plan computation from
// registry state and live window/monitor snapshots. Window rules are consulted
// first-match-wins, application profiles fill in when no rule matches, and the
// layout algorithms produce the tiled frames. A computed plan has no side
// effects until the platform driver applies it.
package tiling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/application/registry"
	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
	"github.com/jbctechsolutions/tilekit/internal/domain/event"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/layout"
	"github.com/jbctechsolutions/tilekit/internal/domain/monitor"
	"github.com/jbctechsolutions/tilekit/internal/domain/pattern"
	"github.com/jbctechsolutions/tilekit/internal/domain/rule"
	"github.com/jbctechsolutions/tilekit/internal/domain/window"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/tracing"
)

// Minimum cell dimensions under shrink-to-fit. Cells below these bounds make
// windows unusable; the engine falls back to allow-overflow instead.
const (
	minCellWidth  = 100.0
	minCellHeight = 80.0
)

// Recorder receives tiling computation records. Implementations must not
// block; recording never sits on the plan computation path.
type Recorder interface {
	Tiling(rec *ports.TilingRecord)
}

// nopRecorder discards records.
type nopRecorder struct{}

func (nopRecorder) Tiling(*ports.TilingRecord) {}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	PlansComputed int64
	Fallbacks     int64
	LastAlgorithm string
}

// Engine computes placement plans for workspaces.
type Engine struct {
	reg    *registry.Registry
	tracer *tracing.Tracer
	rec    Recorder
	sink   ports.EventSink
	logger *logging.Logger

	// counters are read from the metrics command while the manager loop
	// computes plans
	statsMu       sync.Mutex
	plansComputed int64
	fallbacks     int64
	lastAlgorithm string
}

// NewEngine creates a tiling engine over the given registry.
func NewEngine(reg *registry.Registry, tracer *tracing.Tracer, rec Recorder, sink ports.EventSink, logger *logging.Logger) *Engine {
	if tracer == nil {
		tracer = tracing.Default()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if sink == nil {
		sink = ports.NopEventSink{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		reg:    reg,
		tracer: tracer,
		rec:    rec,
		sink:   sink,
		logger: logger,
	}
}

// placement classification for one window after rule and profile evaluation.
type classified struct {
	mode      rule.PlacementMode
	fixed     *geometry.Rect
	zPriority int
	focus     rule.FocusPolicy
}

// ComputePlan builds the placement plan for a workspace given live monitor
// and window snapshots. Minimized windows are skipped; floating windows are
// left untouched by the plan. The per-monitor pattern comes from the
// workspace's monitor configuration when one exists, else from the workspace
// default.
func (e *Engine) ComputePlan(ctx context.Context, workspaceID string, monitors []monitor.Snapshot, windows []window.Snapshot) (*ports.PlacementPlan, error) {
	started := time.Now()
	ctx = logging.WithWorkspaceID(ctx, workspaceID)
	ctx, span := e.tracer.StartPlanSpan(ctx, workspaceID)

	plan, algorithm, fellBack, err := e.computePlan(ctx, workspaceID, monitors, windows)

	rec := &ports.TilingRecord{
		WorkspaceID: workspaceID,
		Algorithm:   algorithm,
		WindowCount: len(windows),
		Duration:    time.Since(started),
		Success:     err == nil,
		ComputedAt:  started.UTC(),
	}
	if err != nil {
		rec.Reason = err.Error()
		e.sink.Publish(event.NewTilingFailed(workspaceID, err.Error()))
		logging.LogPlanFailed(ctx, e.logger, err)
		span.EndWithError(err)
		e.rec.Tiling(rec)
		return nil, err
	}

	span.SetAlgorithm(algorithm)
	span.SetCounts(len(monitors), len(windows))
	if fellBack {
		span.SetFallback("pattern parameters relaxed")
	}
	span.End()
	e.rec.Tiling(rec)

	e.statsMu.Lock()
	e.plansComputed++
	e.lastAlgorithm = algorithm
	if fellBack {
		e.fallbacks++
	}
	e.statsMu.Unlock()
	logging.LogPlanComputed(ctx, e.logger, plan.WindowCount(), time.Since(started))
	return plan, nil
}

func (e *Engine) computePlan(ctx context.Context, workspaceID string, monitors []monitor.Snapshot, windows []window.Snapshot) (*ports.PlacementPlan, string, bool, error) {
	ws, err := e.reg.GetWorkspace(workspaceID)
	if err != nil {
		return nil, "", false, err
	}
	if len(monitors) == 0 {
		return nil, "", false, errors.NewError(errors.CodeTiling, "no monitors connected", errors.ErrZeroUsableArea)
	}

	plan := &ports.PlacementPlan{WorkspaceID: workspaceID}
	if len(windows) == 0 {
		return plan, "", false, nil
	}

	rules := e.reg.RulesForWorkspace(workspaceID)
	byMonitor := groupByMonitor(monitors, windows)

	ordered := orderedMonitors(monitors)
	algorithm := ""
	fellBack := false
	for _, snap := range ordered {
		group := byMonitor[snap.ID]
		if len(group) == 0 {
			continue
		}

		usable := snap.UsableArea
		patternID := ws.PatternFor(snap.ID)
		if mc := e.reg.MonitorConfigFor(workspaceID, snap.ID); mc != nil {
			if err := mc.ValidateAgainst(snap); err != nil {
				return nil, algorithm, fellBack, err
			}
			patternID = mc.PatternID
			usable = mc.UsableArea
		}
		p, err := e.reg.GetPattern(patternID)
		if err != nil {
			return nil, algorithm, fellBack, err
		}
		if algorithm == "" {
			algorithm = string(p.Algorithm)
		}

		tiled, special, focus := e.classify(snap, group, rules)

		arr, monitorFellBack, err := e.arrange(p, len(tiled), usable)
		if err != nil {
			return nil, algorithm, fellBack, err
		}
		fellBack = fellBack || monitorFellBack

		for i, win := range tiled {
			slot := arr.Slots[i]
			plan.Placements = append(plan.Placements, ports.Placement{
				Window:  win.Handle,
				Frame:   slot.Frame,
				ZOrder:  slot.ZOrder,
				Layered: slot.Layered,
			})
		}
		plan.Placements = append(plan.Placements, special...)
		if plan.FocusTarget == "" {
			plan.FocusTarget = focus
		}
	}

	return plan, algorithm, fellBack, nil
}

// classify splits a monitor's windows into the tiled set and rule-directed
// placements. Floating windows produce no placement at all: the driver leaves
// them where the user put them.
func (e *Engine) classify(snap monitor.Snapshot, group []window.Snapshot, rules []*rule.Rule) (tiled []window.Snapshot, special []ports.Placement, focus window.Handle) {
	for _, win := range group {
		c := e.classifyWindow(win, rules)
		if c.focus == rule.FocusOnSwitch && focus == "" {
			focus = win.Handle
		}

		switch c.mode {
		case rule.PlacementFloating:
			// untouched
		case rule.PlacementFullscreen:
			special = append(special, ports.Placement{
				Window:     win.Handle,
				Frame:      snap.UsableArea,
				ZOrder:     c.zPriority,
				Fullscreen: true,
			})
		case rule.PlacementFixed:
			frame := *c.fixed
			if !snap.Bounds.Contains(frame) {
				// fixed geometry outside the monitor falls back to tiling
				e.logger.Warn("fixed geometry outside monitor bounds, tiling instead",
					"window", string(win.Handle), "monitor_id", snap.ID)
				tiled = append(tiled, win)
				continue
			}
			special = append(special, ports.Placement{
				Window: win.Handle,
				Frame:  frame,
				ZOrder: c.zPriority,
			})
		default:
			tiled = append(tiled, win)
		}
	}
	return tiled, special, focus
}

// classifyWindow resolves the placement mode for one window: first matching
// rule wins; the application profile is the fallback; auto-tile the default.
func (e *Engine) classifyWindow(win window.Snapshot, rules []*rule.Rule) classified {
	c := classified{mode: rule.PlacementAuto, focus: rule.FocusNever}
	for _, rl := range rules {
		if rl.Matches(win.AppID, win.Title) {
			c.mode = rl.Placement
			c.fixed = rl.Fixed
			c.zPriority = rl.Priority
			c.focus = rl.Focus
			return c
		}
	}
	if p := e.reg.ProfileForApp(win.AppID, win.Title); p != nil {
		// profiles carry no geometry; fixed defaults degrade to auto-tile
		if p.DefaultPlacement == rule.PlacementFloating || p.DefaultPlacement == rule.PlacementFullscreen {
			c.mode = p.DefaultPlacement
		}
	}
	return c
}

// arrange runs the layout computation, relaxing pattern parameters instead of
// failing a plan: a margin that consumes the usable area is dropped, and
// shrink-to-fit cells below the minimum size retry under allow-overflow.
func (e *Engine) arrange(p *pattern.Pattern, n int, usable geometry.Rect) (*layout.Arrangement, bool, error) {
	arr, err := layout.Arrange(p, n, usable)
	if err != nil && p.WindowMargin > 0 {
		clamped := p.Clone()
		clamped.WindowMargin = 0
		arr, err = layout.Arrange(clamped, n, usable)
		if err == nil {
			e.logger.Warn("window margin consumed the usable area, tiling without margin",
				"pattern", p.Name, "margin", p.WindowMargin)
			return arr, true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	if p.OverflowPolicy != pattern.OverflowShrink || !hasTinyCells(arr) {
		return arr, false, nil
	}

	fallback := p.Clone()
	fallback.OverflowPolicy = pattern.OverflowAllow
	arr, err = layout.Arrange(fallback, n, usable)
	if err != nil {
		return nil, false, err
	}
	e.logger.Warn("shrink-to-fit produced cells below minimum size, allowing overflow",
		"pattern", p.Name, "window_count", n)
	return arr, true, nil
}

func hasTinyCells(arr *layout.Arrangement) bool {
	for _, s := range arr.Slots {
		if s.Frame.Width < minCellWidth || s.Frame.Height < minCellHeight {
			return true
		}
	}
	return false
}

// groupByMonitor buckets windows per monitor, skipping minimized windows.
// Windows reporting an unknown monitor go to the primary.
func groupByMonitor(monitors []monitor.Snapshot, windows []window.Snapshot) map[string][]window.Snapshot {
	known := make(map[string]bool, len(monitors))
	primaryID := monitors[0].ID
	for _, m := range monitors {
		known[m.ID] = true
		if m.Primary {
			primaryID = m.ID
		}
	}

	out := make(map[string][]window.Snapshot)
	for _, w := range windows {
		if w.Minimized {
			continue
		}
		id := w.MonitorID
		if !known[id] {
			id = primaryID
		}
		out[id] = append(out[id], w)
	}
	return out
}

// orderedMonitors returns monitors primary-first, then by id, so placement
// order and focus-target selection are deterministic.
func orderedMonitors(monitors []monitor.Snapshot) []monitor.Snapshot {
	out := append([]monitor.Snapshot(nil), monitors...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Primary != out[j].Primary {
			return out[i].Primary
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Snapshot returns the current engine counters.
func (e *Engine) Snapshot() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return Stats{
		PlansComputed: e.plansComputed,
		Fallbacks:     e.fallbacks,
		LastAlgorithm: e.lastAlgorithm,
	}
}
