package platform

import (
	"context"
	"testing"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/domain/geometry"
	"github.com/jbctechsolutions/tilekit/internal/domain/window"
)

func simWindowSnap(h window.Handle) window.Snapshot {
	return window.Snapshot{
		Handle:    h,
		AppID:     "com.example.app",
		MonitorID: "display-1",
		Frame:     geometry.Rect{X: 10, Y: 10, Width: 400, Height: 300},
	}
}

func drainChange(t *testing.T, d *SimulatedDriver, want window.ChangeKind) window.Change {
	t.Helper()
	select {
	case ch := <-d.Changes():
		if ch.Kind != want {
			t.Fatalf("change kind = %s, want %s", ch.Kind, want)
		}
		return ch
	case <-time.After(time.Second):
		t.Fatalf("no %s change", want)
		return window.Change{}
	}
}

func TestSimulatedDriver(t *testing.T) {
	t.Run("apply moves windows", func(t *testing.T) {
		d := NewSimulatedDriver(nil)
		defer d.Close()
		d.AddWindow(simWindowSnap("w1"))
		drainChange(t, d, window.ChangeCreated)

		target := geometry.Rect{X: 0, Y: 0, Width: 960, Height: 1080}
		err := d.ApplyPlan(context.Background(), &ports.PlacementPlan{
			WorkspaceID: "ws-1",
			Placements:  []ports.Placement{{Window: "w1", Frame: target}},
		})
		if err != nil {
			t.Fatalf("ApplyPlan() error = %v", err)
		}

		frame, ok := d.FrameOf("w1")
		if !ok || frame != target {
			t.Errorf("frame = %+v, want %+v", frame, target)
		}
	})

	t.Run("apply skips vanished windows", func(t *testing.T) {
		d := NewSimulatedDriver(nil)
		defer d.Close()
		err := d.ApplyPlan(context.Background(), &ports.PlacementPlan{
			Placements: []ports.Placement{{Window: "gone"}},
		})
		if err != nil {
			t.Errorf("ApplyPlan() error = %v, want nil", err)
		}
	})

	t.Run("apply honors canceled context", func(t *testing.T) {
		d := NewSimulatedDriver(nil)
		defer d.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := d.ApplyPlan(ctx, &ports.PlacementPlan{}); err == nil {
			t.Error("expected context error")
		}
	})

	t.Run("focus moves and notifies", func(t *testing.T) {
		d := NewSimulatedDriver(nil)
		defer d.Close()
		d.AddWindow(simWindowSnap("w1"))
		d.AddWindow(simWindowSnap("w2"))
		drainChange(t, d, window.ChangeCreated)
		drainChange(t, d, window.ChangeCreated)

		if err := d.Focus(context.Background(), "w2"); err != nil {
			t.Fatalf("Focus() error = %v", err)
		}
		ch := drainChange(t, d, window.ChangeFocused)
		if ch.Window.Handle != "w2" {
			t.Errorf("focused = %s, want w2", ch.Window.Handle)
		}

		windows, _ := d.EnumerateWindows(context.Background())
		for _, w := range windows {
			if w.Focused != (w.Handle == "w2") {
				t.Errorf("focus state of %s = %v", w.Handle, w.Focused)
			}
		}
	})

	t.Run("close removes and notifies", func(t *testing.T) {
		d := NewSimulatedDriver(nil)
		defer d.Close()
		d.AddWindow(simWindowSnap("w1"))
		drainChange(t, d, window.ChangeCreated)

		if err := d.CloseWindow(context.Background(), "w1"); err != nil {
			t.Fatalf("CloseWindow() error = %v", err)
		}
		drainChange(t, d, window.ChangeDestroyed)

		windows, _ := d.EnumerateWindows(context.Background())
		if len(windows) != 0 {
			t.Errorf("windows = %d, want 0", len(windows))
		}
	})
}

func TestStaticTopology(t *testing.T) {
	t.Run("default monitor", func(t *testing.T) {
		topo := NewStaticTopology()
		defer topo.Close()
		monitors, err := topo.EnumerateMonitors(context.Background())
		if err != nil {
			t.Fatalf("EnumerateMonitors() error = %v", err)
		}
		if len(monitors) != 1 || !monitors[0].Primary {
			t.Errorf("monitors = %+v, want one primary", monitors)
		}
	})

	t.Run("hot plug", func(t *testing.T) {
		topo := NewStaticTopology()
		defer topo.Close()

		second := DefaultMonitor()
		second.ID = "display-2"
		second.Primary = false
		topo.Connect(second)

		select {
		case ch := <-topo.Changes():
			if !ch.Connected || ch.Monitor.ID != "display-2" {
				t.Errorf("change = %+v, want connect display-2", ch)
			}
		case <-time.After(time.Second):
			t.Fatal("no topology change")
		}

		monitors, _ := topo.EnumerateMonitors(context.Background())
		if len(monitors) != 2 {
			t.Fatalf("monitors = %d, want 2", len(monitors))
		}

		topo.Disconnect("display-2")
		select {
		case ch := <-topo.Changes():
			if ch.Connected {
				t.Errorf("change = %+v, want disconnect", ch)
			}
		case <-time.After(time.Second):
			t.Fatal("no disconnect change")
		}
	})
}
