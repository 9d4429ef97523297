package observability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
)

type captureStore struct {
	mu       sync.Mutex
	switches []*ports.SwitchRecord
	tilings  []*ports.TilingRecord
	block    chan struct{}
}

func (s *captureStore) RecordSwitch(ctx context.Context, rec *ports.SwitchRecord) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switches = append(s.switches, rec)
	return nil
}

func (s *captureStore) RecordTiling(ctx context.Context, rec *ports.TilingRecord) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tilings = append(s.tilings, rec)
	return nil
}

func (s *captureStore) SwitchHistory(ctx context.Context, f ports.MetricsFilter) ([]ports.SwitchRecord, error) {
	return nil, nil
}

func (s *captureStore) Aggregate(ctx context.Context, f ports.MetricsFilter) (*ports.SwitchAggregate, error) {
	return &ports.SwitchAggregate{}, nil
}

func TestRecorderFlushesOnClose(t *testing.T) {
	store := &captureStore{}
	rec := NewRecorder(store, nil)

	rec.Switch(&ports.SwitchRecord{WorkspaceID: "ws-1", Latency: 120 * time.Millisecond, Success: true})
	rec.Tiling(&ports.TilingRecord{WorkspaceID: "ws-1", Algorithm: "primary-stack", WindowCount: 3, Success: true})
	rec.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.switches) != 1 {
		t.Errorf("switches recorded = %d, want 1", len(store.switches))
	}
	if len(store.tilings) != 1 {
		t.Errorf("tilings recorded = %d, want 1", len(store.tilings))
	}
}

func TestRecorderNeverBlocks(t *testing.T) {
	store := &captureStore{block: make(chan struct{})}
	rec := NewRecorder(store, nil)

	// Saturate the queue while the store is stuck; every call must return
	// immediately and the excess must be counted as dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultQueueSize+50; i++ {
			rec.Switch(&ports.SwitchRecord{WorkspaceID: "ws-1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recorder blocked the caller")
	}

	if rec.Dropped() == 0 {
		t.Error("expected dropped records while the store was stuck")
	}

	close(store.block)
	rec.Close()
}

func TestRecorderNilStore(t *testing.T) {
	rec := NewRecorder(nil, nil)
	rec.Switch(&ports.SwitchRecord{WorkspaceID: "ws-1"})
	rec.Tiling(&ports.TilingRecord{WorkspaceID: "ws-1"})
	rec.Close()
	if rec.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0 for nil store", rec.Dropped())
	}
}
