// Package observability decouples metrics persistence from the switch and
// tiling critical paths. Records are handed to a bounded queue and written by
// a background goroutine; when the queue is full the record is dropped, never
// the operation delayed.
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/jbctechsolutions/tilekit/internal/application/ports"
	"github.com/jbctechsolutions/tilekit/internal/infrastructure/logging"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

type record struct {
	sw *ports.SwitchRecord
	tl *ports.TilingRecord
}

// Recorder forwards switch and tiling records to a MetricsStore off the
// caller's goroutine.
type Recorder struct {
	store  ports.MetricsStore
	logger *logging.Logger

	queue   chan record
	dropped int64
	mu      sync.Mutex

	done chan struct{}
	once sync.Once
}

// NewRecorder starts a recorder draining into the given store. A nil store
// yields a recorder that discards everything.
func NewRecorder(store ports.MetricsStore, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Recorder{
		store:  store,
		logger: logger,
		queue:  make(chan record, defaultQueueSize),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

// Switch enqueues a switch record. Never blocks; drops when the queue is full.
func (r *Recorder) Switch(rec *ports.SwitchRecord) {
	r.enqueue(record{sw: rec})
}

// Tiling enqueues a tiling record. Never blocks; drops when the queue is full.
func (r *Recorder) Tiling(rec *ports.TilingRecord) {
	r.enqueue(record{tl: rec})
}

func (r *Recorder) enqueue(rec record) {
	if r.store == nil {
		return
	}
	select {
	case r.queue <- rec:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

// Dropped returns how many records were discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops the drain goroutine after flushing queued records.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) drain() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		var err error
		switch {
		case rec.sw != nil:
			err = r.store.RecordSwitch(ctx, rec.sw)
		case rec.tl != nil:
			err = r.store.RecordTiling(ctx, rec.tl)
		}
		cancel()
		if err != nil {
			r.logger.Warn("metrics record dropped", "error", err)
		}
	}
}
