package track

import (
	"context"
	"sync"
	"time"

	"guidetrack/internal/apperrors"
	"guidetrack/internal/config"
	"guidetrack/internal/observability"
	"guidetrack/internal/remote"
	"guidetrack/pkg/cloudevent"
)

// EventSink receives lifecycle events for delivery to display collaborators.
// Publish must not block; implementations buffer or drop.
type EventSink interface {
	Publish(event *cloudevent.CloudEvent) error
}

// Config holds tracker behavior settings. Zero values use defaults; a zero
// Deadline disables the wall-clock limit entirely (it is an explicit policy
// choice, never an implicit default).
type Config struct {
	Tick     time.Duration // scheduler wake interval (default: 750ms)
	Deadline time.Duration // fail jobs not terminal within this window (0 = disabled)
}

func (c Config) withDefaults() Config {
	if c.Tick <= 0 {
		c.Tick = config.DefaultTick
	}
	return c
}

// Tracker owns the job collection and the polling scheduler for one session.
//
// Concurrency model: one scheduler goroutine processes due jobs strictly
// sequentially, so at most one polling call is outbound at any instant. The
// submission and manual-refresh paths run on caller goroutines; a per-record
// in-flight set keeps any two paths from polling the same record at once.
type Tracker struct {
	store   *Store
	client  remote.Client
	metrics *observability.Metrics // nil disables metrics
	sink    EventSink              // nil disables lifecycle events
	cfg     Config

	now func() time.Time // swapped in tests

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	schedMu sync.Mutex
	running bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Tracker. The scheduler starts lazily on the first submission
// and suspends whenever no record needs polling.
func New(client remote.Client, cfg Config, metrics *observability.Metrics, sink EventSink) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		store:    NewStore(),
		client:   client,
		metrics:  metrics,
		sink:     sink,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		inflight: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Snapshot returns a read-only copy of the live job collection.
func (t *Tracker) Snapshot() []Record {
	return t.store.Snapshot()
}

// Get returns one tracked record.
func (t *Tracker) Get(localID string) (Record, error) {
	rec, ok := t.store.Get(localID)
	if !ok {
		return Record{}, apperrors.NotFound("guide", localID)
	}
	return rec, nil
}

// Close signals the scheduler to stop and waits for it to exit. Outcomes of
// calls still in flight when cancellation is observed are discarded.
func (t *Tracker) Close(ctx context.Context) error {
	t.schedMu.Lock()
	t.closed = true
	t.schedMu.Unlock()

	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acquire claims the per-record in-flight slot. Callers that fail to acquire
// must not touch the record's remote operations.
func (t *Tracker) acquire(localID string) bool {
	t.inflightMu.Lock()
	defer t.inflightMu.Unlock()
	if _, busy := t.inflight[localID]; busy {
		return false
	}
	t.inflight[localID] = struct{}{}
	return true
}

func (t *Tracker) release(localID string) {
	t.inflightMu.Lock()
	defer t.inflightMu.Unlock()
	delete(t.inflight, localID)
}
