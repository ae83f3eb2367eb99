package track

import (
	"fmt"
	"log/slog"
	"time"
)

// ensureScheduler starts the polling loop if it is not already running.
// Called on every insertion of a record and whenever a record enters
// Polling, so the loop always restarts after suspending.
func (t *Tracker) ensureScheduler() {
	t.schedMu.Lock()
	defer t.schedMu.Unlock()

	if t.running || t.closed {
		return
	}
	t.running = true
	t.wg.Add(1)
	go t.run()
}

// run is the scheduler loop: wake on a fixed tick, process due candidates
// strictly sequentially, and suspend once no candidate remains.
func (t *Tracker) run() {
	defer t.wg.Done()

	logger := slog.With("component", "scheduler")
	logger.Debug("Scheduler started", "tick", t.cfg.Tick)

	ticker := time.NewTicker(t.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			t.schedMu.Lock()
			t.running = false
			t.schedMu.Unlock()
			logger.Debug("Scheduler stopped")
			return
		case <-ticker.C:
		}

		t.cycle()

		// Suspend when nothing needs polling. The candidate check happens
		// under the scheduler lock so an insertion racing with suspension
		// either sees running=true or restarts the loop itself.
		t.schedMu.Lock()
		if !t.store.HasCandidates() {
			t.running = false
			t.schedMu.Unlock()
			logger.Debug("Scheduler suspended")
			return
		}
		t.schedMu.Unlock()
	}
}

// cycle scans the collection once. Due candidates are processed one at a
// time; each full poll step (and any result fetch it triggers) completes
// before the next candidate starts, capping outbound polling concurrency
// at one. An error on one job never aborts the rest of the cycle.
func (t *Tracker) cycle() {
	for _, rec := range t.store.Snapshot() {
		if t.ctx.Err() != nil {
			return
		}
		if !rec.Candidate() {
			continue
		}

		now := t.now()
		if t.cfg.Deadline > 0 && now.Sub(rec.CreatedAt) >= t.cfg.Deadline {
			t.expire(rec)
			continue
		}
		if !dueForPoll(&rec, now) {
			continue
		}

		t.pollOne(t.ctx, rec.LocalID)
	}
}

// expire fails a candidate that exceeded the configured deadline.
func (t *Tracker) expire(rec Record) {
	var expired bool
	updated, err := t.store.Update(rec.LocalID, func(r *Record) {
		if r.Phase.Terminal() {
			return
		}
		r.Phase = PhaseFailed
		r.Error = fmt.Sprintf("job not terminal within deadline of %s", t.cfg.Deadline)
		expired = true
	})
	if err != nil || !expired {
		return
	}
	if t.metrics != nil {
		t.metrics.RecordJobTerminal(t.ctx, false, t.now().Sub(updated.CreatedAt).Seconds())
	}
	t.publish(EventTypeFailed, updated)
	slog.Warn("Job deadline exceeded", "localId", rec.LocalID, "deadline", t.cfg.Deadline)
}
