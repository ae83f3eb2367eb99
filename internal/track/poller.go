package track

import (
	"context"
	"log/slog"

	"guidetrack/internal/apperrors"
)

// pollOne runs one full status-poller step for a record: fetch the remote
// status, classify it, apply the forward-only phase update, and continue
// into the result fetch when the classification is done. The step is skipped
// if another path already has the record in flight.
func (t *Tracker) pollOne(ctx context.Context, localID string) {
	if !t.acquire(localID) {
		return
	}
	defer t.release(localID)
	t.pollStep(ctx, localID)
}

// pollStep is the shared body of the scheduler path and the manual-refresh
// path. The caller must hold the record's in-flight slot.
func (t *Tracker) pollStep(ctx context.Context, localID string) {
	rec, ok := t.store.Get(localID)
	if !ok || rec.RemoteID == "" {
		return
	}

	start := t.now()
	status, err := t.client.GuideStatus(ctx, rec.RemoteID)
	if ctx.Err() != nil {
		// Cancellation observed mid-call: discard the outcome.
		return
	}
	now := t.now()
	if t.metrics != nil {
		t.metrics.RecordPoll(ctx, err == nil, now.Sub(start).Seconds())
	}

	if err != nil {
		// Transient by default: record the error, bump lastPolledAt, and let
		// the tiered schedule govern the retry. Phase and status are untouched.
		pollErr := apperrors.Poll("remote.guideStatus", err)
		t.store.Update(localID, func(r *Record) {
			ts := now
			r.LastPolledAt = &ts
			r.Error = pollErr.Error()
		})
		slog.Warn("Status poll failed", "localId", localID, "remoteId", rec.RemoteID, "error", err)
		return
	}

	class := Classify(status.Status)
	var becameTerminal bool
	updated, _ := t.store.Update(localID, func(r *Record) {
		ts := now
		r.LastPolledAt = &ts
		r.RemoteStatus = status.Status
		r.Error = ""
		// Forward-only: a terminal record keeps its phase even when the
		// remote status is re-observed by a manual refresh.
		if r.Phase == PhasePolling {
			next := class.Phase()
			if next != r.Phase {
				r.Phase = next
				becameTerminal = next.Terminal()
			}
		}
	})

	if becameTerminal {
		success := updated.Phase == PhaseCompleted
		if t.metrics != nil {
			t.metrics.RecordJobTerminal(ctx, success, now.Sub(updated.CreatedAt).Seconds())
		}
		if success {
			t.publish(EventTypeCompleted, updated)
		} else {
			t.publish(EventTypeFailed, updated)
		}
		slog.Info("Job reached terminal phase", "localId", localID, "phase", updated.Phase, "status", status.Status)
	}

	if class == ClassDone && !updated.ResultsFetched {
		t.fetchResults(ctx, updated)
	}
}

// fetchResults performs the one-time result retrieval. The resultsFetched
// guard makes the fetch idempotent no matter which path triggers it; a
// failure leaves the record Completed-without-results, which every later
// done observation retries.
func (t *Tracker) fetchResults(ctx context.Context, rec Record) {
	payload, err := t.client.GuideResults(ctx, rec.RemoteID)
	if ctx.Err() != nil {
		return
	}
	if t.metrics != nil {
		t.metrics.RecordResultFetch(ctx, err == nil)
	}

	if err != nil {
		fetchErr := apperrors.ResultFetch("remote.guideResults", err)
		t.store.Update(rec.LocalID, func(r *Record) {
			r.Error = fetchErr.Error()
		})
		slog.Warn("Result fetch failed", "localId", rec.LocalID, "remoteId", rec.RemoteID, "error", err)
		return
	}

	updated, _ := t.store.Update(rec.LocalID, func(r *Record) {
		if r.ResultsFetched {
			return
		}
		r.Results = payload
		r.ResultsFetched = true
		r.Error = ""
	})
	t.publish(EventTypeResults, updated)
	slog.Info("Results retrieved", "localId", rec.LocalID, "remoteId", rec.RemoteID)
}

// Refresh re-runs the status/results step for one job outside the
// scheduler's cadence. It shares the result-fetch guard with the scheduler
// path, and is rejected while the scheduler has the same record in flight.
// Terminal phases are never regressed; a Failed record and a fully fetched
// Completed record return unchanged without a network call.
func (t *Tracker) Refresh(ctx context.Context, localID string) (Record, error) {
	rec, ok := t.store.Get(localID)
	if !ok {
		return Record{}, apperrors.NotFound("guide", localID)
	}
	if rec.Phase == PhaseFailed {
		return rec, nil
	}
	if rec.RemoteID == "" {
		return rec, apperrors.Conflict("guide", localID, "submission still in progress")
	}
	if rec.Phase == PhaseCompleted && rec.ResultsFetched {
		return rec, nil
	}

	if !t.acquire(localID) {
		return rec, apperrors.Conflict("guide", localID, "a poll for this job is already in flight")
	}
	defer t.release(localID)

	t.pollStep(ctx, localID)

	out, _ := t.store.Get(localID)
	return out, nil
}
