package track

import (
	"fmt"
	"log/slog"
	"time"

	"guidetrack/pkg/cloudevent"
)

// Event types for job lifecycle notifications.
const (
	EventTypeSubmitted = "guidetrack.job.submitted"
	EventTypeCompleted = "guidetrack.job.completed"
	EventTypeFailed    = "guidetrack.job.failed"
	EventTypeResults   = "guidetrack.job.results"
)

const eventSource = "guidetrack"

// newJobEvent builds a CloudEvent describing the record's current state.
func newJobEvent(eventType string, rec Record) *cloudevent.CloudEvent {
	data := map[string]any{
		"localId": rec.LocalID,
		"phase":   string(rec.Phase),
	}
	if rec.RemoteID != "" {
		data["remoteId"] = rec.RemoteID
	}
	if rec.RemoteStatus != "" {
		data["remoteStatus"] = rec.RemoteStatus
	}
	if rec.Error != "" {
		data["error"] = rec.Error
	}
	if rec.ResultsFetched {
		data["resultsFetched"] = true
	}

	eventID := fmt.Sprintf("%s-%d", rec.LocalID, time.Now().UnixNano())
	return cloudevent.New(eventType, eventSource, rec.LocalID, eventID, data)
}

// publish hands a lifecycle event to the sink. Delivery is best-effort; a
// full buffer never affects job state.
func (t *Tracker) publish(eventType string, rec Record) {
	if t.sink == nil {
		return
	}
	if err := t.sink.Publish(newJobEvent(eventType, rec)); err != nil {
		slog.Debug("Lifecycle event not queued", "type", eventType, "localId", rec.LocalID, "error", err)
	}
}
