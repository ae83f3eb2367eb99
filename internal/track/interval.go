package track

import "time"

// Tiered poll cadence: jobs are polled aggressively while young, then backed
// off in two steps. The function is monotonically non-decreasing in elapsed
// time, so a job's required interval never shrinks.
const (
	tierFastUntil   = 10 * time.Second
	tierMediumUntil = 60 * time.Second

	intervalFast   = 1500 * time.Millisecond
	intervalMedium = 6 * time.Second
	intervalSlow   = 10 * time.Second
)

// PollInterval returns the required gap between status checks for a job that
// has been polling for the given elapsed time.
func PollInterval(elapsed time.Duration) time.Duration {
	switch {
	case elapsed < tierFastUntil:
		return intervalFast
	case elapsed < tierMediumUntil:
		return intervalMedium
	default:
		return intervalSlow
	}
}

// dueForPoll reports whether a candidate record should be polled now.
// Elapsed time is measured from when polling started (falling back to local
// creation); a record that has never been polled is due immediately.
func dueForPoll(rec *Record, now time.Time) bool {
	anchor := rec.CreatedAt
	if rec.PollingStartedAt != nil {
		anchor = *rec.PollingStartedAt
	}
	if rec.LastPolledAt == nil {
		return true
	}
	return now.Sub(*rec.LastPolledAt) >= PollInterval(now.Sub(anchor))
}
