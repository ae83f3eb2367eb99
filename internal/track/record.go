// Package track implements the tracker core: the job record state machine,
// the in-memory job collection, and the adaptive polling scheduler that
// drives remote jobs from submission to retrieved results.
package track

import (
	"encoding/json"
	"strings"
	"time"
)

// Phase is the local lifecycle phase of a tracked job.
//
// Transitions: Submitting -> {Polling, Failed}, Polling -> {Polling,
// Completed, Failed}. Completed and Failed are terminal; the scheduler never
// leaves them. A manual refresh may re-run the result fetch against a
// Completed record without changing its phase.
type Phase string

const (
	PhaseSubmitting Phase = "submitting"
	PhasePolling    Phase = "polling"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether the phase admits no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Classification is the tracker's reading of a raw remote status string.
type Classification int

const (
	ClassInProgress Classification = iota
	ClassDone
	ClassFailed
)

// Sentinel status values. Everything else the remote service says, including
// empty and future vocabulary, is in-progress.
const (
	statusDone   = "done"
	statusFailed = "failed"
)

// Classify compares a raw status case-insensitively against the two
// sentinels. The open vocabulary lets the remote service introduce
// intermediate status names without breaking the tracker.
func Classify(status string) Classification {
	switch {
	case strings.EqualFold(status, statusDone):
		return ClassDone
	case strings.EqualFold(status, statusFailed):
		return ClassFailed
	default:
		return ClassInProgress
	}
}

// Phase maps a classification to the phase a polling job moves to.
func (c Classification) Phase() Phase {
	switch c {
	case ClassDone:
		return PhaseCompleted
	case ClassFailed:
		return PhaseFailed
	default:
		return PhasePolling
	}
}

// Params is the immutable snapshot of submission inputs.
type Params struct {
	WebsiteURL     string `json:"websiteUrl"`
	RoleTitle      string `json:"roleTitle"`
	CompanyName    string `json:"companyName,omitempty"`
	CompanyContext string `json:"companyContext,omitempty"`
	Filename       string `json:"filename"`
}

// Record is the tracked state of one submitted job. Records are created by
// Submit, mutated only through Store.Update, and retained for the lifetime of
// the process.
type Record struct {
	LocalID          string          `json:"localId"`
	RemoteID         string          `json:"remoteId,omitempty"` // set at most once, never changes
	CreatedAt        time.Time       `json:"createdAt"`
	Params           Params          `json:"params"`
	Phase            Phase           `json:"phase"`
	RemoteStatus     string          `json:"remoteStatus,omitempty"` // last-observed raw status
	Error            string          `json:"error,omitempty"`        // cleared on the next successful operation
	Results          json.RawMessage `json:"results,omitempty"`
	ResultsFetched   bool            `json:"resultsFetched"`
	PollingStartedAt *time.Time      `json:"pollingStartedAt,omitempty"`
	LastPolledAt     *time.Time      `json:"lastPolledAt,omitempty"`
}

// Candidate reports whether the scheduler should consider this record:
// it has a remote identity and has not reached a terminal phase.
func (r *Record) Candidate() bool {
	return r.RemoteID != "" && !r.Phase.Terminal()
}
