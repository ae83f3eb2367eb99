package track

import (
	"sync"

	"guidetrack/internal/apperrors"
)

// Store is the in-memory job collection: a mutex-guarded map keyed by
// localId, with insertion order preserved so scheduler scans and snapshots
// are stable.
//
// Single-writer discipline: all mutations go through Update, which applies a
// mutate closure atomically under the lock against the current full record.
// Mutators must assign fresh values to pointer and slice fields rather than
// writing through values held by previously returned copies.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewStore creates an empty job collection.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Record),
	}
}

// Insert adds a new record. The localId must be unique for the lifetime of
// the store.
func (s *Store) Insert(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.LocalID]; exists {
		return apperrors.Conflict("guide", rec.LocalID, "duplicate local ID")
	}
	stored := rec
	s.records[rec.LocalID] = &stored
	s.order = append(s.order, rec.LocalID)
	return nil
}

// Get returns a copy of one record.
func (s *Store) Get(localID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[localID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Update applies mutate to the current state of a record, atomically under
// the store lock, and returns a copy of the result. The closure sees the
// full prior record, so updates are a pure function of its latest state and
// can never stale-overwrite a concurrent update to another record.
func (s *Store) Update(localID string, mutate func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[localID]
	if !ok {
		return Record{}, apperrors.NotFound("guide", localID)
	}
	mutate(rec)
	return *rec, nil
}

// Snapshot returns copies of all records in insertion order.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	return out
}

// HasCandidates reports whether any record still needs scheduler attention.
func (s *Store) HasCandidates() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Candidate() {
			return true
		}
	}
	return false
}

// Len returns the number of tracked records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
