package job

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/omnimedia/server/internal/module/media"
)

// Store keeps job records for the lifetime of the process.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// Create registers a queued record.
func (s *Store) Create(id string, modality media.Modality) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, id)
	}
	rec := &Record{
		ID:          id,
		Modality:    modality,
		Status:      StatusQueued,
		SubmittedAt: s.now(),
	}
	s.records[id] = rec
	cp := *rec
	return &cp, nil
}

// Get returns a copy of a record.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	cp := *rec
	return &cp, nil
}

// Complete moves a queued record to its terminal state. A failed response
// or a non-nil runErr yields StatusFailed.
func (s *Store) Complete(id string, resp *media.Response, runErr error) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if rec.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
	}

	now := s.now()
	rec.CompletedAt = &now
	rec.Response = resp

	switch {
	case runErr != nil:
		rec.Status = StatusFailed
		rec.Error = runErr.Error()
	case resp == nil:
		rec.Status = StatusFailed
		rec.Error = "job produced no response"
	case resp.Failed():
		rec.Status = StatusFailed
		rec.Error = resp.Error
	default:
		rec.Status = StatusCompleted
	}

	cp := *rec
	return &cp, nil
}

// List returns all records, oldest first.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

// Counts returns the number of records per status.
func (s *Store) Counts() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[Status]int{StatusQueued: 0, StatusCompleted: 0, StatusFailed: 0}
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts
}
