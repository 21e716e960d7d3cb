package audit

import (
	"context"
	"sync"
	"time"
)

// Record is one audit trail entry for a kill switch change.
type Record struct {
	// ID is a unique record identifier (UUID).
	ID string `json:"id"`

	// Switch is the switch name that changed.
	Switch string `json:"switch"`

	// Previous is the switch state before the change.
	Previous bool `json:"previous"`

	// Enabled is the switch state after the change.
	Enabled bool `json:"enabled"`

	// Actor identifies who made the change.
	Actor string `json:"actor"`

	// At is when the change was made.
	At time.Time `json:"at"`
}

// Store persists audit records.
type Store interface {
	// Append stores a record.
	Append(ctx context.Context, rec Record) error

	// List returns the most recent records, newest first, up to limit.
	// A non-positive limit returns everything.
	List(ctx context.Context, limit int) ([]Record, error)

	// Prune removes records older than cutoff and reports how many were
	// removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}

// MemoryStore is an in-memory Store with a bounded capacity. When full, the
// oldest records are dropped on append.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	max     int
}

// NewMemoryStore creates a memory store keeping at most max records.
// A non-positive max keeps 10000.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 10000
	}
	return &MemoryStore{max: max}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.max {
		s.records = append(s.records[:0], s.records[len(s.records)-s.max:]...)
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Prune implements Store.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.At.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return removed, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
