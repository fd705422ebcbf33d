package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"latent-hq/callisto/pkg/trace"
)

// DefaultMemoryCapacity is the ring size used when none is configured.
const DefaultMemoryCapacity = 4096

// Memory is a fixed-capacity ring buffer backend. Once full, Save
// overwrites the oldest record. Intended for interactive hosts that
// want recent history without a database file.
type Memory struct {
	mu       sync.RWMutex
	records  []*trace.Record
	next     int
	full     bool
	capacity int
}

// NewMemory creates a memory backend holding at most capacity records.
// Capacity <= 0 selects DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		records:  make([]*trace.Record, 0, capacity),
		capacity: capacity,
	}
}

// Save persists a record, evicting the oldest when the ring is full.
func (s *Memory) Save(ctx context.Context, rec *trace.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to keep callers from mutating stored records
	recCopy := *rec

	if !s.full {
		s.records = append(s.records, &recCopy)
		if len(s.records) == s.capacity {
			s.full = true
			s.next = 0
		}
		return nil
	}

	s.records[s.next] = &recCopy
	s.next = (s.next + 1) % s.capacity
	return nil
}

// Query retrieves records matching the filter.
func (s *Memory) Query(ctx context.Context, filter *trace.Filter) ([]*trace.Record, error) {
	if filter == nil {
		filter = &trace.Filter{}
	}

	s.mu.RLock()
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	results := make([]*trace.Record, 0, len(snapshot))
	for _, rec := range snapshot {
		if filter.Matches(rec) {
			recCopy := *rec
			results = append(results, &recCopy)
		}
	}

	sortRecords(results, filter.SortBy, filter.SortOrder)

	// Apply pagination
	start := filter.Offset
	if start > len(results) {
		return []*trace.Record{}, nil
	}
	results = results[start:]

	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[:filter.Limit]
	}

	return results, nil
}

// Count returns the number of records matching the filter.
func (s *Memory) Count(ctx context.Context, filter *trace.Filter) (int64, error) {
	if filter == nil {
		filter = &trace.Filter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, rec := range s.snapshotLocked() {
		if filter.Matches(rec) {
			count++
		}
	}
	return count, nil
}

// Prune deletes records older than the cutoff, then the oldest surplus
// beyond the keep limit.
func (s *Memory) Prune(ctx context.Context, before time.Time, keep int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*trace.Record, 0, s.capacity)
	for _, rec := range s.snapshotLocked() {
		if !before.IsZero() && rec.Time.Before(before) {
			continue
		}
		kept = append(kept, rec)
	}

	if keep > 0 && int64(len(kept)) > keep {
		kept = kept[int64(len(kept))-keep:]
	}

	deleted := int64(s.sizeLocked() - len(kept))

	s.records = kept
	s.full = len(kept) == s.capacity
	s.next = 0

	return deleted, nil
}

// Name returns BackendMemory.
func (s *Memory) Name() string {
	return BackendMemory
}

// Close releases the ring.
func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]*trace.Record, 0, s.capacity)
	s.next = 0
	s.full = false
	return nil
}

// Len returns the number of stored records (for testing).
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sizeLocked()
}

// Capacity returns the ring capacity.
func (s *Memory) Capacity() int {
	return s.capacity
}

// snapshotLocked returns the stored records oldest first. Callers hold
// at least the read lock.
func (s *Memory) snapshotLocked() []*trace.Record {
	if !s.full {
		out := make([]*trace.Record, len(s.records))
		copy(out, s.records)
		return out
	}

	out := make([]*trace.Record, 0, s.capacity)
	out = append(out, s.records[s.next:]...)
	out = append(out, s.records[:s.next]...)
	return out
}

func (s *Memory) sizeLocked() int {
	return len(s.records)
}

// sortRecords orders records per the filter's sort fields. Unknown
// fields fall back to time; the default order is descending.
func sortRecords(recs []*trace.Record, sortBy, sortOrder string) {
	asc := sortOrder == "asc"

	var less func(a, b *trace.Record) bool
	switch sortBy {
	case "step":
		less = func(a, b *trace.Record) bool { return a.Step < b.Step }
	case "duration":
		less = func(a, b *trace.Record) bool { return a.Duration < b.Duration }
	default:
		less = func(a, b *trace.Record) bool { return a.Time.Before(b.Time) }
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if asc {
			return less(recs[i], recs[j])
		}
		return less(recs[j], recs[i])
	})
}
