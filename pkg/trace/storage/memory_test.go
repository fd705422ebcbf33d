package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"latent-hq/callisto/pkg/trace"
)

// TestMemory_SaveAndQuery tests storing and querying records.
func TestMemory_SaveAndQuery(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()

	rec := &trace.Record{
		ID:           "test-id-1",
		RunID:        "run-1",
		Time:         time.Now(),
		Site:         "output",
		Block:        4,
		Stage:        2,
		Percent:      0.35,
		Step:         7,
		Sigma:        7.25,
		MatchedRules: 2,
		OpsApplied:   3,
		Duration:     150 * time.Microsecond,
	}

	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	results, err := store.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(results))
	}

	got := results[0]
	if got.ID != "test-id-1" {
		t.Errorf("Expected ID 'test-id-1', got '%s'", got.ID)
	}
	if got.Site != "output" || got.Block != 4 {
		t.Errorf("Expected output_4, got %s_%d", got.Site, got.Block)
	}
	if got.MatchedRules != 2 || got.OpsApplied != 3 {
		t.Errorf("Expected 2 rules / 3 ops, got %d / %d", got.MatchedRules, got.OpsApplied)
	}
}

// TestMemory_RingEviction tests that the oldest records are evicted
// once the ring is full.
func TestMemory_RingEviction(t *testing.T) {
	store := NewMemory(3)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		rec := &trace.Record{
			ID:   fmt.Sprintf("rec-%d", i),
			Time: now.Add(time.Duration(i) * time.Second),
		}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	if store.Len() != 3 {
		t.Fatalf("Expected 3 records in the ring, got %d", store.Len())
	}

	results, err := store.Query(ctx, &trace.Filter{SortBy: "time", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(results))
	}

	wantIDs := []string{"rec-2", "rec-3", "rec-4"}
	for i, want := range wantIDs {
		if results[i].ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, results[i].ID)
		}
	}
}

// TestMemory_DefaultCapacity tests the zero-capacity fallback.
func TestMemory_DefaultCapacity(t *testing.T) {
	store := NewMemory(0)
	if store.Capacity() != DefaultMemoryCapacity {
		t.Errorf("Expected capacity %d, got %d", DefaultMemoryCapacity, store.Capacity())
	}

	store = NewMemory(-5)
	if store.Capacity() != DefaultMemoryCapacity {
		t.Errorf("Expected capacity %d for negative input, got %d", DefaultMemoryCapacity, store.Capacity())
	}
}

// TestMemory_QueryWithTimeRange tests time range filtering.
func TestMemory_QueryWithTimeRange(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()
	now := time.Now()

	records := []*trace.Record{
		{ID: "old-record", Time: now.Add(-2 * time.Hour)},
		{ID: "recent-record", Time: now.Add(-30 * time.Minute)},
		{ID: "new-record", Time: now},
	}
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	start := now.Add(-1 * time.Hour)
	results, err := store.Query(ctx, &trace.Filter{Start: &start})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("Expected 2 records, got %d", len(results))
	}
	for _, r := range results {
		if r.ID == "old-record" {
			t.Error("Old record should not be in results")
		}
	}
}

// TestMemory_QueryWithFilters tests filter combinations.
func TestMemory_QueryWithFilters(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()
	now := time.Now()

	block4 := 4
	block8 := 8

	records := []*trace.Record{
		{ID: "record-1", RunID: "run-a", Time: now, Site: "output", Block: 4, Step: 2},
		{ID: "record-2", RunID: "run-a", Time: now, Site: "input", Block: 8, Step: 5},
		{ID: "record-3", RunID: "run-b", Time: now, Site: "output", Block: 4, Step: 9},
	}
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	minStep := 4
	maxStep := 8

	tests := []struct {
		name        string
		filter      *trace.Filter
		expectedIDs []string
	}{
		{
			name:        "filter by run",
			filter:      &trace.Filter{RunID: "run-a"},
			expectedIDs: []string{"record-1", "record-2"},
		},
		{
			name:        "filter by site",
			filter:      &trace.Filter{Site: "output"},
			expectedIDs: []string{"record-1", "record-3"},
		},
		{
			name:        "filter by block",
			filter:      &trace.Filter{Block: &block4},
			expectedIDs: []string{"record-1", "record-3"},
		},
		{
			name:        "filter by step range",
			filter:      &trace.Filter{MinStep: &minStep, MaxStep: &maxStep},
			expectedIDs: []string{"record-2"},
		},
		{
			name:        "combined filters",
			filter:      &trace.Filter{RunID: "run-a", Site: "output", Block: &block4},
			expectedIDs: []string{"record-1"},
		},
		{
			name:        "no matches",
			filter:      &trace.Filter{Site: "input", Block: &block4},
			expectedIDs: []string{},
		},
		{
			name:        "block 8 on input",
			filter:      &trace.Filter{Site: "input", Block: &block8},
			expectedIDs: []string{"record-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}

			if len(results) != len(tt.expectedIDs) {
				t.Errorf("Expected %d records, got %d", len(tt.expectedIDs), len(results))
			}

			foundIDs := make(map[string]bool)
			for _, r := range results {
				foundIDs[r.ID] = true
			}
			for _, id := range tt.expectedIDs {
				if !foundIDs[id] {
					t.Errorf("Expected to find record %s", id)
				}
			}
		})
	}
}

// TestMemory_QueryWithStatus tests status filtering.
func TestMemory_QueryWithStatus(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()
	now := time.Now()

	records := []*trace.Record{
		{ID: "ok-1", Time: now},
		{ID: "skipped-1", Time: now, Skipped: true},
		{ID: "error-1", Time: now, Error: "shape mismatch"},
	}
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	tests := []struct {
		status     string
		expectedID string
	}{
		{trace.StatusOK, "ok-1"},
		{trace.StatusSkipped, "skipped-1"},
		{trace.StatusError, "error-1"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			results, err := store.Query(ctx, &trace.Filter{Status: tt.status})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("Expected 1 record, got %d", len(results))
			}
			if results[0].ID != tt.expectedID {
				t.Errorf("Expected %s, got %s", tt.expectedID, results[0].ID)
			}
		})
	}
}

// TestMemory_QueryWithPagination tests limit and offset.
func TestMemory_QueryWithPagination(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 10; i++ {
		rec := &trace.Record{
			ID:   fmt.Sprintf("rec-%d", i),
			Time: now.Add(time.Duration(i) * time.Second),
		}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	results, err := store.Query(ctx, &trace.Filter{Limit: 5})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Expected 5 records, got %d", len(results))
	}

	// Default order is newest first, so offset 5 skips the newest five.
	results, err = store.Query(ctx, &trace.Filter{Limit: 3, Offset: 5})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(results))
	}
	if results[0].ID != "rec-4" {
		t.Errorf("Expected rec-4 first after offset, got %s", results[0].ID)
	}

	results, err = store.Query(ctx, &trace.Filter{Offset: 100})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 records past the end, got %d", len(results))
	}
}

// TestMemory_QuerySorting tests sort fields and orders.
func TestMemory_QuerySorting(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()
	now := time.Now()

	records := []*trace.Record{
		{ID: "a", Time: now.Add(1 * time.Second), Step: 3, Duration: 300 * time.Microsecond},
		{ID: "b", Time: now.Add(2 * time.Second), Step: 1, Duration: 100 * time.Microsecond},
		{ID: "c", Time: now.Add(3 * time.Second), Step: 2, Duration: 200 * time.Microsecond},
	}
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    *trace.Filter
		wantOrder []string
	}{
		{
			name:      "default newest first",
			filter:    &trace.Filter{},
			wantOrder: []string{"c", "b", "a"},
		},
		{
			name:      "time ascending",
			filter:    &trace.Filter{SortBy: "time", SortOrder: "asc"},
			wantOrder: []string{"a", "b", "c"},
		},
		{
			name:      "step ascending",
			filter:    &trace.Filter{SortBy: "step", SortOrder: "asc"},
			wantOrder: []string{"b", "c", "a"},
		},
		{
			name:      "duration descending",
			filter:    &trace.Filter{SortBy: "duration", SortOrder: "desc"},
			wantOrder: []string{"a", "c", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(results) != len(tt.wantOrder) {
				t.Fatalf("Expected %d records, got %d", len(tt.wantOrder), len(results))
			}
			for i, want := range tt.wantOrder {
				if results[i].ID != want {
					t.Errorf("Position %d: expected %s, got %s", i, want, results[i].ID)
				}
			}
		})
	}
}

// TestMemory_Count tests counting records.
func TestMemory_Count(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0, got %d", count)
	}

	now := time.Now()
	for i := 0; i < 5; i++ {
		rec := &trace.Record{
			ID:   fmt.Sprintf("rec-%d", i),
			Time: now,
			Site: "output",
		}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	count, err = store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5, got %d", count)
	}

	count, err = store.Count(ctx, &trace.Filter{Site: "output"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5 for site filter, got %d", count)
	}

	count, err = store.Count(ctx, &trace.Filter{Site: "middle"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0 for non-matching filter, got %d", count)
	}

	// Count ignores pagination.
	count, err = store.Count(ctx, &trace.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5 regardless of limit, got %d", count)
	}
}

// TestMemory_Prune tests the two pruning phases.
func TestMemory_Prune(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	seed := func(store *Memory) {
		for i := 0; i < 6; i++ {
			rec := &trace.Record{
				ID:   fmt.Sprintf("rec-%d", i),
				Time: now.Add(time.Duration(i-6) * time.Hour),
			}
			if err := store.Save(ctx, rec); err != nil {
				t.Fatalf("Save() failed: %v", err)
			}
		}
	}

	t.Run("by age", func(t *testing.T) {
		store := NewMemory(100)
		seed(store)

		// rec-0..rec-2 are older than 3.5 hours.
		deleted, err := store.Prune(ctx, now.Add(-210*time.Minute), 0)
		if err != nil {
			t.Fatalf("Prune() failed: %v", err)
		}
		if deleted != 3 {
			t.Errorf("Expected 3 deleted, got %d", deleted)
		}
		if store.Len() != 3 {
			t.Errorf("Expected 3 remaining, got %d", store.Len())
		}
	})

	t.Run("by count", func(t *testing.T) {
		store := NewMemory(100)
		seed(store)

		deleted, err := store.Prune(ctx, time.Time{}, 2)
		if err != nil {
			t.Fatalf("Prune() failed: %v", err)
		}
		if deleted != 4 {
			t.Errorf("Expected 4 deleted, got %d", deleted)
		}

		results, _ := store.Query(ctx, &trace.Filter{SortBy: "time", SortOrder: "asc"})
		if len(results) != 2 {
			t.Fatalf("Expected 2 remaining, got %d", len(results))
		}
		if results[0].ID != "rec-4" || results[1].ID != "rec-5" {
			t.Errorf("Expected newest records kept, got %s, %s", results[0].ID, results[1].ID)
		}
	})

	t.Run("both phases", func(t *testing.T) {
		store := NewMemory(100)
		seed(store)

		deleted, err := store.Prune(ctx, now.Add(-210*time.Minute), 1)
		if err != nil {
			t.Fatalf("Prune() failed: %v", err)
		}
		if deleted != 5 {
			t.Errorf("Expected 5 deleted, got %d", deleted)
		}
		if store.Len() != 1 {
			t.Errorf("Expected 1 remaining, got %d", store.Len())
		}
	})

	t.Run("after ring wrap", func(t *testing.T) {
		store := NewMemory(4)
		seed(store) // 6 saves into a 4-slot ring leaves rec-2..rec-5

		deleted, err := store.Prune(ctx, time.Time{}, 2)
		if err != nil {
			t.Fatalf("Prune() failed: %v", err)
		}
		if deleted != 2 {
			t.Errorf("Expected 2 deleted, got %d", deleted)
		}

		results, _ := store.Query(ctx, &trace.Filter{SortBy: "time", SortOrder: "asc"})
		if len(results) != 2 {
			t.Fatalf("Expected 2 remaining, got %d", len(results))
		}
		if results[0].ID != "rec-4" || results[1].ID != "rec-5" {
			t.Errorf("Expected rec-4, rec-5 after wrap, got %s, %s", results[0].ID, results[1].ID)
		}

		// The ring keeps working after a prune rebuild.
		rec := &trace.Record{ID: "rec-6", Time: now.Add(time.Hour)}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() after prune failed: %v", err)
		}
		if store.Len() != 3 {
			t.Errorf("Expected 3 records after new save, got %d", store.Len())
		}
	})

	t.Run("nothing to prune", func(t *testing.T) {
		store := NewMemory(100)
		seed(store)

		deleted, err := store.Prune(ctx, time.Time{}, 0)
		if err != nil {
			t.Fatalf("Prune() failed: %v", err)
		}
		if deleted != 0 {
			t.Errorf("Expected 0 deleted with no limits, got %d", deleted)
		}
		if store.Len() != 6 {
			t.Errorf("Expected all 6 records kept, got %d", store.Len())
		}
	})
}

// TestMemory_Close tests that Close clears the ring.
func TestMemory_Close(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()

	if err := store.Save(ctx, &trace.Record{ID: "rec-1", Time: time.Now()}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected 0 records after Close(), got %d", store.Len())
	}
}

// TestMemory_Name tests the backend name.
func TestMemory_Name(t *testing.T) {
	if got := NewMemory(1).Name(); got != BackendMemory {
		t.Errorf("Expected %q, got %q", BackendMemory, got)
	}
}

// TestMemory_ThreadSafety tests concurrent access.
func TestMemory_ThreadSafety(t *testing.T) {
	store := NewMemory(1000)
	ctx := context.Background()

	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			defer func() { done <- true }()
			for j := 0; j < 20; j++ {
				rec := &trace.Record{
					ID:   fmt.Sprintf("rec-%d-%d", id, j),
					Time: time.Now(),
				}
				if err := store.Save(ctx, rec); err != nil {
					t.Errorf("Save() failed: %v", err)
				}
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 200 {
		t.Errorf("Expected 200 records after concurrent writes, got %d", count)
	}

	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- true }()
			if _, err := store.Query(ctx, nil); err != nil {
				t.Errorf("Query() failed: %v", err)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

// TestMemory_RecordIsolation tests that stored records are isolated
// from caller mutations.
func TestMemory_RecordIsolation(t *testing.T) {
	store := NewMemory(100)
	ctx := context.Background()

	original := &trace.Record{ID: "isolation-test", Time: time.Now(), Site: "output"}
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	original.Site = "mutated"

	results, err := store.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if results[0].Site != "output" {
		t.Errorf("Stored record was mutated through the caller's pointer, site=%s", results[0].Site)
	}

	results[0].Site = "another-mutation"

	results2, err := store.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if results2[0].Site != "output" {
		t.Errorf("Stored record was mutated through a query result, site=%s", results2[0].Site)
	}
}

// BenchmarkMemory_Save benchmarks storing records.
func BenchmarkMemory_Save(b *testing.B) {
	store := NewMemory(10000)
	ctx := context.Background()

	rec := &trace.Record{
		ID:   "benchmark-record",
		Time: time.Now(),
		Site: "output",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(ctx, rec)
	}
}

// BenchmarkMemory_Query benchmarks querying a populated ring.
func BenchmarkMemory_Query(b *testing.B) {
	store := NewMemory(10000)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 1000; i++ {
		rec := &trace.Record{
			ID:   fmt.Sprintf("rec-%d", i),
			Time: now,
			Site: "output",
		}
		store.Save(ctx, rec)
	}

	filter := &trace.Filter{Site: "output", Limit: 100}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Query(ctx, filter)
	}
}
