package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"latent-hq/callisto/pkg/trace"
	"latent-hq/callisto/pkg/trace/storage"
)

func resetTraceListFlags() {
	traceListFlags.db = ""
	traceListFlags.run = ""
	traceListFlags.site = ""
	traceListFlags.block = ""
	traceListFlags.status = ""
	traceListFlags.minStep = -1
	traceListFlags.maxStep = -1
	traceListFlags.timeRange = ""
	traceListFlags.limit = 50
	traceListFlags.offset = 0
	traceListFlags.sortBy = "time"
	traceListFlags.sortOrder = "desc"
	traceListFlags.format = "text"
	traceListFlags.output = ""
}

func resetTracePruneFlags() {
	tracePruneFlags.db = ""
	tracePruneFlags.olderThan = 0
	tracePruneFlags.keep = 0
}

// seedTraceDB writes n alternating output/middle records, one minute
// apart and ending at now.
func seedTraceDB(t *testing.T, path string, n int) {
	t.Helper()

	backend, err := storage.NewSQLite(&storage.SQLiteConfig{
		Path:   path,
		Driver: storage.DriverPure,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	ctx := context.Background()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		rec := &trace.Record{
			ID:           fmt.Sprintf("rec-%03d", i),
			RunID:        "run-a",
			Time:         base.Add(time.Duration(i+1) * time.Minute),
			Site:         "output",
			Block:        4,
			Step:         i,
			Percent:      float64(i) / float64(n),
			MatchedRules: 1,
			OpsApplied:   1,
			Duration:     time.Duration(i+1) * 100 * time.Microsecond,
		}
		if i%2 == 1 {
			rec.Site = "middle"
			rec.Block = -1
		}
		if err := backend.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildTraceFilter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		resetTraceListFlags()

		filter, err := buildTraceFilter()
		if err != nil {
			t.Fatalf("buildTraceFilter() error: %v", err)
		}
		if filter.Limit != 50 {
			t.Errorf("Limit = %d, want 50", filter.Limit)
		}
		if filter.Block != nil || filter.MinStep != nil || filter.MaxStep != nil {
			t.Error("unset numeric flags should leave filter pointers nil")
		}
		if filter.Start != nil || filter.End != nil {
			t.Error("unset time range should leave Start and End nil")
		}
	})

	t.Run("block and steps", func(t *testing.T) {
		resetTraceListFlags()
		traceListFlags.block = "-1"
		traceListFlags.minStep = 5
		traceListFlags.maxStep = 20

		filter, err := buildTraceFilter()
		if err != nil {
			t.Fatalf("buildTraceFilter() error: %v", err)
		}
		if filter.Block == nil || *filter.Block != -1 {
			t.Errorf("Block = %v, want -1", filter.Block)
		}
		if filter.MinStep == nil || *filter.MinStep != 5 {
			t.Errorf("MinStep = %v, want 5", filter.MinStep)
		}
		if filter.MaxStep == nil || *filter.MaxStep != 20 {
			t.Errorf("MaxStep = %v, want 20", filter.MaxStep)
		}
	})

	t.Run("bad block", func(t *testing.T) {
		resetTraceListFlags()
		traceListFlags.block = "four"

		if _, err := buildTraceFilter(); err == nil {
			t.Error("non-numeric block should return error")
		}
	})

	t.Run("bad status", func(t *testing.T) {
		resetTraceListFlags()
		traceListFlags.status = "pending"

		if _, err := buildTraceFilter(); err == nil {
			t.Error("unknown status should return error")
		}
	})

	t.Run("time range", func(t *testing.T) {
		resetTraceListFlags()
		traceListFlags.timeRange = "2026-08-25T00:00:00Z/2026-08-26T00:00:00Z"

		filter, err := buildTraceFilter()
		if err != nil {
			t.Fatalf("buildTraceFilter() error: %v", err)
		}
		if filter.Start == nil || filter.End == nil {
			t.Fatal("time range should set Start and End")
		}
		if !filter.End.After(*filter.Start) {
			t.Error("End should be after Start")
		}
	})

	t.Run("bad time range", func(t *testing.T) {
		resetTraceListFlags()
		traceListFlags.timeRange = "yesterday"

		if _, err := buildTraceFilter(); err == nil {
			t.Error("malformed time range should return error")
		}
	})
}

func TestListTracesText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	seedTraceDB(t, dbPath, 5)

	outPath := filepath.Join(t.TempDir(), "out.txt")
	resetTraceListFlags()
	traceListFlags.db = dbPath
	traceListFlags.output = outPath

	if err := listTraces(nil, []string{}); err != nil {
		t.Fatalf("listTraces() error: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Showing 5 of 5 record(s)") {
		t.Errorf("output missing record summary:\n%s", data)
	}
	if !strings.Contains(string(data), "output") || !strings.Contains(string(data), "middle") {
		t.Errorf("output missing site columns:\n%s", data)
	}
}

func TestListTracesJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	seedTraceDB(t, dbPath, 5)

	outPath := filepath.Join(t.TempDir(), "out.json")
	resetTraceListFlags()
	traceListFlags.db = dbPath
	traceListFlags.format = "json"
	traceListFlags.output = outPath

	if err := listTraces(nil, []string{}); err != nil {
		t.Fatalf("listTraces() error: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var records []*trace.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("len(records) = %d, want 5", len(records))
	}
}

func TestListTracesSiteFilter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	seedTraceDB(t, dbPath, 6)

	outPath := filepath.Join(t.TempDir(), "out.json")
	resetTraceListFlags()
	traceListFlags.db = dbPath
	traceListFlags.site = "middle"
	traceListFlags.format = "json"
	traceListFlags.output = outPath

	if err := listTraces(nil, []string{}); err != nil {
		t.Fatalf("listTraces() error: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var records []*trace.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	for _, rec := range records {
		if rec.Site != "middle" {
			t.Errorf("Site = %q, want %q", rec.Site, "middle")
		}
	}
}

func TestListTracesEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	seedTraceDB(t, dbPath, 0)

	outPath := filepath.Join(t.TempDir(), "out.txt")
	resetTraceListFlags()
	traceListFlags.db = dbPath
	traceListFlags.output = outPath

	if err := listTraces(nil, []string{}); err != nil {
		t.Fatalf("listTraces() error: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "No records found.") {
		t.Errorf("empty listing should say no records found:\n%s", data)
	}
}

func TestPruneTracesNoFlags(t *testing.T) {
	resetTracePruneFlags()

	err := pruneTraces(nil, []string{})
	if err == nil {
		t.Error("pruneTraces() without flags should return error")
	}
}

func TestPruneTracesKeep(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	seedTraceDB(t, dbPath, 10)

	resetTracePruneFlags()
	tracePruneFlags.db = dbPath
	tracePruneFlags.keep = 4

	if err := pruneTraces(nil, []string{}); err != nil {
		t.Fatalf("pruneTraces() error: %v", err)
	}

	backend, err := storage.NewSQLite(&storage.SQLiteConfig{
		Path:   dbPath,
		Driver: storage.DriverPure,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	count, err := backend.Count(context.Background(), &trace.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("count after prune = %d, want 4", count)
	}
}

func TestPruneTracesOlderThan(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	// Ten records ending now, one minute apart. A 4m30s cutoff keeps
	// the newest five.
	seedTraceDB(t, dbPath, 10)

	resetTracePruneFlags()
	tracePruneFlags.db = dbPath
	tracePruneFlags.olderThan = 4*time.Minute + 30*time.Second

	if err := pruneTraces(nil, []string{}); err != nil {
		t.Fatalf("pruneTraces() error: %v", err)
	}

	backend, err := storage.NewSQLite(&storage.SQLiteConfig{
		Path:   dbPath,
		Driver: storage.DriverPure,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	count, err := backend.Count(context.Background(), &trace.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("count after prune = %d, want 5", count)
	}
}
