package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"latent-hq/callisto/pkg/cli"
	"latent-hq/callisto/pkg/config"
	"latent-hq/callisto/pkg/trace"
	"latent-hq/callisto/pkg/trace/storage"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect recorded evaluation traces",
	Long: `Inspect and manage recorded evaluation traces.

Traces are written by the engine's recorder during sampling and by
eval runs with --trace-db. Each record captures one evaluation: the
hook site, schedule position, matched rules, and duration.

Examples:
  # List recent traces from the configured backend
  callisto trace list

  # List traces from a specific database
  callisto trace list --db traces.db --limit 20

  # Filter by site and status
  callisto trace list --site output --status error

  # Delete traces older than 30 days, keep at most 10000
  callisto trace prune --older-than 720h --keep 10000`,
}

var traceListFlags struct {
	db        string
	run       string
	site      string
	block     string
	status    string
	minStep   int
	maxStep   int
	timeRange string
	limit     int
	offset    int
	sortBy    string
	sortOrder string
	format    string
	output    string
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded traces",
	Long: `List recorded evaluation traces with filtering and pagination.

Examples:
  # Most recent 50 traces
  callisto trace list

  # Traces for one sampling run
  callisto trace list --run 6b2a1f0e-...

  # Failed evaluations at the output site
  callisto trace list --site output --status error

  # Time window (RFC3339 start/end)
  callisto trace list --time-range "2026-08-25T00:00:00Z/2026-08-26T00:00:00Z"

  # Slowest evaluations first
  callisto trace list --sort duration --order desc --limit 10`,
	RunE: listTraces,
}

var tracePruneFlags struct {
	db        string
	olderThan time.Duration
	keep      int64
}

var tracePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old traces",
	Long: `Delete old trace records.

Prune runs in two phases: records older than --older-than are deleted
first, then the oldest surplus records beyond --keep. Either flag can
be used alone.

Examples:
  # Delete records older than 7 days
  callisto trace prune --older-than 168h

  # Keep only the most recent 1000 records
  callisto trace prune --keep 1000`,
	RunE: pruneTraces,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceListCmd)
	traceCmd.AddCommand(tracePruneCmd)

	traceListCmd.Flags().StringVar(&traceListFlags.db, "db", "", "SQLite database path (overrides config)")
	traceListCmd.Flags().StringVar(&traceListFlags.run, "run", "", "filter by run ID")
	traceListCmd.Flags().StringVar(&traceListFlags.site, "site", "", "filter by hook site")
	traceListCmd.Flags().StringVar(&traceListFlags.block, "block", "", "filter by block index (-1 for blockless sites)")
	traceListCmd.Flags().StringVar(&traceListFlags.status, "status", "", "filter by status: ok, skipped, error")
	traceListCmd.Flags().IntVar(&traceListFlags.minStep, "min-step", -1, "minimum schedule step")
	traceListCmd.Flags().IntVar(&traceListFlags.maxStep, "max-step", -1, "maximum schedule step")
	traceListCmd.Flags().StringVar(&traceListFlags.timeRange, "time-range", "", "time range (RFC3339 start/end)")
	traceListCmd.Flags().IntVar(&traceListFlags.limit, "limit", 50, "maximum records to return")
	traceListCmd.Flags().IntVar(&traceListFlags.offset, "offset", 0, "records to skip")
	traceListCmd.Flags().StringVar(&traceListFlags.sortBy, "sort", "time", "sort field: time, step, duration")
	traceListCmd.Flags().StringVar(&traceListFlags.sortOrder, "order", "desc", "sort order: asc, desc")
	traceListCmd.Flags().StringVar(&traceListFlags.format, "format", "text", "output format: text, json")
	traceListCmd.Flags().StringVar(&traceListFlags.output, "output", "", "write output to file instead of stdout")

	tracePruneCmd.Flags().StringVar(&tracePruneFlags.db, "db", "", "SQLite database path (overrides config)")
	tracePruneCmd.Flags().DurationVar(&tracePruneFlags.olderThan, "older-than", 0, "delete records older than this duration")
	tracePruneCmd.Flags().Int64Var(&tracePruneFlags.keep, "keep", 0, "keep at most this many records")
}

// openTraceBackend opens the backend named by --db, falling back to
// the configured trace backend when the flag is empty. The --db path
// uses the pure Go driver, matching what eval --trace-db writes.
func openTraceBackend(db string) (storage.Backend, error) {
	if db != "" {
		return storage.NewSQLite(&storage.SQLiteConfig{
			Path:   db,
			Driver: storage.DriverPure,
		})
	}

	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	return storage.Open(&cfg.Trace)
}

func listTraces(cmd *cobra.Command, args []string) error {
	filter, err := buildTraceFilter()
	if err != nil {
		return err
	}

	backend, err := openTraceBackend(traceListFlags.db)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := context.Background()
	records, err := backend.Query(ctx, filter)
	if err != nil {
		return cli.NewCommandError("trace", fmt.Errorf("query failed: %w", err))
	}
	total, err := backend.Count(ctx, filter)
	if err != nil {
		return cli.NewCommandError("trace", fmt.Errorf("count failed: %w", err))
	}

	output := os.Stdout
	if traceListFlags.output != "" {
		output, err = os.Create(traceListFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if traceListFlags.format == "json" {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}
	return outputTraceText(output, records, total)
}

func buildTraceFilter() (*trace.Filter, error) {
	filter := &trace.Filter{
		RunID:     traceListFlags.run,
		Site:      traceListFlags.site,
		Status:    traceListFlags.status,
		Limit:     traceListFlags.limit,
		Offset:    traceListFlags.offset,
		SortBy:    traceListFlags.sortBy,
		SortOrder: traceListFlags.sortOrder,
	}

	switch traceListFlags.status {
	case "", trace.StatusOK, trace.StatusSkipped, trace.StatusError:
	default:
		return nil, fmt.Errorf("unknown status %q (expected ok, skipped or error)", traceListFlags.status)
	}

	if traceListFlags.block != "" {
		block, err := strconv.Atoi(traceListFlags.block)
		if err != nil {
			return nil, fmt.Errorf("invalid block %q: %w", traceListFlags.block, err)
		}
		filter.Block = &block
	}

	if traceListFlags.minStep >= 0 {
		min := traceListFlags.minStep
		filter.MinStep = &min
	}
	if traceListFlags.maxStep >= 0 {
		max := traceListFlags.maxStep
		filter.MaxStep = &max
	}

	if traceListFlags.timeRange != "" {
		parts := strings.Split(traceListFlags.timeRange, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid time range format (expected: start/end)")
		}

		start, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start time: %w", err)
		}
		filter.Start = &start

		end, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
		filter.End = &end
	}

	return filter, nil
}

func outputTraceText(output *os.File, records []*trace.Record, total int64) error {
	fmt.Fprintf(output, "Showing %d of %d record(s)\n", len(records), total)
	fmt.Fprintln(output)

	if len(records) == 0 {
		fmt.Fprintln(output, "No records found.")
		return nil
	}

	fmt.Fprintf(output, "%-24s  %-16s  %5s  %5s  %7s  %7s  %4s  %-7s  %10s\n",
		"TIME", "SITE", "BLOCK", "STEP", "PCT", "MATCHED", "OPS", "STATUS", "DURATION")
	for _, rec := range records {
		fmt.Fprintf(output, "%-24s  %-16s  %5d  %5d  %6.1f%%  %7d  %4d  %-7s  %10s\n",
			rec.Time.Format("2006-01-02T15:04:05.000"),
			rec.Site, rec.Block, rec.Step, rec.Percent*100,
			rec.MatchedRules, rec.OpsApplied,
			recordStatus(rec),
			rec.Duration.Round(time.Microsecond))
	}

	return nil
}

func recordStatus(rec *trace.Record) string {
	switch {
	case rec.Error != "":
		return trace.StatusError
	case rec.Skipped:
		return trace.StatusSkipped
	default:
		return trace.StatusOK
	}
}

func pruneTraces(cmd *cobra.Command, args []string) error {
	if tracePruneFlags.olderThan <= 0 && tracePruneFlags.keep <= 0 {
		return fmt.Errorf("at least one of --older-than or --keep must be set")
	}

	backend, err := openTraceBackend(tracePruneFlags.db)
	if err != nil {
		return err
	}
	defer backend.Close()

	var cutoff time.Time
	if tracePruneFlags.olderThan > 0 {
		cutoff = time.Now().Add(-tracePruneFlags.olderThan)
	}

	deleted, err := backend.Prune(context.Background(), cutoff, tracePruneFlags.keep)
	if err != nil {
		return cli.NewCommandError("trace", fmt.Errorf("prune failed: %w", err))
	}

	fmt.Printf("Deleted %d trace record(s)\n", deleted)
	return nil
}
