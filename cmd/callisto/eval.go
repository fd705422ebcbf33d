package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"latent-hq/callisto/internal/sampling"
	"latent-hq/callisto/pkg/cli"
	"latent-hq/callisto/pkg/latent"
	"latent-hq/callisto/pkg/lrl/parser"
	"latent-hq/callisto/pkg/patch/engine"
	"latent-hq/callisto/pkg/patch/engine/source"
	"latent-hq/callisto/pkg/trace"
	"latent-hq/callisto/pkg/trace/recorder"
	"latent-hq/callisto/pkg/trace/storage"
)

var evalFlags struct {
	rules    []string
	site     string
	block    int
	steps    int
	width    int
	height   int
	channels int
	batch    int
	seed     uint64
	schedule string
	format   string
	traceDB  string
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate rules across a simulated sampling run",
	Long: `Evaluate rule files against a simulated sampling run.

The eval command loads rule documents, builds a noise schedule, and
invokes the engine once per step at a fixed hook site, the way a
sampling loop would. It reports which rules matched at each step and
how many operations ran, without needing a live model.

The tensor starts as unit gaussian noise and flows through every step,
so operations compound the way they do during real sampling.

Examples:
  # Probe the default output hook across a 30 step Karras schedule
  callisto eval --rules rules.yaml

  # Evaluate a different site and block
  callisto eval --rules rules.yaml --site input --block 2

  # Linear schedule, custom tensor shape
  callisto eval --rules rules.yaml --schedule linear --channels 640 --width 64 --height 64

  # Record every evaluation to a trace database
  callisto eval --rules rules.yaml --trace-db traces.db`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringSliceVarP(&evalFlags.rules, "rules", "r", nil, "rule files or directories (repeatable)")
	evalCmd.Flags().StringVar(&evalFlags.site, "site", engine.SiteOutput, "hook site to evaluate at")
	evalCmd.Flags().IntVar(&evalFlags.block, "block", 4, "block index for the hook site")
	evalCmd.Flags().IntVar(&evalFlags.steps, "steps", 30, "number of sampling steps")
	evalCmd.Flags().IntVar(&evalFlags.width, "width", 32, "tensor width")
	evalCmd.Flags().IntVar(&evalFlags.height, "height", 32, "tensor height")
	evalCmd.Flags().IntVar(&evalFlags.channels, "channels", 1280, "tensor channel count")
	evalCmd.Flags().IntVar(&evalFlags.batch, "batch", 2, "tensor batch size")
	evalCmd.Flags().Uint64Var(&evalFlags.seed, "seed", 1, "seed for the input tensor and noise operations")
	evalCmd.Flags().StringVar(&evalFlags.schedule, "schedule", "karras", "sigma schedule: karras, linear")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json")
	evalCmd.Flags().StringVar(&evalFlags.traceDB, "trace-db", "", "record evaluations to this SQLite database")
}

// EvalStep is the outcome of a single simulated step.
type EvalStep struct {
	Step    int     `json:"step"`
	Sigma   float64 `json:"sigma"`
	Percent float64 `json:"percent"`
	Matched int     `json:"matched"`
	Ops     int     `json:"ops"`
	Skipped bool    `json:"skipped,omitempty"`
}

// EvalReport is the full result of an eval run.
type EvalReport struct {
	Site         string     `json:"site"`
	Block        int        `json:"block"`
	Schedule     string     `json:"schedule"`
	Steps        int        `json:"steps"`
	SigmaMax     float64    `json:"sigma_max"`
	SigmaMin     float64    `json:"sigma_min"`
	Documents    int        `json:"documents"`
	Rules        int        `json:"rules"`
	Shape        [4]int     `json:"shape"`
	StepResults  []EvalStep `json:"step_results"`
	TotalMatched int        `json:"total_matched"`
	TotalOps     int        `json:"total_ops"`
	TotalSkipped int        `json:"total_skipped"`
	FinalMean    float64    `json:"final_mean"`
	FinalStd     float64    `json:"final_std"`
	FinalMin     float32    `json:"final_min"`
	FinalMax     float32    `json:"final_max"`
	Duration     string     `json:"duration"`
	TraceDB      string     `json:"trace_db,omitempty"`
	TraceRecords int64      `json:"trace_records,omitempty"`
}

func runEval(cmd *cobra.Command, args []string) error {
	if len(evalFlags.rules) == 0 {
		return fmt.Errorf("--rules must name at least one file or directory")
	}
	if evalFlags.steps <= 0 {
		return fmt.Errorf("--steps must be positive, got %d", evalFlags.steps)
	}
	if !knownSite(evalFlags.site) {
		return fmt.Errorf("unknown site %q (expected one of %v)", evalFlags.site, engine.KnownSites())
	}
	format, err := cli.ParseFormat(evalFlags.format)
	if err != nil {
		return err
	}

	logger := commandLogger()
	ctx := context.Background()

	// Sigma schedule from the discrete noise model
	model := sampling.NewDiscreteModel()
	var sigmas []float64
	switch evalFlags.schedule {
	case "karras":
		sigmas = sampling.Karras(evalFlags.steps, model.SigmaMin(), model.SigmaMax(), sampling.DefaultRho)
	case "linear":
		sigmas = sampling.Linear(evalFlags.steps, model.SigmaMin(), model.SigmaMax())
	default:
		return fmt.Errorf("unknown schedule %q (expected karras or linear)", evalFlags.schedule)
	}

	// Load rule documents
	src := source.NewFileSource(evalFlags.rules, logger).WithParser(parser.NewParser())
	named, err := src.Load(ctx)
	if err != nil {
		return cli.NewRuleError("eval", err)
	}
	docs := source.Documents(named)

	cfg := engine.DefaultConfig().
		WithSigmaModel(model.PercentToSigma).
		WithSchedule(sigmas).
		WithNoiseSeed(evalFlags.seed).
		WithLogger(logger)

	// Optional trace recording
	var (
		backend storage.Backend
		rec     *recorder.Recorder
	)
	if evalFlags.traceDB != "" {
		// The pure Go driver keeps the binary free of cgo.
		backend, err = storage.NewSQLite(&storage.SQLiteConfig{
			Path:   evalFlags.traceDB,
			Driver: storage.DriverPure,
		})
		if err != nil {
			return cli.NewCommandError("eval", fmt.Errorf("failed to open trace database: %w", err))
		}
		defer backend.Close()

		rec = recorder.New(backend, recorder.DefaultConfig())
		defer rec.Close()
		cfg.WithRecorder(rec)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return cli.NewCommandError("eval", fmt.Errorf("failed to create engine: %w", err))
	}
	defer eng.Close()

	if err := eng.Reload(docs...); err != nil {
		return cli.NewRuleError("eval", err)
	}

	report, err := simulateRun(ctx, eng, sigmas)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	report.Schedule = evalFlags.schedule
	report.Documents = len(docs)
	report.Rules = eng.Program().Len()

	if rec != nil {
		if err := rec.Flush(ctx); err != nil {
			logger.Warn("failed to flush trace records", "error", err)
		}
		report.TraceDB = evalFlags.traceDB
		if n, err := backend.Count(ctx, &trace.Filter{}); err == nil {
			report.TraceRecords = n
		}
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(os.Stdout, report)
	}
	printEvalText(report)
	return nil
}

// simulateRun drives the engine through one invocation per schedule
// step, reusing the tensor so operations compound across steps.
func simulateRun(ctx context.Context, eng *engine.Engine, sigmas []float64) (*EvalReport, error) {
	report := &EvalReport{
		Site:     evalFlags.site,
		Block:    evalFlags.block,
		Steps:    len(sigmas) - 1,
		SigmaMax: sigmas[0],
		SigmaMin: sigmas[len(sigmas)-2],
		Shape:    [4]int{evalFlags.batch, evalFlags.channels, evalFlags.height, evalFlags.width},
	}

	h, err := latent.New(evalFlags.batch, evalFlags.channels, evalFlags.height, evalFlags.width)
	if err != nil {
		return nil, fmt.Errorf("invalid tensor shape: %w", err)
	}
	fillGaussian(h, evalFlags.seed)

	start := time.Now()
	for i := 0; i < report.Steps; i++ {
		inv := &engine.Invocation{
			Site:     evalFlags.site,
			Block:    evalFlags.block,
			Sigma:    sigmas[i],
			SigmaMax: sigmas[0],
			H:        h,
		}
		if evalFlags.site == engine.SiteOutput {
			inv.HSP = h.Clone()
		}

		res, err := eng.Evaluate(ctx, inv)
		if err != nil {
			return nil, fmt.Errorf("evaluation failed at step %d: %w", i, err)
		}
		h = res.H

		report.StepResults = append(report.StepResults, EvalStep{
			Step:    i,
			Sigma:   sigmas[i],
			Percent: res.Percent,
			Matched: res.MatchedRules,
			Ops:     res.OpsApplied,
			Skipped: res.Skipped,
		})
		report.TotalMatched += res.MatchedRules
		report.TotalOps += res.OpsApplied
		if res.Skipped {
			report.TotalSkipped++
		}
	}
	report.Duration = time.Since(start).Round(time.Microsecond).String()

	// Statistics of the tensor after the last step. Operations that
	// drift the distribution away from unit gaussian show up here.
	report.FinalMean = h.Mean()
	report.FinalStd = h.Std()
	report.FinalMin, report.FinalMax = h.MinMax()

	return report, nil
}

func printEvalText(report *EvalReport) {
	fmt.Printf("Schedule: %s, %d steps (sigma %.4f to %.4f)\n",
		report.Schedule, report.Steps, report.SigmaMax, report.SigmaMin)
	fmt.Printf("Rules: %d document(s), %d rule(s)\n", report.Documents, report.Rules)
	fmt.Printf("Site: %s, block %d\n", report.Site, report.Block)
	fmt.Printf("Tensor: %dx%dx%dx%d\n", report.Shape[0], report.Shape[1], report.Shape[2], report.Shape[3])
	fmt.Println()

	fmt.Printf("%6s  %10s  %7s  %8s  %5s\n", "STEP", "SIGMA", "PCT", "MATCHED", "OPS")
	for _, step := range report.StepResults {
		if step.Skipped {
			fmt.Printf("%6d  %10.4f  %7s  %8s  %5s\n", step.Step, step.Sigma, "-", "skip", "-")
			continue
		}
		fmt.Printf("%6d  %10.4f  %6.1f%%  %8d  %5d\n",
			step.Step, step.Sigma, step.Percent*100, step.Matched, step.Ops)
	}

	fmt.Println()
	fmt.Printf("Totals: %d matched, %d ops applied, %d step(s) skipped in %s\n",
		report.TotalMatched, report.TotalOps, report.TotalSkipped, report.Duration)
	fmt.Printf("Final tensor: mean %.4f, std %.4f, range [%.4f, %.4f]\n",
		report.FinalMean, report.FinalStd, report.FinalMin, report.FinalMax)
	if report.TraceDB != "" {
		fmt.Printf("Traces: %d record(s) written to %s\n", report.TraceRecords, report.TraceDB)
	}
}

func knownSite(site string) bool {
	for _, s := range engine.KnownSites() {
		if s == site {
			return true
		}
	}
	return false
}

// commandLogger builds the slog logger subcommands share. Verbose
// lifts the level to debug; logs go to stderr so stdout stays
// parseable.
func commandLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if logFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
