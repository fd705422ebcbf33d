package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"latent-hq/callisto/internal/sampling"
	"latent-hq/callisto/pkg/cli"
	"latent-hq/callisto/pkg/latent"
	"latent-hq/callisto/pkg/lrl/parser"
	"latent-hq/callisto/pkg/patch/engine"
	"latent-hq/callisto/pkg/patch/engine/source"
)

var benchFlags struct {
	rules      []string
	site       string
	block      int
	steps      int
	width      int
	height     int
	channels   int
	batch      int
	warmup     int
	iterations int
	seed       uint64
	format     string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure rule evaluation latency",
	Long: `Measure rule evaluation latency against real tensors.

The bench command loads rule documents, builds an engine, and times
repeated evaluations at a fixed hook site. Each iteration clones the
input tensor so operations never compound; the sigma walks the
schedule so step and percent conditions fire the way they would
during sampling.

Metrics Collected:
  - Evaluation throughput (evals/sec)
  - Latency percentiles (min, mean, median, p95, p99, max)
  - Rule match counts across the run

Examples:
  # Benchmark with defaults (1000 iterations, 100 warmup)
  callisto bench --rules rules.yaml

  # Larger tensors, more iterations
  callisto bench --rules rules.yaml --width 64 --height 64 --iterations 5000

  # JSON output for tracking over time
  callisto bench --rules rules.yaml --format json`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringSliceVarP(&benchFlags.rules, "rules", "r", nil, "rule files or directories (repeatable)")
	benchCmd.Flags().StringVar(&benchFlags.site, "site", engine.SiteOutput, "hook site to evaluate at")
	benchCmd.Flags().IntVar(&benchFlags.block, "block", 4, "block index for the hook site")
	benchCmd.Flags().IntVar(&benchFlags.steps, "steps", 30, "schedule length for step conditions")
	benchCmd.Flags().IntVar(&benchFlags.width, "width", 32, "tensor width")
	benchCmd.Flags().IntVar(&benchFlags.height, "height", 32, "tensor height")
	benchCmd.Flags().IntVar(&benchFlags.channels, "channels", 1280, "tensor channel count")
	benchCmd.Flags().IntVar(&benchFlags.batch, "batch", 2, "tensor batch size")
	benchCmd.Flags().IntVar(&benchFlags.warmup, "warmup", 100, "warmup iterations before timing")
	benchCmd.Flags().IntVar(&benchFlags.iterations, "iterations", 1000, "timed iterations")
	benchCmd.Flags().Uint64Var(&benchFlags.seed, "seed", 1, "seed for the input tensor and noise operations")
	benchCmd.Flags().StringVar(&benchFlags.format, "format", "text", "output format: text, json")
}

// BenchReport is the result of a bench run.
type BenchReport struct {
	Iterations   int     `json:"iterations"`
	Warmup       int     `json:"warmup"`
	Site         string  `json:"site"`
	Block        int     `json:"block"`
	Rules        int     `json:"rules"`
	Shape        [4]int  `json:"shape"`
	Duration     string  `json:"duration"`
	Throughput   float64 `json:"throughput_evals_per_sec"`
	TotalMatched int     `json:"total_matched"`
	TotalOps     int     `json:"total_ops"`

	LatencyMin    string `json:"latency_min"`
	LatencyMean   string `json:"latency_mean"`
	LatencyMedian string `json:"latency_median"`
	LatencyP95    string `json:"latency_p95"`
	LatencyP99    string `json:"latency_p99"`
	LatencyMax    string `json:"latency_max"`
}

func runBench(cmd *cobra.Command, args []string) error {
	if len(benchFlags.rules) == 0 {
		return fmt.Errorf("--rules must name at least one file or directory")
	}
	if benchFlags.iterations <= 0 {
		return fmt.Errorf("--iterations must be positive, got %d", benchFlags.iterations)
	}
	if benchFlags.warmup < 0 {
		return fmt.Errorf("--warmup cannot be negative, got %d", benchFlags.warmup)
	}
	if !knownSite(benchFlags.site) {
		return fmt.Errorf("unknown site %q (expected one of %v)", benchFlags.site, engine.KnownSites())
	}
	format, err := cli.ParseFormat(benchFlags.format)
	if err != nil {
		return err
	}

	logger := commandLogger()
	ctx := context.Background()

	model := sampling.NewDiscreteModel()
	sigmas := sampling.Karras(benchFlags.steps, model.SigmaMin(), model.SigmaMax(), sampling.DefaultRho)

	src := source.NewFileSource(benchFlags.rules, logger).WithParser(parser.NewParser())
	named, err := src.Load(ctx)
	if err != nil {
		return cli.NewRuleError("bench", err)
	}

	eng, err := engine.New(engine.DefaultConfig().
		WithSigmaModel(model.PercentToSigma).
		WithSchedule(sigmas).
		WithNoiseSeed(benchFlags.seed).
		WithLogger(logger))
	if err != nil {
		return cli.NewCommandError("bench", fmt.Errorf("failed to create engine: %w", err))
	}
	defer eng.Close()

	if err := eng.Reload(source.Documents(named)...); err != nil {
		return cli.NewRuleError("bench", err)
	}

	if format == cli.FormatText {
		fmt.Println("Callisto Benchmark")
		fmt.Println("==================")
		fmt.Printf("Rules: %d rule(s) from %d document(s)\n", eng.Program().Len(), len(named))
		fmt.Printf("Site: %s, block %d\n", benchFlags.site, benchFlags.block)
		fmt.Printf("Tensor: %dx%dx%dx%d\n",
			benchFlags.batch, benchFlags.channels, benchFlags.height, benchFlags.width)
		fmt.Printf("Iterations: %d (+%d warmup)\n", benchFlags.iterations, benchFlags.warmup)
		fmt.Println()
		fmt.Println("Running...")
	}

	report, err := runBenchLoop(ctx, eng, sigmas)
	if err != nil {
		return cli.NewCommandError("bench", err)
	}
	report.Rules = eng.Program().Len()

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(os.Stdout, report)
	}
	displayBenchResults(report)
	return nil
}

// runBenchLoop runs the warmup and timed evaluation loops. The sigma
// walks the schedule cyclically so the timed mix covers every step.
func runBenchLoop(ctx context.Context, eng *engine.Engine, sigmas []float64) (*BenchReport, error) {
	report := &BenchReport{
		Iterations: benchFlags.iterations,
		Warmup:     benchFlags.warmup,
		Site:       benchFlags.site,
		Block:      benchFlags.block,
		Shape:      [4]int{benchFlags.batch, benchFlags.channels, benchFlags.height, benchFlags.width},
	}

	base, err := latent.New(benchFlags.batch, benchFlags.channels, benchFlags.height, benchFlags.width)
	if err != nil {
		return nil, fmt.Errorf("invalid tensor shape: %w", err)
	}
	fillGaussian(base, benchFlags.seed)

	steps := len(sigmas) - 1
	invocation := func(i int) *engine.Invocation {
		inv := &engine.Invocation{
			Site:     benchFlags.site,
			Block:    benchFlags.block,
			Sigma:    sigmas[i%steps],
			SigmaMax: sigmas[0],
			H:        base.Clone(),
		}
		if benchFlags.site == engine.SiteOutput {
			inv.HSP = base.Clone()
		}
		return inv
	}

	for i := 0; i < benchFlags.warmup; i++ {
		if _, err := eng.Evaluate(ctx, invocation(i)); err != nil {
			return nil, fmt.Errorf("warmup evaluation failed: %w", err)
		}
	}

	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(benchFlags.iterations))

	latencies := make([]time.Duration, 0, benchFlags.iterations)
	start := time.Now()
	for i := 0; i < benchFlags.iterations; i++ {
		res, err := eng.Evaluate(ctx, invocation(i))
		if err != nil {
			progress.Error(err)
			return nil, fmt.Errorf("evaluation failed at iteration %d: %w", i, err)
		}
		latencies = append(latencies, res.Duration)
		report.TotalMatched += res.MatchedRules
		report.TotalOps += res.OpsApplied
		progress.Update(int64(i + 1))
	}
	progress.Finish()

	elapsed := time.Since(start)
	report.Duration = elapsed.Round(time.Millisecond).String()
	report.Throughput = float64(benchFlags.iterations) / elapsed.Seconds()

	min, mean, median, p95, p99, max := latencyPercentiles(latencies)
	report.LatencyMin = min.Round(time.Microsecond).String()
	report.LatencyMean = mean.Round(time.Microsecond).String()
	report.LatencyMedian = median.Round(time.Microsecond).String()
	report.LatencyP95 = p95.Round(time.Microsecond).String()
	report.LatencyP99 = p99.Round(time.Microsecond).String()
	report.LatencyMax = max.Round(time.Microsecond).String()

	return report, nil
}

func displayBenchResults(report *BenchReport) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Println("--------")
	fmt.Printf("Evaluations:     %d\n", report.Iterations)
	fmt.Printf("Duration:        %s\n", report.Duration)
	fmt.Printf("Throughput:      %.1f evals/s\n", report.Throughput)
	fmt.Printf("Matched:         %d rule(s), %d op(s) applied\n", report.TotalMatched, report.TotalOps)

	fmt.Println()
	fmt.Println("Latency:")
	fmt.Printf("  Min:     %s\n", report.LatencyMin)
	fmt.Printf("  Mean:    %s\n", report.LatencyMean)
	fmt.Printf("  Median:  %s\n", report.LatencyMedian)
	fmt.Printf("  p95:     %s\n", report.LatencyP95)
	fmt.Printf("  p99:     %s\n", report.LatencyP99)
	fmt.Printf("  Max:     %s\n", report.LatencyMax)

	if report.TotalMatched == 0 {
		fmt.Println()
		fmt.Println("Note: no rules matched; the numbers above measure condition")
		fmt.Println("evaluation only. Check --site and --block against the rules.")
	}
}

func latencyPercentiles(latencies []time.Duration) (min, mean, median, p95, p99, max time.Duration) {
	if len(latencies) == 0 {
		return
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	min = sorted[0]
	max = sorted[len(sorted)-1]

	var sum time.Duration
	for _, lat := range sorted {
		sum += lat
	}
	mean = sum / time.Duration(len(sorted))

	median = sorted[len(sorted)/2]
	p95 = sorted[percentileIndex(len(sorted), 0.95)]
	p99 = sorted[percentileIndex(len(sorted), 0.99)]

	return
}

// percentileIndex clamps so small samples never index past the end.
func percentileIndex(n int, pct float64) int {
	idx := int(float64(n) * pct)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// fillGaussian fills t with unit gaussian noise, the shape real
// latents have at the start of sampling.
func fillGaussian(t *latent.Tensor, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, 0))
	latent.AddNoise(t, rng, 1.0)
}
