package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"latent-hq/callisto/internal/sampling"
	"latent-hq/callisto/pkg/cli"
	"latent-hq/callisto/pkg/latent"
	"latent-hq/callisto/pkg/patch/engine"
	"latent-hq/callisto/pkg/patch/engine/source"
	"latent-hq/callisto/pkg/trace"
	"latent-hq/callisto/pkg/trace/storage"
)

func resetEvalFlags() {
	evalFlags.rules = nil
	evalFlags.site = engine.SiteOutput
	evalFlags.block = 4
	evalFlags.steps = 6
	evalFlags.width = 8
	evalFlags.height = 8
	evalFlags.channels = 1280
	evalFlags.batch = 1
	evalFlags.seed = 1
	evalFlags.schedule = "karras"
	evalFlags.format = "text"
	evalFlags.traceDB = ""
}

func TestRunEvalNoRules(t *testing.T) {
	resetEvalFlags()

	err := runEval(nil, []string{})
	if err == nil {
		t.Error("runEval() without rules should return error")
	}
}

func TestRunEvalUnknownSite(t *testing.T) {
	resetEvalFlags()
	evalFlags.rules = []string{"testdata/valid-rules.yaml"}
	evalFlags.site = "sidechain"

	err := runEval(nil, []string{})
	if err == nil || !strings.Contains(err.Error(), "unknown site") {
		t.Errorf("runEval() with unknown site = %v, want unknown site error", err)
	}
}

func TestRunEvalUnknownSchedule(t *testing.T) {
	resetEvalFlags()
	evalFlags.rules = []string{"testdata/valid-rules.yaml"}
	evalFlags.schedule = "cosine"

	err := runEval(nil, []string{})
	if err == nil || !strings.Contains(err.Error(), "unknown schedule") {
		t.Errorf("runEval() with unknown schedule = %v, want unknown schedule error", err)
	}
}

func TestRunEvalBadFormat(t *testing.T) {
	resetEvalFlags()
	evalFlags.rules = []string{"testdata/valid-rules.yaml"}
	evalFlags.format = "xml"

	err := runEval(nil, []string{})
	if err == nil {
		t.Error("runEval() with unknown format should return error")
	}
}

func TestRunEvalValidRules(t *testing.T) {
	resetEvalFlags()
	evalFlags.rules = []string{"testdata/valid-rules.yaml"}

	if err := runEval(nil, []string{}); err != nil {
		t.Errorf("runEval() with valid rules returned error: %v", err)
	}
}

func TestRunEvalJSONFormat(t *testing.T) {
	resetEvalFlags()
	evalFlags.rules = []string{"testdata/valid-rules.yaml"}
	evalFlags.format = "json"
	evalFlags.schedule = "linear"

	if err := runEval(nil, []string{}); err != nil {
		t.Errorf("runEval() with JSON format returned error: %v", err)
	}
}

func TestRunEvalBadRulesExitCode(t *testing.T) {
	resetEvalFlags()
	evalFlags.rules = []string{"testdata/invalid-rules.yaml"}

	err := runEval(nil, []string{})
	if err == nil {
		t.Fatal("runEval() with invalid rules should return error")
	}
	if code := cli.ExitCode(err); code != cli.ExitBadRules {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitBadRules)
	}
}

func TestSimulateRun(t *testing.T) {
	resetEvalFlags()

	model := sampling.NewDiscreteModel()
	sigmas := sampling.Karras(evalFlags.steps, model.SigmaMin(), model.SigmaMax(), sampling.DefaultRho)

	eng, err := engine.New(engine.DefaultConfig().
		WithSigmaModel(model.PercentToSigma).
		WithSchedule(sigmas).
		WithNoiseSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eng.Close() })

	// Matches every step: no percent window, schedule sigmas stay in range.
	src, err := source.NewMemorySourceFromText("test", `- if:
    - ["type", "output"]
    - ["block", 4]
  ops:
    - ["multiply", 1.1]
`)
	if err != nil {
		t.Fatal(err)
	}
	named, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Reload(source.Documents(named)...); err != nil {
		t.Fatal(err)
	}

	report, err := simulateRun(context.Background(), eng, sigmas)
	if err != nil {
		t.Fatalf("simulateRun() error: %v", err)
	}

	if len(report.StepResults) != evalFlags.steps {
		t.Fatalf("len(StepResults) = %d, want %d", len(report.StepResults), evalFlags.steps)
	}
	if report.TotalMatched != evalFlags.steps {
		t.Errorf("TotalMatched = %d, want %d", report.TotalMatched, evalFlags.steps)
	}
	if report.TotalOps != evalFlags.steps {
		t.Errorf("TotalOps = %d, want %d", report.TotalOps, evalFlags.steps)
	}
	if report.TotalSkipped != 0 {
		t.Errorf("TotalSkipped = %d, want 0", report.TotalSkipped)
	}

	// Sigma decreases across the schedule, so percent never moves backwards.
	for i := 1; i < len(report.StepResults); i++ {
		prev, cur := report.StepResults[i-1], report.StepResults[i]
		if cur.Percent < prev.Percent {
			t.Errorf("step %d percent %.4f < step %d percent %.4f",
				cur.Step, cur.Percent, prev.Step, prev.Percent)
		}
	}

	// Gaussian input scaled by 1.1 each step stays spread out.
	if report.FinalStd <= 0 {
		t.Errorf("FinalStd = %v, want positive", report.FinalStd)
	}
	if report.FinalMin >= report.FinalMax {
		t.Errorf("FinalMin %v not below FinalMax %v", report.FinalMin, report.FinalMax)
	}
}

func TestRunEvalTraceDB(t *testing.T) {
	resetEvalFlags()
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	evalFlags.rules = []string{"testdata/valid-rules.yaml"}
	evalFlags.traceDB = dbPath

	if err := runEval(nil, []string{}); err != nil {
		t.Fatalf("runEval() with trace db returned error: %v", err)
	}

	backend, err := storage.NewSQLite(&storage.SQLiteConfig{
		Path:   dbPath,
		Driver: storage.DriverPure,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	ctx := context.Background()
	count, err := backend.Count(ctx, &trace.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if count != int64(evalFlags.steps) {
		t.Errorf("trace count = %d, want %d", count, evalFlags.steps)
	}

	records, err := backend.Query(ctx, &trace.Filter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Site != engine.SiteOutput {
		t.Errorf("Site = %q, want %q", records[0].Site, engine.SiteOutput)
	}
	if records[0].Block != 4 {
		t.Errorf("Block = %d, want 4", records[0].Block)
	}
}

func TestKnownSite(t *testing.T) {
	for _, site := range engine.KnownSites() {
		if !knownSite(site) {
			t.Errorf("knownSite(%q) = false, want true", site)
		}
	}
	if knownSite("sidechain") {
		t.Error(`knownSite("sidechain") = true, want false`)
	}
}

func TestFillGaussianDeterministic(t *testing.T) {
	a := latent.MustNew(1, 4, 8, 8)
	b := latent.MustNew(1, 4, 8, 8)
	fillGaussian(a, 7)
	fillGaussian(b, 7)

	for i, v := range a.Data() {
		if b.Data()[i] != v {
			t.Fatalf("same seed diverged at %d: %v != %v", i, v, b.Data()[i])
		}
	}

	c := latent.MustNew(1, 4, 8, 8)
	fillGaussian(c, 8)
	same := true
	for i, v := range a.Data() {
		if c.Data()[i] != v {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical tensors")
	}
}
