package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := NewTestConfig().Build()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := New()
	cfg.Rules.Mode = "ftp"
	cfg.Trace.Backend = "redis"
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	if len(validationErr.Errors) < 3 {
		t.Errorf("expected at least 3 errors, got %d", len(validationErr.Errors))
	}

	// Verify error message includes multiple errors
	errMsg := validationErr.Error()
	if !strings.Contains(errMsg, "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", errMsg)
	}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name       string
		rules      RulesConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid file mode",
			rules: RulesConfig{
				Mode:     "file",
				Paths:    []string{"./rules.yaml"},
				Debounce: DefaultRulesDebounce,
			},
			wantError: false,
		},
		{
			name: "invalid mode",
			rules: RulesConfig{
				Mode:  "ftp",
				Paths: []string{"./rules.yaml"},
			},
			wantError:  true,
			errorField: "rules.mode",
		},
		{
			name: "file mode without paths",
			rules: RulesConfig{
				Mode: "file",
			},
			wantError:  true,
			errorField: "rules.paths",
		},
		{
			name: "negative debounce",
			rules: RulesConfig{
				Mode:     "file",
				Paths:    []string{"./rules.yaml"},
				Debounce: -time.Second,
			},
			wantError:  true,
			errorField: "rules.debounce",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateRules(&tt.rules)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_Git(t *testing.T) {
	validGit := GitRulesConfig{
		Enabled:    true,
		Repository: "https://github.com/example/patch-rules.git",
		Branch:     "main",
		Auth:       GitAuthConfig{Type: "none"},
		Poll:       GitPollConfig{Enabled: true, Interval: 30 * time.Second, Timeout: 10 * time.Second},
		Clone:      GitCloneConfig{Depth: 1},
	}

	tests := []struct {
		name       string
		mutate     func(*GitRulesConfig)
		wantError  bool
		errorField string
	}{
		{
			name:      "valid git config",
			mutate:    func(g *GitRulesConfig) {},
			wantError: false,
		},
		{
			name:       "missing repository",
			mutate:     func(g *GitRulesConfig) { g.Repository = "" },
			wantError:  true,
			errorField: "rules.git.repository",
		},
		{
			name:       "missing branch",
			mutate:     func(g *GitRulesConfig) { g.Branch = "" },
			wantError:  true,
			errorField: "rules.git.branch",
		},
		{
			name:       "invalid auth type",
			mutate:     func(g *GitRulesConfig) { g.Auth.Type = "kerberos" },
			wantError:  true,
			errorField: "rules.git.auth.type",
		},
		{
			name:       "token auth without token",
			mutate:     func(g *GitRulesConfig) { g.Auth.Type = "token" },
			wantError:  true,
			errorField: "rules.git.auth.token",
		},
		{
			name:       "ssh auth without key path",
			mutate:     func(g *GitRulesConfig) { g.Auth.Type = "ssh" },
			wantError:  true,
			errorField: "rules.git.auth.ssh_key_path",
		},
		{
			name:       "polling with zero interval",
			mutate:     func(g *GitRulesConfig) { g.Poll.Interval = 0 },
			wantError:  true,
			errorField: "rules.git.poll.interval",
		},
		{
			name:       "negative clone depth",
			mutate:     func(g *GitRulesConfig) { g.Clone.Depth = -1 },
			wantError:  true,
			errorField: "rules.git.clone.depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			git := validGit
			tt.mutate(&git)
			errs := validateGit(&git)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_Engine(t *testing.T) {
	tests := []struct {
		name       string
		engine     EngineConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid engine config",
			engine: EngineConfig{
				Resolution:  400,
				StageWidths: []int{1280, 640, 320},
			},
			wantError: false,
		},
		{
			name: "zero resolution",
			engine: EngineConfig{
				Resolution:  0,
				StageWidths: []int{1280, 640, 320},
			},
			wantError:  true,
			errorField: "engine.resolution",
		},
		{
			name: "excessive resolution",
			engine: EngineConfig{
				Resolution:  1000000,
				StageWidths: []int{1280, 640, 320},
			},
			wantError:  true,
			errorField: "engine.resolution",
		},
		{
			name: "empty stage widths",
			engine: EngineConfig{
				Resolution: 400,
			},
			wantError:  true,
			errorField: "engine.stage_widths",
		},
		{
			name: "nonpositive stage width",
			engine: EngineConfig{
				Resolution:  400,
				StageWidths: []int{1280, 0, 320},
			},
			wantError:  true,
			errorField: "engine.stage_widths[1]",
		},
		{
			name: "duplicate stage width",
			engine: EngineConfig{
				Resolution:  400,
				StageWidths: []int{1280, 640, 640},
			},
			wantError:  true,
			errorField: "engine.stage_widths[2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateEngine(&tt.engine)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_Trace(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*TraceConfig)
		wantError  bool
		errorField string
	}{
		{
			name:      "valid memory backend",
			mutate:    func(c *TraceConfig) {},
			wantError: false,
		},
		{
			name: "valid sqlite backend",
			mutate: func(c *TraceConfig) {
				c.Backend = "sqlite"
			},
			wantError: false,
		},
		{
			name:       "invalid backend",
			mutate:     func(c *TraceConfig) { c.Backend = "redis" },
			wantError:  true,
			errorField: "trace.backend",
		},
		{
			name:       "memory backend with zero capacity",
			mutate:     func(c *TraceConfig) { c.Memory.Capacity = 0 },
			wantError:  true,
			errorField: "trace.memory.capacity",
		},
		{
			name: "sqlite backend without path",
			mutate: func(c *TraceConfig) {
				c.Backend = "sqlite"
				c.SQLite.Path = ""
			},
			wantError:  true,
			errorField: "trace.sqlite.path",
		},
		{
			name: "sqlite backend with unknown driver",
			mutate: func(c *TraceConfig) {
				c.Backend = "sqlite"
				c.SQLite.Driver = "postgres"
			},
			wantError:  true,
			errorField: "trace.sqlite.driver",
		},
		{
			name:       "zero async buffer",
			mutate:     func(c *TraceConfig) { c.Recorder.AsyncBuffer = 0 },
			wantError:  true,
			errorField: "trace.recorder.async_buffer",
		},
		{
			name:       "negative retention days",
			mutate:     func(c *TraceConfig) { c.Retention.Days = -1 },
			wantError:  true,
			errorField: "trace.retention.days",
		},
		{
			name:       "malformed prune schedule",
			mutate:     func(c *TraceConfig) { c.Retention.PruneSchedule = "3am daily" },
			wantError:  true,
			errorField: "trace.retention.prune_schedule",
		},
		{
			name:       "six field prune schedule rejected",
			mutate:     func(c *TraceConfig) { c.Retention.PruneSchedule = "0 0 3 * * *" },
			wantError:  true,
			errorField: "trace.retention.prune_schedule",
		},
		{
			name: "max limit below default limit",
			mutate: func(c *TraceConfig) {
				c.Query.DefaultLimit = 500
				c.Query.MaxLimit = 100
			},
			wantError:  true,
			errorField: "trace.query.max_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace := New().Trace
			tt.mutate(&trace)
			errs := validateTrace(&trace)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_Telemetry(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*TelemetryConfig)
		wantError  bool
		errorField string
	}{
		{
			name:      "valid telemetry config",
			mutate:    func(c *TelemetryConfig) {},
			wantError: false,
		},
		{
			name:       "invalid logging level",
			mutate:     func(c *TelemetryConfig) { c.Logging.Level = "verbose" },
			wantError:  true,
			errorField: "telemetry.logging.level",
		},
		{
			name:       "invalid logging format",
			mutate:     func(c *TelemetryConfig) { c.Logging.Format = "xml" },
			wantError:  true,
			errorField: "telemetry.logging.format",
		},
		{
			name: "malformed redact pattern",
			mutate: func(c *TelemetryConfig) {
				c.Logging.RedactPatterns = []RedactPattern{
					{Name: "broken", Pattern: "([unclosed", Replacement: "***"},
				}
			},
			wantError:  true,
			errorField: "telemetry.logging.redact_patterns[0]",
		},
		{
			name:       "metrics path without leading slash",
			mutate:     func(c *TelemetryConfig) { c.Metrics.Path = "metrics" },
			wantError:  true,
			errorField: "telemetry.metrics.path",
		},
		{
			name:       "metrics port out of range",
			mutate:     func(c *TelemetryConfig) { c.Metrics.Port = 70000 },
			wantError:  true,
			errorField: "telemetry.metrics.port",
		},
		{
			name:       "invalid sampler",
			mutate:     func(c *TelemetryConfig) { c.Tracing.Sampler = "half" },
			wantError:  true,
			errorField: "telemetry.tracing.sampler",
		},
		{
			name: "tracing enabled without endpoint",
			mutate: func(c *TelemetryConfig) {
				c.Tracing.Enabled = true
				c.Tracing.Endpoint = ""
			},
			wantError:  true,
			errorField: "telemetry.tracing.endpoint",
		},
		{
			name:       "sample ratio above one",
			mutate:     func(c *TelemetryConfig) { c.Tracing.SampleRatio = 1.5 },
			wantError:  true,
			errorField: "telemetry.tracing.sample_ratio",
		},
		{
			name:       "liveness path without leading slash",
			mutate:     func(c *TelemetryConfig) { c.Health.LivenessPath = "health" },
			wantError:  true,
			errorField: "telemetry.health.liveness_path",
		},
		{
			name:       "excessive check timeout",
			mutate:     func(c *TelemetryConfig) { c.Health.CheckTimeout = 5 * time.Minute },
			wantError:  true,
			errorField: "telemetry.health.check_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel := New().Telemetry
			tt.mutate(&tel)
			errs := validateTelemetry(&tel)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

// checkFieldErrors asserts presence or absence of a FieldError for the
// given field path.
func checkFieldErrors(t *testing.T, errs []FieldError, wantError bool, errorField string) {
	t.Helper()

	if wantError && len(errs) == 0 {
		t.Error("expected validation error, got none")
	}
	if !wantError && len(errs) > 0 {
		t.Errorf("expected no validation error, got: %v", errs)
	}
	if wantError && len(errs) > 0 {
		found := false
		for _, err := range errs {
			if err.Field == errorField {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected error for field %q, got errors: %v", errorField, errs)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{
			name: "no errors",
			err:  ValidationError{},
			want: "configuration validation failed",
		},
		{
			name: "single error",
			err: ValidationError{Errors: []FieldError{
				{Field: "rules.mode", Message: "mode is required"},
			}},
			want: "configuration validation failed: rules.mode: mode is required",
		},
		{
			name: "multiple errors",
			err: ValidationError{Errors: []FieldError{
				{Field: "rules.mode", Message: "mode is required"},
				{Field: "trace.backend", Message: "backend is required"},
			}},
			want: "configuration validation failed with 2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if !strings.Contains(got, tt.want) {
				t.Errorf("expected error message containing %q, got %q", tt.want, got)
			}
		})
	}
}
