package main

import (
	"os"
	"path/filepath"
	"testing"

	"latent-hq/callisto/pkg/cli"
)

func resetLintFlags() {
	lintFlags.file = ""
	lintFlags.dir = ""
	lintFlags.strict = false
	lintFlags.format = "text"
	lintFlags.braces = false
}

func TestLintRulesValidFile(t *testing.T) {
	resetLintFlags()
	lintFlags.file = "testdata/valid-rules.yaml"

	err := lintRules(nil, []string{})
	if err != nil {
		t.Errorf("lintRules() with valid file returned error: %v", err)
	}
}

func TestLintRulesInvalidFile(t *testing.T) {
	resetLintFlags()
	lintFlags.file = "testdata/invalid-rules.yaml"

	err := lintRules(nil, []string{})
	if err == nil {
		t.Fatal("lintRules() with invalid file should return error")
	}
	if code := cli.ExitCode(err); code != cli.ExitBadRules {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitBadRules)
	}
}

func TestLintRulesNonexistentFile(t *testing.T) {
	resetLintFlags()
	lintFlags.file = "testdata/nonexistent.yaml"

	err := lintRules(nil, []string{})
	if err == nil {
		t.Error("lintRules() with nonexistent file should return error")
	}
}

func TestLintRulesNoFileOrDir(t *testing.T) {
	resetLintFlags()

	err := lintRules(nil, []string{})
	if err == nil {
		t.Error("lintRules() without file or dir should return error")
	}
}

func TestLintRulesJSONFormat(t *testing.T) {
	resetLintFlags()
	lintFlags.file = "testdata/valid-rules.yaml"
	lintFlags.format = "json"

	err := lintRules(nil, []string{})
	if err != nil {
		t.Errorf("lintRules() with JSON format returned error: %v", err)
	}
}

func TestLintRulesJSONFormatInvalid(t *testing.T) {
	resetLintFlags()
	lintFlags.file = "testdata/invalid-rules.yaml"
	lintFlags.format = "json"

	err := lintRules(nil, []string{})
	if code := cli.ExitCode(err); code != cli.ExitBadRules {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitBadRules)
	}
}

func TestValidateRuleFile(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantValid bool
		wantRules int
	}{
		{
			name:      "valid rules",
			file:      "testdata/valid-rules.yaml",
			wantValid: true,
			wantRules: 3,
		},
		{
			name:      "invalid rules",
			file:      "testdata/invalid-rules.yaml",
			wantValid: false,
		},
		{
			name:      "nonexistent file",
			file:      "testdata/nonexistent.yaml",
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetLintFlags()
			result := validateRuleFile(tt.file)
			if result.Valid != tt.wantValid {
				t.Errorf("validateRuleFile(%q).Valid = %v, want %v",
					tt.file, result.Valid, tt.wantValid)
			}
			if tt.wantValid && result.Rules != tt.wantRules {
				t.Errorf("validateRuleFile(%q).Rules = %d, want %d",
					tt.file, result.Rules, tt.wantRules)
			}
			if !tt.wantValid && len(result.Errors) == 0 {
				t.Error("invalid file should produce at least one error")
			}
		})
	}
}

func TestValidateRuleFileErrorLocations(t *testing.T) {
	resetLintFlags()

	result := validateRuleFile("testdata/invalid-rules.yaml")
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	// Both rules are broken; the validator reports each.
	if len(result.Errors) < 2 {
		t.Fatalf("got %d error(s), want at least 2", len(result.Errors))
	}
	for _, e := range result.Errors {
		if e.Severity != "error" {
			t.Errorf("Severity = %q, want %q", e.Severity, "error")
		}
	}
}

func TestLintRulesDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	data, err := os.ReadFile("testdata/valid-rules.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "valid.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	// Directory expansion covers the .lrl extension too.
	if err := os.WriteFile(filepath.Join(tmpDir, "extra.lrl"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	resetLintFlags()
	lintFlags.dir = tmpDir

	if err := lintRules(nil, []string{}); err != nil {
		t.Errorf("lintRules() with valid directory returned error: %v", err)
	}
}

func TestLintRulesEmptyDirectory(t *testing.T) {
	resetLintFlags()
	lintFlags.dir = t.TempDir()

	err := lintRules(nil, []string{})
	if err == nil {
		t.Error("lintRules() with empty directory should return error")
	}
}

func TestLintRulesStrictMode(t *testing.T) {
	tmpDir := t.TempDir()

	// An unknown rule key parses in relaxed mode and fails in strict mode.
	content := `- if:
    - ["type", "output"]
  ops:
    - ["multiply", 1.1]
  weight: 3
`
	file := filepath.Join(tmpDir, "unknown-key.yaml")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	resetLintFlags()
	lintFlags.file = file

	if err := lintRules(nil, []string{}); err != nil {
		t.Errorf("relaxed lint returned error: %v", err)
	}

	lintFlags.strict = true
	if err := lintRules(nil, []string{}); err == nil {
		t.Error("strict lint should reject unknown rule keys")
	}
}
