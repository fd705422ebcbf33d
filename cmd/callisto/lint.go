package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"latent-hq/callisto/pkg/cli"
	lrlErrors "latent-hq/callisto/pkg/lrl/errors"
	"latent-hq/callisto/pkg/lrl/parser"
	"latent-hq/callisto/pkg/lrl/validator"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
	braces bool
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule files",
	Long: `Validate rule files for syntax and semantic errors.

The lint command parses rule documents and performs comprehensive
validation:
  - YAML syntax validation
  - Rule structure validation
  - Condition validation (field names, comparison operators, ranges)
  - Operation validation (kinds, arity, argument types)

Examples:
  # Lint single file
  callisto lint --file rules.yaml

  # Lint directory
  callisto lint --dir rules/

  # Strict mode (unknown rule keys become errors)
  callisto lint --file rules.yaml --strict

  # Files using {N} brace shorthand in block lists
  callisto lint --file rules.yaml --braces

  # JSON output for CI/CD
  callisto lint --file rules.yaml --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat unknown rule keys as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
	lintCmd.Flags().BoolVar(&lintFlags.braces, "braces", false, "enable {N} brace substitution before parsing")
}

// ruleFileExtensions are the patterns lint expands a directory into.
var ruleFileExtensions = []string{"*.yaml", "*.yml", "*.lrl"}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string

	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}

	if lintFlags.dir != "" {
		for _, pattern := range ruleFileExtensions {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}

	results := make([]ValidationResult, 0, len(files))

	for _, file := range files {
		results = append(results, validateRuleFile(file))
	}

	if lintFlags.format == "json" {
		return outputJSON(results)
	}
	return outputText(results)
}

// ValidationResult represents the validation result for a single rule file.
type ValidationResult struct {
	File   string            `json:"file"`
	Valid  bool              `json:"valid"`
	Rules  int               `json:"rules"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Type     string `json:"type,omitempty"`
}

func validateRuleFile(path string) ValidationResult {
	result := ValidationResult{
		File:  path,
		Valid: true,
	}

	p := parser.NewParser().
		WithStrictMode(lintFlags.strict).
		WithBraceSubstitution(lintFlags.braces)

	doc, err := p.Parse(path)
	if err != nil {
		result.Valid = false
		result.Errors = appendRuleErrors(result.Errors, err)
		return result
	}
	result.Rules = len(doc.Rules)

	v := validator.NewValidator()
	if err := v.Validate(doc); err != nil {
		result.Valid = false
		result.Errors = appendRuleErrors(result.Errors, err)
	}

	return result
}

// appendRuleErrors flattens parser and validator errors into output
// rows, keeping location information when the error carries it.
func appendRuleErrors(dst []ValidationError, err error) []ValidationError {
	switch e := err.(type) {
	case *lrlErrors.ErrorList:
		for _, item := range e.Errors {
			dst = append(dst, ValidationError{
				Line:     item.Location.Line,
				Column:   item.Location.Column,
				Message:  item.Message,
				Severity: "error",
				Type:     string(item.Type),
			})
		}
	case *lrlErrors.Error:
		dst = append(dst, ValidationError{
			Line:     e.Location.Line,
			Column:   e.Location.Column,
			Message:  e.Message,
			Severity: "error",
			Type:     string(e.Type),
		})
	default:
		dst = append(dst, ValidationError{
			Message:  err.Error(),
			Severity: "error",
		})
	}
	return dst
}

func outputText(results []ValidationResult) error {
	totalErrors := 0

	for _, result := range results {
		fmt.Printf("Validating %s...\n", result.File)

		if len(result.Errors) == 0 {
			fmt.Println("✓ Syntax valid")
			fmt.Printf("✓ All %d rule(s) have valid conditions and operations\n", result.Rules)
		}

		for _, err := range result.Errors {
			fmt.Printf("✗ Error: %s", err.Message)
			if err.Line > 0 {
				fmt.Printf(" (line %d", err.Line)
				if err.Column > 0 {
					fmt.Printf(", col %d", err.Column)
				}
				fmt.Print(")")
			}
			if err.Type != "" {
				fmt.Printf(" [%s]", err.Type)
			}
			fmt.Println()
			totalErrors++
		}

		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  %d file(s), %d error(s)\n", len(results), totalErrors)

	if totalErrors > 0 {
		return cli.NewRuleError("lint", fmt.Errorf("validation failed"))
	}

	return nil
}

func outputJSON(results []ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}

	for _, result := range results {
		if !result.Valid {
			return cli.NewRuleError("lint", fmt.Errorf("validation failed"))
		}
	}
	return nil
}
