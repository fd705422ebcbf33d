package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"latent-hq/callisto/pkg/cli"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - runtime rule engine for diffusion sampling",
	Long: `Callisto is a runtime rule engine that conditionally transforms the
tensors flowing through a diffusion model's blocks during sampling.

Rules are declarative YAML documents: each rule pairs a condition on
the model position and schedule progress with a list of tensor
operations. The engine resolves hook sigmas to sampling percentages,
matches conditions, and applies the operations in order.

The callisto command validates rule documents, evaluates them against
simulated sampling runs, benchmarks evaluation latency, and inspects
recorded traces.`,
	Version: Version,
}

// Execute runs the root command. Rule validation failures exit with a
// distinct code so CI scripts can tell them apart from crashes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
