/*
Package cli provides command-line utilities shared by the callisto
command: output formatters, progress reporting, exit code mapping and
signal handling.

Output Formatting:

Commands render results as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Exit Codes:

Command errors carry their exit code, so main stays a one-liner:

	if err := rootCmd.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}

Lint failures use ExitBadRules, letting CI distinguish invalid rule
documents from tool crashes.

Progress Reporting:

Simulated sampling runs and benchmarks report per-step progress:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(steps))
	for i := 0; i < steps; i++ {
		// Run one step
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Pass ctx to sampling loops and watchers
*/
package cli
