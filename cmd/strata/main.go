package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"strata/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "strata",
	Short:         "Trait resolution checker for strata workspaces",
	Long:          `strata resolves trait declarations of a workspace and reports their diagnostics`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(traitsCmd)
	rootCmd.AddCommand(internCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per module")
	rootCmd.PersistentFlags().Int("jobs", 0, "parallel workers (0 = GOMAXPROCS)")

	rootCmd.PersistentFlags().String("trace", "", "write trace events to file ('-' for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")

	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// main executes the root command. Errors are printed once to stderr; exit
// code 1 marks a failed run.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if !isSilent(err) {
			fmt.Fprintf(os.Stderr, "strata: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves --color against stdout and applies it to fatih/color.
func colorEnabled(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	var on bool
	switch strings.ToLower(mode) {
	case "on", "always":
		on = true
	case "off", "never":
		on = false
	case "auto", "":
		on = isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	color.NoColor = !on
	return on, nil
}

type globalFlags struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	jobs           int
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	var g globalFlags
	var err error
	flags := cmd.Root().PersistentFlags()
	if g.color, err = colorEnabled(cmd); err != nil {
		return g, err
	}
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if g.timings, err = flags.GetBool("timings"); err != nil {
		return g, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if g.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return g, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if g.jobs, err = flags.GetInt("jobs"); err != nil {
		return g, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if g.jobs < 0 {
		return g, fmt.Errorf("--jobs must be >= 0, got %d", g.jobs)
	}
	return g, nil
}

// exitError carries a non-zero exit without an extra message; the command
// already reported what went wrong.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func isSilent(err error) bool {
	var ee exitError
	return errors.As(err, &ee)
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
