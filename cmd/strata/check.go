package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"strata/internal/diag"
	"strata/internal/diagfmt"
	"strata/internal/driver"
	"strata/internal/observ"
	"strata/internal/sema"
	"strata/internal/source"
	"strata/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [manifest|dir]",
	Short: "Resolve every trait of a workspace and report diagnostics",
	Long: `Resolve generic parameters and attributes of every trait declared in the
workspace and print the diagnostics. Exits with status 1 when any error is reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
	checkCmd.Flags().Bool("notes", true, "print diagnostic notes")
	checkCmd.Flags().Bool("no-source", false, "do not print source snippets")
	checkCmd.Flags().Bool("no-cache", false, "bypass the on-disk result cache")
	checkCmd.Flags().String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/strata)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().Bool("stats", false, "print query statistics")
}

type checkFlags struct {
	format    string
	pathMode  diagfmt.PathMode
	notes     bool
	noSource  bool
	noCache   bool
	cacheDir  string
	ui        uiMode
	showStats bool
}

func readCheckFlags(cmd *cobra.Command) (checkFlags, error) {
	var f checkFlags
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	f.format = strings.ToLower(format)
	switch f.format {
	case "pretty", "short", "json":
	default:
		return f, fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}

	pathMode, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return f, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	var ok bool
	if f.pathMode, ok = diagfmt.ParsePathMode(pathMode); !ok {
		return f, fmt.Errorf("invalid --path-mode value %q", pathMode)
	}
	if f.notes, err = cmd.Flags().GetBool("notes"); err != nil {
		return f, fmt.Errorf("failed to get notes flag: %w", err)
	}
	if f.noSource, err = cmd.Flags().GetBool("no-source"); err != nil {
		return f, fmt.Errorf("failed to get no-source flag: %w", err)
	}
	if f.noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return f, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if f.cacheDir, err = cmd.Flags().GetString("cache-dir"); err != nil {
		return f, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiValue); err != nil {
		return f, err
	}
	if f.showStats, err = cmd.Flags().GetBool("stats"); err != nil {
		return f, fmt.Errorf("failed to get stats flag: %w", err)
	}
	return f, nil
}

func openCache(f checkFlags) (*driver.DiskCache, error) {
	if f.noCache {
		return nil, nil
	}
	if f.cacheDir != "" {
		return driver.NewDiskCache(f.cacheDir)
	}
	return driver.OpenDiskCache("strata")
}

func runCheck(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	f, err := readCheckFlags(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ctx := cmd.Context()
	var timer *observ.Timer
	if g.timings {
		timer = observ.NewTimer()
	}
	started := time.Now()

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	loadPhase := timer.Begin("load")
	ws, err := loadWorkspace(ctx, arg, g)
	timer.End(loadPhase, "")
	if err != nil {
		return err
	}

	cache, err := openCache(f)
	if err != nil {
		// кэш не обязателен
		if !g.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache disabled: %v\n", err)
		}
		cache = nil
	}

	db := sema.NewDatabase(ws, sema.Options{Tracer: trace.FromContext(ctx)})
	opts := driver.CheckOptions{
		Jobs:           g.jobs,
		MaxDiagnostics: g.maxDiagnostics,
		Cache:          cache,
		Timer:          timer,
	}

	var res *driver.CheckResult
	if shouldUseTUI(f.ui, f.format, g.quiet, cmd.OutOrStdout()) {
		res, err = runCheckWithUI(ctx, "checking "+ws.Manifest.Name, ws, db, opts)
	} else {
		res, err = driver.Check(ctx, ws, db, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	diags := res.Diagnostics()
	if g.quiet {
		diags = onlyErrors(diags)
	}
	if err := renderDiagnostics(out, diags, ws.Files, f, g); err != nil {
		return err
	}

	if !g.quiet && f.format == "pretty" {
		fmt.Fprintln(out, checkSummary(res, time.Since(started)))
	}
	if f.showStats {
		printStats(cmd.ErrOrStderr(), db.Stats())
	}
	if g.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if res.HasErrors() {
		return exitError{code: 1}
	}
	return nil
}

func renderDiagnostics(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, f checkFlags, g globalFlags) error {
	switch f.format {
	case "json":
		return diagfmt.JSON(w, diags, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         f.pathMode,
			IncludeNotes:     f.notes,
		})
	case "short":
		return diagfmt.Short(w, diags, fs, f.notes)
	default:
		return diagfmt.Pretty(w, diags, fs, diagfmt.PrettyOpts{
			Color:      g.color,
			PathMode:   f.pathMode,
			ShowNotes:  f.notes,
			ShowSource: !f.noSource,
		})
	}
}

func onlyErrors(diags []diag.Diagnostic) []diag.Diagnostic {
	out := diags[:0:0]
	for _, d := range diags {
		if d.Severity == diag.SevError {
			out = append(out, d)
		}
	}
	return out
}

func checkSummary(res *driver.CheckResult, elapsed time.Duration) string {
	traits, errs, warns := 0, 0, 0
	for _, m := range res.Modules {
		traits += len(m.Traits)
		for _, d := range m.Bag.Items() {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
	}
	s := fmt.Sprintf("checked %d modules, %d traits: %d errors, %d warnings", len(res.Modules), traits, errs, warns)
	if hits := res.CacheHits(); hits > 0 {
		s += fmt.Sprintf(" (%d cached)", hits)
	}
	return s + fmt.Sprintf(" in %.1f ms", toMillis(elapsed))
}

func printStats(w io.Writer, st sema.Stats) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		fmt.Fprintf(w, "stats: %v\n", err)
	}
}
