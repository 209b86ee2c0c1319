package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/diagfmt"
	"strata/internal/driver"
	"strata/internal/sema"
	"strata/internal/symbols"
	"strata/internal/trace"
	"strata/internal/workspace"
)

var traitsCmd = &cobra.Command{
	Use:   "traits [manifest|dir]",
	Short: "Show resolved generic parameters and attributes of traits",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTraits,
}

func init() {
	traitsCmd.Flags().StringSlice("trait", nil, "only show these traits (module::Name or an unambiguous Name)")
	traitsCmd.Flags().String("format", "table", "output format (table|debug|json)")
	traitsCmd.Flags().Int("width", 0, "truncate table cells to this many columns (0 = no limit)")
}

func runTraits(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	names, err := cmd.Flags().GetStringSlice("trait")
	if err != nil {
		return fmt.Errorf("failed to get trait flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return fmt.Errorf("failed to get width flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "table", "debug", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be table, debug or json)", format)
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

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	ctx := cmd.Context()
	ws, err := loadWorkspace(ctx, arg, g)
	if err != nil {
		return err
	}
	db := sema.NewDatabase(ws, sema.Options{Tracer: trace.FromContext(ctx)})

	ids, err := selectTraits(ws, names)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "debug":
		for _, id := range ids {
			fmt.Fprintln(out, db.DebugTrait(id))
		}
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summarize(ws, db, ids))
	default:
		return diagfmt.DumpTraits(out, summarize(ws, db, ids), diagfmt.DumpOpts{Color: g.color, Width: width})
	}
}

// selectTraits returns every trait in declaration order when names is empty.
func selectTraits(ws *workspace.Workspace, names []string) ([]symbols.TraitID, error) {
	if len(names) == 0 {
		var ids []symbols.TraitID
		for _, m := range ws.Modules() {
			ids = append(ids, ws.ModuleTraitIDs(m)...)
		}
		return ids, nil
	}
	ids := make([]symbols.TraitID, 0, len(names))
	for _, name := range names {
		id, err := ws.FindTrait(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func summarize(ws *workspace.Workspace, db *sema.Database, ids []symbols.TraitID) []driver.TraitSummary {
	out := make([]driver.TraitSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, driver.SummarizeTrait(ws, db, id))
	}
	return out
}
