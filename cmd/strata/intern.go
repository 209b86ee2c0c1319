package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/sema"
	"strata/internal/trace"
	"strata/internal/workspace"
)

var internCmd = &cobra.Command{
	Use:   "intern <Trait<Type, ...>>...",
	Short: "Intern concrete trait shapes and print their handles",
	Long: `Intern every shape, e.g. 'core::Eq<Int>' or 'Show<[String]>', and print the
handle assigned to it. Equal shapes share one handle.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIntern,
}

func init() {
	internCmd.Flags().String("manifest", "", "workspace manifest or directory (default: search from .)")
}

func runIntern(cmd *cobra.Command, args []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	manifest, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return fmt.Errorf("failed to get manifest flag: %w", err)
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
	ws, err := loadWorkspace(ctx, manifest, g)
	if err != nil {
		return err
	}
	db := sema.NewDatabase(ws, sema.Options{Tracer: trace.FromContext(ctx)})

	out := cmd.OutOrStdout()
	for _, shape := range args {
		long, err := parseShape(ws, shape)
		if err != nil {
			return err
		}
		id := db.InternConcreteTrait(long)
		fmt.Fprintf(out, "#%d %s\n", id, formatShape(ws, db.LookupConcreteTrait(id)))
	}
	if !g.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d shapes, %d distinct\n", len(args), db.ConcreteTraits().Len())
	}
	return nil
}

// parseShape reads `Trait` or `Trait<T1, T2>`.
func parseShape(ws *workspace.Workspace, s string) (sema.ConcreteTraitLongID, error) {
	name, rest, generic := strings.Cut(strings.TrimSpace(s), "<")
	trait, err := ws.FindTrait(strings.TrimSpace(name))
	if err != nil {
		return sema.ConcreteTraitLongID{}, err
	}
	long := sema.ConcreteTraitLongID{Trait: trait}
	if !generic {
		return long, nil
	}
	inner, ok := strings.CutSuffix(strings.TrimSpace(rest), ">")
	if !ok {
		return long, fmt.Errorf("%q: missing closing '>'", s)
	}
	for _, part := range splitArgs(inner) {
		ty, err := ws.Types.Parse(part)
		if err != nil {
			return long, fmt.Errorf("%q: %w", s, err)
		}
		long.Args = append(long.Args, ty)
	}
	return long, nil
}

// splitArgs splits on commas outside of brackets.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func formatShape(ws *workspace.Workspace, long sema.ConcreteTraitLongID) string {
	name := ws.TraitName(long.Trait)
	if len(long.Args) == 0 {
		return name
	}
	args := make([]string, len(long.Args))
	for i, a := range long.Args {
		args[i] = ws.Types.Format(a, ws.GenericParamName)
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

