package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"strata/internal/workspace"
)

var errNoManifest = errors.New("no strata.toml or strata.yaml found")

// resolveManifestPath accepts a manifest file, a directory to search upwards
// from, or "" for the current directory.
func resolveManifestPath(arg string) (string, error) {
	if arg != "" {
		info, err := os.Stat(arg)
		if err != nil {
			return "", fmt.Errorf("failed to stat %q: %w", arg, err)
		}
		if !info.IsDir() {
			return arg, nil
		}
	}
	path, ok, err := workspace.FindManifest(arg)
	if err != nil {
		return "", err
	}
	if !ok {
		start := arg
		if start == "" {
			start = "."
		}
		return "", fmt.Errorf("%w in %s or its parents", errNoManifest, start)
	}
	return path, nil
}

func loadWorkspace(ctx context.Context, arg string, g globalFlags) (*workspace.Workspace, error) {
	path, err := resolveManifestPath(arg)
	if err != nil {
		return nil, err
	}
	return workspace.Load(ctx, path, workspace.Options{
		Jobs:           g.jobs,
		MaxDiagnostics: g.maxDiagnostics,
	})
}
