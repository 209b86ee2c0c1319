package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"strata/internal/driver"
	"strata/internal/sema"
	"strata/internal/ui"
	"strata/internal/workspace"
)

type checkOutcome struct {
	result *driver.CheckResult
	err    error
}

// runCheckWithUI runs driver.Check while a progress view consumes its events.
func runCheckWithUI(ctx context.Context, title string, ws *workspace.Workspace, db *sema.Database, opts driver.CheckOptions) (*driver.CheckResult, error) {
	names := make([]string, 0, len(ws.Modules()))
	for _, m := range ws.Modules() {
		names = append(names, ws.ModuleName(m))
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Check(ctx, ws, db, optsCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		cancel()
	}
	// the view may exit before Check does; keep the sink from blocking
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
