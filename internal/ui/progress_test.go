package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"strata/internal/driver"
)

func TestProgressModelTracksModules(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("checking", []string{"core", "app"}, events).(*progressModel)

	m.Update(eventMsg{Module: "core", Stage: driver.StageResolve, Status: driver.StatusWorking})
	if got := m.items[0].status; got != "resolving" {
		t.Fatalf("core status = %q", got)
	}
	if got := m.percent(); got != 0.25 {
		t.Fatalf("percent = %v, want 0.25", got)
	}

	m.Update(eventMsg{Module: "core", Stage: driver.StageResolve, Status: driver.StatusError})
	m.Update(eventMsg{Module: "app", Stage: driver.StageCache, Status: driver.StatusCached})
	m.Update(eventMsg{Module: "unknown", Stage: driver.StageCache, Status: driver.StatusDone})
	if got := m.finished(); got != 2 {
		t.Fatalf("finished = %d, want 2", got)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("done should produce QuitMsg")
	}

	view := m.View()
	for _, want := range []string{"done: checking (2/2)", "error", "cached", "core", "app"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"module", 0, "module"},
		{"module", 10, "module"},
		{"very_long_module", 8, "ve..."},
		{"模块模块", 3, "模"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.width); got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.width, got, c.want)
		}
	}
}
