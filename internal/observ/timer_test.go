package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("load")
	time.Sleep(2 * time.Millisecond)
	tm.End(idx, "3 files")

	r := tm.Report()
	if len(r.Phases) != 1 || r.Phases[0].Name != "load" || r.Phases[0].Note != "3 files" {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.Phases[0].DurationMS <= 0 || r.TotalMS < r.Phases[0].DurationMS {
		t.Fatalf("bad durations: %+v", r)
	}
	if s := tm.Summary(); !strings.Contains(s, "load") || !strings.Contains(s, "// 3 files") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("module"), "")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 8 {
		t.Fatalf("phases = %d, want 8", got)
	}
}

func TestTimerNilAndBadIndex(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Fatal("nil timer must report nothing")
	}
	NewTimer().End(5, "ignored")
}
