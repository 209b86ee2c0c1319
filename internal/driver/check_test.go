package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"strata/internal/diag"
	"strata/internal/observ"
	"strata/internal/sema"
	"strata/internal/trace"
	"strata/internal/workspace"
)

var testModules = []workspace.VirtualModule{
	{Name: "core", Files: []workspace.VirtualFile{{Path: "core.st", Content: "@doc(\"eq\") trait Eq<T>;\ntrait Ord<T: Eq + Nope>;\n"}}},
	{Name: "app", Files: []workspace.VirtualFile{{Path: "app.st", Content: "trait Show<X:, Y: core::Ord>;\ntrait Fine;\n"}}},
	{Name: "gone", Broken: true, Files: []workspace.VirtualFile{{Path: "gone.st", Content: "trait Lost<T>;\n"}}},
}

func load(t *testing.T) (*workspace.Workspace, *sema.Database) {
	t.Helper()
	ws, err := workspace.NewVirtual(context.Background(), testModules, workspace.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return ws, sema.NewDatabase(ws, sema.Options{})
}

func TestCheck(t *testing.T) {
	defer goleak.VerifyNone(t)
	ws, db := load(t)
	timer := observ.NewTimer()

	res, err := Check(context.Background(), ws, db, CheckOptions{Jobs: 2, Timer: timer})
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasErrors() {
		t.Fatal("expected errors")
	}

	var names []string
	for _, m := range res.Modules {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"core", "app", "gone"}, names); diff != "" {
		t.Fatalf("module order (-want +got):\n%s", diff)
	}

	wantTraits := []TraitSummary{
		{Name: "core::Eq", Resolved: true, Generics: []string{"T"}, Attributes: []string{`doc("eq")`}},
		{Name: "core::Ord", Resolved: true, Generics: []string{"T"}, Attributes: []string{}, Diagnostics: 1},
	}
	if diff := cmp.Diff(wantTraits, res.Modules[0].Traits); diff != "" {
		t.Errorf("core traits (-want +got):\n%s", diff)
	}
	if got := res.Modules[2].Traits; len(got) != 1 || got[0].Resolved {
		t.Errorf("broken module traits = %+v", got)
	}

	if got := len(res.Diagnostics()); got != 3 {
		t.Errorf("diagnostics = %d, want 3", got)
	}
	golden := diag.FormatGoldenDiagnostics(res.Diagnostics(), ws.Files, false)
	// the broken-module warning has no source span and is not rendered here
	want := "error SEM3102 app.st:1:13 expected a trait bound after ':' in 'X'\n" +
		"error SEM3103 core.st:2:19 unknown trait 'Nope' in bounds of 'T'"
	if diff := cmp.Diff(want, golden); diff != "" {
		t.Errorf("diagnostics (-want +got):\n%s", diff)
	}
	if got := len(timer.Report().Phases); got != 3 {
		t.Errorf("timer phases = %d, want 3", got)
	}
}

func TestCheckUsesDiskCache(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ws, db := load(t)
	first, err := Check(context.Background(), ws, db, CheckOptions{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHits() != 0 {
		t.Fatalf("cold cache hits = %d", first.CacheHits())
	}

	ws2, db2 := load(t)
	second, err := Check(context.Background(), ws2, db2, CheckOptions{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHits() != len(second.Modules) {
		t.Fatalf("warm cache hits = %d, want %d", second.CacheHits(), len(second.Modules))
	}
	if st := db2.Stats().Queries[0]; st.Evaluations != 0 {
		t.Fatalf("cached check consulted the database: %+v", st)
	}
	a := diag.FormatGoldenDiagnostics(first.Diagnostics(), ws.Files, true)
	b := diag.FormatGoldenDiagnostics(second.Diagnostics(), ws2.Files, true)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("cached diagnostics differ (-fresh +cached):\n%s", diff)
	}
	for i := range first.Modules {
		if diff := cmp.Diff(first.Modules[i].Traits, second.Modules[i].Traits, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("module %s traits (-fresh +cached):\n%s", first.Modules[i].Name, diff)
		}
	}
}

func TestCheckCacheRespectsDiagnosticLimit(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	noisy := []workspace.VirtualModule{
		{Name: "m", Files: []workspace.VirtualFile{{Path: "m.st", Content: "trait A<X:, Y: Nope, Z: Gone>;\n"}}},
	}
	run := func(limit int) ModuleResult {
		t.Helper()
		ws, err := workspace.NewVirtual(context.Background(), noisy, workspace.Options{})
		if err != nil {
			t.Fatal(err)
		}
		res, err := Check(context.Background(), ws, sema.NewDatabase(ws, sema.Options{}), CheckOptions{Cache: cache, MaxDiagnostics: limit})
		if err != nil {
			t.Fatal(err)
		}
		return res.Modules[0]
	}

	low := run(1)
	if low.Bag.Len() != 1 || !low.Truncated {
		t.Fatalf("limit 1: len=%d truncated=%v", low.Bag.Len(), low.Truncated)
	}
	high := run(10)
	if high.Cached {
		t.Fatal("a bag cut at a lower limit must not be served under a higher one")
	}
	if high.Bag.Len() != 3 || high.Truncated {
		t.Fatalf("limit 10: len=%d truncated=%v", high.Bag.Len(), high.Truncated)
	}
	again := run(10)
	if !again.Cached || again.Bag.Len() != 3 {
		t.Fatalf("same limit: cached=%v len=%d", again.Cached, again.Bag.Len())
	}
	if low := run(1); !low.Cached || low.Bag.Len() != 1 || !low.Truncated {
		t.Fatalf("limit 1 again: cached=%v len=%d truncated=%v", low.Cached, low.Bag.Len(), low.Truncated)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func TestCheckProgress(t *testing.T) {
	ws, db := load(t)
	sink := &recordingSink{}
	if _, err := Check(context.Background(), ws, db, CheckOptions{Jobs: 3, Progress: sink}); err != nil {
		t.Fatal(err)
	}

	queued := 0
	final := map[string]Status{}
	for _, evt := range sink.events {
		if evt.Status == StatusQueued {
			queued++
			if _, seen := final[evt.Module]; seen {
				t.Errorf("module %s queued after it started", evt.Module)
			}
			continue
		}
		final[evt.Module] = evt.Status
	}
	if queued != 3 {
		t.Errorf("queued events = %d, want 3", queued)
	}
	want := map[string]Status{"core": StatusError, "app": StatusError, "gone": StatusDone}
	if diff := cmp.Diff(want, final); diff != "" {
		t.Errorf("final statuses (-want +got):\n%s", diff)
	}
}

func TestCheckProgressCached(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		ws, db := load(t)
		if _, err := Check(context.Background(), ws, db, CheckOptions{Cache: cache}); err != nil {
			t.Fatal(err)
		}
	}
	ws, db := load(t)
	events := make(chan Event, 64)
	if _, err := Check(context.Background(), ws, db, CheckOptions{Cache: cache, Progress: ChannelSink{Ch: events}}); err != nil {
		t.Fatal(err)
	}
	close(events)
	var last Event
	for evt := range events {
		if evt.Module == "gone" {
			last = evt
		}
	}
	if last.Stage != StageCache || last.Status != StatusCached {
		t.Fatalf("last event for gone = %+v, want cached", last)
	}
}

func TestCheckCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	ws, db := load(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, ws, db, CheckOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCheckTraces(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	ws, db := load(t)
	if _, err := Check(ctx, ws, db, CheckOptions{Jobs: 1}); err != nil {
		t.Fatal(err)
	}

	var checkID uint64
	modules := map[string]uint64{}
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		switch {
		case ev.Name == "check":
			checkID = ev.SpanID
		case ev.Scope == trace.ScopeModule:
			modules[ev.Name] = ev.ParentID
		}
	}
	if checkID == 0 {
		t.Fatal("missing check span")
	}
	for _, name := range []string{"module:core", "module:app", "module:gone"} {
		if parent, ok := modules[name]; !ok || parent != checkID {
			t.Errorf("%s parent = %d (found %v), want %d", name, parent, ok, checkID)
		}
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewDiskCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := workspace.Combine(workspace.Digest{1})

	var out DiskPayload
	if ok, err := cache.Get(key, &out); ok || err != nil {
		t.Fatalf("empty cache: %v, %v", ok, err)
	}

	in := &DiskPayload{
		Module: "core",
		Digest: key,
		Traits: []TraitSummary{{Name: "core::Eq", Resolved: true, Generics: []string{"T"}}},
		Diagnostics: []CachedDiagnostic{{
			Severity: uint8(diag.SevError),
			Code:     uint16(diag.SemaTraitUnknownBound),
			Message:  "unknown",
			Primary:  CachedSpan{Path: "core.st", Start: 1, End: 2},
		}},
	}
	if err := cache.Put(key, in); err != nil {
		t.Fatal(err)
	}
	if ok, err := cache.Get(key, &out); !ok || err != nil {
		t.Fatalf("Get after Put: %v, %v", ok, err)
	}
	if diff := cmp.Diff(*in, out, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}

	// an entry stored under the wrong key is a miss
	other := workspace.Combine(workspace.Digest{2})
	if err := cache.Put(other, &DiskPayload{Digest: key}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := cache.Get(other, &DiskPayload{}); ok {
		t.Fatal("digest mismatch must miss")
	}

	if err := os.WriteFile(cache.pathFor(key), []byte{0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(key, &DiskPayload{}); err == nil {
		t.Fatal("corrupt entry must report an error")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mods")); !os.IsNotExist(err) {
		t.Fatalf("mods dir survived DropAll: %v", err)
	}

	var nilCache *DiskCache
	if err := nilCache.Put(key, in); err != nil {
		t.Fatal(err)
	}
	if ok, _ := nilCache.Get(key, &out); ok {
		t.Fatal("nil cache never hits")
	}
}
