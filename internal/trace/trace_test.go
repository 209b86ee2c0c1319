package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLevelShouldEmit(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeModule, false},
		{LevelDetail, ScopeModule, true},
		{LevelDetail, ScopeQuery, false},
		{LevelDebug, ScopeQuery, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("Debug"); err != nil || l != LevelDebug {
		t.Fatalf("ParseLevel(Debug) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRingSnapshotOrder(t *testing.T) {
	rt := NewRingTracer(3, LevelDebug)
	for i := 1; i <= 5; i++ {
		rt.Emit(&Event{Seq: uint64(i), Kind: KindPoint, Scope: ScopeQuery})
	}
	snap := rt.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	for i, ev := range snap {
		if want := uint64(i + 3); ev.Seq != want {
			t.Errorf("snap[%d].Seq = %d, want %d", i, ev.Seq, want)
		}
	}
}

func TestRingCopiesEvents(t *testing.T) {
	rt := NewRingTracer(4, LevelDebug)
	ev := &Event{Name: "a", Kind: KindPoint, Scope: ScopePass}
	rt.Emit(ev)
	ev.Name = "mutated"
	if got := rt.Snapshot()[0].Name; got != "a" {
		t.Fatalf("ring kept a reference: %q", got)
	}
}

func TestStreamFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelPhase, FormatText)
	Point(st, ScopePass, "kept", "", 0, nil)
	Point(st, ScopeQuery, "dropped", "", 0, nil)
	if err := st.Flush(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "kept") || strings.Contains(out, "dropped") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNDJSONFormat(t *testing.T) {
	ev := &Event{
		Time:  time.Unix(0, 0).UTC(),
		Seq:   7,
		Kind:  KindSpanEnd,
		Scope: ScopeModule,
		Name:  "module:core",
		Extra: map[string]string{"diags": "2"},
	}
	var decoded map[string]any
	if err := json.Unmarshal(FormatEvent(ev, FormatNDJSON), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["kind"] != "end" || decoded["scope"] != "module" || decoded["name"] != "module:core" {
		t.Fatalf("unexpected json: %v", decoded)
	}
}

func TestStartPropagatesParent(t *testing.T) {
	rt := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), rt)

	ctx, outer := Start(ctx, ScopePass, "check")
	_, inner := Start(ctx, ScopeModule, "module:a")
	inner.End("")
	outer.End("")

	snap := rt.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("events = %d, want 4", len(snap))
	}
	if snap[1].ParentID != outer.ID() {
		t.Fatalf("inner parent = %d, want %d", snap[1].ParentID, outer.ID())
	}
}

func TestNopContext(t *testing.T) {
	ctx, span := Start(context.Background(), ScopePass, "x")
	if span.ID() != 0 || CurrentSpan(ctx) != 0 {
		t.Fatal("nop tracer must not allocate spans")
	}
	if span.End("") != 0 {
		t.Fatal("nop span has no duration")
	}
}

func TestHeartbeatStops(t *testing.T) {
	defer goleak.VerifyNone(t)
	rt := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(rt, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	h.Stop()
	h.Stop()
	if len(rt.Snapshot()) == 0 {
		t.Fatal("expected heartbeat events")
	}
	var nilHB *Heartbeat
	nilHB.Stop()
}

func TestNewOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatal("off tracer must be disabled")
	}
}
