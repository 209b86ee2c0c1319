package trace

import (
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// goroutineID reads the id from the "goroutine N [state]:" stack header.
// Zero means it could not be parsed.
func goroutineID() uint64 {
	var buf [64]byte
	header := string(buf[:runtime.Stack(buf[:], false)])
	header, ok := strings.CutPrefix(header, "goroutine ")
	if !ok {
		return 0
	}
	num, _, _ := strings.Cut(header, " ")
	gid, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// newEvent stamps time, sequence and goroutine of the caller.
func newEvent(kind Kind, scope Scope, name string) *Event {
	return &Event{
		Time:  time.Now(),
		Seq:   seqCounter.Add(1),
		Kind:  kind,
		Scope: scope,
		GID:   goroutineID(),
		Name:  name,
	}
}

func emitting(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// Span is one begin/end pair. A span from a disabled tracer is inert.
type Span struct {
	tracer  Tracer
	begin   Event
	started time.Time
	extra   map[string]string
}

// Begin opens a span under parent (0 for a root) and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !emitting(t, scope) {
		return &Span{}
	}
	evt := newEvent(KindSpanBegin, scope, name)
	evt.SpanID = spanCounter.Add(1)
	evt.ParentID = parent
	s := &Span{tracer: t, begin: *evt, started: evt.Time}
	t.Emit(evt)
	return s
}

func (s *Span) live() bool {
	return s != nil && s.tracer != nil && s.tracer.Enabled()
}

// End emits the end event carrying detail and the collected extras.
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	evt := newEvent(KindSpanEnd, s.begin.Scope, s.begin.Name)
	evt.SpanID = s.begin.SpanID
	evt.ParentID = s.begin.ParentID
	evt.GID = s.begin.GID
	evt.Detail = detail
	evt.Extra = s.extra
	s.tracer.Emit(evt)
	return evt.Time.Sub(s.started)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 4)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}

// Point emits an instant event under parent. extra may be nil.
func Point(t Tracer, scope Scope, name, detail string, parent uint64, extra map[string]string) {
	if !emitting(t, scope) {
		return
	}
	evt := newEvent(KindPoint, scope, name)
	evt.ParentID = parent
	evt.Detail = detail
	evt.Extra = extra
	t.Emit(evt)
}
