package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last N events in memory.
// Snapshot and Dump are meant for crash reports.
type RingTracer struct {
	mu    sync.Mutex
	buf   []*Event
	head  int // next write index
	full  bool
	level Level
}

// NewRingTracer creates a ring of the given capacity.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{
		buf:   make([]*Event, capacity),
		level: level,
	}
}

func (rt *RingTracer) Emit(ev *Event) {
	if ev == nil || !rt.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	cp := *ev
	rt.mu.Lock()
	rt.buf[rt.head] = &cp
	rt.head++
	if rt.head == len(rt.buf) {
		rt.head = 0
		rt.full = true
	}
	rt.mu.Unlock()
}

// Snapshot returns the buffered events, oldest first.
func (rt *RingTracer) Snapshot() []*Event {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.full {
		out := make([]*Event, rt.head)
		copy(out, rt.buf[:rt.head])
		return out
	}
	out := make([]*Event, 0, len(rt.buf))
	out = append(out, rt.buf[rt.head:]...)
	out = append(out, rt.buf[:rt.head]...)
	return out
}

// Dump writes the snapshot to w.
func (rt *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range rt.Snapshot() {
		if _, err := w.Write(FormatEvent(ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (rt *RingTracer) Flush() error  { return nil }
func (rt *RingTracer) Close() error  { return nil }
func (rt *RingTracer) Level() Level  { return rt.level }
func (rt *RingTracer) Enabled() bool { return rt.level > LevelOff }
