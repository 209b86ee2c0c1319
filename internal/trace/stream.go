package trace

import (
	"bufio"
	"io"
	"sync"
)

// StreamTracer writes each event to w as soon as it is emitted.
type StreamTracer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	level  Level
	format Format
}

// NewStreamTracer creates a tracer writing to w.
// If w implements io.Closer it is closed on Close.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	st := &StreamTracer{
		w:      bufio.NewWriterSize(w, 32*1024),
		level:  level,
		format: format,
	}
	if c, ok := w.(io.Closer); ok {
		st.closer = c
	}
	return st
}

func (st *StreamTracer) Emit(ev *Event) {
	if ev == nil || !st.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	data := FormatEvent(ev, st.format)
	st.mu.Lock()
	_, _ = st.w.Write(data)
	st.mu.Unlock()
}

func (st *StreamTracer) Flush() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.w.Flush()
}

func (st *StreamTracer) Close() error {
	if err := st.Flush(); err != nil {
		return err
	}
	if st.closer != nil {
		return st.closer.Close()
	}
	return nil
}

func (st *StreamTracer) Level() Level  { return st.level }
func (st *StreamTracer) Enabled() bool { return st.level > LevelOff }
