package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits periodic events so a hung check can be told apart from a
// slow one: heartbeats keep arriving while span ends stop.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// StartHeartbeat starts the heartbeat goroutine. Returns nil when tracing is
// disabled or interval is not positive; Stop on nil is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var n uint64
	for {
		select {
		case <-ticker.C:
			n++
			evt := newEvent(KindHeartbeat, ScopeDriver, "heartbeat")
			evt.Detail = fmt.Sprintf("#%d", n)
			h.tracer.Emit(evt)
		case <-h.stopCh:
			return
		}
	}
}

// Stop halts the goroutine and waits for it to exit.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stopCh) })
	h.wg.Wait()
}
