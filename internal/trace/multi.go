package trace

import "errors"

// MultiTracer fans out events to several tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

// NewMultiTracer combines tracers. Nil entries are ignored.
func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	kept := make([]Tracer, 0, len(tracers))
	for _, t := range tracers {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &MultiTracer{tracers: kept, level: level}
}

func (mt *MultiTracer) Emit(ev *Event) {
	for _, t := range mt.tracers {
		t.Emit(ev)
	}
}

func (mt *MultiTracer) Flush() error {
	var errs []error
	for _, t := range mt.tracers {
		if err := t.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (mt *MultiTracer) Close() error {
	var errs []error
	for _, t := range mt.tracers {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (mt *MultiTracer) Level() Level  { return mt.level }
func (mt *MultiTracer) Enabled() bool { return mt.level > LevelOff }

// Ring returns the first ring tracer in the set, if any.
func (mt *MultiTracer) Ring() *RingTracer {
	for _, t := range mt.tracers {
		if rt, ok := t.(*RingTracer); ok {
			return rt
		}
	}
	return nil
}
