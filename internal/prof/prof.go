// Package prof wires runtime/pprof and runtime/trace output to files for the
// duration of one command.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
)

// Options name the output files; empty paths disable a profiler.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Session holds active profilers. Stop is safe to call more than once.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	once      sync.Once
	err       error
}

// Start enables the profilers requested by opts. On error nothing stays running.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Active reports whether any profiler was requested.
func (s *Session) Active() bool {
	return s != nil && (s.opts.CPU != "" || s.opts.Mem != "" || s.opts.Trace != "")
}

// Stop ends the CPU profile and runtime trace, then writes the heap profile.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		var errs []error
		errs = append(errs, s.stopCPU())
		if s.traceFile != nil {
			trace.Stop()
			errs = append(errs, s.traceFile.Close())
			s.traceFile = nil
		}
		if s.opts.Mem != "" {
			errs = append(errs, writeMem(s.opts.Mem))
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

func writeMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
