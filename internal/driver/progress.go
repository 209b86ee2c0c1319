package driver

import "time"

// Stage describes what a module is going through.
type Stage string

const (
	// StageCache is the disk cache lookup.
	StageCache Stage = "cache"
	// StageResolve is trait resolution.
	StageResolve Stage = "resolve"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusCached  Status = "cached"
	StatusDone    Status = "done"
	// StatusError means the module finished with error diagnostics or failed.
	StatusError Status = "error"
)

// Event reports progress for one module.
type Event struct {
	Module  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Check calls it from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}
