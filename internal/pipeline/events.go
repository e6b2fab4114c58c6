package pipeline

import (
	"github.com/backmassage/mediaconv/internal/ffmpeg"
	"github.com/backmassage/mediaconv/internal/planner"
)

// State is the orchestrator's batch phase.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateConvertingImages
	StateConvertingVideos
	StateConvertingFonts
	StateDone
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateScanning:         "scanning",
	StateConvertingImages: "converting_images",
	StateConvertingVideos: "converting_videos",
	StateConvertingFonts:  "converting_fonts",
	StateDone:             "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Event is one observable step of a run. The concrete types below are the
// only implementations.
type Event interface{ event() }

// StateChanged marks a phase transition. Files is the number of jobs the
// new phase will attempt (0 for Scanning and Done).
type StateChanged struct {
	From, To State
	Files    int
}

// FileStarted is sent before a converter is called. Position is 1-based
// over the whole batch.
type FileStarted struct {
	Job      planner.ConversionJob
	Position int
	Total    int
}

// FileSucceeded and FileFailed carry the finished Outcome.
type FileSucceeded struct{ Outcome Outcome }

type FileFailed struct{ Outcome Outcome }

// VideoProgress relays a percent sample of the running video job.
type VideoProgress struct {
	Job    planner.ConversionJob
	Sample ffmpeg.ProgressSample
}

// BatchProgress is sent after every attempted file, whatever its outcome.
type BatchProgress struct {
	Processed int
	Total     int
}

func (StateChanged) event()  {}
func (FileStarted) event()   {}
func (FileSucceeded) event() {}
func (FileFailed) event()    {}
func (VideoProgress) event() {}
func (BatchProgress) event() {}

// Reporter consumes events. The orchestrator serializes calls, so
// implementations need no locking of their own.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }
