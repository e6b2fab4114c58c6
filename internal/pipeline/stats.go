package pipeline

import (
	"time"

	"github.com/backmassage/mediaconv/internal/planner"
)

// Status is the result of one conversion attempt.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failure"
}

// Outcome records one attempted job. Err is nil on success. OutputBytes is
// 0 when the job failed.
type Outcome struct {
	Job         planner.ConversionJob
	Status      Status
	Err         error
	InputBytes  int64
	OutputBytes int64
	Elapsed     time.Duration
}

// RunStats tracks aggregate counters and byte totals across a batch run.
// Byte totals only include converted files.
type RunStats struct {
	Planned          int
	Attempted        int
	Converted        int
	Failed           int
	TotalInputBytes  int64
	TotalOutputBytes int64
	Elapsed          time.Duration
}

// Summarize folds outcomes into RunStats. planned is the number of jobs
// the batch started with; Attempted falls short of it after an interrupt.
func Summarize(planned int, outcomes []Outcome) RunStats {
	s := RunStats{Planned: planned, Attempted: len(outcomes)}
	for _, o := range outcomes {
		s.Elapsed += o.Elapsed
		if o.Status != StatusSuccess {
			s.Failed++
			continue
		}
		s.Converted++
		s.TotalInputBytes += o.InputBytes
		s.TotalOutputBytes += o.OutputBytes
	}
	return s
}

// Interrupted reports whether some planned jobs were never attempted.
func (s *RunStats) Interrupted() bool { return s.Attempted < s.Planned }

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}
