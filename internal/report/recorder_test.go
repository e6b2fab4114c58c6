package report

import (
	"sync"

	"github.com/backmassage/mediaconv/internal/pipeline"
)

// recorder keeps every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []pipeline.Event
}

func (r *recorder) Report(e pipeline.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Events() []pipeline.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pipeline.Event(nil), r.events...)
}

// Outcomes returns the outcomes of the recorded file events in arrival order.
func (r *recorder) Outcomes() []pipeline.Outcome {
	var out []pipeline.Outcome
	for _, e := range r.Events() {
		switch ev := e.(type) {
		case pipeline.FileSucceeded:
			out = append(out, ev.Outcome)
		case pipeline.FileFailed:
			out = append(out, ev.Outcome)
		}
	}
	return out
}
