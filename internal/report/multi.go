package report

import (
	"io"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/logging"
	"github.com/backmassage/mediaconv/internal/pipeline"
)

// Summarizer is a reporter that can also print the end-of-run totals.
type Summarizer interface {
	pipeline.Reporter
	Summary(pipeline.RunStats)
}

// New picks the reporters for cfg.LogFormat. Text renders on the console.
// JSON goes to stdout, or, when a log file is open, to the log file while
// the console keeps its human-readable lines.
func New(cfg *config.Config, log *logging.Logger, stdout io.Writer) Summarizer {
	if cfg.LogFormat != config.LogFormatJSON {
		return NewConsole(log)
	}
	if w := log.FileWriter(); w != nil {
		return Multi{NewConsole(log), NewJSON(w)}
	}
	return NewJSON(stdout)
}

// Multi fans events out to several reporters in order.
type Multi []pipeline.Reporter

// Report implements pipeline.Reporter.
func (m Multi) Report(e pipeline.Event) {
	for _, r := range m {
		r.Report(e)
	}
}

// Summary forwards to every member that implements Summarizer.
func (m Multi) Summary(s pipeline.RunStats) {
	for _, r := range m {
		if sr, ok := r.(Summarizer); ok {
			sr.Summary(s)
		}
	}
}
