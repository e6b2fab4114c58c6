// Package report renders pipeline events for the operator: colored console
// lines through the logger, or hclog JSON objects for machines.
package report

import (
	"errors"
	"strings"
	"time"

	"github.com/backmassage/mediaconv/internal/display"
	"github.com/backmassage/mediaconv/internal/ffmpeg"
	"github.com/backmassage/mediaconv/internal/logging"
	"github.com/backmassage/mediaconv/internal/pipeline"
)

// DefaultProgressStep is the smallest percent advance Console prints for a
// running video.
const DefaultProgressStep = 10

// Console prints events as leveled log lines.
type Console struct {
	Log  *logging.Logger
	Bar  display.ProgressBar
	Step int // Default: DefaultProgressStep.

	lastVideo int
}

// NewConsole returns a Console writing through log.
func NewConsole(log *logging.Logger) *Console {
	return &Console{Log: log, Step: DefaultProgressStep}
}

// Report implements pipeline.Reporter.
func (c *Console) Report(e pipeline.Event) {
	switch ev := e.(type) {
	case pipeline.StateChanged:
		c.state(ev)
	case pipeline.FileStarted:
		c.lastVideo = 0
		c.Log.Info("[%d/%d] %s -> %s", ev.Position, ev.Total, ev.Job.SourceName, ev.Job.DestName())
	case pipeline.VideoProgress:
		c.video(ev)
	case pipeline.FileSucceeded:
		o := ev.Outcome
		c.Log.Success("%s converted in %s (%s -> %s)", o.Job.DestName(),
			display.FormatElapsed(o.Elapsed),
			display.FormatBytes(o.InputBytes), display.FormatBytes(o.OutputBytes))
	case pipeline.FileFailed:
		c.failed(ev.Outcome)
	case pipeline.BatchProgress:
		c.Log.Progress("Batch %s", c.Bar.RenderCount(ev.Processed, ev.Total))
	}
}

func (c *Console) state(ev pipeline.StateChanged) {
	switch ev.To {
	case pipeline.StateScanning:
		c.Log.Debug("Planning jobs")
	case pipeline.StateConvertingImages:
		if ev.Files > 0 {
			c.Log.Info("Converting %d image(s)", ev.Files)
		}
	case pipeline.StateConvertingVideos:
		if ev.Files > 0 {
			c.Log.Info("Converting %d video(s)", ev.Files)
		}
	case pipeline.StateConvertingFonts:
		c.Log.Info("Converting %d font(s)", ev.Files)
	case pipeline.StateDone:
		c.Log.Debug("Batch finished")
	}
}

func (c *Console) video(ev pipeline.VideoProgress) {
	step := c.Step
	if step <= 0 {
		step = DefaultProgressStep
	}
	pct := ev.Sample.Percent
	if pct < 100 && pct-c.lastVideo < step {
		return
	}
	c.lastVideo = pct
	c.Log.Progress("%s %s %s / %s", ev.Job.SourceName, c.Bar.Render(float64(pct)),
		display.FormatClock(seconds(ev.Sample.Elapsed)), display.FormatClock(seconds(ev.Sample.Total)))
}

func (c *Console) failed(o pipeline.Outcome) {
	c.Log.Error("%s: %v", o.Job.SourceName, o.Err)
	var tf *ffmpeg.ToolFailure
	if errors.As(o.Err, &tf) && len(tf.Tail) > 1 {
		c.Log.Debug("Last %s output:", tf.Tool)
		for _, l := range tf.Tail {
			c.Log.Debug("  %s", strings.TrimSpace(l))
		}
	}
}

// Summary prints the end-of-run totals.
func (c *Console) Summary(s pipeline.RunStats) {
	c.Log.Info("==============================")
	c.Log.Info("Done: %d converted, %d failed", s.Converted, s.Failed)
	if s.Interrupted() {
		c.Log.Warn("Interrupted: %d of %d file(s) not attempted", s.Planned-s.Attempted, s.Planned)
	}
	if s.Converted == 0 {
		return
	}
	saved := s.SpaceSaved()
	if saved >= 0 {
		c.Log.Success("Total space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(s.TotalInputBytes),
			display.FormatBytes(s.TotalOutputBytes))
	} else {
		c.Log.Warn("Total space saved: %s (overall output is larger)",
			display.FormatBytesWithSign(saved))
	}
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
