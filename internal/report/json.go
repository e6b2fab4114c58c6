package report

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/backmassage/mediaconv/internal/ffmpeg"
	"github.com/backmassage/mediaconv/internal/pipeline"
)

// JSON writes one hclog JSON object per event. Every object carries the
// run_id of the batch.
type JSON struct {
	RunID string
	log   hclog.Logger
}

// NewJSON returns a JSON reporter writing to w with a fresh run id.
func NewJSON(w io.Writer) *JSON {
	id := uuid.NewString()
	l := hclog.New(&hclog.LoggerOptions{
		Name:       "mediaconv",
		Output:     w,
		JSONFormat: true,
		Level:      hclog.Info,
	})
	return &JSON{RunID: id, log: l.With("run_id", id)}
}

// Report implements pipeline.Reporter.
func (j *JSON) Report(e pipeline.Event) {
	switch ev := e.(type) {
	case pipeline.StateChanged:
		j.log.Info("state_changed", "from", ev.From.String(), "to", ev.To.String(), "files", ev.Files)
	case pipeline.FileStarted:
		j.log.Info("file_started",
			"source", ev.Job.SourcePath, "dest", ev.Job.DestPath,
			"kind", ev.Job.Kind.String(), "position", ev.Position, "total", ev.Total)
	case pipeline.VideoProgress:
		j.log.Info("video_progress",
			"source", ev.Job.SourcePath, "percent", ev.Sample.Percent,
			"elapsed", ev.Sample.Elapsed, "duration", ev.Sample.Total)
	case pipeline.FileSucceeded:
		o := ev.Outcome
		j.log.Info("file_succeeded",
			"source", o.Job.SourcePath, "dest", o.Job.DestPath,
			"input_bytes", o.InputBytes, "output_bytes", o.OutputBytes,
			"elapsed_ms", o.Elapsed.Milliseconds())
	case pipeline.FileFailed:
		o := ev.Outcome
		args := []interface{}{
			"source", o.Job.SourcePath, "dest", o.Job.DestPath,
			"error", o.Err.Error(), "elapsed_ms", o.Elapsed.Milliseconds(),
		}
		var tf *ffmpeg.ToolFailure
		if errors.As(o.Err, &tf) && len(tf.Tail) > 0 {
			args = append(args, "tool_output", tf.Detail())
		}
		j.log.Error("file_failed", args...)
	case pipeline.BatchProgress:
		j.log.Info("batch_progress", "processed", ev.Processed, "total", ev.Total)
	}
}

// Summary writes the end-of-run totals.
func (j *JSON) Summary(s pipeline.RunStats) {
	j.log.Info("summary",
		"planned", s.Planned, "attempted", s.Attempted,
		"converted", s.Converted, "failed", s.Failed,
		"input_bytes", s.TotalInputBytes, "output_bytes", s.TotalOutputBytes,
		"interrupted", s.Interrupted())
}
