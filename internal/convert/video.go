package convert

import (
	"context"
	"os"

	"github.com/backmassage/mediaconv/internal/ffmpeg"
	"github.com/backmassage/mediaconv/internal/planner"
	"github.com/backmassage/mediaconv/internal/probe"
)

// DurationProber reports a media file's duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ProgressSink receives percent samples while a video is encoded.
type ProgressSink func(ffmpeg.ProgressSample)

// VideoConverter encodes videos to VP9/Opus with ffmpeg. Videos are
// converted one at a time; a VideoConverter is not safe for concurrent use.
type VideoConverter struct {
	FFmpeg string                // Default: "ffmpeg".
	Prober DurationProber        // Default: probe.Prober with "ffprobe".
	Parser ffmpeg.ProgressParser // Default: ffmpeg.TimeParser.
	Runner *ffmpeg.Runner        // Default: a fresh Runner per converter.

	// OnLine, when set, sees every ffmpeg stderr line (verbose logging).
	OnLine func(string)
}

// Convert encodes src into dst at CRF min(51, 23+level/4). Probe failures
// abort before ffmpeg starts. A non-zero exit is returned as
// *ffmpeg.ToolFailure and dst is removed. On success sink always ends with
// a 100% sample.
func (c *VideoConverter) Convert(ctx context.Context, src, dst string, level int, sink ProgressSink) error {
	prober := c.Prober
	if prober == nil {
		prober = probe.Prober{}
	}
	duration, err := prober.Duration(ctx, src)
	if err != nil {
		return err
	}

	bin := c.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	if c.Runner == nil {
		c.Runner = &ffmpeg.Runner{}
	}

	tracker := ffmpeg.NewTracker(duration, c.Parser)
	emit := func(s ffmpeg.ProgressSample, ok bool) {
		if ok && sink != nil {
			sink(s)
		}
	}

	args := ffmpeg.BuildVideoArgs(bin, src, dst, planner.CRF(level))
	code, err := c.Runner.Run(ctx, args, func(line string) {
		if c.OnLine != nil {
			c.OnLine(line)
		}
		emit(tracker.Observe(line))
	})
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if code != 0 {
		_ = os.Remove(dst)
		return c.Runner.Failure(bin, code)
	}
	emit(tracker.Finish())
	return nil
}
