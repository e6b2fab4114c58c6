package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/convert"
	"github.com/backmassage/mediaconv/internal/ffmpeg"
	"github.com/backmassage/mediaconv/internal/media"
	"github.com/backmassage/mediaconv/internal/planner"
)

// ImageConverter, VideoConverter and FontConverter are the converter
// contracts the orchestrator depends on. The convert package provides the
// real implementations; tests substitute fakes.
type ImageConverter interface {
	Convert(src, dst string, level int) error
}

type VideoConverter interface {
	Convert(ctx context.Context, src, dst string, level int, sink convert.ProgressSink) error
}

type FontConverter interface {
	Convert(src, dst, format string) error
}

// Orchestrator runs one batch at a time.
type Orchestrator struct {
	Images   ImageConverter
	Videos   VideoConverter
	Fonts    FontConverter
	Reporter Reporter // Optional.

	mu    sync.Mutex
	state State
	total int

	// rmu serializes reporter calls and guards processed, so
	// BatchProgress counts reach the reporter in order.
	rmu       sync.Mutex
	processed int
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run converts every job derived from plan and b and returns the outcomes
// in job order. Only attempted files have an outcome: after ctx is
// cancelled no further file is started.
func (o *Orchestrator) Run(ctx context.Context, plan *planner.JobPlan, b media.Buckets) []Outcome {
	o.mu.Lock()
	o.state, o.total = StateIdle, 0
	o.mu.Unlock()
	o.rmu.Lock()
	o.processed = 0
	o.rmu.Unlock()

	var outcomes []Outcome
	if plan.Mode == config.ModeFont {
		jobs := planner.BuildJobs(plan, b)
		o.mu.Lock()
		o.total = len(jobs)
		o.mu.Unlock()

		o.transition(StateConvertingFonts, len(jobs))
		outcomes = o.sequential(ctx, jobs, 0)
		o.transition(StateDone, 0)
		return outcomes
	}

	o.transition(StateScanning, 0)
	jobs := planner.BuildJobs(plan, b)
	images, videos := splitByKind(jobs)
	o.mu.Lock()
	o.total = len(jobs)
	o.mu.Unlock()

	o.transition(StateConvertingImages, len(images))
	if plan.ImageWorkers > 1 {
		outcomes = o.pooled(ctx, images, plan.ImageWorkers)
	} else {
		outcomes = o.sequential(ctx, images, 0)
	}

	o.transition(StateConvertingVideos, len(videos))
	outcomes = append(outcomes, o.sequential(ctx, videos, len(images))...)

	o.transition(StateDone, 0)
	return outcomes
}

func splitByKind(jobs []planner.ConversionJob) (images, videos []planner.ConversionJob) {
	for _, j := range jobs {
		if j.Kind == media.Image {
			images = append(images, j)
		} else {
			videos = append(videos, j)
		}
	}
	return images, videos
}

// sequential runs jobs one after another. offset is the number of batch
// positions before the first job.
func (o *Orchestrator) sequential(ctx context.Context, jobs []planner.ConversionJob, offset int) []Outcome {
	var out []Outcome
	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		out = append(out, o.runJob(ctx, job, offset+i+1))
	}
	return out
}

// pooled runs image jobs on at most workers goroutines and returns the
// attempted outcomes in job order.
func (o *Orchestrator) pooled(ctx context.Context, jobs []planner.ConversionJob, workers int) []Outcome {
	slots := make([]*Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		i, job := i, job
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := o.runJob(ctx, job, i+1)
			slots[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Outcome, 0, len(jobs))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (o *Orchestrator) runJob(ctx context.Context, job planner.ConversionJob, position int) Outcome {
	o.emit(FileStarted{Job: job, Position: position, Total: o.totalJobs()})

	start := time.Now()
	res := Outcome{Job: job, InputBytes: fileSize(job.SourcePath)}

	var err error
	switch job.Kind {
	case media.Image:
		err = o.Images.Convert(job.SourcePath, job.DestPath, job.CompressionLevel)
	case media.Video:
		err = o.Videos.Convert(ctx, job.SourcePath, job.DestPath, job.CompressionLevel,
			func(s ffmpeg.ProgressSample) { o.emit(VideoProgress{Job: job, Sample: s}) })
	case media.Font:
		err = o.Fonts.Convert(job.SourcePath, job.DestPath, job.TargetFormat)
	default:
		err = fmt.Errorf("%s: no converter for %s files", job.SourceName, job.Kind)
	}
	res.Elapsed = time.Since(start)

	if err != nil {
		res.Status, res.Err = StatusFailure, err
		o.emit(FileFailed{Outcome: res})
	} else {
		res.Status = StatusSuccess
		res.OutputBytes = fileSize(job.DestPath)
		o.emit(FileSucceeded{Outcome: res})
	}

	total := o.totalJobs()
	o.rmu.Lock()
	o.processed++
	o.report(BatchProgress{Processed: o.processed, Total: total})
	o.rmu.Unlock()
	return res
}

func (o *Orchestrator) transition(to State, files int) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()
	o.emit(StateChanged{From: from, To: to, Files: files})
}

func (o *Orchestrator) totalJobs() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.total
}

func (o *Orchestrator) emit(e Event) {
	o.rmu.Lock()
	defer o.rmu.Unlock()
	o.report(e)
}

// report must be called with rmu held.
func (o *Orchestrator) report(e Event) {
	if o.Reporter != nil {
		o.Reporter.Report(e)
	}
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
