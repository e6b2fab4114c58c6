// Command mediaconv batch-converts the images, videos or fonts found in one
// folder. It parses flags, asks for whatever the flags left open, validates
// paths and tools, and then runs the conversion pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/mediaconv/internal/check"
	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/convert"
	"github.com/backmassage/mediaconv/internal/display"
	"github.com/backmassage/mediaconv/internal/logging"
	"github.com/backmassage/mediaconv/internal/media"
	"github.com/backmassage/mediaconv/internal/pipeline"
	"github.com/backmassage/mediaconv/internal/planner"
	"github.com/backmassage/mediaconv/internal/probe"
	"github.com/backmassage/mediaconv/internal/prompt"
	"github.com/backmassage/mediaconv/internal/report"
)

// version and commit are set at build time via -ldflags (e.g. Makefile).
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Load config from defaults, the optional defaults file and CLI flags.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, os.Args[1:], version); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, config.ErrVersion) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "mediaconv: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "mediaconv: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mediaconv: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner(os.Stdout)
	log.Debug("mediaconv %s (%s)", version, commit)

	// 2. If user asked for system check, run it and exit successfully.
	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return 0
	}

	if cfg.Mode == config.ModeFont && (cfg.Ops.Rename || cfg.Ops.Compress || cfg.Ops.All) {
		log.Warn("Rename and compression options are not applicable for font conversion. These options will be ignored.")
	}

	// 3. Folder: positional argument or prompt, then one scan.
	p := prompt.New(os.Stdin, os.Stdout)
	p.AssumeDefaults = cfg.AssumeDefaults
	p.Notice = log.Info
	if cfg.InputDir == "" {
		dir, err := p.InputFolder()
		if err != nil {
			log.Error("Invalid folder path: %v", err)
			return 1
		}
		cfg.InputDir = dir
	}

	log.Info("Analyzing folder contents...")
	buckets, err := media.Scan(cfg.InputDir)
	if err != nil {
		log.Error("Invalid folder path: %v", err)
		return 1
	}
	if cfg.Mode == config.ModeFont && buckets.Media() > 0 {
		log.Skip("%d image/video file(s) ignored in font mode", buckets.Media())
	} else if cfg.Mode == config.ModeMedia && len(buckets.Fonts) > 0 {
		log.Skip("%d font file(s) ignored (use -font)", len(buckets.Fonts))
	}
	if !hasWork(cfg.Mode, buckets) {
		if cfg.Mode == config.ModeFont {
			log.Warn("No supported font files found")
		} else {
			log.Warn("No supported media files found")
		}
		return 1
	}

	// 4. Ask for what the flags left open, then check the answers.
	if err := p.Resolve(&cfg, buckets); err != nil {
		log.Error("%v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		return 1
	}
	if err := cfg.ValidateTargets(); err != nil {
		log.Error("%v", err)
		return 1
	}

	// 5. Resolve and validate paths: output is a sibling of the input,
	// created if needed, and never inside it.
	cfg.OutputDir = config.OutputDirFor(cfg.InputDir, cfg.Mode)
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputDir)
		return 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("Cannot create output directory: %s", cfg.OutputDir)
		return 1
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		return 1
	}
	log.Info("Output folder: %s", cfg.OutputDir)

	// 6. Videos need ffmpeg, ffprobe and both encoders; fail fast otherwise.
	if cfg.Mode == config.ModeMedia && len(buckets.Videos) > 0 {
		if err := check.CheckDeps(&cfg); err != nil {
			log.Error("%v", err)
			return 1
		}
	}

	// 7. Run the batch until done or interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := report.New(&cfg, log, os.Stdout)

	videos := &convert.VideoConverter{
		FFmpeg: cfg.FFmpegPath,
		Prober: probe.Prober{Bin: cfg.FFprobePath},
	}
	if log.Verbose() {
		videos.OnLine = func(line string) { log.Debug("ffmpeg: %s", line) }
	}
	orch := &pipeline.Orchestrator{
		Images:   convert.ImageConverter{},
		Videos:   videos,
		Fonts:    convert.FontConverter{},
		Reporter: rep,
	}

	plan := planner.FromConfig(&cfg)
	planned := len(planner.BuildJobs(&plan, buckets))
	outcomes := orch.Run(ctx, &plan, buckets)
	rep.Summary(pipeline.Summarize(planned, outcomes))
	return 0
}

// hasWork reports whether b holds files the mode converts.
func hasWork(mode config.Mode, b media.Buckets) bool {
	if mode == config.ModeFont {
		return len(b.Fonts) > 0
	}
	return b.Media() > 0
}

// absPath returns the absolute path with symlinks resolved, for comparing input vs output hierarchy.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
