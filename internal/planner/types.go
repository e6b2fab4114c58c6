package planner

import (
	"path/filepath"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/media"
)

// JobPlan holds every decision needed before the first file is converted.
// It is fully resolved from flags, the defaults file and the prompts.
type JobPlan struct {
	Mode      config.Mode
	InputDir  string
	OutputDir string // Sibling converted_media / converted_fonts; never inside InputDir.
	Ops       config.Operations

	ImageFormat      string
	VideoFormat      string
	FontFormat       string
	CompressionLevel int // 0-100, only honored when compression was requested.
	ImagePrefix      string
	VideoPrefix      string
	ImageWorkers     int
}

// Level returns the compression level the converters receive: the plan's
// level when -comp or -A was given, 0 otherwise.
func (p *JobPlan) Level() int {
	if p.Mode == config.ModeFont || !p.Ops.WantsCompress() {
		return 0
	}
	return clamp(p.CompressionLevel, 0, 100)
}

// ConversionJob is one file to convert.
type ConversionJob struct {
	Index            int // 1-based within its bucket.
	SourceName       string
	SourcePath       string
	DestPath         string
	Kind             media.Kind
	TargetFormat     string
	CompressionLevel int
}

// DestName returns the base name of DestPath.
func (j ConversionJob) DestName() string { return filepath.Base(j.DestPath) }
