package planner

import (
	"path/filepath"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/media"
	"github.com/backmassage/mediaconv/internal/naming"
)

// FromConfig copies the resolved fields of cfg into a JobPlan.
func FromConfig(cfg *config.Config) JobPlan {
	return JobPlan{
		Mode:             cfg.Mode,
		InputDir:         cfg.InputDir,
		OutputDir:        cfg.OutputDir,
		Ops:              cfg.Ops,
		ImageFormat:      config.NormalizeFormat(cfg.ImageFormat),
		VideoFormat:      config.NormalizeFormat(cfg.VideoFormat),
		FontFormat:       config.NormalizeFormat(cfg.FontFormat),
		CompressionLevel: cfg.CompressionLevel,
		ImagePrefix:      cfg.ImagePrefix,
		VideoPrefix:      cfg.VideoPrefix,
		ImageWorkers:     cfg.ImageWorkers,
	}
}

// BuildJobs derives the ordered job list for plan from the scanned buckets.
//
// Media mode yields images then videos, each in scan order with 1-based
// indices restarting per bucket. Font mode yields only fonts; renaming and
// compression never apply to fonts. Output paths that would collide within
// the run get " - dupN" suffixes.
func BuildJobs(plan *JobPlan, b media.Buckets) []ConversionJob {
	cr := naming.NewCollisionResolver()
	var jobs []ConversionJob

	add := func(names []string, kind media.Kind, format, prefix string, rename bool, level int) {
		for i, name := range names {
			idx := i + 1
			src := filepath.Join(plan.InputDir, name)
			dst := filepath.Join(plan.OutputDir, naming.DestName(name, idx, prefix, rename, format))
			jobs = append(jobs, ConversionJob{
				Index:            idx,
				SourceName:       name,
				SourcePath:       src,
				DestPath:         cr.Resolve(src, dst),
				Kind:             kind,
				TargetFormat:     format,
				CompressionLevel: level,
			})
		}
	}

	if plan.Mode == config.ModeFont {
		add(b.Fonts, media.Font, plan.FontFormat, "", false, 0)
		return jobs
	}

	rename := plan.Ops.WantsRename()
	level := plan.Level()
	add(b.Images, media.Image, plan.ImageFormat, plan.ImagePrefix, rename, level)
	add(b.Videos, media.Video, plan.VideoFormat, plan.VideoPrefix, rename, level)
	return jobs
}
