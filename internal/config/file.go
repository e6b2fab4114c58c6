package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDefaults is the YAML shape of a defaults file. Every field is
// optional; absent fields keep the current value.
//
//	image_format: webp
//	video_format: webm
//	font_format: woff2
//	compression_level: 40
//	image_prefix: photo
//	video_prefix: clip
//	jobs: 4
type fileDefaults struct {
	ImageFormat      *string `yaml:"image_format"`
	VideoFormat      *string `yaml:"video_format"`
	FontFormat       *string `yaml:"font_format"`
	CompressionLevel *int    `yaml:"compression_level"`
	ImagePrefix      *string `yaml:"image_prefix"`
	VideoPrefix      *string `yaml:"video_prefix"`
	Jobs             *int    `yaml:"jobs"`
	FFmpeg           *string `yaml:"ffmpeg"`
	FFprobe          *string `yaml:"ffprobe"`
}

// LoadFile reads a YAML defaults file and applies the fields it sets to cfg.
// Unknown keys are rejected so typos surface instead of being ignored.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	var d fileDefaults
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	d.apply(cfg)
	return nil
}

func (d *fileDefaults) apply(cfg *Config) {
	setString(&cfg.ImageFormat, d.ImageFormat)
	setString(&cfg.VideoFormat, d.VideoFormat)
	setString(&cfg.FontFormat, d.FontFormat)
	setString(&cfg.ImagePrefix, d.ImagePrefix)
	setString(&cfg.VideoPrefix, d.VideoPrefix)
	setString(&cfg.FFmpegPath, d.FFmpeg)
	setString(&cfg.FFprobePath, d.FFprobe)
	if d.CompressionLevel != nil {
		cfg.CompressionLevel = ClampLevel(*d.CompressionLevel)
	}
	if d.Jobs != nil {
		cfg.ImageWorkers = *d.Jobs
	}
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}
