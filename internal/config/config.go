// Package config holds runtime configuration: defaults, CLI flag parsing,
// the optional YAML defaults file, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// --- Enum types for validated string fields ---

// Mode selects which file family a run converts. A run is either media mode
// or font mode, never both.
type Mode string

const (
	ModeMedia Mode = "media" // Images and videos (default).
	ModeFont  Mode = "font"  // Font containers only.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// LogFormat selects how pipeline events are rendered on the console.
type LogFormat string

const (
	LogFormatText LogFormat = "text" // Colored human-readable lines (default).
	LogFormatJSON LogFormat = "json" // One hclog JSON object per event.
)

// Output directory names, created next to the input folder.
const (
	MediaOutputDirName = "converted_media"
	FontOutputDirName  = "converted_fonts"
)

// Operations holds the media-mode operation flags.
type Operations struct {
	Convert  bool // -conv
	Rename   bool // -r
	Compress bool // -comp
	All      bool // -A / -all
}

// Any reports whether at least one operation was requested.
func (o Operations) Any() bool { return o.Convert || o.Rename || o.Compress || o.All }

// WantsConvert reports whether target formats should be asked for.
func (o Operations) WantsConvert() bool { return o.Convert || o.All }

// WantsRename reports whether outputs get sequential prefix+index names.
func (o Operations) WantsRename() bool { return o.Rename || o.All }

// WantsCompress reports whether a compression level should be asked for.
func (o Operations) WantsCompress() bool { return o.Compress || o.All }

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [LoadFile] when a defaults file is given, then by [ParseFlags],
// and finally completed by the interactive prompts before the pipeline runs.
type Config struct {
	// Paths. InputDir comes from the positional arg or the folder prompt;
	// OutputDir is always derived from it (see OutputDirFor).
	InputDir  string
	OutputDir string

	Mode Mode
	Ops  Operations

	// Targets and naming. Defaults: webp, webm, woff2, img, vid.
	ImageFormat      string
	VideoFormat      string
	FontFormat       string
	CompressionLevel int // 0-100; 0 means no forced quality.
	ImagePrefix      string
	VideoPrefix      string

	// Execution.
	ImageWorkers   int    // Default: 1 (strictly sequential).
	AssumeDefaults bool   // -y: take every prompt default except the folder.
	FFmpegPath     string // Default: "ffmpeg" (resolved on PATH).
	FFprobePath    string // Default: "ffprobe".

	// Display and logging.
	Verbose    bool
	ColorMode  ColorMode // Default: "auto".
	LogFormat  LogFormat // Default: "text".
	LogFile    string    // Optional log file path.
	ConfigFile string    // Optional YAML defaults file.
	CheckOnly  bool      // Run -check diagnostics and exit.
}

// DefaultConfig returns a Config with the built-in defaults used before the
// defaults file and CLI flags are applied.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeMedia,
		ImageFormat:      "webp",
		VideoFormat:      "webm",
		FontFormat:       "woff2",
		CompressionLevel: 0,
		ImagePrefix:      "img",
		VideoPrefix:      "vid",
		ImageWorkers:     1,
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		ColorMode:        ColorAuto,
		LogFormat:        LogFormatText,
	}
}

// Supported target formats.
var (
	fontFormats  = map[string]bool{"ttf": true, "otf": true, "woff": true, "woff2": true}
	imageFormats = map[string]bool{
		"webp": true, "png": true, "jpg": true, "jpeg": true,
		"gif": true, "bmp": true, "tif": true, "tiff": true,
	}
)

// ErrNoOperation is returned in media mode when none of -conv, -r, -comp or
// -A was given.
var ErrNoOperation = errors.New("please specify at least one operation (-conv, -r, -comp, -A, or -font)")

// NormalizeFormat lowercases a format name and strips a leading dot.
func NormalizeFormat(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// ValidateFontFormat reports an error unless format is ttf, otf, woff or woff2.
func ValidateFontFormat(format string) error {
	if !fontFormats[NormalizeFormat(format)] {
		return fmt.Errorf("unsupported font format: %s", format)
	}
	return nil
}

// ValidateImageFormat reports an error unless the image encoders can write format.
func ValidateImageFormat(format string) error {
	if !imageFormats[NormalizeFormat(format)] {
		return fmt.Errorf("unsupported image format: %s", format)
	}
	return nil
}

// ClampLevel limits a compression level to 0-100.
func ClampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

// Validate checks enum fields and numeric ranges. It is called after flag
// parsing and again after the prompts have filled in the remaining fields,
// so it must not require InputDir.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMedia, ModeFont:
		// valid
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return errors.New("invalid log format (use 'text' or 'json')")
	}

	if c.ImageWorkers < 1 {
		return fmt.Errorf("jobs must be at least 1 (got %d)", c.ImageWorkers)
	}
	c.CompressionLevel = ClampLevel(c.CompressionLevel)

	if c.CheckOnly {
		return nil
	}
	if c.Mode == ModeMedia && !c.Ops.Any() {
		return ErrNoOperation
	}
	return nil
}

// ValidateTargets checks the resolved target formats for the active mode.
// Unsupported formats are fatal before any file is touched. The image
// format is checked even without -conv because rename and compress still
// write images in it. Prefixes become part of a file name inside the
// output folder, so they may not contain a path separator.
func (c *Config) ValidateTargets() error {
	if c.Mode == ModeFont {
		return ValidateFontFormat(c.FontFormat)
	}
	if err := ValidateImageFormat(c.ImageFormat); err != nil {
		return err
	}
	for _, p := range []struct{ kind, prefix string }{
		{"image", c.ImagePrefix},
		{"video", c.VideoPrefix},
	} {
		if strings.ContainsAny(p.prefix, `/\`) {
			return fmt.Errorf("%s prefix must not contain a path separator: %q", p.kind, p.prefix)
		}
	}
	return nil
}

// NormalizeDirArg strips trailing separators from a directory path.
// The filesystem root is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	path = strings.TrimSpace(path)
	if path == "/" || path == `\` {
		return path
	}
	return strings.TrimRight(path, `/\`)
}

// OutputDirFor returns the sibling output directory for inputDir:
// <parent-of-input>/converted_media or <parent-of-input>/converted_fonts.
func OutputDirFor(inputDir string, mode Mode) string {
	name := MediaOutputDirName
	if mode == ModeFont {
		name = FontOutputDirName
	}
	return filepath.Join(filepath.Dir(filepath.Clean(NormalizeDirArg(inputDir))), name)
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}
