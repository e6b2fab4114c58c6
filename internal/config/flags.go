package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into operations, targets, execution, display, and utility.
// The defaults file (-config) is loaded between two parse passes so that
// explicit flags always win over file values.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrVersion is returned by ParseFlags after printing the version string.
// Callers should exit successfully.
var ErrVersion = errors.New("version requested")

// ParseFlags parses args (without the program name) into cfg. On -help it
// prints usage and returns flag.ErrHelp; on -version it prints the version
// and returns ErrVersion. Any other error is a usage error.
func ParseFlags(cfg *Config, args []string, version string) error {
	// First pass: only to discover -config, so the file can be applied
	// underneath the flags in the second pass.
	scratch := *cfg
	pre := newFlagSet(&scratch, &utilityFlags{}, version, io.Discard)
	if err := pre.Parse(args); err != nil && !errors.Is(err, flag.ErrHelp) {
		return err
	}
	if scratch.ConfigFile != "" {
		if err := LoadFile(scratch.ConfigFile, cfg); err != nil {
			return err
		}
		cfg.ConfigFile = scratch.ConfigFile
	}

	var u utilityFlags
	fs := newFlagSet(cfg, &u, version, os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if u.showHelp {
		printUsage(os.Stderr, version)
		return flag.ErrHelp
	}
	if u.showVersion {
		fmt.Fprintln(os.Stdout, "mediaconv v"+version)
		return ErrVersion
	}

	applyUtilityFlags(cfg, &u)
	return parsePositionalArgs(fs, cfg)
}

// utilityFlags holds boolean flags that are applied after Parse.
type utilityFlags struct {
	font        bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

func newFlagSet(cfg *Config, u *utilityFlags, version string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("mediaconv", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { printUsage(out, version) }

	defineOperationFlags(fs, cfg, u)
	defineTargetFlags(fs, cfg)
	defineExecutionFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, u)
	defineUtilityFlags(fs, cfg, u)
	return fs
}

// defineOperationFlags registers -conv, -r, -comp, -A/-all and -font.
func defineOperationFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.BoolVar(&cfg.Ops.Convert, "conv", cfg.Ops.Convert, "Convert files")
	fs.BoolVar(&cfg.Ops.Rename, "r", cfg.Ops.Rename, "Rename files")
	fs.BoolVar(&cfg.Ops.Compress, "comp", cfg.Ops.Compress, "Compress files")
	fs.BoolVar(&cfg.Ops.All, "all", cfg.Ops.All, "Perform all above operations")
	fs.BoolVar(&cfg.Ops.All, "A", cfg.Ops.All, "Same as --all")
	fs.BoolVar(&u.font, "font", cfg.Mode == ModeFont, "Convert font files")
}

// defineTargetFlags registers the prompt-default overrides.
func defineTargetFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ImageFormat, "image-format", cfg.ImageFormat, "Default image format")
	fs.StringVar(&cfg.VideoFormat, "video-format", cfg.VideoFormat, "Default video format")
	fs.StringVar(&cfg.FontFormat, "font-format", cfg.FontFormat, "Default font format")
	fs.IntVar(&cfg.CompressionLevel, "level", cfg.CompressionLevel, "Default compression level (0-100)")
	fs.StringVar(&cfg.ImagePrefix, "image-prefix", cfg.ImagePrefix, "Default image filename prefix")
	fs.StringVar(&cfg.VideoPrefix, "video-prefix", cfg.VideoPrefix, "Default video filename prefix")
}

// defineExecutionFlags registers -y, -jobs, -ffmpeg, -ffprobe, -config.
func defineExecutionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.AssumeDefaults, "yes", cfg.AssumeDefaults, "Accept prompt defaults")
	fs.BoolVar(&cfg.AssumeDefaults, "y", cfg.AssumeDefaults, "Same as --yes")
	fs.IntVar(&cfg.ImageWorkers, "jobs", cfg.ImageWorkers, "Concurrent image conversions")
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg executable")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "ffprobe executable")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML file with prompt defaults")
}

// defineDisplayFlags registers --color, --no-color, --log-format, verbose, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.BoolVar(&u.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&u.noColor, "no-color", false, "Disable colored logs")
	fs.Var(&logFormatValue{&cfg.LogFormat}, "log-format", "Event rendering: text | json")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --check, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&u.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&u.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&u.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&u.showHelp, "h", false, "Same as --help")
}

// applyUtilityFlags copies mode and color overrides into cfg.
func applyUtilityFlags(cfg *Config, u *utilityFlags) {
	if u.font {
		cfg.Mode = ModeFont
	}
	if u.noColor {
		cfg.ColorMode = ColorNever
	} else if u.forceColor {
		cfg.ColorMode = ColorAlways
	}
	cfg.ImageFormat = NormalizeFormat(cfg.ImageFormat)
	cfg.VideoFormat = NormalizeFormat(cfg.VideoFormat)
	cfg.FontFormat = NormalizeFormat(cfg.FontFormat)
}

// parsePositionalArgs sets InputDir from the optional positional argument.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	switch len(args) {
	case 0:
		return nil
	case 1:
		cfg.InputDir = NormalizeDirArg(args[0])
		return nil
	default:
		return fmt.Errorf("expected at most one input folder, got %d arguments", len(args))
	}
}

// printUsage writes the help text to w. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 28
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "mediaconv v" + version + " - batch image, video and font converter"},
		{"", ""},
		{"  mediaconv [OPTIONS] [input_dir]", ""},
		{"", ""},
		{"Operations (media mode)", ""},
		{"  -conv", "Convert files to the chosen formats"},
		{"  -r", "Rename files to <prefix><n>"},
		{"  -comp", "Compress files (asks for a 0-100 level)"},
		{"  -A, --all", "Perform all above operations"},
		{"", ""},
		{"Font mode", ""},
		{"  -font", "Convert font files (ttf, otf, woff, woff2)"},
		{"", ""},
		{"Defaults for prompts", ""},
		{"  --image-format <fmt>", "Image format (default: webp)"},
		{"  --video-format <fmt>", "Video format (default: webm)"},
		{"  --font-format <fmt>", "Font format (default: woff2)"},
		{"  --level <0-100>", "Compression level (default: 0)"},
		{"  --image-prefix <p>", "Image prefix (default: img)"},
		{"  --video-prefix <p>", "Video prefix (default: vid)"},
		{"  --config <path>", "YAML file with the defaults above"},
		{"  -y, --yes", "Accept defaults without asking"},
		{"", ""},
		{"Execution", ""},
		{"  --jobs <n>", "Concurrent image conversions (default: 1)"},
		{"  --ffmpeg <path>", "ffmpeg executable (default: ffmpeg)"},
		{"  --ffprobe <path>", "ffprobe executable (default: ffprobe)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  --log-format <text|json>", "Console event format (default: text)"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  --check", "System diagnostics (ffmpeg, ffprobe, VP9, Opus)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		switch {
		case l.flags == "" && l.desc == "":
			fmt.Fprintln(w)
		case l.desc == "":
			fmt.Fprintln(w, l.flags)
		case l.flags == "":
			fmt.Fprintln(w, l.desc)
		default:
			padding := col1 - len(l.flags)
			if padding < 1 {
				padding = 1
			}
			fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
		}
	}
}

// flag.Value adapter so LogFormat can be used with flag.Var.

type logFormatValue struct{ p *LogFormat }

func (l *logFormatValue) String() string {
	if l.p == nil {
		return ""
	}
	return string(*l.p)
}

func (l *logFormatValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "text":
		*l.p = LogFormatText
	case "json":
		*l.p = LogFormatJSON
	default:
		return fmt.Errorf("invalid log format %q (use 'text' or 'json')", s)
	}
	return nil
}
