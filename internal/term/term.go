// Package term provides color state and terminal detection.
//
// Colors are package-level values because multiple packages (logging,
// display, report) format with them. [Configure] sets the global
// fatih/color switch once during startup; when colors are disabled every
// Sprint call returns its input unchanged.
package term

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/backmassage/mediaconv/internal/config"
)

// Palette. Bold bright variants to match the log level colors.
var (
	Red     = color.New(color.Bold, color.FgHiRed)
	Green   = color.New(color.Bold, color.FgHiGreen)
	Yellow  = color.New(color.Bold, color.FgHiYellow)
	Orange  = color.New(color.Bold, color.Attribute(38), color.Attribute(5), color.Attribute(208))
	Blue    = color.New(color.Bold, color.FgHiBlue)
	Cyan    = color.New(color.Bold, color.FgHiCyan)
	Magenta = color.New(color.Bold, color.FgHiMagenta)
)

// Configure resolves the color mode and toggles color output globally.
// Call once during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode) {
	color.NoColor = !resolve(mode)
}

// Enabled reports whether colors are currently active.
func Enabled() bool { return !color.NoColor }

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
