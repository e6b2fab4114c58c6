// Package check provides system diagnostics (-check mode) and pre-pipeline
// dependency validation (CheckDeps) for ffmpeg, ffprobe, libvpx-vp9 and
// libopus.
package check

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/ffmpeg"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrEncoderMissing  = errors.New("ffmpeg lacks a required encoder")
)

// requiredEncoders are the encoders every video conversion uses.
var requiredEncoders = []string{ffmpeg.VideoCodec, ffmpeg.AudioCodec}

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// RunCheck runs the interactive -check flow: prints the ffmpeg and ffprobe
// versions, whether the VP9 and Opus encoders are built in, and the result
// of a short test encode. It is informational only and does not stop on
// failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	ffmpegOK := checkVersion(log, cfg.FFmpegPath)
	checkVersion(log, cfg.FFprobePath)
	if !ffmpegOK {
		return
	}
	checkEncoders(log, cfg.FFmpegPath)
	checkTestEncode(log, cfg.FFmpegPath)
}

// checkVersion verifies bin is on PATH and logs its version string.
func checkVersion(log Logger, bin string) bool {
	if _, err := exec.LookPath(bin); err != nil {
		log.Error("%s not found", bin)
		return false
	}
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", bin, err)
		return false
	}
	log.Success("%s", firstLine(string(out)))
	return true
}

// checkEncoders reports each required encoder as present or missing.
func checkEncoders(log Logger, bin string) {
	out, err := listEncoders(bin)
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	for _, name := range requiredEncoders {
		if hasEncoder(out, name) {
			log.Success("Encoder %s available", name)
		} else {
			log.Error("Encoder %s missing", name)
		}
	}
}

// checkTestEncode runs a minimal VP9/Opus encode to a null muxer.
func checkTestEncode(log Logger, bin string) {
	log.Info("Testing VP9/Opus encode...")
	if runSilent(bin, testEncodeArgs()...) {
		log.Success("VP9/Opus test encode works")
	} else {
		log.Error("VP9/Opus test encode failed")
	}
}

// CheckDeps is the pre-pipeline validation for runs that convert videos:
// ffmpeg and ffprobe must resolve and ffmpeg must list both required
// encoders. Returns a sentinel error (possibly wrapped) on failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		return ErrFfprobeNotFound
	}
	out, err := listEncoders(cfg.FFmpegPath)
	if err != nil {
		return fmt.Errorf("list ffmpeg encoders: %w", err)
	}
	for _, name := range requiredEncoders {
		if !hasEncoder(out, name) {
			return fmt.Errorf("%w: %s", ErrEncoderMissing, name)
		}
	}
	return nil
}

// --- internal helpers ---

func listEncoders(bin string) (string, error) {
	out, err := exec.Command(bin, "-hide_banner", "-encoders").Output()
	return string(out), err
}

// hasEncoder reports whether the `ffmpeg -encoders` listing names encoder.
// Listing lines look like " V....D libvpx-vp9           libvpx VP9".
func hasEncoder(listing, encoder string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == encoder {
			return true
		}
	}
	return false
}

// testEncodeArgs returns the ffmpeg arguments for a minimal VP9/Opus encode.
func testEncodeArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=64x64:d=0.1",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:v", ffmpeg.VideoCodec, "-c:a", ffmpeg.AudioCodec,
		"-f", "null", "-",
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return s
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
