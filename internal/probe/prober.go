package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeError reports that the duration of Path could not be determined:
// ffprobe is missing, exited non-zero, or printed something that is not a
// number.
type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("probe %s: %v", e.Path, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Prober runs ffprobe. The zero value uses "ffprobe" from PATH.
type Prober struct {
	Bin string
}

// Args returns the full ffprobe argument vector for path.
func (p Prober) Args(path string) []string {
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	return []string{bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// Duration returns the container duration of path in seconds.
func (p Prober) Duration(ctx context.Context, path string) (float64, error) {
	args := p.Args(path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return 0, &ProbeError{Path: path, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	d, err := ParseDuration(out)
	if err != nil {
		return 0, &ProbeError{Path: path, Err: err}
	}
	return d, nil
}

// ErrNoDuration is returned by ParseDuration for empty output or the
// literal "N/A" ffprobe prints for streams without a duration.
var ErrNoDuration = errors.New("no duration reported")

// ParseDuration parses ffprobe's single-value output. Exported for testing
// without a real ffprobe binary.
func ParseDuration(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	if s == "" || s == "N/A" {
		return 0, ErrNoDuration
	}
	// Only the first line matters if the container reports several.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}
