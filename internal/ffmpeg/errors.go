package ffmpeg

import (
	"fmt"
	"strings"
)

// SpawnError reports that an external tool could not be located or started.
type SpawnError struct {
	Bin string
	Err error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("start %s: %v", e.Bin, e.Err) }

func (e *SpawnError) Unwrap() error { return e.Err }

// ToolFailure reports a non-zero exit. Tail holds the last stderr lines,
// which usually name the cause.
type ToolFailure struct {
	Tool string
	Code int
	Tail []string
}

func (e *ToolFailure) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.Code)
	if len(e.Tail) > 0 {
		msg += ": " + e.Tail[len(e.Tail)-1]
	}
	return msg
}

// Detail returns the whole stderr tail, one line per entry.
func (e *ToolFailure) Detail() string { return strings.Join(e.Tail, "\n") }
