package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
)

// DefaultTailLines is how many stderr lines a Runner keeps for errors.
const DefaultTailLines = 8

// Runner spawns external tools and streams their stderr. A Runner is not
// safe for concurrent use; videos are converted one at a time.
type Runner struct {
	TailLines int // Default: DefaultTailLines.

	tail []string
}

// Run starts args[0] with args[1:] and calls onLine for every stderr line
// (terminated by \n or \r) while the process runs. It returns the exit
// code once the process has been waited on.
//
// A missing or unstartable executable yields a *SpawnError. A non-zero exit
// is returned as a code with a nil error; the caller decides what it means.
// If ctx is cancelled the context error is returned with the code.
func (r *Runner) Run(ctx context.Context, args []string, onLine func(string)) (int, error) {
	r.tail = r.tail[:0]
	if len(args) == 0 {
		return -1, &SpawnError{Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, &SpawnError{Bin: args[0], Err: err}
	}
	if err := cmd.Start(); err != nil {
		return -1, &SpawnError{Bin: args[0], Err: err}
	}

	sc := bufio.NewScanner(stderr)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanStatusLines)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		r.remember(line)
		if onLine != nil {
			onLine(line)
		}
	}
	scanErr := sc.Err()
	if scanErr != nil {
		// Keep the pipe drained so the process can exit.
		_, _ = io.Copy(io.Discard, stderr)
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return exitCode(cmd, waitErr), ctx.Err()
	}
	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return ee.ExitCode(), nil
		}
		return -1, waitErr
	}
	return 0, scanErr
}

// Tail returns the last stderr lines of the most recent Run, oldest first.
func (r *Runner) Tail() []string {
	out := make([]string, len(r.tail))
	copy(out, r.tail)
	return out
}

// Failure wraps the exit code of the most recent Run as a *ToolFailure.
func (r *Runner) Failure(bin string, code int) *ToolFailure {
	return &ToolFailure{Tool: filepath.Base(bin), Code: code, Tail: r.Tail()}
}

func (r *Runner) remember(line string) {
	n := r.TailLines
	if n <= 0 {
		n = DefaultTailLines
	}
	if len(r.tail) == n {
		copy(r.tail, r.tail[1:])
		r.tail = r.tail[:n-1]
	}
	r.tail = append(r.tail, line)
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}

// scanStatusLines is a bufio.SplitFunc that ends a line at \n or \r.
// ffmpeg redraws its status line with \r, so each redraw becomes a line.
// "\r\n" yields an empty token which Run skips.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
