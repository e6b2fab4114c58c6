package convert

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when the requested target format has no
// encoder. It is checked before any file is opened or written.
var ErrUnsupportedFormat = errors.New("unsupported format")

// DecodeError reports an unreadable or corrupt image input.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Path, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that the output could not be written in the target
// container.
type EncodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// LoadError reports a font file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load font %s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a font that could not be serialized or written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save font %s: %v", e.Path, e.Err) }

func (e *SaveError) Unwrap() error { return e.Err }
