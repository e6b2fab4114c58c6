package convert

import (
	"fmt"
	"io"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/sfnt"
)

// wrapperTags are tables some tools leave behind in desktop fonts that
// were unpacked from a web container.
var wrapperTags = []string{"WOFF", "wOFF", "WOFF2", "wOFF2"}

// FontConverter rewrites font containers. The zero value is ready to use.
type FontConverter struct{}

// Convert writes src to dst in format (ttf, otf, woff or woff2). The format
// is checked before src is opened. Outlines and hinting are carried over
// unchanged.
func (FontConverter) Convert(src, dst, format string) error {
	format = config.NormalizeFormat(format)
	if err := config.ValidateFontFormat(format); err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	f, err := sfnt.Load(src)
	if err != nil {
		return &LoadError{Path: src, Err: err}
	}

	switch format {
	case "ttf", "otf":
		for _, tag := range wrapperTags {
			f.Delete(tag)
		}
		f.Meta, f.Private = nil, nil
		f.Flavor = sfnt.FlavorNone
	case "woff":
		f.Flavor = sfnt.FlavorWOFF
	case "woff2":
		f.Flavor = sfnt.FlavorWOFF2
	}

	return saveFont(f, dst)
}

// saveFont encodes f before dst is opened, so a font that fails to encode
// leaves an existing dst alone. Only a failed write removes dst.
func saveFont(f *sfnt.Font, dst string) error {
	data, err := f.Encode()
	if err != nil {
		return &SaveError{Path: dst, Err: err}
	}
	err = writeFile(dst, func(w io.Writer) error {
		_, werr := w.Write(data)
		return werr
	})
	if err != nil {
		return &SaveError{Path: dst, Err: err}
	}
	return nil
}
