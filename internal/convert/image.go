package convert

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/planner"
)

// ImageConverter re-encodes still images. The zero value is ready to use
// and safe for concurrent use.
type ImageConverter struct{}

// Convert decodes src, applying EXIF orientation, and writes it to dst in
// the format named by dst's extension. A level above 0 forces quality
// max(1, 100-level); level 0 keeps each encoder's default (lossless WebP).
func (ImageConverter) Convert(src, dst string, level int) error {
	format := config.NormalizeFormat(filepath.Ext(dst))
	encode, err := imageEncoder(format, level)
	if err != nil {
		return &EncodeError{Path: dst, Format: format, Err: err}
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return &DecodeError{Path: src, Err: err}
	}

	if err := writeFile(dst, func(w io.Writer) error { return encode(w, img) }); err != nil {
		return &EncodeError{Path: dst, Format: format, Err: err}
	}
	return nil
}

type encodeFunc func(w io.Writer, img image.Image) error

// imageEncoder resolves the encoder for format before anything is read.
func imageEncoder(format string, level int) (encodeFunc, error) {
	quality, lossy := planner.ImageQuality(level)

	if format == "webp" {
		opts := &webp.Options{Lossless: true}
		if lossy {
			opts = &webp.Options{Quality: float32(quality)}
		}
		return func(w io.Writer, img image.Image) error { return webp.Encode(w, img, opts) }, nil
	}

	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, ErrUnsupportedFormat
	}
	var opts []imaging.EncodeOption
	if lossy {
		switch f {
		case imaging.JPEG:
			opts = append(opts, imaging.JPEGQuality(quality))
		case imaging.PNG:
			opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
		case imaging.GIF:
			opts = append(opts, imaging.GIFNumColors(gifColors(quality)))
		}
	}
	return func(w io.Writer, img image.Image) error { return imaging.Encode(w, img, f, opts...) }, nil
}

// gifColors scales the 256-color palette by quality, never below 2.
func gifColors(quality int) int {
	n := 256 * quality / 100
	if n < 2 {
		return 2
	}
	return n
}

// writeFile creates path, runs fill, and removes the file again when
// anything fails.
func writeFile(path string, fill func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return fill(f)
}
