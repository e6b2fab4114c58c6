// Package prompt asks the operator for the values flags did not settle:
// the input folder, target formats, compression level and name prefixes.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/backmassage/mediaconv/internal/config"
	"github.com/backmassage/mediaconv/internal/media"
)

// ErrNoFolder is returned when the folder prompt gets an empty answer.
var ErrNoFolder = errors.New("no input folder given")

// maxLevelAttempts bounds re-asking for a compression level.
const maxLevelAttempts = 3

// Prompter reads answers line by line. With AssumeDefaults set, every
// question except the folder takes its default without reading.
type Prompter struct {
	in             *bufio.Reader
	out            io.Writer
	AssumeDefaults bool

	// Notice receives informational messages such as the woff2 default
	// notice. Default: a line on out.
	Notice func(format string, args ...interface{})
}

// New returns a Prompter reading from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// readLine returns the next trimmed line. io.EOF is only returned when no
// text at all was read.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ask prints question with its default and returns the answer, or def for
// an empty answer or closed input.
func (p *Prompter) ask(question, def string) string {
	if p.AssumeDefaults {
		fmt.Fprintf(p.out, "%s: %s\n", question, def)
		return def
	}
	fmt.Fprintf(p.out, "%s (default is %s): ", question, def)
	answer, err := p.readLine()
	if err != nil || answer == "" {
		return def
	}
	return answer
}

func (p *Prompter) notice(format string, args ...interface{}) {
	if p.Notice != nil {
		p.Notice(format, args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// InputFolder asks for the folder to convert. It always reads, even with
// AssumeDefaults, because there is no sensible default.
func (p *Prompter) InputFolder() (string, error) {
	fmt.Fprint(p.out, "Enter the input folder path: ")
	answer, err := p.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	answer = config.NormalizeDirArg(answer)
	if answer == "" {
		return "", ErrNoFolder
	}
	return answer, nil
}

// Resolve fills the remaining fields of cfg for the files found in b.
// Media mode asks only what the requested operations and present file
// kinds need; font mode asks for the font format.
func (p *Prompter) Resolve(cfg *config.Config, b media.Buckets) error {
	if cfg.Mode == config.ModeFont {
		cfg.FontFormat = config.NormalizeFormat(
			p.ask("Enter the desired font format (ttf, otf, woff, woff2)", cfg.FontFormat))
		if cfg.FontFormat == "woff2" {
			p.notice("Defaulting to woff2")
		}
		return nil
	}

	hasImages, hasVideos := len(b.Images) > 0, len(b.Videos) > 0
	if cfg.Ops.WantsConvert() {
		if hasImages {
			cfg.ImageFormat = config.NormalizeFormat(p.ask("Enter the desired image format", cfg.ImageFormat))
		}
		if hasVideos {
			cfg.VideoFormat = config.NormalizeFormat(p.ask("Enter the desired video format", cfg.VideoFormat))
		}
	}

	if cfg.Ops.WantsCompress() {
		level, err := p.level(cfg.CompressionLevel)
		if err != nil {
			return err
		}
		cfg.CompressionLevel = level
	}

	if cfg.Ops.WantsRename() {
		if hasImages {
			cfg.ImagePrefix = p.ask("Enter prefix for images", cfg.ImagePrefix)
		}
		if hasVideos {
			cfg.VideoPrefix = p.ask("Enter prefix for videos", cfg.VideoPrefix)
		}
	}
	return nil
}

// level asks for a compression level until it gets an integer, clamping it
// to 0-100.
func (p *Prompter) level(def int) (int, error) {
	const q = "Enter compression level (0-100, 0 for no compression)"
	for i := 0; i < maxLevelAttempts; i++ {
		answer := p.ask(q, strconv.Itoa(def))
		n, err := strconv.Atoi(answer)
		if err == nil {
			return config.ClampLevel(n), nil
		}
		p.notice("Not a number: %q", answer)
	}
	return 0, fmt.Errorf("no valid compression level after %d attempts", maxLevelAttempts)
}
