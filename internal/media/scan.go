package media

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotADirectory is returned (wrapped with the path) when Scan is given a
// path that is missing, unreadable or not a directory.
var ErrNotADirectory = errors.New("not a directory")

// Buckets holds the base names of the classified files in one folder,
// in directory enumeration order.
type Buckets struct {
	Images []string
	Videos []string
	Fonts  []string
}

// Media returns the number of images and videos.
func (b Buckets) Media() int { return len(b.Images) + len(b.Videos) }

// Empty reports whether no classified file was found at all.
func (b Buckets) Empty() bool { return b.Media()+len(b.Fonts) == 0 }

// Scan lists dir once and classifies its regular entries. Subdirectories
// are ignored and unknown extensions are dropped silently.
func Scan(dir string) (Buckets, error) {
	var b Buckets
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return b, fmt.Errorf("%s: %w", dir, ErrNotADirectory)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return b, fmt.Errorf("%s: %w", dir, ErrNotADirectory)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch Classify(name) {
		case Image:
			b.Images = append(b.Images, name)
		case Video:
			b.Videos = append(b.Videos, name)
		case Font:
			b.Fonts = append(b.Fonts, name)
		}
	}
	return b, nil
}
