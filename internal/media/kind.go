// Package media classifies files by extension and scans an input folder
// into per-kind buckets.
package media

import (
	"path/filepath"
	"strings"
)

// Kind is the file family a name belongs to.
type Kind int

const (
	Unclassified Kind = iota
	Image
	Video
	Font
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	case Font:
		return "font"
	default:
		return "unclassified"
	}
}

// Supported source extensions (lowercase, with leading dot).
var kindByExt = map[string]Kind{
	".png":   Image,
	".jpg":   Image,
	".jpeg":  Image,
	".gif":   Image,
	".bmp":   Image,
	".mp4":   Video,
	".avi":   Video,
	".mov":   Video,
	".mkv":   Video,
	".ttf":   Font,
	".otf":   Font,
	".woff":  Font,
	".woff2": Font,
}

// Classify maps a file name to its Kind by lowercased extension only.
// Names without a known extension are Unclassified.
func Classify(name string) Kind {
	return kindByExt[strings.ToLower(filepath.Ext(name))]
}
