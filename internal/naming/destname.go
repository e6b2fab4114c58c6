package naming

import (
	"path/filepath"
	"strconv"
	"strings"
)

// DestName returns the output base name for the source file name at the
// 1-based index within its bucket. With rename it is "<prefix><index>.<format>",
// otherwise the source stem with the new extension:
//
//	DestName("IMG_001.JPG", 3, "img", true,  "webp") == "img3.webp"
//	DestName("photo.JPG",   1, "img", false, "png")  == "photo.png"
func DestName(name string, index int, prefix string, rename bool, format string) string {
	format = strings.TrimPrefix(format, ".")
	if rename {
		return prefix + strconv.Itoa(index) + "." + format
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
}
