// Package display renders the banner, byte sizes, durations and progress bars.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/mediaconv/internal/term"
)

const banner = `                    _ _
 _ __ ___   ___  __| (_) __ _  ___ ___  _ ____   __
| '_ ` + "`" + ` _ \ / _ \/ _` + "`" + ` | |/ _` + "`" + ` |/ __/ _ \| '_ \ \ / /
| | | | | |  __/ (_| | | (_| | (_| (_) | | | \ V /
|_| |_| |_|\___|\__,_|_|\__,_|\___\___/|_| |_|\_/
`

// PrintBanner writes the ASCII art banner to w in magenta when colors are on.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta.Sprint(banner))
	fmt.Fprintln(w)
}
