package display

import (
	"fmt"
	"strings"
)

// ProgressBar renders fixed-width text progress bars like
// "[#########-----------]  45.0%".
type ProgressBar struct {
	Width int // Cells between the brackets. Default: 20.
}

// Render returns the bar for percent, clamped to 0-100.
func (b ProgressBar) Render(percent float64) string {
	width := b.Width
	if width <= 0 {
		width = 20
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat("#", filled), strings.Repeat("-", width-filled), percent)
}

// RenderCount renders done/total as a bar followed by the counts. A zero
// total renders as complete.
func (b ProgressBar) RenderCount(done, total int) string {
	pct := 100.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	return fmt.Sprintf("%s (%d/%d)", b.Render(pct), done, total)
}
