package display

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"1 GiB", 1024 * 1024 * 1024, "1.0 GiB"},
		{"typical photo 700 MiB", 734003200, "700.0 MiB"},
		{"4.7 GiB", 5046586572, "4.7 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatBytesWithSign(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"positive", 1024 * 1024, "+ 1.0 MiB"},
		{"negative", -1024 * 1024, "- 1.0 MiB"},
		{"zero", 0, "0 B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytesWithSign(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytesWithSign(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00:00.00"},
		{"negative", -time.Second, "00:00:00.00"},
		{"centiseconds", 1234 * time.Millisecond, "00:00:01.23"},
		{"hours", time.Hour + 2*time.Minute + 3*time.Second + 450*time.Millisecond, "01:02:03.45"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatClock(tt.d)
			if got != tt.want {
				t.Errorf("FormatClock(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "850ms", FormatElapsed(850*time.Millisecond))
	assert.Equal(t, "12.3s", FormatElapsed(12300*time.Millisecond))
	assert.Equal(t, "4m05s", FormatElapsed(4*time.Minute+5*time.Second))
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    string
	}{
		{"empty", 0, "[----------]   0.0%"},
		{"half", 50, "[#####-----]  50.0%"},
		{"full", 100, "[##########] 100.0%"},
		{"clamped high", 140, "[##########] 100.0%"},
		{"clamped low", -3, "[----------]   0.0%"},
	}
	bar := ProgressBar{Width: 10}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bar.Render(tt.percent)
			if got != tt.want {
				t.Errorf("Render(%v) = %q, want %q", tt.percent, got, tt.want)
			}
		})
	}
}

func TestProgressBar_RenderCount(t *testing.T) {
	bar := ProgressBar{Width: 4}
	assert.Equal(t, "[##--]  50.0% (1/2)", bar.RenderCount(1, 2))
	assert.Equal(t, "[####] 100.0% (0/0)", bar.RenderCount(0, 0))
	assert.Equal(t, "[##------------------]  10.0%", ProgressBar{}.Render(10))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_| |_| |_|")
}
