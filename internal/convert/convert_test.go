package convert

import (
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/mediaconv/internal/ffmpeg"
	"github.com/backmassage/mediaconv/internal/probe"
	"github.com/backmassage/mediaconv/internal/sfnt"
)

// --- images ---

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestImageConverter_Formats(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 24, 16)

	tests := []struct {
		name  string
		dst   string
		level int
	}{
		{"jpeg default", "a.jpg", 0},
		{"jpeg quality", "b.jpeg", 60},
		{"png best compression", "c.png", 10},
		{"gif reduced palette", "d.gif", 90},
		{"bmp", "e.bmp", 0},
		{"tiff", "f.tiff", 0},
	}
	var c ImageConverter
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(dir, tt.dst)
			require.NoError(t, c.Convert(src, dst, tt.level))

			out, err := imaging.Open(dst)
			require.NoError(t, err)
			assert.Equal(t, image.Pt(24, 16), out.Bounds().Size())
		})
	}
}

func TestImageConverter_WebP(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 32, 32)

	var c ImageConverter
	for _, level := range []int{0, 40} {
		dst := filepath.Join(dir, "out.webp")
		require.NoError(t, c.Convert(src, dst, level))

		b, err := os.ReadFile(dst)
		require.NoError(t, err)
		require.Greater(t, len(b), 12)
		assert.Equal(t, "RIFF", string(b[0:4]))
		assert.Equal(t, "WEBP", string(b[8:12]))
	}
}

func TestImageConverter_UnsupportedTarget(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.heic")

	err := ImageConverter{}.Convert(filepath.Join(dir, "never-read.png"), dst, 0)

	var ee *EncodeError
	require.True(t, errors.As(err, &ee), "got %v", err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "heic", ee.Format)
	assert.NoFileExists(t, dst)
}

func TestImageConverter_DecodeError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))
	dst := filepath.Join(dir, "broken.webp")

	err := ImageConverter{}.Convert(src, dst, 0)

	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, src, de.Path)
	assert.NoFileExists(t, dst)
}

func TestImageConverter_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 4, 4)

	err := ImageConverter{}.Convert(src, filepath.Join(dir, "missing", "out.png"), 0)

	var ee *EncodeError
	assert.True(t, errors.As(err, &ee), "got %v", err)
}

func TestGIFColors(t *testing.T) {
	assert.Equal(t, 256, gifColors(100))
	assert.Equal(t, 128, gifColors(50))
	assert.Equal(t, 2, gifColors(1))
}

func TestWriteFile_RemovesOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.bin")
	boom := errors.New("boom")

	err := writeFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("half"))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, path)
}

// --- videos ---

type stubProber struct {
	d   float64
	err error
}

func (s stubProber) Duration(context.Context, string) (float64, error) { return s.d, s.err }

// script writes an executable shell script into dir.
func script(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script fakes need a POSIX shell")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

const fakeEncoder = `#!/bin/sh
echo "args: $*" >&2
printf 'frame=1 time=00:00:01.00\rframe=2 time=00:00:05.00\r' >&2
for a; do out=$a; done
echo data > "$out"
exit 0
`

func TestVideoConverter_Success(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "clip.webm")
	var lines []string
	c := &VideoConverter{
		FFmpeg: script(t, dir, "ffmpeg", fakeEncoder),
		Prober: stubProber{d: 10},
		OnLine: func(l string) { lines = append(lines, l) },
	}

	var got []int
	err := c.Convert(context.Background(), "in.mov", dst, 50, func(s ffmpeg.ProgressSample) {
		got = append(got, s.Percent)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{10, 50, 100}, got)
	assert.FileExists(t, dst)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "-crf 35")
	assert.Contains(t, lines[0], "-c:v libvpx-vp9")
}

func TestVideoConverter_ZeroDuration(t *testing.T) {
	dir := t.TempDir()
	c := &VideoConverter{
		FFmpeg: script(t, dir, "ffmpeg", fakeEncoder),
		Prober: stubProber{d: 0},
	}

	var got []int
	err := c.Convert(context.Background(), "in.mov", filepath.Join(dir, "clip.webm"), 0,
		func(s ffmpeg.ProgressSample) { got = append(got, s.Percent) })

	require.NoError(t, err)
	assert.Equal(t, []int{100}, got)
}

func TestVideoConverter_ToolFailureRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "clip.webm")
	c := &VideoConverter{
		FFmpeg: script(t, dir, "ffmpeg", `#!/bin/sh
for a; do out=$a; done
echo partial > "$out"
echo "time=00:00:02.00" >&2
echo "Invalid data found when processing input" >&2
exit 1
`),
		Prober: stubProber{d: 10},
	}

	var got []int
	err := c.Convert(context.Background(), "in.mov", dst, 0, func(s ffmpeg.ProgressSample) {
		got = append(got, s.Percent)
	})

	var tf *ffmpeg.ToolFailure
	require.True(t, errors.As(err, &tf), "got %v", err)
	assert.Equal(t, 1, tf.Code)
	assert.Contains(t, tf.Error(), "Invalid data")
	assert.NoFileExists(t, dst)
	assert.Equal(t, []int{20}, got, "no closing 100% after a failure")
}

func TestVideoConverter_ProbeFailureSkipsEncode(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "clip.webm")
	c := &VideoConverter{
		FFmpeg: script(t, dir, "ffmpeg", fakeEncoder),
		Prober: probe.Prober{Bin: script(t, dir, "ffprobe", "#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n")},
	}

	err := c.Convert(context.Background(), "in.mov", dst, 0, nil)

	var pe *probe.ProbeError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Contains(t, pe.Error(), "moov atom")
	assert.NoFileExists(t, dst)
}

func TestVideoConverter_FakeProbe(t *testing.T) {
	dir := t.TempDir()
	c := &VideoConverter{
		FFmpeg: script(t, dir, "ffmpeg", fakeEncoder),
		Prober: probe.Prober{Bin: script(t, dir, "ffprobe", "#!/bin/sh\necho 20.000000\n")},
	}

	var got []int
	err := c.Convert(context.Background(), "in.mov", filepath.Join(dir, "clip.webm"), 0,
		func(s ffmpeg.ProgressSample) { got = append(got, s.Percent) })

	require.NoError(t, err)
	assert.Equal(t, []int{5, 25, 100}, got)
}

func TestVideoConverter_MissingFFmpeg(t *testing.T) {
	dir := t.TempDir()
	c := &VideoConverter{FFmpeg: filepath.Join(dir, "nope"), Prober: stubProber{d: 3}}

	err := c.Convert(context.Background(), "in.mov", filepath.Join(dir, "clip.webm"), 0, nil)

	var se *ffmpeg.SpawnError
	assert.True(t, errors.As(err, &se), "got %v", err)
}

// --- fonts ---

func writeFont(t *testing.T, path string, flavor sfnt.Flavor, extra map[string][]byte) {
	t.Helper()
	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[0:], 0x00010000)
	binary.BigEndian.PutUint32(head[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(head[18:], 1000)

	f := &sfnt.Font{
		SFNTVersion: sfnt.VersionTrueType,
		Flavor:      flavor,
		Tables: map[string][]byte{
			"head": head,
			"name": []byte(strings.Repeat("mediaconv test font ", 8)),
			"cmap": {0, 0, 0, 0},
		},
	}
	for tag, data := range extra {
		f.Tables[tag] = data
	}
	if flavor == sfnt.FlavorWOFF {
		f.Meta = []byte("<metadata/>")
		f.Private = []byte{1, 2, 3}
	}
	data, err := f.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestFontConverter_WOFF2ToTTF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Sans.woff2")
	writeFont(t, src, sfnt.FlavorWOFF2, map[string][]byte{"wOFF": {9, 9, 9, 9}, "WOFF": {7}})
	dst := filepath.Join(dir, "Sans.ttf")

	require.NoError(t, FontConverter{}.Convert(src, dst, "ttf"))

	out, err := sfnt.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, sfnt.FlavorNone, out.Flavor)
	for _, tag := range wrapperTags {
		assert.False(t, out.Has(tag), tag)
	}
	assert.Equal(t, []string{"cmap", "head", "name"}, out.Tags())
}

func TestFontConverter_TTFToWOFF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Sans.ttf")
	writeFont(t, src, sfnt.FlavorNone, nil)

	for _, format := range []string{"woff", "WOFF2"} {
		dst := filepath.Join(dir, "Sans."+strings.ToLower(format))
		require.NoError(t, FontConverter{}.Convert(src, dst, format))

		out, err := sfnt.Load(dst)
		require.NoError(t, err)
		assert.Equal(t, sfnt.Flavor(strings.ToLower(format)), out.Flavor)
		assert.True(t, out.Has("name"))
	}
}

func TestFontConverter_WOFFToOTFDropsBlocks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Sans.woff")
	writeFont(t, src, sfnt.FlavorWOFF, nil)
	in, err := sfnt.Load(src)
	require.NoError(t, err)
	require.NotEmpty(t, in.Meta)

	dst := filepath.Join(dir, "Sans.otf")
	require.NoError(t, FontConverter{}.Convert(src, dst, "otf"))

	out, err := sfnt.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, sfnt.FlavorNone, out.Flavor)
	assert.Empty(t, out.Meta)
	assert.Empty(t, out.Private)
}

func TestFontConverter_UnsupportedFormatTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "Sans.eot")

	err := FontConverter{}.Convert(filepath.Join(dir, "missing.ttf"), dst, "eot")

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	var le *LoadError
	assert.False(t, errors.As(err, &le), "format is checked before loading")
	assert.NoFileExists(t, dst)
}

func TestFontConverter_LoadError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "junk.ttf")
	require.NoError(t, os.WriteFile(src, []byte("definitely not a font"), 0o644))

	err := FontConverter{}.Convert(src, filepath.Join(dir, "junk.woff2"), "woff2")

	var le *LoadError
	require.True(t, errors.As(err, &le), "got %v", err)
	assert.ErrorIs(t, err, sfnt.ErrUnknownFormat)
}

func TestFontConverter_SaveError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Sans.ttf")
	writeFont(t, src, sfnt.FlavorNone, nil)

	err := FontConverter{}.Convert(src, filepath.Join(dir, "missing", "Sans.woff"), "woff")

	var se *SaveError
	assert.True(t, errors.As(err, &se), "got %v", err)
}

func TestSaveFont_EncodeFailureKeepsExistingOutput(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "Sans.ttf")
	require.NoError(t, os.WriteFile(dst, []byte("previous run"), 0o644))
	bad := &sfnt.Font{
		SFNTVersion: sfnt.VersionTrueType,
		Tables:      map[string][]byte{"bad": {1, 2, 3, 4}},
	}

	err := saveFont(bad, dst)

	var se *SaveError
	require.True(t, errors.As(err, &se), "got %v", err)
	data, rerr := os.ReadFile(dst)
	require.NoError(t, rerr)
	assert.Equal(t, "previous run", string(data))
}

func TestSaveFont_OverwritesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Sans.woff")
	writeFont(t, src, sfnt.FlavorWOFF, nil)
	dst := filepath.Join(dir, "Sans.ttf")
	require.NoError(t, os.WriteFile(dst, []byte("previous run"), 0o644))

	require.NoError(t, FontConverter{}.Convert(src, dst, "ttf"))

	out, err := sfnt.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, sfnt.FlavorNone, out.Flavor)
}
