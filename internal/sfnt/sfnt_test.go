package sfnt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test font builder ---

const testNumGlyphs = 4

// testGlyphs returns a glyf table and a short-format loca for four glyphs:
// empty, a square with instructions and the overlap flag, a two-contour
// glyph exercising every triplet size with a stale bbox, and a composite
// with instructions.
func testGlyphs(t *testing.T) (glyf, loca []byte) {
	t.Helper()
	var w writer
	offsets := []int{0}
	bboxOf := func(pts []point) []byte {
		var b writer
		x0, y0, x1, y1 := computeBBox(pts)
		b.i16(int16(x0))
		b.i16(int16(y0))
		b.i16(int16(x1))
		b.i16(int16(y1))
		return b.buf
	}

	// 0: empty.
	offsets = append(offsets, w.len())

	// 1: square.
	square := &simpleGlyph{
		endPts:  []uint16{3},
		instrs:  []byte{0xB0, 0x01, 0x2C},
		overlap: true,
		points: []point{
			{100, 0, true}, {500, 0, true}, {500, 700, true}, {100, 700, true},
		},
	}
	writeSimpleGlyph(&w, square, bboxOf(square.points))
	w.pad4()
	offsets = append(offsets, w.len())

	// 2: wide deltas, off-curve points, stored bbox that differs from the points.
	wide := &simpleGlyph{
		endPts: []uint16{5, 8},
		points: []point{
			{0, 0, true},
			{1000, 0, false},     // y == 0, x < 1280
			{1000, -3000, true},  // x == 0, |y| >= 1280
			{1030, -2980, false}, // both < 65
			{1500, -2500, true},  // both < 769
			{6500, -2400, true},  // > 4096
			{10, 10, true},
			{10, 30, false},
			{-30, 30, true},
		},
	}
	writeSimpleGlyph(&w, wide, []byte{0xFF, 0x00, 0xF0, 0x00, 0x20, 0x00, 0x10, 0x00})
	w.pad4()
	offsets = append(offsets, w.len())

	// 3: composite of glyph 1 with instructions.
	w.i16(-1)
	w.write([]byte{0, 0, 0, 0, 0x01, 0xF4, 0x02, 0xBC})
	w.u16(compArgsAreWords | 0x0002 | compHaveInstr)
	w.u16(1)
	w.i16(10)
	w.i16(20)
	w.u16(1)
	w.u8(0x2C)
	w.pad4()
	offsets = append(offsets, w.len())

	var lw writer
	for _, o := range offsets {
		lw.u16(uint16(o / 2))
	}
	return w.buf, lw.buf
}

func testFont(t *testing.T) *Font {
	t.Helper()
	glyf, loca := testGlyphs(t)

	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[0:], 0x00010000)
	binary.BigEndian.PutUint32(head[4:], 0x00018000)
	binary.BigEndian.PutUint32(head[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(head[18:], 1000)
	binary.BigEndian.PutUint16(head[50:], 0) // short loca

	hhea := make([]byte, 36)
	binary.BigEndian.PutUint32(hhea[0:], 0x00010000)
	binary.BigEndian.PutUint16(hhea[34:], 2)

	maxp := make([]byte, 6)
	binary.BigEndian.PutUint32(maxp[0:], 0x00005000)
	binary.BigEndian.PutUint16(maxp[4:], testNumGlyphs)

	var hmtx writer
	hmtx.u16(500)
	hmtx.i16(0)
	hmtx.u16(600)
	hmtx.i16(100)
	hmtx.i16(0)
	hmtx.i16(0)

	return &Font{
		SFNTVersion: VersionTrueType,
		Tables: map[string][]byte{
			"head": head,
			"hhea": hhea,
			"maxp": maxp,
			"hmtx": hmtx.buf,
			"glyf": glyf,
			"loca": loca,
			"cmap": []byte{0, 0, 0, 0},
			"name": []byte("name table"),
			"post": bytes.Repeat([]byte{0x03}, 32),
			"Zzzz": []byte("private vendor table"),
		},
	}
}

// withoutAdjustment zeroes head.checkSumAdjustment and the transform flag.
func withoutAdjustment(head []byte) []byte {
	h := append([]byte(nil), head...)
	binary.BigEndian.PutUint32(h[8:], 0)
	flags := binary.BigEndian.Uint16(h[16:])
	binary.BigEndian.PutUint16(h[16:], flags&^headFlagTransformed)
	return h
}

func assertSameTables(t *testing.T, want, got map[string][]byte) {
	t.Helper()
	require.ElementsMatch(t, keys(want), keys(got))
	for tag, data := range want {
		if tag == "head" {
			assert.Equal(t, withoutAdjustment(data), withoutAdjustment(got[tag]), "head")
			continue
		}
		assert.Equal(t, data, got[tag], "table %q", tag)
	}
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

// --- Raw sfnt ---

func TestRawRoundTrip(t *testing.T) {
	f := testFont(t)
	data, err := f.Encode()
	require.NoError(t, err)

	assert.Equal(t, uint32(checksumMagic), checksum(data), "whole-file checksum")
	assert.Zero(t, len(data)%4)
	assert.Equal(t, uint16(len(f.Tables)), binary.BigEndian.Uint16(data[4:]))
	assert.Equal(t, uint16(128), binary.BigEndian.Uint16(data[6:]), "searchRange for 10 tables")

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, FlavorNone, got.Flavor)
	assert.Equal(t, VersionTrueType, got.SFNTVersion)
	assertSameTables(t, f.Tables, got.Tables)
	assert.Equal(t, []byte("name table"), got.Tables["name"])
}

func TestEncode_InvalidTag(t *testing.T) {
	f := &Font{SFNTVersion: VersionTrueType, Tables: map[string][]byte{"WOFF2": {1}}}
	_, err := f.Encode()
	assert.Error(t, err)
}

func TestHasDeleteTags(t *testing.T) {
	f := testFont(t)
	f.Tables["wOFF"] = []byte{1, 2, 3, 4}

	assert.True(t, f.Has("wOFF"))
	assert.True(t, f.Delete("wOFF"))
	assert.False(t, f.Has("wOFF"))
	assert.False(t, f.Delete("wOFF"))
	assert.False(t, f.Delete("WOFF2"))
	assert.Equal(t, "Zzzz", f.Tags()[0])
}

// --- WOFF ---

func TestWOFFRoundTrip(t *testing.T) {
	f := testFont(t)
	f.Flavor = FlavorWOFF
	f.Meta = []byte(`<?xml version="1.0"?><metadata version="1.0"/>`)
	f.Private = []byte{1, 2, 3}
	f.MajorVersion, f.MinorVersion = 2, 5

	data, err := f.Encode()
	require.NoError(t, err)
	assert.Equal(t, sigWOFF, binary.BigEndian.Uint32(data))
	assert.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[8:]))

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, FlavorWOFF, got.Flavor)
	assert.Equal(t, f.Meta, got.Meta)
	assert.Equal(t, f.Private, got.Private)
	assert.Equal(t, uint16(2), got.MajorVersion)
	assert.Equal(t, uint16(5), got.MinorVersion)
	assertSameTables(t, f.Tables, got.Tables)

	// Back to raw: the table checksums of the original must be reproduced.
	got.Flavor = FlavorNone
	raw, err := got.Encode()
	require.NoError(t, err)
	assert.Equal(t, uint32(checksumMagic), checksum(raw))
}

func TestWOFF_CompressesRepetitiveTables(t *testing.T) {
	f := testFont(t)
	f.Tables["post"] = bytes.Repeat([]byte{0x42}, 4096)
	f.Flavor = FlavorWOFF
	data, err := f.Encode()
	require.NoError(t, err)
	assert.Less(t, len(data), 4096)
}

func TestWOFF_LengthMismatch(t *testing.T) {
	f := testFont(t)
	f.Flavor = FlavorWOFF
	data, err := f.Encode()
	require.NoError(t, err)

	_, err = Parse(data[:len(data)-4])
	var fe *FormatError
	assert.True(t, errors.As(err, &fe), "got %v", err)
}

// --- WOFF2 ---

func TestWOFF2RoundTrip(t *testing.T) {
	f := testFont(t)
	f.Flavor = FlavorWOFF2
	f.Meta = []byte("<metadata/>")
	f.Private = []byte("private")

	data, err := f.Encode()
	require.NoError(t, err)
	assert.Equal(t, sigWOFF2, binary.BigEndian.Uint32(data))
	assert.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[8:]))

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, FlavorWOFF2, got.Flavor)
	assert.Equal(t, f.Meta, got.Meta)
	assert.Equal(t, f.Private, got.Private)
	assertSameTables(t, f.Tables, got.Tables)

	head := got.Tables["head"]
	assert.NotZero(t, binary.BigEndian.Uint16(head[16:])&headFlagTransformed)
}

func TestWOFF2_ToRawAndWOFF(t *testing.T) {
	src := testFont(t)
	src.Flavor = FlavorWOFF2
	data, err := src.Encode()
	require.NoError(t, err)

	f, err := Parse(data)
	require.NoError(t, err)
	f.Flavor = FlavorNone
	raw, err := f.Encode()
	require.NoError(t, err)

	back, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, FlavorNone, back.Flavor)
	assertSameTables(t, src.Tables, back.Tables)
}

func TestWOFF2_UntransformedWhenGlyfIsMalformed(t *testing.T) {
	f := testFont(t)
	f.Tables["glyf"] = []byte{0, 1}
	f.Flavor = FlavorWOFF2

	data, err := f.Encode()
	require.NoError(t, err)
	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, got.Tables["glyf"])
	assert.Equal(t, f.Tables["loca"], got.Tables["loca"])
}

func TestWOFF2_CFFFont(t *testing.T) {
	f := &Font{
		SFNTVersion: VersionCFF,
		Flavor:      FlavorWOFF2,
		Tables: map[string][]byte{
			"CFF ": bytes.Repeat([]byte{1, 2, 3}, 50),
			"name": []byte("cff font"),
		},
	}
	data, err := f.Encode()
	require.NoError(t, err)
	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, VersionCFF, got.SFNTVersion)
	assert.Equal(t, f.Tables, got.Tables)
}

func TestWOFF2Order(t *testing.T) {
	tables := map[string][]byte{"head": nil, "loca": nil, "glyf": nil, "cmap": nil, "name": nil}
	assert.Equal(t, []string{"cmap", "glyf", "loca", "head", "name"}, woff2Order(tables))
	assert.Equal(t, []string{"a", "b"}, woff2Order(map[string][]byte{"b": nil, "a": nil}))
}

func TestDecodeHmtx_DerivesBearingsFromGlyf(t *testing.T) {
	f := testFont(t)
	// Transformed hmtx: both lsb arrays omitted.
	var w writer
	w.u8(0x03)
	w.u16(500)
	w.u16(600)

	hmtx, err := decodeHmtx(f, w.buf)
	require.NoError(t, err)

	r := newReader(hmtx)
	assert.Equal(t, uint16(500), r.u16())
	assert.Equal(t, int16(0), r.i16(), "empty glyph")
	assert.Equal(t, uint16(600), r.u16())
	assert.Equal(t, int16(100), r.i16(), "square xMin")
	assert.Equal(t, int16(-256), r.i16(), "stored bbox xMin of glyph 2")
	assert.Equal(t, int16(0), r.i16(), "composite xMin")
	require.NoError(t, r.err)
}

func TestDecodeHmtx_ReservedFlags(t *testing.T) {
	_, err := decodeHmtx(testFont(t), []byte{0x04, 0, 1, 0, 1})
	assert.Error(t, err)
}

// --- Point and integer encodings ---

func TestTripletEncoding(t *testing.T) {
	deltas := []int{0, 1, -1, 63, 64, -64, 65, 255, 256, 767, 768, -768, 769, 1279, 1280, -1280, 4095, -4095, 4096, 32767, -32768}
	for _, dx := range deltas {
		for _, dy := range deltas {
			for _, on := range []bool{true, false} {
				var fw, gw writer
				writeTriplet(&fw, &gw, on, dx, dy)
				require.Len(t, fw.buf, 1)
				gotDX, gotDY := readTriplet(newReader(gw.buf), fw.buf[0]&0x7F)
				if gotDX != dx || gotDY != dy || (fw.buf[0]&0x80 == 0) != on {
					t.Fatalf("triplet(%d, %d, on=%v) decoded as (%d, %d, flag %#x)", dx, dy, on, gotDX, gotDY, fw.buf[0])
				}
			}
		}
	}
}

func TestBase128(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 1 << 28, 0xFFFFFFFF} {
		var w writer
		w.base128(v)
		r := newReader(w.buf)
		assert.Equal(t, v, r.base128())
		assert.NoError(t, r.err)
		assert.Equal(t, len(w.buf), r.off)
	}

	bad := [][]byte{
		{0x80, 0x01},                   // leading zero
		{0x90, 0x80, 0x80, 0x80, 0x00}, // overflow
		{0x81, 0x81, 0x81, 0x81, 0x81}, // too long
		{0x81},                         // truncated
	}
	for _, b := range bad {
		r := newReader(b)
		r.base128()
		assert.Error(t, r.err, "% x", b)
	}
}

func TestU255(t *testing.T) {
	for _, v := range []uint16{0, 252, 253, 505, 506, 758, 759, 1000, 65535} {
		var w writer
		w.u255(v)
		r := newReader(w.buf)
		assert.Equal(t, v, r.u255(), "value %d", v)
		assert.NoError(t, r.err)
	}
	assert.Equal(t, uint16(253+10), newReader([]byte{255, 10}).u255())
	assert.Equal(t, uint16(506+10), newReader([]byte{254, 10}).u255())
}

// --- Detection and files ---

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("ttcf\x00\x01\x00\x00"))
	assert.ErrorIs(t, err, ErrUnsupportedContainer)

	_, err = Parse([]byte("GIF89a"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Parse([]byte{0, 1})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Parse([]byte{0, 1, 0, 0, 0, 3})
	var fe *FormatError
	assert.True(t, errors.As(err, &fe), "truncated directory: %v", err)
}

func TestEncodeLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "font.woff2")
	f := testFont(t)
	f.Flavor = FlavorWOFF2
	data, err := f.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FlavorWOFF2, got.Flavor)

	_, err = Load(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)
}
