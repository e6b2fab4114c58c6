// Package sfnt reads and writes OpenType font containers: raw sfnt
// (TrueType and CFF flavored), WOFF 1.0 and WOFF 2.0.
//
// A Font holds its tables as raw bytes keyed by tag. Converting between
// containers never touches glyph outlines: only the container framing and
// compression change. The one exception is the WOFF2 glyf/loca transform,
// which is lossless and reversed on load.
package sfnt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"sort"
)

// Flavor is the container a Font is written as.
type Flavor string

const (
	FlavorNone  Flavor = ""      // Raw sfnt (.ttf / .otf).
	FlavorWOFF  Flavor = "woff"  // WOFF 1.0, zlib per table.
	FlavorWOFF2 Flavor = "woff2" // WOFF 2.0, one brotli stream.
)

// Container signatures and sfnt versions.
const (
	VersionTrueType uint32 = 0x00010000
	VersionCFF      uint32 = 0x4F54544F // "OTTO"
	versionApple    uint32 = 0x74727565 // "true"
	versionType1    uint32 = 0x74797031 // "typ1"
	sigWOFF         uint32 = 0x774F4646 // "wOFF"
	sigWOFF2        uint32 = 0x774F4632 // "wOF2"
	sigCollection   uint32 = 0x74746366 // "ttcf"
)

var (
	// ErrUnsupportedContainer is returned for font collections (ttcf),
	// including WOFF2 collections.
	ErrUnsupportedContainer = errors.New("sfnt: font collections are not supported")
	// ErrUnknownFormat is returned when data does not start with a known
	// sfnt version or WOFF signature.
	ErrUnknownFormat = errors.New("sfnt: unrecognized font container")
)

// Font is a parsed font container.
type Font struct {
	SFNTVersion uint32            // 0x00010000 for TrueType outlines, "OTTO" for CFF.
	Tables      map[string][]byte // Raw table data keyed by 4-byte tag.
	Flavor      Flavor            // Container used by Encode and Save.

	// WOFF-only blocks. Meta is the uncompressed extended metadata XML.
	// Both are dropped when the Font is written as raw sfnt.
	Meta         []byte
	Private      []byte
	MajorVersion uint16
	MinorVersion uint16
}

// Load reads and parses the font file at path.
func Load(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse detects the container of data and decodes it. The returned Font's
// Flavor reflects the input container.
func Parse(data []byte) (*Font, error) {
	if len(data) < 4 {
		return nil, ErrUnknownFormat
	}
	switch binary.BigEndian.Uint32(data) {
	case VersionTrueType, VersionCFF, versionApple, versionType1:
		return parseSFNT(data)
	case sigWOFF:
		return parseWOFF(data)
	case sigWOFF2:
		return parseWOFF2(data)
	case sigCollection:
		return nil, ErrUnsupportedContainer
	default:
		return nil, ErrUnknownFormat
	}
}

// Has reports whether the font has a table with the given tag.
func (f *Font) Has(tag string) bool {
	_, ok := f.Tables[tag]
	return ok
}

// Delete removes the table with the given tag and reports whether it existed.
func (f *Font) Delete(tag string) bool {
	if !f.Has(tag) {
		return false
	}
	delete(f.Tables, tag)
	return true
}

// Tags returns the table tags in ascending byte order.
func (f *Font) Tags() []string {
	tags := make([]string, 0, len(f.Tables))
	for t := range f.Tables {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Encode serializes the font in its Flavor.
func (f *Font) Encode() ([]byte, error) {
	switch f.Flavor {
	case FlavorNone:
		data, _, err := buildSFNT(f.SFNTVersion, f.Tables)
		return data, err
	case FlavorWOFF:
		return encodeWOFF(f)
	case FlavorWOFF2:
		return encodeWOFF2(f)
	default:
		return nil, fmt.Errorf("sfnt: unknown flavor %q", f.Flavor)
	}
}

// --- Raw sfnt ---

const (
	sfntHeaderSize  = 12
	sfntRecordSize  = 16
	checksumMagic   = 0xB1B0AFBA
	headAdjustField = 8 // Offset of checkSumAdjustment in head.
)

// tableRecord is one entry of an sfnt table directory.
type tableRecord struct {
	Tag      string
	Checksum uint32
	Offset   uint32
	Length   uint32
}

func parseSFNT(data []byte) (*Font, error) {
	r := newReader(data)
	version := r.u32()
	n := int(r.u16())
	r.skip(6) // searchRange, entrySelector, rangeShift
	f := &Font{SFNTVersion: version, Tables: make(map[string][]byte, n)}
	for i := 0; i < n; i++ {
		tag := string(r.bytes(4))
		r.skip(4) // checksum
		off := r.u32()
		length := r.u32()
		if r.err != nil {
			return nil, formatErr("table directory: %v", r.err)
		}
		end := uint64(off) + uint64(length)
		if end > uint64(len(data)) {
			return nil, formatErr("table %q extends past end of file", tag)
		}
		f.Tables[tag] = data[off:end]
	}
	if r.err != nil {
		return nil, formatErr("header: %v", r.err)
	}
	return f, nil
}

// buildSFNT lays out a raw sfnt with the directory and data in tag order,
// 4-byte padded tables, per-table checksums and head.checkSumAdjustment.
// The returned records describe the written tables.
func buildSFNT(version uint32, tables map[string][]byte) ([]byte, []tableRecord, error) {
	tags := make([]string, 0, len(tables))
	for t := range tables {
		if len(t) != 4 {
			return nil, nil, fmt.Errorf("sfnt: invalid table tag %q", t)
		}
		tags = append(tags, t)
	}
	sort.Strings(tags)

	n := len(tags)
	size := sfntHeaderSize + sfntRecordSize*n
	for _, t := range tags {
		size += pad4(len(tables[t]))
	}
	out := make([]byte, size)

	binary.BigEndian.PutUint32(out[0:], version)
	binary.BigEndian.PutUint16(out[4:], uint16(n))
	searchRange, entrySelector, rangeShift := searchParams(n, sfntRecordSize)
	binary.BigEndian.PutUint16(out[6:], searchRange)
	binary.BigEndian.PutUint16(out[8:], entrySelector)
	binary.BigEndian.PutUint16(out[10:], rangeShift)

	records := make([]tableRecord, n)
	off := sfntHeaderSize + sfntRecordSize*n
	headOff := -1
	for i, t := range tags {
		data := tables[t]
		copy(out[off:], data)
		if t == "head" && len(data) >= headAdjustField+4 {
			headOff = off
			binary.BigEndian.PutUint32(out[off+headAdjustField:], 0)
		}
		rec := tableRecord{
			Tag:      t,
			Checksum: checksum(out[off : off+pad4(len(data))]),
			Offset:   uint32(off),
			Length:   uint32(len(data)),
		}
		records[i] = rec

		dir := out[sfntHeaderSize+sfntRecordSize*i:]
		copy(dir[0:4], t)
		binary.BigEndian.PutUint32(dir[4:], rec.Checksum)
		binary.BigEndian.PutUint32(dir[8:], rec.Offset)
		binary.BigEndian.PutUint32(dir[12:], rec.Length)
		off += pad4(len(data))
	}
	if headOff >= 0 {
		binary.BigEndian.PutUint32(out[headOff+headAdjustField:], checksumMagic-checksum(out))
	}
	return out, records, nil
}

// searchParams computes the binary-search hints of a table directory with
// n entries of the given size.
func searchParams(n, entrySize int) (searchRange, entrySelector, rangeShift uint16) {
	if n == 0 {
		return 0, 0, 0
	}
	sel := bits.Len(uint(n)) - 1
	sr := (1 << sel) * entrySize
	return uint16(sr), uint16(sel), uint16(n*entrySize - sr)
}

// checksum sums data as big-endian uint32 words, zero-padding the tail.
func checksum(data []byte) uint32 {
	var sum uint32
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		sum += binary.BigEndian.Uint32(data[i:])
	}
	if rem := len(data) - n; rem > 0 {
		var tail [4]byte
		copy(tail[:], data[n:])
		sum += binary.BigEndian.Uint32(tail[:])
	}
	return sum
}
