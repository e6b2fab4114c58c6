package sfnt

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/andybalholm/brotli"
)

const woff2HeaderSize = 48

// knownTags is the WOFF2 known-table list; a table's index here is stored
// in the low six bits of its directory flags. 63 means an explicit tag follows.
var knownTags = [63]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

const explicitTag = 63

func knownTagIndex(tag string) int {
	for i, t := range knownTags {
		if t == tag {
			return i
		}
	}
	return explicitTag
}

// head.flags bit 11: font data was losslessly transformed.
const headFlagTransformed = 1 << 11

type woff2Entry struct {
	tag         string
	origLength  uint32
	transformed bool
	length      uint32 // Bytes in the decompressed stream.
}

// isTransformed maps a directory transform version to "transformed" for tag.
// glyf and loca use version 3 for the null transform; all others use 0.
func isTransformed(tag string, version uint8) bool {
	if tag == "glyf" || tag == "loca" {
		return version != 3
	}
	return version != 0
}

func parseWOFF2(data []byte) (*Font, error) {
	r := newReader(data)
	r.skip(4) // signature
	flavor := r.u32()
	length := r.u32()
	n := int(r.u16())
	r.skip(2 + 4) // reserved, totalSfntSize
	compSize := r.u32()
	major, minor := r.u16(), r.u16()
	metaOff, metaLen, metaOrigLen := r.u32(), r.u32(), r.u32()
	privOff, privLen := r.u32(), r.u32()
	if r.err != nil {
		return nil, formatErr("woff2 header: %v", r.err)
	}
	if flavor == sigCollection {
		return nil, ErrUnsupportedContainer
	}
	if int(length) != len(data) {
		return nil, formatErr("woff2 length %d does not match file size %d", length, len(data))
	}

	entries := make([]woff2Entry, n)
	var total uint64
	for i := range entries {
		flags := r.u8()
		var tag string
		if idx := flags & 0x3F; idx == explicitTag {
			tag = string(r.bytes(4))
		} else {
			tag = knownTags[idx]
		}
		e := woff2Entry{tag: tag, origLength: r.base128()}
		e.transformed = isTransformed(tag, flags>>6)
		e.length = e.origLength
		if e.transformed {
			e.length = r.base128()
		}
		if r.err != nil {
			return nil, formatErr("woff2 table directory: %v", r.err)
		}
		entries[i] = e
		total += uint64(e.length)
	}

	comp, err := sliceBlock(data, uint32(r.off), compSize)
	if err != nil {
		return nil, formatErr("woff2 compressed data: %v", err)
	}
	stream, err := unbrotli(comp, total)
	if err != nil {
		return nil, formatErr("woff2 compressed data: %v", err)
	}

	f := &Font{
		SFNTVersion:  flavor,
		Tables:       make(map[string][]byte, n),
		Flavor:       FlavorWOFF2,
		MajorVersion: major,
		MinorVersion: minor,
	}
	transformed := map[string][]byte{}
	var off uint32
	for _, e := range entries {
		t := stream[off : off+e.length]
		off += e.length
		if e.transformed {
			transformed[e.tag] = t
			continue
		}
		f.Tables[e.tag] = t
	}
	if err := reconstruct(f, transformed); err != nil {
		return nil, err
	}

	if metaLen > 0 {
		raw, err := sliceBlock(data, metaOff, metaLen)
		if err != nil {
			return nil, formatErr("woff2 metadata: %v", err)
		}
		if f.Meta, err = unbrotli(raw, uint64(metaOrigLen)); err != nil {
			return nil, formatErr("woff2 metadata: %v", err)
		}
	}
	if privLen > 0 {
		raw, err := sliceBlock(data, privOff, privLen)
		if err != nil {
			return nil, formatErr("woff2 private data: %v", err)
		}
		f.Private = raw
	}
	return f, nil
}

// reconstruct reverses the glyf/loca and hmtx transforms into f.Tables.
func reconstruct(f *Font, transformed map[string][]byte) error {
	if g, ok := transformed["glyf"]; ok {
		if _, ok := transformed["loca"]; !ok {
			return formatErr("woff2: transformed glyf without transformed loca")
		}
		glyf, loca, err := decodeGlyf(g)
		if err != nil {
			return err
		}
		f.Tables["glyf"] = glyf
		f.Tables["loca"] = loca
	} else if _, ok := transformed["loca"]; ok {
		return formatErr("woff2: transformed loca without transformed glyf")
	}

	if h, ok := transformed["hmtx"]; ok {
		hmtx, err := decodeHmtx(f, h)
		if err != nil {
			return err
		}
		f.Tables["hmtx"] = hmtx
	}
	for tag := range transformed {
		switch tag {
		case "glyf", "loca", "hmtx":
		default:
			return formatErr("woff2: unknown transform for table %q", tag)
		}
	}
	return nil
}

func encodeWOFF2(f *Font) ([]byte, error) {
	sfnt, records, err := buildSFNT(f.SFNTVersion, f.Tables)
	if err != nil {
		return nil, err
	}
	tables := make(map[string][]byte, len(records))
	for _, rec := range records {
		tables[rec.Tag] = sfnt[rec.Offset : rec.Offset+rec.Length]
	}

	// Transform glyf/loca when the font has TrueType outlines. A glyf table
	// that does not parse is stored as-is.
	var glyfT []byte
	if canTransformGlyf(tables) {
		if t, err := encodeGlyf(tables); err == nil {
			glyfT = t
			head := append([]byte(nil), tables["head"]...)
			flags := binary.BigEndian.Uint16(head[16:])
			binary.BigEndian.PutUint16(head[16:], flags|headFlagTransformed)
			tables["head"] = head
		}
	}

	order := woff2Order(tables)
	var dir writer
	var stream bytes.Buffer
	for _, tag := range order {
		data := tables[tag]
		idx := knownTagIndex(tag)
		var version uint8
		if (tag == "glyf" || tag == "loca") && glyfT == nil {
			version = 3
		}
		dir.u8(uint8(idx) | version<<6)
		if idx == explicitTag {
			dir.write([]byte(tag))
		}
		dir.base128(uint32(len(data)))
		switch {
		case tag == "glyf" && glyfT != nil:
			dir.base128(uint32(len(glyfT)))
			stream.Write(glyfT)
		case tag == "loca" && glyfT != nil:
			dir.base128(0)
		default:
			stream.Write(data)
		}
	}

	comp, err := enbrotli(stream.Bytes())
	if err != nil {
		return nil, err
	}

	var w writer
	w.buf = make([]byte, woff2HeaderSize)
	w.write(dir.buf)
	w.write(comp)
	w.pad4()

	var metaOff, metaLen, privOff uint32
	if len(f.Meta) > 0 {
		mc, err := enbrotli(f.Meta)
		if err != nil {
			return nil, err
		}
		metaOff, metaLen = uint32(w.len()), uint32(len(mc))
		w.write(mc)
		if len(f.Private) > 0 {
			w.pad4()
		}
	}
	if len(f.Private) > 0 {
		privOff = uint32(w.len())
		w.write(f.Private)
	}

	out := w.buf
	hdr := &writer{buf: out[:0]}
	hdr.u32(sigWOFF2)
	hdr.u32(f.SFNTVersion)
	hdr.u32(uint32(len(out)))
	hdr.u16(uint16(len(order)))
	hdr.u16(0)
	hdr.u32(uint32(len(sfnt)))
	hdr.u32(uint32(len(comp)))
	hdr.u16(f.MajorVersion)
	hdr.u16(f.MinorVersion)
	hdr.u32(metaOff)
	hdr.u32(metaLen)
	hdr.u32(uint32(len(f.Meta)))
	hdr.u32(privOff)
	hdr.u32(uint32(len(f.Private)))
	return out, nil
}

// woff2Order returns the tags in directory order: sorted, with loca moved
// directly behind glyf.
func woff2Order(tables map[string][]byte) []string {
	tags := make([]string, 0, len(tables))
	for t := range tables {
		if t != "loca" {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	if _, ok := tables["loca"]; !ok {
		return tags
	}
	for i, t := range tags {
		if t == "glyf" {
			return append(tags[:i+1], append([]string{"loca"}, tags[i+1:]...)...)
		}
	}
	return append(tags, "loca")
}

func unbrotli(data []byte, size uint64) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(out, io.LimitReader(brotli.NewReader(bytes.NewReader(data)), int64(size)+1)); err != nil {
		return nil, err
	}
	if uint64(out.Len()) != size {
		return nil, formatErr("decompressed %d bytes, want %d", out.Len(), size)
	}
	return out.Bytes(), nil
}

func enbrotli(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := bw.Write(data); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
