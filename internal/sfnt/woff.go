package sfnt

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

const (
	woffHeaderSize = 44
	woffEntrySize  = 20
)

func parseWOFF(data []byte) (*Font, error) {
	r := newReader(data)
	r.skip(4) // signature
	flavor := r.u32()
	if flavor == sigCollection {
		return nil, ErrUnsupportedContainer
	}
	length := r.u32()
	n := int(r.u16())
	r.skip(2 + 4) // reserved, totalSfntSize
	major, minor := r.u16(), r.u16()
	metaOff, metaLen, metaOrigLen := r.u32(), r.u32(), r.u32()
	privOff, privLen := r.u32(), r.u32()
	if r.err != nil {
		return nil, formatErr("woff header: %v", r.err)
	}
	if int(length) != len(data) {
		return nil, formatErr("woff length %d does not match file size %d", length, len(data))
	}

	f := &Font{
		SFNTVersion:  flavor,
		Tables:       make(map[string][]byte, n),
		Flavor:       FlavorWOFF,
		MajorVersion: major,
		MinorVersion: minor,
	}
	for i := 0; i < n; i++ {
		tag := string(r.bytes(4))
		off, compLen, origLen := r.u32(), r.u32(), r.u32()
		r.skip(4) // origChecksum
		if r.err != nil {
			return nil, formatErr("woff table directory: %v", r.err)
		}
		raw, err := sliceBlock(data, off, compLen)
		if err != nil {
			return nil, formatErr("woff table %q: %v", tag, err)
		}
		switch {
		case compLen == origLen:
			f.Tables[tag] = raw
		case compLen < origLen:
			t, err := inflate(raw, origLen)
			if err != nil {
				return nil, formatErr("woff table %q: %v", tag, err)
			}
			f.Tables[tag] = t
		default:
			return nil, formatErr("woff table %q: compressed length exceeds original", tag)
		}
	}

	if metaLen > 0 {
		raw, err := sliceBlock(data, metaOff, metaLen)
		if err != nil {
			return nil, formatErr("woff metadata: %v", err)
		}
		if f.Meta, err = inflate(raw, metaOrigLen); err != nil {
			return nil, formatErr("woff metadata: %v", err)
		}
	}
	if privLen > 0 {
		raw, err := sliceBlock(data, privOff, privLen)
		if err != nil {
			return nil, formatErr("woff private data: %v", err)
		}
		f.Private = raw
	}
	return f, nil
}

func encodeWOFF(f *Font) ([]byte, error) {
	sfnt, records, err := buildSFNT(f.SFNTVersion, f.Tables)
	if err != nil {
		return nil, err
	}
	n := len(records)

	var w writer
	w.buf = make([]byte, woffHeaderSize+woffEntrySize*n)
	type entry struct {
		off, compLen uint32
	}
	entries := make([]entry, n)
	for i, rec := range records {
		orig := sfnt[rec.Offset : rec.Offset+rec.Length]
		data := orig
		if comp, err := deflate(orig); err != nil {
			return nil, err
		} else if len(comp) < len(orig) {
			data = comp
		}
		entries[i] = entry{off: uint32(w.len()), compLen: uint32(len(data))}
		w.write(data)
		w.pad4()
	}

	var metaOff, metaLen, privOff uint32
	if len(f.Meta) > 0 {
		comp, err := deflate(f.Meta)
		if err != nil {
			return nil, err
		}
		metaOff, metaLen = uint32(w.len()), uint32(len(comp))
		w.write(comp)
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
	hdr.u32(sigWOFF)
	hdr.u32(f.SFNTVersion)
	hdr.u32(uint32(len(out)))
	hdr.u16(uint16(n))
	hdr.u16(0)
	hdr.u32(uint32(len(sfnt)))
	hdr.u16(f.MajorVersion)
	hdr.u16(f.MinorVersion)
	hdr.u32(metaOff)
	hdr.u32(metaLen)
	hdr.u32(uint32(len(f.Meta)))
	hdr.u32(privOff)
	hdr.u32(uint32(len(f.Private)))
	for i, rec := range records {
		hdr.write([]byte(rec.Tag))
		hdr.u32(entries[i].off)
		hdr.u32(entries[i].compLen)
		hdr.u32(rec.Length)
		hdr.u32(rec.Checksum)
	}
	return out, nil
}

func sliceBlock(data []byte, off, length uint32) ([]byte, error) {
	end := uint64(off) + uint64(length)
	if end > uint64(len(data)) {
		return nil, errShort
	}
	return data[off:end], nil
}

func inflate(data []byte, origLen uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out := make([]byte, 0, origLen)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, io.LimitReader(zr, int64(origLen)+1)); err != nil {
		return nil, err
	}
	if buf.Len() != int(origLen) {
		return nil, formatErr("decompressed %d bytes, want %d", buf.Len(), origLen)
	}
	return buf.Bytes(), nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
