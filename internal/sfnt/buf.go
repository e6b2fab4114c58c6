package sfnt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FormatError reports malformed font data.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "sfnt: " + e.Reason }

func formatErr(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

var errShort = errors.New("unexpected end of data")

// reader is a big-endian cursor with a sticky error: after the first
// out-of-bounds read every call returns zero and err stays set.
type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(b []byte) *reader { return &reader{data: b} }

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = errShort
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.off : r.off+n]
	r.off += n
	return v
}

func (r *reader) skip(n int) { _ = r.bytes(n) }

// base128 reads a WOFF2 UIntBase128: big-endian 7-bit groups, at most five
// bytes, no leading zero group, no overflow past 32 bits.
func (r *reader) base128() uint32 {
	var acc uint32
	for i := 0; i < 5; i++ {
		b := r.u8()
		if r.err != nil {
			return 0
		}
		if i == 0 && b == 0x80 {
			r.err = errors.New("UIntBase128 with leading zero")
			return 0
		}
		if acc&0xFE000000 != 0 {
			r.err = errors.New("UIntBase128 overflow")
			return 0
		}
		acc = acc<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return acc
		}
	}
	r.err = errors.New("UIntBase128 longer than 5 bytes")
	return 0
}

// 255UInt16 codes.
const (
	wordCode         = 253
	oneMoreByteCode2 = 254
	oneMoreByteCode1 = 255
	lowestUCode      = 253
)

// u255 reads a WOFF2 255UInt16.
func (r *reader) u255() uint16 {
	code := r.u8()
	switch code {
	case wordCode:
		return r.u16()
	case oneMoreByteCode1:
		return uint16(r.u8()) + lowestUCode
	case oneMoreByteCode2:
		return uint16(r.u8()) + lowestUCode*2
	default:
		return uint16(code)
	}
}

// writer is an append-only big-endian buffer.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)     { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16)   { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) i16(v int16)    { w.u16(uint16(v)) }
func (w *writer) u32(v uint32)   { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) write(b []byte) { w.buf = append(w.buf, b...) }
func (w *writer) len() int       { return len(w.buf) }

// pad4 appends zero bytes up to the next 4-byte boundary.
func (w *writer) pad4() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) base128(v uint32) {
	var tmp [5]byte
	n := 0
	for {
		tmp[4-n] = byte(v & 0x7F)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	for i := 5 - n; i < 4; i++ {
		tmp[i] |= 0x80
	}
	w.write(tmp[5-n:])
}

func (w *writer) u255(v uint16) {
	switch {
	case v < lowestUCode:
		w.u8(uint8(v))
	case v < lowestUCode*2:
		w.u8(oneMoreByteCode1)
		w.u8(uint8(v - lowestUCode))
	case v < lowestUCode*3:
		w.u8(oneMoreByteCode2)
		w.u8(uint8(v - lowestUCode*2))
	default:
		w.u8(wordCode)
		w.u16(v)
	}
}

func pad4(n int) int { return (n + 3) &^ 3 }
