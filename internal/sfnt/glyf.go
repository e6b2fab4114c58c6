package sfnt

import (
	"encoding/binary"
	"math"
)

// Simple glyph point flags.
const (
	flagOnCurve = 0x01
	flagXShort  = 0x02
	flagYShort  = 0x04
	flagRepeat  = 0x08
	flagXSame   = 0x10 // X_IS_SAME_OR_POSITIVE_X_SHORT_VECTOR
	flagYSame   = 0x20 // Y_IS_SAME_OR_POSITIVE_Y_SHORT_VECTOR
	flagOverlap = 0x40 // OVERLAP_SIMPLE, first point only
)

// Composite glyph component flags.
const (
	compArgsAreWords   = 0x0001
	compHaveScale      = 0x0008
	compMoreComponents = 0x0020
	compHaveXYScale    = 0x0040
	compHaveTwoByTwo   = 0x0080
	compHaveInstr      = 0x0100
)

const (
	glyfTransformHeaderSize = 36
	glyphHeaderSize         = 10
	overlapOptionFlag       = 0x0001
)

type point struct {
	x, y    int
	onCurve bool
}

// simpleGlyph is a decoded simple glyph with absolute coordinates.
type simpleGlyph struct {
	endPts  []uint16
	instrs  []byte
	points  []point
	overlap bool
}

func canTransformGlyf(tables map[string][]byte) bool {
	_, hasGlyf := tables["glyf"]
	_, hasLoca := tables["loca"]
	return hasGlyf && hasLoca && len(tables["head"]) >= 54 && len(tables["maxp"]) >= 6
}

// locaOffsets returns the numGlyphs+1 glyph offsets stored in loca.
func locaOffsets(loca []byte, indexFormat int16, numGlyphs, glyfLen int) ([]uint32, error) {
	offs := make([]uint32, numGlyphs+1)
	r := newReader(loca)
	for i := range offs {
		if indexFormat == 0 {
			offs[i] = uint32(r.u16()) * 2
		} else {
			offs[i] = r.u32()
		}
	}
	if r.err != nil {
		return nil, formatErr("loca too short for %d glyphs", numGlyphs)
	}
	for i := 1; i < len(offs); i++ {
		if offs[i] < offs[i-1] || int(offs[i]) > glyfLen {
			return nil, formatErr("loca offset %d out of order or range", i)
		}
	}
	return offs, nil
}

// parseSimpleGlyph decodes the outline of a simple glyph (nContours > 0).
func parseSimpleGlyph(g []byte, nContours int) (*simpleGlyph, error) {
	r := newReader(g)
	r.skip(glyphHeaderSize)
	sg := &simpleGlyph{endPts: make([]uint16, nContours)}
	for i := range sg.endPts {
		sg.endPts[i] = r.u16()
		if i > 0 && sg.endPts[i] <= sg.endPts[i-1] {
			return nil, formatErr("glyph contour ends not increasing")
		}
	}
	sg.instrs = r.bytes(int(r.u16()))
	if r.err != nil {
		return nil, formatErr("glyph header: %v", r.err)
	}
	n := int(sg.endPts[nContours-1]) + 1

	flags := make([]byte, 0, n)
	for len(flags) < n && r.err == nil {
		fl := r.u8()
		flags = append(flags, fl)
		if fl&flagRepeat != 0 {
			for k := int(r.u8()); k > 0 && len(flags) < n; k-- {
				flags = append(flags, fl)
			}
		}
	}
	if r.err != nil {
		return nil, formatErr("glyph flags: %v", r.err)
	}
	sg.overlap = flags[0]&flagOverlap != 0

	sg.points = make([]point, n)
	x, y := 0, 0
	for i, fl := range flags {
		x += readCoord(r, fl, flagXShort, flagXSame)
		sg.points[i].x = x
		sg.points[i].onCurve = fl&flagOnCurve != 0
	}
	for i, fl := range flags {
		y += readCoord(r, fl, flagYShort, flagYSame)
		sg.points[i].y = y
	}
	if r.err != nil {
		return nil, formatErr("glyph coordinates: %v", r.err)
	}
	return sg, nil
}

func readCoord(r *reader, fl, short, same byte) int {
	switch {
	case fl&short != 0:
		v := int(r.u8())
		if fl&same == 0 {
			v = -v
		}
		return v
	case fl&same != 0:
		return 0
	default:
		return int(r.i16())
	}
}

// compositeEnd walks the components starting at off and returns the offset
// just past the last one and whether any component asks for instructions.
func compositeEnd(g []byte, off int) (int, bool, error) {
	r := &reader{data: g, off: off}
	instr := false
	for {
		flags := r.u16()
		r.skip(2) // glyphIndex
		if flags&compArgsAreWords != 0 {
			r.skip(4)
		} else {
			r.skip(2)
		}
		switch {
		case flags&compHaveScale != 0:
			r.skip(2)
		case flags&compHaveXYScale != 0:
			r.skip(4)
		case flags&compHaveTwoByTwo != 0:
			r.skip(8)
		}
		if r.err != nil {
			return 0, false, formatErr("composite glyph: %v", r.err)
		}
		if flags&compHaveInstr != 0 {
			instr = true
		}
		if flags&compMoreComponents == 0 {
			return r.off, instr, nil
		}
	}
}

// --- Transform (encode) ---

type glyfStreams struct {
	nContour, nPoints, flags, glyphs, composite, bbox, instrs writer
	bboxBitmap, overlapBitmap                                 []byte
}

// encodeGlyf produces the WOFF2 transformed glyf table. The matching loca
// is implied and stored with zero length.
func encodeGlyf(tables map[string][]byte) ([]byte, error) {
	glyf := tables["glyf"]
	indexFormat := int16(binary.BigEndian.Uint16(tables["head"][50:]))
	numGlyphs := int(binary.BigEndian.Uint16(tables["maxp"][4:]))
	offs, err := locaOffsets(tables["loca"], indexFormat, numGlyphs, len(glyf))
	if err != nil {
		return nil, err
	}

	s := &glyfStreams{
		bboxBitmap:    make([]byte, ((numGlyphs+31)>>5)<<2),
		overlapBitmap: make([]byte, (numGlyphs+7)>>3),
	}
	hasOverlap := false
	for i := 0; i < numGlyphs; i++ {
		g := glyf[offs[i]:offs[i+1]]
		if len(g) == 0 {
			s.nContour.i16(0)
			continue
		}
		if len(g) < glyphHeaderSize {
			return nil, formatErr("glyph %d shorter than its header", i)
		}
		nc := int16(binary.BigEndian.Uint16(g))
		bbox := g[2:glyphHeaderSize]
		s.nContour.i16(nc)
		switch {
		case nc == 0:
			// Header-only glyph; nothing else is stored.
		case nc > 0:
			sg, err := parseSimpleGlyph(g, int(nc))
			if err != nil {
				return nil, err
			}
			s.writeSimple(sg)
			if sg.overlap {
				s.overlapBitmap[i>>3] |= 0x80 >> (i & 7)
				hasOverlap = true
			}
			if !bboxMatches(bbox, sg.points) {
				s.setBBox(i, bbox)
			}
		default:
			end, instr, err := compositeEnd(g, glyphHeaderSize)
			if err != nil {
				return nil, err
			}
			s.composite.write(g[glyphHeaderSize:end])
			if instr {
				r := &reader{data: g, off: end}
				n := int(r.u16())
				ins := r.bytes(n)
				if r.err != nil {
					return nil, formatErr("composite glyph %d instructions: %v", i, r.err)
				}
				s.glyphs.u255(uint16(n))
				s.instrs.write(ins)
			}
			s.setBBox(i, bbox)
		}
	}

	var optionFlags uint16
	if hasOverlap {
		optionFlags |= overlapOptionFlag
	}
	bboxStream := append(append([]byte(nil), s.bboxBitmap...), s.bbox.buf...)

	var w writer
	w.u16(0) // reserved
	w.u16(optionFlags)
	w.u16(uint16(numGlyphs))
	w.u16(uint16(indexFormat))
	for _, b := range [][]byte{s.nContour.buf, s.nPoints.buf, s.flags.buf, s.glyphs.buf, s.composite.buf, bboxStream, s.instrs.buf} {
		w.u32(uint32(len(b)))
	}
	for _, b := range [][]byte{s.nContour.buf, s.nPoints.buf, s.flags.buf, s.glyphs.buf, s.composite.buf, bboxStream, s.instrs.buf} {
		w.write(b)
	}
	if hasOverlap {
		w.write(s.overlapBitmap)
	}
	return w.buf, nil
}

func (s *glyfStreams) setBBox(i int, bbox []byte) {
	s.bboxBitmap[i>>3] |= 0x80 >> (i & 7)
	s.bbox.write(bbox)
}

func (s *glyfStreams) writeSimple(sg *simpleGlyph) {
	prev := -1
	for _, e := range sg.endPts {
		s.nPoints.u255(uint16(int(e) - prev))
		prev = int(e)
	}
	x, y := 0, 0
	for _, p := range sg.points {
		writeTriplet(&s.flags, &s.glyphs, p.onCurve, p.x-x, p.y-y)
		x, y = p.x, p.y
	}
	s.glyphs.u255(uint16(len(sg.instrs)))
	s.instrs.write(sg.instrs)
}

// writeTriplet appends one point delta in the WOFF2 triplet encoding: a
// flag byte (bit 7 set for off-curve points) and 1-4 coordinate bytes.
func writeTriplet(flags, glyphs *writer, onCurve bool, dx, dy int) {
	ax, ay := absInt(dx), absInt(dy)
	onBit := 0
	if !onCurve {
		onBit = 0x80
	}
	xSign, ySign := 0, 0
	if dx >= 0 {
		xSign = 1
	}
	if dy >= 0 {
		ySign = 1
	}
	xySigns := xSign + 2*ySign

	switch {
	case dx == 0 && ay < 1280:
		flags.u8(uint8(onBit + (ay&0xF00)>>7 + ySign))
		glyphs.u8(uint8(ay))
	case dy == 0 && ax < 1280:
		flags.u8(uint8(onBit + 10 + (ax&0xF00)>>7 + xSign))
		glyphs.u8(uint8(ax))
	case ax < 65 && ay < 65:
		flags.u8(uint8(onBit + 20 + ((ax - 1) & 0x30) + ((ay-1)&0x30)>>2 + xySigns))
		glyphs.u8(uint8((ax-1)&0xF<<4 | (ay-1)&0xF))
	case ax < 769 && ay < 769:
		flags.u8(uint8(onBit + 84 + 12*(((ax-1)&0x300)>>8) + ((ay-1)&0x300)>>6 + xySigns))
		glyphs.u8(uint8(ax - 1))
		glyphs.u8(uint8(ay - 1))
	case ax < 4096 && ay < 4096:
		flags.u8(uint8(onBit + 120 + xySigns))
		glyphs.u8(uint8(ax >> 4))
		glyphs.u8(uint8((ax&0xF)<<4 | ay>>8))
		glyphs.u8(uint8(ay))
	default:
		flags.u8(uint8(onBit + 124 + xySigns))
		glyphs.u16(uint16(ax))
		glyphs.u16(uint16(ay))
	}
}

func bboxMatches(stored []byte, pts []point) bool {
	xMin, yMin, xMax, yMax := computeBBox(pts)
	r := newReader(stored)
	return int(r.i16()) == xMin && int(r.i16()) == yMin && int(r.i16()) == xMax && int(r.i16()) == yMax
}

func computeBBox(pts []point) (xMin, yMin, xMax, yMax int) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	xMin, yMin = math.MaxInt, math.MaxInt
	xMax, yMax = math.MinInt, math.MinInt
	for _, p := range pts {
		xMin, xMax = min(xMin, p.x), max(xMax, p.x)
		yMin, yMax = min(yMin, p.y), max(yMax, p.y)
	}
	return xMin, yMin, xMax, yMax
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// --- Reconstruction (decode) ---

// decodeGlyf rebuilds glyf and loca from a transformed glyf table. Glyphs
// are padded to 4 bytes.
func decodeGlyf(data []byte) (glyf, loca []byte, err error) {
	r := newReader(data)
	r.skip(2) // reserved
	optionFlags := r.u16()
	numGlyphs := int(r.u16())
	indexFormat := r.u16()
	var sizes [7]uint32
	for i := range sizes {
		sizes[i] = r.u32()
	}
	var streams [7]*reader
	for i, n := range sizes {
		if uint64(n) > uint64(len(data)) {
			return nil, nil, formatErr("woff2 glyf: stream %d too large", i)
		}
		streams[i] = newReader(r.bytes(int(n)))
	}
	var overlap []byte
	if optionFlags&overlapOptionFlag != 0 {
		overlap = r.bytes((numGlyphs + 7) >> 3)
	}
	if r.err != nil {
		return nil, nil, formatErr("woff2 glyf header: %v", r.err)
	}
	nContour, nPoints, flagS, glyphS, compS, bboxS, instrS := streams[0], streams[1], streams[2], streams[3], streams[4], streams[5], streams[6]

	bboxBitmap := bboxS.bytes(((numGlyphs + 31) >> 5) << 2)
	if bboxS.err != nil {
		return nil, nil, formatErr("woff2 glyf: bbox bitmap truncated")
	}
	hasBit := func(bitmap []byte, i int) bool {
		return bitmap != nil && bitmap[i>>3]&(0x80>>(i&7)) != 0
	}

	var out writer
	offsets := make([]uint32, numGlyphs+1)
	for i := 0; i < numGlyphs; i++ {
		offsets[i] = uint32(out.len())
		nc := nContour.i16()
		explicit := hasBit(bboxBitmap, i)
		switch {
		case nc == 0:
			if explicit {
				return nil, nil, formatErr("woff2 glyf: empty glyph %d has a bbox", i)
			}
		case nc > 0:
			sg, err := readSimple(int(nc), nPoints, flagS, glyphS, instrS)
			if err != nil {
				return nil, nil, formatErr("woff2 glyf: glyph %d: %v", i, err)
			}
			sg.overlap = hasBit(overlap, i)
			var bbox []byte
			if explicit {
				bbox = bboxS.bytes(8)
			} else {
				var bw writer
				xMin, yMin, xMax, yMax := computeBBox(sg.points)
				bw.i16(int16(xMin))
				bw.i16(int16(yMin))
				bw.i16(int16(xMax))
				bw.i16(int16(yMax))
				bbox = bw.buf
			}
			writeSimpleGlyph(&out, sg, bbox)
		default:
			if !explicit {
				return nil, nil, formatErr("woff2 glyf: composite glyph %d without bbox", i)
			}
			start := compS.off
			end, instr, err := compositeEnd(compS.data, start)
			if err != nil {
				return nil, nil, err
			}
			compS.off = end
			out.i16(nc)
			out.write(bboxS.bytes(8))
			out.write(compS.data[start:end])
			if instr {
				n := glyphS.u255()
				out.u16(n)
				out.write(instrS.bytes(int(n)))
			}
		}
		out.pad4()
		for _, s := range []*reader{nContour, nPoints, flagS, glyphS, compS, bboxS, instrS} {
			if s.err != nil {
				return nil, nil, formatErr("woff2 glyf: glyph %d: %v", i, s.err)
			}
		}
	}
	offsets[numGlyphs] = uint32(out.len())

	var lw writer
	for _, o := range offsets {
		if indexFormat == 0 {
			lw.u16(uint16(o / 2))
		} else {
			lw.u32(o)
		}
	}
	return out.buf, lw.buf, nil
}

func readSimple(nContours int, nPoints, flagS, glyphS, instrS *reader) (*simpleGlyph, error) {
	sg := &simpleGlyph{endPts: make([]uint16, nContours)}
	total := 0
	for i := range sg.endPts {
		total += int(nPoints.u255())
		if total == 0 || total > math.MaxUint16+1 {
			return nil, formatErr("bad contour point count")
		}
		sg.endPts[i] = uint16(total - 1)
	}
	sg.points = make([]point, total)
	x, y := 0, 0
	for i := range sg.points {
		fl := flagS.u8()
		dx, dy := readTriplet(glyphS, fl&0x7F)
		x += dx
		y += dy
		sg.points[i] = point{x: x, y: y, onCurve: fl&0x80 == 0}
	}
	sg.instrs = instrS.bytes(int(glyphS.u255()))
	for _, s := range []*reader{nPoints, flagS, glyphS, instrS} {
		if s.err != nil {
			return nil, s.err
		}
	}
	return sg, nil
}

func withSign(flag uint8, v int) int {
	if flag&1 != 0 {
		return v
	}
	return -v
}

func readTriplet(r *reader, flag uint8) (dx, dy int) {
	switch {
	case flag < 10:
		return 0, withSign(flag, int(flag&14)<<7+int(r.u8()))
	case flag < 20:
		return withSign(flag, int((flag-10)&14)<<7+int(r.u8())), 0
	case flag < 84:
		b0 := int(flag - 20)
		b1 := int(r.u8())
		return withSign(flag, 1+(b0&0x30)+b1>>4), withSign(flag>>1, 1+(b0&0x0C)<<2+b1&0x0F)
	case flag < 120:
		b0 := int(flag - 84)
		return withSign(flag, 1+(b0/12)<<8+int(r.u8())), withSign(flag>>1, 1+((b0%12)>>2)<<8+int(r.u8()))
	case flag < 124:
		b0, b1, b2 := int(r.u8()), int(r.u8()), int(r.u8())
		return withSign(flag, b0<<4+b1>>4), withSign(flag>>1, (b1&0x0F)<<8+b2)
	default:
		return withSign(flag, int(r.u16())), withSign(flag>>1, int(r.u16()))
	}
}

// writeSimpleGlyph serializes sg in glyf format with repeat-compressed
// flags and short coordinates where they fit.
func writeSimpleGlyph(w *writer, sg *simpleGlyph, bbox []byte) {
	w.i16(int16(len(sg.endPts)))
	w.write(bbox)
	for _, e := range sg.endPts {
		w.u16(e)
	}
	w.u16(uint16(len(sg.instrs)))
	w.write(sg.instrs)

	flags := make([]byte, len(sg.points))
	var xs, ys writer
	px, py := 0, 0
	for i, p := range sg.points {
		var fl byte
		if p.onCurve {
			fl = flagOnCurve
		}
		if i == 0 && sg.overlap {
			fl |= flagOverlap
		}
		fl |= encodeCoord(&xs, p.x-px, flagXShort, flagXSame)
		fl |= encodeCoord(&ys, p.y-py, flagYShort, flagYSame)
		flags[i] = fl
		px, py = p.x, p.y
	}
	for i := 0; i < len(flags); {
		run := 1
		for i+run < len(flags) && flags[i+run] == flags[i] && run < 256 {
			run++
		}
		if run > 1 {
			w.u8(flags[i] | flagRepeat)
			w.u8(uint8(run - 1))
		} else {
			w.u8(flags[i])
		}
		i += run
	}
	w.write(xs.buf)
	w.write(ys.buf)
}

func encodeCoord(w *writer, d int, short, same byte) byte {
	switch {
	case d == 0:
		return same
	case d > 0 && d < 256:
		w.u8(uint8(d))
		return short | same
	case d < 0 && d > -256:
		w.u8(uint8(-d))
		return short
	default:
		w.i16(int16(d))
		return 0
	}
}

// --- hmtx ---

// decodeHmtx reverses the WOFF2 hmtx transform. Omitted left side bearings
// are the xMin of the corresponding glyph.
func decodeHmtx(f *Font, data []byte) ([]byte, error) {
	hhea, maxp, head := f.Tables["hhea"], f.Tables["maxp"], f.Tables["head"]
	if len(hhea) < 36 || len(maxp) < 6 || len(head) < 54 {
		return nil, formatErr("woff2 hmtx: missing hhea, maxp or head")
	}
	numHMetrics := int(binary.BigEndian.Uint16(hhea[34:]))
	numGlyphs := int(binary.BigEndian.Uint16(maxp[4:]))
	if numHMetrics < 1 || numHMetrics > numGlyphs {
		return nil, formatErr("woff2 hmtx: bad numberOfHMetrics %d", numHMetrics)
	}
	xMins, err := glyphXMins(f, numGlyphs)
	if err != nil {
		return nil, err
	}

	r := newReader(data)
	flags := r.u8()
	if flags&0xFC != 0 {
		return nil, formatErr("woff2 hmtx: reserved flags set")
	}
	advances := make([]uint16, numHMetrics)
	for i := range advances {
		advances[i] = r.u16()
	}
	lsbs := make([]int16, numGlyphs)
	for i := 0; i < numHMetrics; i++ {
		if flags&0x01 != 0 {
			lsbs[i] = xMins[i]
		} else {
			lsbs[i] = r.i16()
		}
	}
	for i := numHMetrics; i < numGlyphs; i++ {
		if flags&0x02 != 0 {
			lsbs[i] = xMins[i]
		} else {
			lsbs[i] = r.i16()
		}
	}
	if r.err != nil {
		return nil, formatErr("woff2 hmtx: %v", r.err)
	}

	var w writer
	for i := 0; i < numHMetrics; i++ {
		w.u16(advances[i])
		w.i16(lsbs[i])
	}
	for i := numHMetrics; i < numGlyphs; i++ {
		w.i16(lsbs[i])
	}
	return w.buf, nil
}

// glyphXMins returns each glyph's xMin from glyf, 0 for empty glyphs.
func glyphXMins(f *Font, numGlyphs int) ([]int16, error) {
	glyf, loca := f.Tables["glyf"], f.Tables["loca"]
	if glyf == nil || loca == nil {
		return nil, formatErr("woff2 hmtx: transform needs glyf and loca")
	}
	indexFormat := int16(binary.BigEndian.Uint16(f.Tables["head"][50:]))
	offs, err := locaOffsets(loca, indexFormat, numGlyphs, len(glyf))
	if err != nil {
		return nil, err
	}
	xMins := make([]int16, numGlyphs)
	for i := range xMins {
		if offs[i+1]-offs[i] >= glyphHeaderSize {
			xMins[i] = int16(binary.BigEndian.Uint16(glyf[offs[i]+2:]))
		}
	}
	return xMins, nil
}
