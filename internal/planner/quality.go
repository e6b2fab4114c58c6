package planner

// Compression policy constants.
const (
	BaseCRF = 23 // CRF at level 0.
	MaxCRF  = 51 // libvpx-vp9 upper bound.
)

// CRF maps a compression level to the VP9 constant rate factor:
// min(51, 23 + level/4). Lower CRF means higher quality; the result is
// non-decreasing in level and always within [23, 51].
func CRF(level int) int {
	level = clamp(level, 0, 100)
	return clamp(BaseCRF+level/4, BaseCRF, MaxCRF)
}

// ImageQuality maps a compression level to an encoder quality. At level 0
// there is no forced quality and ok is false; otherwise the quality is
// max(1, 100-level).
func ImageQuality(level int) (quality int, ok bool) {
	level = clamp(level, 0, 100)
	if level == 0 {
		return 0, false
	}
	return clamp(100-level, 1, 100), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
