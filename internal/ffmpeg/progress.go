package ffmpeg

import (
	"math"
	"regexp"
	"strconv"
)

// ProgressSample is one progress observation of a running video job.
type ProgressSample struct {
	Elapsed float64 // Seconds encoded so far.
	Total   float64 // Source duration in seconds.
	Percent int     // 0-100.
}

// ProgressParser extracts the encoded position from one diagnostic line.
type ProgressParser interface {
	Parse(line string) (elapsed float64, ok bool)
}

var reTime = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2}\.\d{2})`)

// TimeParser reads ffmpeg's "time=HH:MM:SS.ff" status field.
type TimeParser struct{}

// Parse returns H*3600 + M*60 + S for the first time= field in line.
func (TimeParser) Parse(line string) (float64, bool) {
	m := reTime.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	s, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(h*3600+mm*60) + s, true
}

// Tracker turns status lines into samples whose Percent strictly increases
// and never exceeds 100. A Tracker with a non-positive Total never emits
// from Observe.
type Tracker struct {
	parser ProgressParser
	total  float64
	last   int
}

// NewTracker returns a Tracker for a source of total seconds. A nil parser
// means TimeParser.
func NewTracker(total float64, parser ProgressParser) *Tracker {
	if parser == nil {
		parser = TimeParser{}
	}
	return &Tracker{parser: parser, total: total}
}

// Observe parses line and reports a sample when the percentage advanced.
func (t *Tracker) Observe(line string) (ProgressSample, bool) {
	if t.total <= 0 {
		return ProgressSample{}, false
	}
	elapsed, ok := t.parser.Parse(line)
	if !ok {
		return ProgressSample{}, false
	}
	pct := int(math.Floor(elapsed / t.total * 100))
	if pct > 100 {
		pct = 100
	}
	if pct <= t.last {
		return ProgressSample{}, false
	}
	t.last = pct
	return ProgressSample{Elapsed: elapsed, Total: t.total, Percent: pct}, true
}

// Finish reports the closing 100% sample when Observe has not reached it.
// Call only after the tool succeeded.
func (t *Tracker) Finish() (ProgressSample, bool) {
	if t.last >= 100 {
		return ProgressSample{}, false
	}
	t.last = 100
	return ProgressSample{Elapsed: t.total, Total: t.total, Percent: 100}, true
}
