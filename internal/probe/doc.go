// Package probe asks ffprobe for a media file's container duration.
//
// A single ffprobe call per video prints the duration as one bare float on
// stdout:
//
//	ffprobe -v error -show_entries format=duration \
//	        -of default=noprint_wrappers=1:nokey=1 <path>
//
// The duration is the denominator of video progress; nothing else about the
// stream is inspected.
package probe
