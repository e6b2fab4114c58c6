package ffmpeg

import "strconv"

// Video encoding constants.
const (
	VideoCodec   = "libvpx-vp9"
	AudioCodec   = "libopus"
	AudioBitrate = "128k"
)

// BuildVideoArgs constructs the complete ffmpeg argument slice converting
// src to dst with VP9 video at the given CRF and Opus audio. bin defaults
// to "ffmpeg".
//
// -b:v 0 puts libvpx-vp9 in constant-quality mode so CRF alone decides
// quality. -nostdin and -y keep ffmpeg from ever waiting on a prompt.
func BuildVideoArgs(bin, src, dst string, crf int) []string {
	if bin == "" {
		bin = "ffmpeg"
	}
	args := make([]string, 0, 20)

	// --- Preamble ---
	args = append(args, bin, "-hide_banner", "-nostdin", "-y", "-stats")

	// --- Input ---
	args = append(args, "-i", src)

	// --- Video ---
	args = append(args, "-c:v", VideoCodec, "-crf", strconv.Itoa(crf), "-b:v", "0")

	// --- Audio ---
	args = append(args, "-b:a", AudioBitrate, "-c:a", AudioCodec)

	// --- Output ---
	args = append(args, dst)
	return args
}
