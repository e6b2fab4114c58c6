// Package convert turns one source file into one output file.
//
// Three converters share the package, one per file family:
//
//   - ImageConverter decodes with imaging and re-encodes by extension
//     (WebP through chai2010/webp, everything else through imaging).
//   - VideoConverter probes the duration, runs ffmpeg with libvpx-vp9 and
//     libopus, and streams percent samples to a sink.
//   - FontConverter rewrites the font container (sfnt, WOFF, WOFF2)
//     without touching outlines.
//
// Every converter removes its partial output when it fails. Converters
// never print; callers render errors and progress.
package convert
