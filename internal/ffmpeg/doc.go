// Package ffmpeg builds the video conversion command, runs external tools
// with streamed stderr, and turns ffmpeg's status lines into progress
// samples.
//
// Files:
//   - builder.go: BuildVideoArgs, the VP9/Opus argument vector.
//   - runner.go: Runner, which spawns a tool and hands each stderr line to a
//     callback while the process runs.
//   - progress.go: ProgressParser, TimeParser and Tracker.
//   - errors.go: SpawnError and ToolFailure.
package ffmpeg
