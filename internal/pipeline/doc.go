// Package pipeline runs a resolved batch: it turns scanned buckets into
// jobs, hands each job to the matching converter, and reports every step
// as an Event.
//
// The orchestrator never prints. A media run moves through
// Idle → Scanning → ConvertingImages → ConvertingVideos → Done and a font
// run through Idle → ConvertingFonts → Done. Every file is attempted at
// most once; a failure is recorded as an Outcome and the batch continues.
// Cancelling the context stops the batch between files.
//
// Files: runner.go (Orchestrator), events.go (State, Event, Reporter),
// stats.go (Outcome, RunStats).
package pipeline
