// Package planner turns a resolved configuration and a scanned folder into
// the ordered list of conversion jobs the pipeline executes.
//
//   - JobPlan, ConversionJob (types.go)
//   - FromConfig, BuildJobs: job order, destination names, collision
//     handling (planner.go)
//   - CRF, ImageQuality: the compression-level policies (quality.go)
package planner
