// Package pcurve models the data accumulated for each curve of a
// telemetry figure, and validates live updates against the curve's
// geometry and role before applying them.
//
// Validation failures are reported per curve, never aborting the rest
// of a frame: one malformed publisher payload must not stall the whole
// visualization.
package pcurve
