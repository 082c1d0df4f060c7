// Package motion implements the closed-loop motion core: acceptance
// tolerances, circular-axis normalization, greedy step planning, and the
// phased convergence controller.
package motion

import "math"

// Tolerance combines an absolute floor with a percentage of the target
// magnitude. The effective tolerance for a target is whichever is larger.
type Tolerance struct {
	Absolute    float64
	RelativePct float64
}

// Effective returns max(Absolute, |target| * RelativePct). It is defined
// for every finite target and never negative for non-negative fields.
func (t Tolerance) Effective(target float64) float64 {
	return math.Max(t.Absolute, math.Abs(target)*t.RelativePct)
}
