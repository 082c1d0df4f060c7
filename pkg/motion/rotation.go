package motion

import (
	"fmt"
	"math"
)

// antipodalEps is the deadband around 0 and 180 degrees inside which a
// rotation delta is ambiguous (either direction is as good) and reported
// as zero to avoid oscillating at the antipodal point.
const antipodalEps = 1e-6

// RangeError reports an angle outside the domain a conversion accepts.
type RangeError struct {
	Angle float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("angle %g outside [-180, 180]", e.Angle)
}

// NormalizeSigned folds any angle into (-180, 180].
func NormalizeSigned(angle float64) float64 {
	a := math.Mod(angle, 360)
	a = math.Mod(a+360, 360)
	if a > 180 {
		a -= 360
	}
	return a
}

// To360 shifts a signed angle into the unsigned convergence domain
// [0, 360). It rejects input outside [-180, 180].
func To360(signed float64) (float64, error) {
	if signed < -180 || signed > 180 {
		return 0, &RangeError{Angle: signed}
	}
	if signed < 0 {
		return 360 + signed, nil
	}
	return math.Mod(signed, 360), nil
}

// ShortestDelta returns the signed minimal rotation from current to
// target, after normalizing both. Deltas within antipodalEps of 0 or of
// +-180 are ambiguous and reported as zero.
func ShortestDelta(current, target float64) float64 {
	d := NormalizeSigned(NormalizeSigned(target) - NormalizeSigned(current))
	if math.Abs(d) <= antipodalEps || math.Abs(math.Abs(d)-180) <= antipodalEps {
		return 0
	}
	return d
}

// ForwardDelta returns the one-directional (always >= 0) rotation from
// current to target in [0, 360). Used when the actuator only moves in one
// rotational sense, e.g. while sampling during calibration.
func ForwardDelta(current, target float64) float64 {
	d := math.Mod(target-current, 360)
	if d < 0 {
		d += 360
	}
	return d
}
