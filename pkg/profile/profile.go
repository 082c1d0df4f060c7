// Package profile holds the empirically tuned mapping from step magnitudes
// to hold durations for one axis.
package profile

import (
	"errors"
	"sort"
	"time"

	"github.com/ocraxis/ocraxis/pkg/actuator"
)

// ErrEmptyProfile means no usable entries survived loading; a controller
// cannot operate without at least one step.
var ErrEmptyProfile = errors.New("calibration profile has no usable entries")

// Entry is one verified fact: holding Modifier (possibly none) while
// actuating for Duration changes the axis reading by approximately Step.
type Entry struct {
	Step     float64
	Duration time.Duration
	Modifier actuator.Modifier
}

// Profile is a set of entries unique by step, kept sorted descending by
// step for greedy consumption. It is read-only during motion control.
type Profile []Entry

// Sort orders entries descending by step and drops duplicates, keeping the
// first entry seen for each step.
func (p Profile) Sort() Profile {
	sorted := append(Profile{}, p...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Step > sorted[j].Step })
	out := sorted[:0]
	for _, e := range sorted {
		if len(out) > 0 && out[len(out)-1].Step == e.Step {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Whole returns the entries with step >= 1, order preserved.
func (p Profile) Whole() Profile {
	var out Profile
	for _, e := range p {
		if e.Step >= 1 {
			out = append(out, e)
		}
	}
	return out
}

// Fractional returns the entries with step < 1, order preserved.
func (p Profile) Fractional() Profile {
	var out Profile
	for _, e := range p {
		if e.Step < 1 {
			out = append(out, e)
		}
	}
	return out
}

// Smallest returns the smallest-step entry. ok is false for an empty
// profile.
func (p Profile) Smallest() (Entry, bool) {
	if len(p) == 0 {
		return Entry{}, false
	}
	return p[len(p)-1], true
}

// SpansWholeAndFractional reports whether the profile has both whole
// (>= 1) and sub-unit steps, which is what the two-phase strategy needs.
func (p Profile) SpansWholeAndFractional() bool {
	return len(p.Whole()) > 0 && len(p.Fractional()) > 0
}
