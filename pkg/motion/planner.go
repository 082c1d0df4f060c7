package motion

import (
	"fmt"
	"math"
	"time"

	"github.com/ocraxis/ocraxis/pkg/actuator"
	"github.com/ocraxis/ocraxis/pkg/profile"
)

// Phase restricts which part of the calibration table a plan may use.
type Phase int

const (
	// PhaseAll uses the whole table.
	PhaseAll Phase = iota
	// PhaseWhole uses steps >= 1, for closing in on the integer part.
	PhaseWhole
	// PhaseFractional uses steps < 1, for refining to the exact target.
	PhaseFractional
)

func (ph Phase) Filter(p profile.Profile) profile.Profile {
	switch ph {
	case PhaseWhole:
		return p.Whole()
	case PhaseFractional:
		return p.Fractional()
	default:
		return p
	}
}

func (ph Phase) String() string {
	switch ph {
	case PhaseWhole:
		return "whole"
	case PhaseFractional:
		return "fractional"
	default:
		return "all"
	}
}

// StepCount is one step size and how many times it repeats. Repeats are
// kept as a count rather than expanded: a small step against a large
// remaining error can imply billions of repeats.
type StepCount struct {
	Step    float64
	Repeats int
}

func (sc StepCount) String() string {
	return fmt.Sprintf("%gx%d", sc.Step, sc.Repeats)
}

// Segment is a contiguous group of repeats sharing one modifier, executed
// as a single hold/release bracket.
type Segment struct {
	Modifier actuator.Modifier
	Hold     time.Duration
	Steps    []StepCount
}

// Plan is the ephemeral decomposition of one remaining error. It is
// recomputed every iteration and never persisted.
type Plan struct {
	Segments []Segment
	// Covered is the total value change the plan is expected to produce.
	Covered float64
}

func (p Plan) Empty() bool {
	return len(p.Segments) == 0
}

type pick struct {
	entry   profile.Entry
	repeats int
}

// PlanSteps greedily decomposes absRemaining into calibrated steps, in
// strictly descending step order, without ever planning past the target by
// more than tol. Each entry keeps a safety margin of max(tol, half the
// next-smaller step) so a large step cannot overshoot into a region the
// next step cannot correct from the other side.
//
// topOff additionally lands exactly on the residual when some entry's step
// evenly divides it; the whole-number phase uses this to hit integer
// boundaries.
//
// An empty plan is a valid outcome: it means even the smallest entry does
// not fit and the caller should fall back to single smallest-step nudges.
func PlanSteps(absRemaining, tol float64, table profile.Profile, topOff bool) Plan {
	var picks []pick
	remainder := absRemaining
	for i, entry := range table {
		margin := tol
		if i+1 < len(table) {
			margin = math.Max(tol, table[i+1].Step/2)
		}
		repeats := int(math.Floor((remainder - margin) / entry.Step))
		if repeats < 1 {
			continue
		}
		picks = append(picks, pick{entry: entry, repeats: repeats})
		remainder -= float64(repeats) * entry.Step
	}

	if topOff && remainder > tol {
		picks = topOffPicks(picks, remainder, table)
	}

	return groupPicks(picks)
}

// topOffPicks adds repeats of an entry whose step evenly divides the
// residual, merging with an existing pick of that entry if present.
func topOffPicks(picks []pick, residual float64, table profile.Profile) []pick {
	for _, entry := range table {
		n := math.Round(residual / entry.Step)
		if n < 1 {
			continue
		}
		if math.Abs(residual-n*entry.Step) > divisionEps(residual) {
			continue
		}
		for i := range picks {
			if picks[i].entry.Step == entry.Step {
				picks[i].repeats += int(n)
				return picks
			}
		}
		return append(picks, pick{entry: entry, repeats: int(n)})
	}
	return picks
}

func divisionEps(v float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(v))
}

// groupPicks merges adjacent picks sharing a modifier into one segment so
// each distinct modifier is pressed and released once per plan.
func groupPicks(picks []pick) Plan {
	var plan Plan
	for _, pk := range picks {
		hold := time.Duration(pk.repeats) * pk.entry.Duration
		plan.Covered += float64(pk.repeats) * pk.entry.Step

		sc := StepCount{Step: pk.entry.Step, Repeats: pk.repeats}

		n := len(plan.Segments)
		if n > 0 && plan.Segments[n-1].Modifier == pk.entry.Modifier {
			seg := &plan.Segments[n-1]
			seg.Hold += hold
			seg.Steps = append(seg.Steps, sc)
			continue
		}

		plan.Segments = append(plan.Segments, Segment{
			Modifier: pk.entry.Modifier,
			Hold:     hold,
			Steps:    []StepCount{sc},
		})
	}
	return plan
}
