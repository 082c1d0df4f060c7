package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocraxis/ocraxis/pkg/actuator"
	"github.com/ocraxis/ocraxis/pkg/profile"
)

func entry(step float64, ms int, mod string) profile.Entry {
	return profile.Entry{
		Step:     step,
		Duration: time.Duration(ms) * time.Millisecond,
		Modifier: actuator.Named(mod),
	}
}

func standardTable() profile.Profile {
	return profile.Profile{
		entry(10, 100, ""),
		entry(1, 20, ""),
		entry(0.1, 5, ""),
	}
}

func TestPlanSteps_GreedyDecomposition(t *testing.T) {
	plan := PlanSteps(23.4, 0.05, standardTable(), false)

	require.False(t, plan.Empty())
	// 2x10 + 3x1 + 3x0.1: each tier stops short of the next tier's
	// correction range.
	assert.InDelta(t, 23.3, plan.Covered, 1e-9)
	require.Len(t, plan.Segments, 1) // all entries share "no modifier"
	assert.Equal(t, []StepCount{{10, 2}, {1, 3}, {0.1, 3}}, plan.Segments[0].Steps)
	assert.Equal(t, 275*time.Millisecond, plan.Segments[0].Hold)
}

func TestPlanSteps_NeverOvershoots(t *testing.T) {
	table := standardTable()
	for remaining := 0.05; remaining < 200; remaining += 0.173 {
		for _, tol := range []float64{0, 0.01, 0.05, 0.5} {
			if remaining <= tol {
				// The controller never plans inside the tolerance band.
				continue
			}
			plan := PlanSteps(remaining, tol, table, false)
			assert.LessOrEqualf(t, plan.Covered, remaining-tol+1e-9,
				"overshoot for remaining=%v tol=%v", remaining, tol)
		}
	}
}

func TestPlanSteps_EmptyWhenNothingFits(t *testing.T) {
	wholeOnly := profile.Profile{
		entry(10, 100, ""),
		entry(1, 20, ""),
	}
	plan := PlanSteps(0.5, 0.05, wholeOnly, false)
	assert.True(t, plan.Empty())
}

func TestPlanSteps_SafetyMarginBlocksLargeStep(t *testing.T) {
	// Remaining 10.2: one 10-step would leave 0.2, but the margin is
	// half of the next step (0.5), so the 10 must not be used.
	table := profile.Profile{
		entry(10, 100, ""),
		entry(1, 20, ""),
	}
	plan := PlanSteps(10.2, 0.05, table, false)
	require.False(t, plan.Empty())
	for _, seg := range plan.Segments {
		for _, sc := range seg.Steps {
			assert.NotEqual(t, 10.0, sc.Step)
		}
	}
}

func TestPlanSteps_ExactTopOff(t *testing.T) {
	table := profile.Profile{
		entry(10, 100, ""),
		entry(1, 20, ""),
	}
	// Greedy with a 0.5 coarse tolerance covers 22 of 23; top-off lands
	// the last unit exactly on the integer boundary.
	plan := PlanSteps(23, 0.5, table, true)
	require.False(t, plan.Empty())
	assert.InDelta(t, 23.0, plan.Covered, 1e-9)
}

func TestPlanSteps_TopOffRequiresExactDivisor(t *testing.T) {
	table := profile.Profile{
		entry(10, 100, ""),
		entry(3, 20, ""),
	}
	// Residual after greedy (1) cannot be evenly divided by 3 or 10, so
	// no top-off applies.
	plan := PlanSteps(24, 0.5, table, true)
	assert.InDelta(t, 23.0, plan.Covered, 1e-9)
}

func TestPlanSteps_GroupsByModifier(t *testing.T) {
	table := profile.Profile{
		entry(100, 200, "shift"),
		entry(10, 100, "shift"),
		entry(1, 20, ""),
		entry(0.1, 5, "ctrl"),
		entry(0.01, 2, "ctrl"),
	}
	plan := PlanSteps(567.89, 0.001, table, false)
	require.False(t, plan.Empty())

	// Adjacent picks sharing a modifier merge into one hold/release
	// bracket each.
	require.Len(t, plan.Segments, 3)
	assert.Equal(t, actuator.Named("shift"), plan.Segments[0].Modifier)
	assert.Equal(t, actuator.NoModifier, plan.Segments[1].Modifier)
	assert.Equal(t, actuator.Named("ctrl"), plan.Segments[2].Modifier)
}

func TestPlanSteps_Terminates(t *testing.T) {
	// Degenerate tolerances and tables must still terminate; the loop is
	// one pass over a finite table.
	tables := []profile.Profile{
		nil,
		{entry(0.001, 1, "")},
		standardTable(),
	}
	for _, table := range tables {
		for _, remaining := range []float64{0, 1e-9, 0.5, 1e6} {
			PlanSteps(remaining, 0, table, true)
		}
	}
}

func TestPlanSteps_PlanSizeBoundedByTable(t *testing.T) {
	// A tiny step against a huge remaining error implies ~1e9 repeats. The
	// plan must stay one StepCount per entry, never one element per repeat.
	plan := PlanSteps(1e6, 0, profile.Profile{entry(0.001, 1, "")}, true)

	require.False(t, plan.Empty())
	require.Len(t, plan.Segments, 1)
	require.Len(t, plan.Segments[0].Steps, 1)
	assert.InDelta(t, 1e9, float64(plan.Segments[0].Steps[0].Repeats), 1)
	assert.InDelta(t, 1e6, plan.Covered, 0.001)
}

func TestPhase_Filter(t *testing.T) {
	table := profile.Profile{
		entry(10, 100, ""),
		entry(1, 20, ""),
		entry(0.1, 5, ""),
	}
	assert.Len(t, PhaseAll.Filter(table), 3)
	assert.Equal(t, profile.Profile{entry(10, 100, ""), entry(1, 20, "")}, PhaseWhole.Filter(table))
	assert.Equal(t, profile.Profile{entry(0.1, 5, "")}, PhaseFractional.Filter(table))
}
