package tuner

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocraxis/ocraxis/pkg/actuator"
	"github.com/ocraxis/ocraxis/pkg/motion"
)

// linearAxis moves at a fixed rate per held millisecond, optionally
// wrapping at 360. Modifiers scale the rate.
type linearAxis struct {
	value       float64
	unitsPerMs  float64
	multipliers map[string]float64
	wrap        bool

	held   actuator.Modifier
	probes int
}

func (a *linearAxis) Read(context.Context) (float64, error) {
	return a.value, nil
}

func (a *linearAxis) PressDirection(_ context.Context, dir actuator.Direction, hold time.Duration) error {
	a.probes++
	rate := a.unitsPerMs
	if m, ok := a.multipliers[a.held.Name()]; ok {
		rate *= m
	}
	delta := rate * float64(hold.Milliseconds())
	if dir == actuator.Negative {
		delta = -delta
	}
	a.value += delta
	if a.wrap {
		a.value = math.Mod(math.Mod(a.value, 360)+360, 360)
	}
	return nil
}

func (a *linearAxis) HoldModifier(_ context.Context, m actuator.Modifier) error {
	a.held = m
	return nil
}

func (a *linearAxis) ReleaseModifier(actuator.Modifier) error {
	a.held = actuator.NoModifier
	return nil
}

func TestTuner_ConvergesOnLinearAxis(t *testing.T) {
	// 0.01 units per ms: a 1-unit step needs a 100ms hold.
	axis := &linearAxis{unitsPerMs: 0.01}
	tn := New(axis, axis, Options{
		Tolerance: motion.Tolerance{Absolute: 0.05},
	})

	e, reason, err := tn.TuneStep(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, TuneConverged, reason)
	assert.Equal(t, 1.0, e.Step)
	ms := e.Duration.Milliseconds()
	assert.GreaterOrEqual(t, ms, int64(95))
	assert.LessOrEqual(t, ms, int64(105))
	assert.True(t, e.Modifier.IsNone())
}

func TestTuner_BracketCollapse(t *testing.T) {
	// Zero tolerance can never accept a probe (the ideal hold is not a
	// whole millisecond); the bracket narrows until the integer midpoint
	// stops moving, and the best probe still wins.
	axis := &linearAxis{unitsPerMs: 0.0097}
	tn := New(axis, axis, Options{
		MaxProbes: 50,
	})

	e, reason, err := tn.TuneStep(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, TuneBracketCollapse, reason)
	assert.InDelta(t, 103, float64(e.Duration.Milliseconds()), 1)
}

func TestTuner_BudgetExhaustedReturnsBestProbe(t *testing.T) {
	axis := &linearAxis{unitsPerMs: 0.01}
	tn := New(axis, axis, Options{
		MaxProbes: 3,
	})

	e, reason, err := tn.TuneStep(context.Background(), 1)
	require.NoError(t, err)

	// Not an error: the best of the three probes is returned.
	assert.Equal(t, TuneBudgetExhausted, reason)
	assert.Equal(t, 3, axis.probes)
	assert.Greater(t, e.Duration, time.Duration(0))
}

func TestTuner_RotationalUsesForwardDelta(t *testing.T) {
	// Starting near the wrap point: a plain after-before would go
	// negative when the value crosses 360, the forward delta must not.
	axis := &linearAxis{value: 350, unitsPerMs: 0.1, wrap: true}
	tn := New(axis, axis, Options{
		Tolerance:  motion.Tolerance{Absolute: 0.5},
		Rotational: true,
		MaxHold:    1000 * time.Millisecond,
	})

	e, reason, err := tn.TuneStep(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, TuneConverged, reason)
	assert.InDelta(t, 200, float64(e.Duration.Milliseconds()), 5)
}

func TestTuner_PolicySelectsModifier(t *testing.T) {
	fast := actuator.Named("shift")
	precise := actuator.Named("ctrl")
	policy := ThresholdPolicy(10, 0.01, fast, precise)

	assert.Equal(t, fast, policy(100))
	assert.Equal(t, fast, policy(10))
	assert.Equal(t, actuator.NoModifier, policy(1))
	assert.Equal(t, precise, policy(0.01))
	assert.Equal(t, precise, policy(0.001))
}

func TestTuner_ModifierHeldDuringProbe(t *testing.T) {
	// With shift multiplying the rate 10x, a 10-unit step tunes to the
	// same hold as a 1-unit step without it.
	axis := &linearAxis{
		unitsPerMs:  0.01,
		multipliers: map[string]float64{"shift": 10},
	}
	tn := New(axis, axis, Options{
		Tolerance: motion.Tolerance{Absolute: 0.05},
		Policy:    ThresholdPolicy(10, 0.001, actuator.Named("shift"), actuator.NoModifier),
	})

	e, reason, err := tn.TuneStep(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, TuneConverged, reason)
	assert.Equal(t, actuator.Named("shift"), e.Modifier)
	assert.InDelta(t, 100, float64(e.Duration.Milliseconds()), 6)
}

func TestTuner_RunAssemblesSortedProfile(t *testing.T) {
	axis := &linearAxis{unitsPerMs: 0.01}
	tn := New(axis, axis, Options{
		Tolerance: motion.Tolerance{Absolute: 0.01, RelativePct: 0.05},
	})

	p, err := tn.Run(context.Background(), []float64{1, 10, 5})
	require.NoError(t, err)

	require.Len(t, p, 3)
	assert.Equal(t, []float64{10, 5, 1}, []float64{p[0].Step, p[1].Step, p[2].Step})
}

func TestTuner_CancelledContext(t *testing.T) {
	axis := &linearAxis{unitsPerMs: 0.01}
	tn := New(axis, axis, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The press itself ignores ctx in this fake, but the settle delay
	// between probes observes it.
	_, _, err := tn.TuneStep(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
