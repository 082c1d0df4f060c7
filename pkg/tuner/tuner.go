// Package tuner empirically discovers the hold duration that produces a
// requested step size, by bisection against live sensor readings. Each
// probe physically moves the axis; the tuner does not restore position.
package tuner

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ocraxis/ocraxis/pkg/actuator"
	"github.com/ocraxis/ocraxis/pkg/motion"
	"github.com/ocraxis/ocraxis/pkg/profile"
)

// TermReason says how a single-step tuning run ended. Exhausting the probe
// budget is not an error: the best probe seen is still returned.
type TermReason string

const (
	TuneConverged       TermReason = "converged"
	TuneBracketCollapse TermReason = "bracket_collapsed"
	TuneBudgetExhausted TermReason = "budget_exhausted"
)

// ModifierPolicy selects the modifier to hold while probing, purely from
// the requested step magnitude. The thresholds are empirically tuned per
// deployment, so the policy is pluggable rather than hard-coded.
type ModifierPolicy func(step float64) actuator.Modifier

// NoPolicy never selects a modifier.
func NoPolicy(float64) actuator.Modifier {
	return actuator.NoModifier
}

// ThresholdPolicy holds fast above fastAbove, precise below preciseBelow,
// and nothing in between.
func ThresholdPolicy(fastAbove, preciseBelow float64, fast, precise actuator.Modifier) ModifierPolicy {
	return func(step float64) actuator.Modifier {
		switch {
		case step >= fastAbove:
			return fast
		case step <= preciseBelow:
			return precise
		default:
			return actuator.NoModifier
		}
	}
}

// Options configures a tuner.
type Options struct {
	// MinHold and MaxHold bracket the duration search.
	MinHold time.Duration
	MaxHold time.Duration
	// MaxProbes bounds bisection iterations per step.
	MaxProbes int
	// Tolerance accepts a probe early when the measured step is close
	// enough to the requested one.
	Tolerance motion.Tolerance
	// Settle runs between probes so the readout stabilizes.
	Settle time.Duration
	// Rotational measures probe deltas on the circle (the axis only moves
	// in one rotational sense during sampling).
	Rotational bool
	// Policy picks the modifier per step; nil means none.
	Policy ModifierPolicy
}

func (o Options) withDefaults() Options {
	if o.MinHold == 0 {
		o.MinHold = 5 * time.Millisecond
	}
	if o.MaxHold == 0 {
		o.MaxHold = 3 * time.Second
	}
	if o.MaxProbes == 0 {
		o.MaxProbes = 12
	}
	if o.Policy == nil {
		o.Policy = NoPolicy
	}
	return o
}

// Reader matches sensor.Reader without importing it, to keep the test seam
// small.
type Reader interface {
	Read(ctx context.Context) (float64, error)
}

// Tuner runs duration bisection for one axis.
type Tuner struct {
	sensor Reader
	act    actuator.Actuator
	opts   Options
}

func New(rd Reader, act actuator.Actuator, opts Options) *Tuner {
	return &Tuner{sensor: rd, act: act, opts: opts.withDefaults()}
}

type probe struct {
	hold  time.Duration
	delta float64
	err   float64
}

// TuneStep finds the hold duration whose measured step is closest to the
// requested one. The bracket invariant is low <= best <= high in whole
// milliseconds; the search stops early when a probe lands within the
// effective tolerance, or when the midpoint stops moving (the bracket has
// collapsed to an integer boundary), or when the probe budget runs out.
func (t *Tuner) TuneStep(ctx context.Context, step float64) (profile.Entry, TermReason, error) {
	mod := t.opts.Policy(step)
	eff := t.opts.Tolerance.Effective(step)

	low := t.opts.MinHold.Milliseconds()
	high := t.opts.MaxHold.Milliseconds()
	mid := (low + high) / 2

	log := logrus.WithFields(logrus.Fields{
		"step":     step,
		"modifier": mod,
	})

	best := probe{err: math.Inf(1)}
	reason := TuneBudgetExhausted
	for i := 0; i < t.opts.MaxProbes; i++ {
		hold := time.Duration(mid) * time.Millisecond
		delta, err := t.probe(ctx, mod, hold)
		if err != nil {
			return profile.Entry{}, "", err
		}

		probeErr := math.Abs(delta - step)
		if probeErr < best.err {
			best = probe{hold: hold, delta: delta, err: probeErr}
		}
		log.WithFields(logrus.Fields{
			"probe":   i,
			"holdMs":  mid,
			"delta":   delta,
			"error":   probeErr,
			"bestErr": best.err,
		}).Debug("tuning probe")

		if probeErr <= eff {
			reason = TuneConverged
			break
		}
		if delta > step {
			high = mid
		} else {
			low = mid
		}
		next := (low + high) / 2
		if next == mid {
			reason = TuneBracketCollapse
			break
		}
		mid = next

		if err := actuator.Sleep(ctx, t.opts.Settle); err != nil {
			return profile.Entry{}, "", err
		}
	}

	log.WithFields(logrus.Fields{
		"holdMs": best.hold.Milliseconds(),
		"delta":  best.delta,
		"reason": reason,
	}).Info("step tuned")

	return profile.Entry{Step: step, Duration: best.hold, Modifier: mod}, reason, nil
}

// probe reads, presses positive for hold, reads again, and returns the
// measured delta.
func (t *Tuner) probe(ctx context.Context, mod actuator.Modifier, hold time.Duration) (float64, error) {
	before, err := t.sensor.Read(ctx)
	if err != nil {
		return 0, err
	}

	if err := t.press(ctx, mod, hold); err != nil {
		return 0, err
	}

	after, err := t.sensor.Read(ctx)
	if err != nil {
		return 0, err
	}

	if t.opts.Rotational {
		return motion.ForwardDelta(before, after), nil
	}
	return after - before, nil
}

func (t *Tuner) press(ctx context.Context, mod actuator.Modifier, hold time.Duration) error {
	if !mod.IsNone() {
		if err := t.act.HoldModifier(ctx, mod); err != nil {
			return err
		}
		defer func() {
			if err := t.act.ReleaseModifier(mod); err != nil {
				logrus.WithError(err).WithField("modifier", mod).Error("failed to release modifier")
			}
		}()
	}
	return t.act.PressDirection(ctx, actuator.Positive, hold)
}

// Run tunes every step in the ladder and returns the assembled profile.
// Steps that fail to produce any probe are skipped.
func (t *Tuner) Run(ctx context.Context, steps []float64) (profile.Profile, error) {
	var p profile.Profile
	for _, step := range steps {
		entry, reason, err := t.TuneStep(ctx, step)
		if err != nil {
			return nil, err
		}
		if entry.Duration <= 0 {
			logrus.WithField("step", step).Warn("no usable probe for step, skipping")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"step":   step,
			"holdMs": entry.Duration.Milliseconds(),
			"reason": reason,
		}).Info("calibrated step")
		p = append(p, entry)

		if err := actuator.Sleep(ctx, t.opts.Settle); err != nil {
			return nil, err
		}
	}
	if len(p) == 0 {
		return nil, profile.ErrEmptyProfile
	}
	return p.Sort(), nil
}
