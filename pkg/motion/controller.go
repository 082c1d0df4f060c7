package motion

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ocraxis/ocraxis/pkg/actuator"
	"github.com/ocraxis/ocraxis/pkg/profile"
	"github.com/ocraxis/ocraxis/pkg/sensor"
)

// Reason is the terminal state of one move request. Non-convergence is an
// ordinary result, not an error: "got close but not exact" is actionable
// for the caller (retry, accept, or recalibrate).
type Reason string

const (
	ReasonWithinTolerance       Reason = "within_tolerance"
	ReasonSmallestStepExhausted Reason = "smallest_step_exhausted"
	ReasonMaxSteps              Reason = "max_steps"
)

// Options configures one controller.
type Options struct {
	Tolerance Tolerance
	// MaxIterations bounds planned batches; smallest-step nudges do not
	// count against it.
	MaxIterations int
	// MaxNudges bounds consecutive smallest-step fallback presses.
	MaxNudges int
	// LeadDelay runs between holding a modifier and pressing the
	// directional key; TailDelay between releasing them. SettleDelay runs
	// after each batch before the readout is sampled again.
	LeadDelay   time.Duration
	TailDelay   time.Duration
	SettleDelay time.Duration
	// TwoPhase first drives the integer part with whole steps, then
	// refines with fractional steps.
	TwoPhase bool
	// WholeTolerance is the coarse acceptance band of the whole phase.
	WholeTolerance float64
	// WholeMaxIterations bounds the whole phase; exhausting it is not a
	// failure, the fractional phase takes over from wherever it stopped.
	WholeMaxIterations int
	// Wraparound treats the axis as circular (degrees mod 360).
	Wraparound bool
}

func (o Options) withDefaults() Options {
	if o.MaxIterations == 0 {
		o.MaxIterations = 30
	}
	if o.MaxNudges == 0 {
		o.MaxNudges = 5
	}
	if o.WholeTolerance == 0 {
		o.WholeTolerance = 0.5
	}
	if o.WholeMaxIterations == 0 {
		o.WholeMaxIterations = 5
	}
	return o
}

// IterationRecord is one diagnostic log entry, for human-facing progress
// display. Not required for correctness.
type IterationRecord struct {
	// Batch is the 1-based planned-batch number; the segments of one batch
	// share it. Nudge rows carry the number of the batch they follow, 0
	// when no batch has run yet.
	Batch     int
	Direction actuator.Direction
	Steps     []StepCount
	Hold      time.Duration
	Modifier  actuator.Modifier
	Nudge     bool
	Before    float64
	After     float64
	Remaining float64
}

// Result reports how a move ended and where the axis was left.
type Result struct {
	OK           bool
	Reason       Reason
	FinalReading float64
	SignedError  float64
	Iterations   []IterationRecord
}

// Controller drives one axis toward a target with calibrated presses. A
// controller run owns the axis exclusively: two controllers driving the
// same axis would corrupt each other's model of the current value. The
// profile is a read-only snapshot for the duration of a run.
type Controller struct {
	sensor sensor.Reader
	act    actuator.Actuator
	table  profile.Profile
	opts   Options
}

// New builds a controller over a loaded profile.
func New(rd sensor.Reader, act actuator.Actuator, table profile.Profile, opts Options) (*Controller, error) {
	if len(table) == 0 {
		return nil, profile.ErrEmptyProfile
	}
	return &Controller{
		sensor: rd,
		act:    act,
		table:  table.Sort(),
		opts:   opts.withDefaults(),
	}, nil
}

// Move drives the axis to target and reports the terminal state. Sensor
// failures and cancellation abort the run and propagate; everything else
// ends in a Result.
func (c *Controller) Move(ctx context.Context, target float64) (*Result, error) {
	if c.opts.Wraparound {
		t, err := To360(NormalizeSigned(target))
		if err != nil {
			return nil, err
		}
		target = t
	}

	res := &Result{}

	if c.opts.TwoPhase && c.table.SpansWholeAndFractional() {
		whole := math.Trunc(target)
		st, err := c.seek(ctx, res, seekParams{
			target:  whole,
			phase:   PhaseWhole,
			tol:     Tolerance{Absolute: c.opts.WholeTolerance},
			maxIter: c.opts.WholeMaxIterations,
			topOff:  true,
		})
		if err != nil {
			return nil, err
		}
		// The fractional phase trusts the whole phase's last reading:
		// every extra read/actuate cycle risks timing jitter.
		st, err = c.seek(ctx, res, seekParams{
			target:  target,
			phase:   PhaseFractional,
			tol:     c.opts.Tolerance,
			maxIter: c.opts.MaxIterations,
			start:   &st.current,
		})
		if err != nil {
			return nil, err
		}
		c.finish(res, st, target)
		return res, nil
	}

	st, err := c.seek(ctx, res, seekParams{
		target:  target,
		phase:   PhaseAll,
		tol:     c.opts.Tolerance,
		maxIter: c.opts.MaxIterations,
	})
	if err != nil {
		return nil, err
	}
	c.finish(res, st, target)
	return res, nil
}

func (c *Controller) finish(res *Result, st seekState, target float64) {
	res.Reason = st.reason
	res.OK = st.reason == ReasonWithinTolerance
	res.FinalReading = st.current
	res.SignedError = c.remaining(st.current, target)
}

type seekParams struct {
	target  float64
	phase   Phase
	tol     Tolerance
	maxIter int
	topOff  bool
	// start, when set, seeds the loop with a known reading instead of
	// sampling the sensor at entry.
	start *float64
}

type seekState struct {
	current float64
	reason  Reason
}

func (c *Controller) seek(ctx context.Context, res *Result, p seekParams) (seekState, error) {
	var current float64
	if p.start != nil {
		current = *p.start
	} else {
		var err error
		if current, err = c.sensor.Read(ctx); err != nil {
			return seekState{}, err
		}
	}

	table := p.phase.Filter(c.table)
	nudgeTable := table
	if len(nudgeTable) == 0 {
		nudgeTable = c.table
	}
	eff := p.tol.Effective(p.target)

	// Batch numbering continues across phases.
	batch := 0
	for _, it := range res.Iterations {
		if it.Batch > batch {
			batch = it.Batch
		}
	}

	batches := 0
	nudges := 0
	for {
		remaining := c.remaining(current, p.target)
		if math.Abs(remaining) <= eff {
			return seekState{current: current, reason: ReasonWithinTolerance}, nil
		}
		if batches >= p.maxIter {
			return seekState{current: current, reason: ReasonMaxSteps}, nil
		}

		dir := actuator.Positive
		if remaining < 0 {
			dir = actuator.Negative
		}

		plan := PlanSteps(math.Abs(remaining), eff, table, p.topOff)
		before := current

		log := logrus.WithFields(logrus.Fields{
			"phase":     p.phase,
			"target":    p.target,
			"current":   current,
			"remaining": remaining,
			"direction": dir,
		})

		if plan.Empty() {
			smallest, ok := nudgeTable.Smallest()
			if !ok {
				return seekState{current: current, reason: ReasonSmallestStepExhausted}, nil
			}
			nudges++
			log.WithFields(logrus.Fields{
				"step":  smallest.Step,
				"nudge": nudges,
			}).Debug("plan empty, nudging with smallest step")
			seg := Segment{
				Modifier: smallest.Modifier,
				Hold:     smallest.Duration,
				Steps:    []StepCount{{Step: smallest.Step, Repeats: 1}},
			}
			if err := c.executeSegment(ctx, dir, seg); err != nil {
				return seekState{}, err
			}
			var err error
			if current, err = c.settleAndRead(ctx); err != nil {
				return seekState{}, err
			}
			c.record(res, batch, dir, seg, true, before, current, c.remaining(current, p.target))
			if nudges > c.opts.MaxNudges {
				if math.Abs(c.remaining(current, p.target)) <= eff {
					return seekState{current: current, reason: ReasonWithinTolerance}, nil
				}
				return seekState{current: current, reason: ReasonSmallestStepExhausted}, nil
			}
			continue
		}

		batch++
		batches++
		nudges = 0
		log.WithFields(logrus.Fields{
			"batch":    batch,
			"segments": len(plan.Segments),
			"covered":  plan.Covered,
		}).Debug("executing planned batch")

		for _, seg := range plan.Segments {
			if err := c.executeSegment(ctx, dir, seg); err != nil {
				return seekState{}, err
			}
		}
		var err error
		if current, err = c.settleAndRead(ctx); err != nil {
			return seekState{}, err
		}
		after := c.remaining(current, p.target)
		for _, seg := range plan.Segments {
			c.record(res, batch, dir, seg, false, before, current, after)
		}
	}
}

// remaining is the signed error from current to target, on the circle for
// wraparound axes.
func (c *Controller) remaining(current, target float64) float64 {
	if c.opts.Wraparound {
		return ShortestDelta(current, target)
	}
	return target - current
}

func (c *Controller) settleAndRead(ctx context.Context) (float64, error) {
	if err := actuator.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return 0, err
	}
	return c.sensor.Read(ctx)
}

// executeSegment presses the directional key for the segment's full hold,
// bracketed by the modifier if one is set. The modifier release is
// deferred so it runs on every exit path, including cancellation.
func (c *Controller) executeSegment(ctx context.Context, dir actuator.Direction, seg Segment) error {
	if !seg.Modifier.IsNone() {
		if err := c.act.HoldModifier(ctx, seg.Modifier); err != nil {
			return err
		}
		defer func() {
			if err := c.act.ReleaseModifier(seg.Modifier); err != nil {
				logrus.WithError(err).WithField("modifier", seg.Modifier).Error("failed to release modifier")
			}
		}()
		if err := actuator.Sleep(ctx, c.opts.LeadDelay); err != nil {
			return err
		}
	}
	if err := c.act.PressDirection(ctx, dir, seg.Hold); err != nil {
		return err
	}
	if !seg.Modifier.IsNone() {
		if err := actuator.Sleep(ctx, c.opts.TailDelay); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) record(res *Result, batch int, dir actuator.Direction, seg Segment, nudge bool, before, after, remaining float64) {
	res.Iterations = append(res.Iterations, IterationRecord{
		Batch:     batch,
		Direction: dir,
		Steps:     seg.Steps,
		Hold:      seg.Hold,
		Modifier:  seg.Modifier,
		Nudge:     nudge,
		Before:    before,
		After:     after,
		Remaining: remaining,
	})
}
