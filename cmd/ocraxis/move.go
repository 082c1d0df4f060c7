package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ocraxis/ocraxis/pkg/motion"
	"github.com/ocraxis/ocraxis/pkg/profile"
)

type moveFlags struct {
	toleranceAbs  float64
	toleranceRel  float64
	maxIterations int
	maxNudges     int
	twoPhase      bool
	profilePath   string
}

func (f *moveFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64Var(&f.toleranceAbs, "tolerance", -1, "absolute acceptance tolerance (overrides config)")
	flags.Float64Var(&f.toleranceRel, "tolerance-pct", -1, "relative acceptance tolerance as a fraction of the target (overrides config)")
	flags.IntVar(&f.maxIterations, "max-iterations", 0, "max planned batches (overrides config)")
	flags.IntVar(&f.maxNudges, "max-nudges", 0, "max consecutive smallest-step presses (overrides config)")
	flags.BoolVar(&f.twoPhase, "two-phase", false, "drive the integer part first, then refine")
	flags.StringVar(&f.profilePath, "profile", "", "calibration profile path (overrides config)")
}

func NewMoveCommand() *cobra.Command {
	f := &moveFlags{}
	cmd := &cobra.Command{
		Use:     "move [target]",
		Short:   "Drive the axis readout to a target value",
		GroupID: gMotion,
		Long: `Drive the axis readout to a target value.

The move reads the current value, plans a batch of calibrated presses that
approaches the target without overshooting, executes it, re-reads, and
repeats until within tolerance or a budget runs out.`,
		RunE: func(_ *cobra.Command, args []string) error {
			target, err := parseFloatArg(args, "target")
			if err != nil {
				return err
			}
			return runMove(target, f, false)
		},
	}
	f.register(cmd)
	return cmd
}

func NewRotateCommand() *cobra.Command {
	f := &moveFlags{}
	cmd := &cobra.Command{
		Use:     "rotate [degrees]",
		Short:   "Drive a rotational axis to an angle",
		GroupID: gMotion,
		Long: `Drive a rotational axis to an angle in degrees.

The angle is folded onto the circle and approached along the shortest
rotation. An exactly opposite target is ambiguous and treated as already
reached to avoid oscillating around it.`,
		RunE: func(_ *cobra.Command, args []string) error {
			target, err := parseFloatArg(args, "degrees")
			if err != nil {
				return err
			}
			return runMove(target, f, true)
		},
	}
	f.register(cmd)
	return cmd
}

func runMove(target float64, f *moveFlags, wraparound bool) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	path := f.profilePath
	if path == "" {
		if wraparound {
			path = conf.RotationProfilePath()
		} else {
			path = conf.ProfilePath()
		}
	}
	table, err := profile.Load(path)
	if err != nil {
		return err
	}

	rd, err := buildSensor(conf)
	if err != nil {
		return err
	}
	act, err := buildActuator(conf)
	if err != nil {
		return err
	}
	defer act.Close()

	opts := motion.Options{
		Tolerance: motion.Tolerance{
			Absolute:    conf.ToleranceAbs(),
			RelativePct: conf.ToleranceRelPct(),
		},
		MaxIterations: conf.MaxIterations(),
		MaxNudges:     conf.MaxNudges(),
		LeadDelay:     conf.LeadDelay(),
		TailDelay:     conf.TailDelay(),
		SettleDelay:   conf.SettleDelay(),
		TwoPhase:      f.twoPhase,
		Wraparound:    wraparound,
	}
	if f.toleranceAbs >= 0 {
		opts.Tolerance.Absolute = f.toleranceAbs
	}
	if f.toleranceRel >= 0 {
		opts.Tolerance.RelativePct = f.toleranceRel
	}
	if f.maxIterations > 0 {
		opts.MaxIterations = f.maxIterations
	}
	if f.maxNudges > 0 {
		opts.MaxNudges = f.maxNudges
	}

	ctrl, err := motion.New(rd, act, table, opts)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := ctrl.Move(ctx, target)
	if err != nil {
		return err
	}

	printResult(target, res)
	if !res.OK {
		os.Exit(1)
	}
	return nil
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func printResult(target float64, res *motion.Result) {
	for _, it := range res.Iterations {
		kind := "batch"
		if it.Nudge {
			kind = "nudge"
		}
		dimColor.Printf("  %2d %s %s steps=%v hold=%s mod=%s  %.4f -> %.4f (remaining %.4f)\n",
			it.Batch, kind, it.Direction, it.Steps, it.Hold, it.Modifier, it.Before, it.After, it.Remaining)
	}

	if res.OK {
		okColor.Printf("reached %.4f", res.FinalReading)
		fmt.Printf(" (target %.4f, error %+.4f)\n", target, res.SignedError)
	} else {
		failColor.Printf("stopped: %s", res.Reason)
		fmt.Printf(" at %.4f (target %.4f, error %+.4f)\n", res.FinalReading, target, res.SignedError)
	}

	logrus.WithFields(logrus.Fields{
		"reason":       res.Reason,
		"finalReading": res.FinalReading,
		"signedError":  res.SignedError,
		"iterations":   len(res.Iterations),
	}).Debug("move finished")
}
