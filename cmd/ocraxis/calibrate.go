package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ocraxis/ocraxis/pkg/actuator"
	"github.com/ocraxis/ocraxis/pkg/motion"
	"github.com/ocraxis/ocraxis/pkg/profile"
	"github.com/ocraxis/ocraxis/pkg/tuner"
)

func NewCalibrateCommand() *cobra.Command {
	var (
		rotation    bool
		output      string
		noModifiers bool
	)

	cmd := &cobra.Command{
		Use:     "calibrate",
		Short:   "Tune hold durations for the configured step ladder",
		GroupID: gCalibration,
		Long: `Tune hold durations for the configured step ladder.

For each step size, a bisection search over hold duration probes the axis
until the measured change matches the requested step. Probes physically
move the axis, so park it somewhere with room before starting, and reset
it afterwards.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, err := loadConfig()
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

			policy := tuner.ThresholdPolicy(
				conf.FastStepThreshold(),
				conf.PreciseStepThreshold(),
				actuator.Named(conf.FastModifier()),
				actuator.Named(conf.PreciseModifier()),
			)
			if noModifiers {
				policy = tuner.NoPolicy
			}

			tn := tuner.New(rd, act, tuner.Options{
				MinHold:   conf.MinHold(),
				MaxHold:   conf.MaxHold(),
				MaxProbes: conf.MaxProbes(),
				Tolerance: motion.Tolerance{
					Absolute:    conf.ToleranceAbs(),
					RelativePct: conf.ToleranceRelPct(),
				},
				Settle:     conf.SettleDelay(),
				Rotational: rotation,
				Policy:     policy,
			})

			ctx, cancel := signalContext()
			defer cancel()

			table, err := tn.Run(ctx, conf.CalibrationSteps())
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				if rotation {
					path = conf.RotationProfilePath()
				} else {
					path = conf.ProfilePath()
				}
			}
			if err := profile.Save(path, table); err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"entries": len(table),
				"path":    path,
			}).Info("calibration profile written")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&rotation, "rotation", false, "calibrate a rotational axis (deltas measured on the circle)")
	flags.StringVarP(&output, "output", "o", "", "profile output path (overrides config)")
	flags.BoolVar(&noModifiers, "no-modifiers", false, "never hold a modifier while probing")

	return cmd
}
