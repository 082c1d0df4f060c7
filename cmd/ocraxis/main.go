package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	logLevel   = "info"
	configPath = "ocraxis.json"
)

var (
	gMotion       = "Motion:"
	gCalibration  = "Calibration:"
	commandGroups = []string{
		gMotion,
		gCalibration,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocraxis",
		Short: "Drive a numeric on-screen readout to a target value",
		Long: `ocraxis drives a displayed numeric value (an "axis") toward a target by
holding a directional key for calibrated durations and re-reading the value
through an OCR pipeline. Calibrate once per axis class, then move.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", logLevel, "log level (trace, debug, info, warn, error)")
	globalFlags.StringVarP(&configPath, "config", "c", configPath, "config file path")

	for _, group := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    group,
			Title: group,
		})
	}

	cmd.AddCommand(
		NewMoveCommand(),
		NewRotateCommand(),
		NewCalibrateCommand(),
		NewProfileCommand(),
		NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
