package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ocraxis/ocraxis/pkg/actuator"
	"github.com/ocraxis/ocraxis/pkg/config"
	"github.com/ocraxis/ocraxis/pkg/sensor"
	"github.com/ocraxis/ocraxis/pkg/version"
)

func parseFloatArg(args []string, valueName string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM. One signal
// unwinds every in-flight delay and held key in the process.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (*config.File, error) {
	return config.NewFile(configPath)
}

func buildActuator(conf *config.File) (*actuator.Serial, error) {
	return actuator.OpenSerial(actuator.SerialConfig{
		Port:        conf.SerialPort(),
		BaudRate:    conf.BaudRate(),
		PositiveKey: conf.PositiveKey(),
		NegativeKey: conf.NegativeKey(),
	})
}

func buildSensor(conf *config.File) (sensor.Reader, error) {
	recognize := conf.RecognizeCmd()
	if len(recognize) == 0 {
		return nil, fmt.Errorf("recognizeCmd is not configured")
	}
	return &sensor.ExecReader{
		CaptureCmd:    conf.CaptureCmd(),
		RecognizeCmd:  recognize,
		Region:        conf.Region(),
		MinConfidence: conf.MinConfidence(),
	}, nil
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}
