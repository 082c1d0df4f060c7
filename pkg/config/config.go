// Package config loads the tool configuration from a JSON file. Fields
// are pointer-typed in the raw form so absent keys fall back to defaults.
package config

import (
	"encoding/json"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ocraxis/ocraxis/pkg/utils/ptr"
)

var defaultConfig = &RawConfig{
	SerialPort:           ptr.To("/dev/ttyACM0"),
	BaudRate:             ptr.To(115200),
	PositiveKey:          ptr.To("right"),
	NegativeKey:          ptr.To("left"),
	FastModifier:         ptr.To("shift"),
	PreciseModifier:      ptr.To("ctrl"),
	FastStepThreshold:    ptr.To(10.0),
	PreciseStepThreshold: ptr.To(0.01),
	ToleranceAbs:         ptr.To(0.005),
	ToleranceRelPct:      ptr.To(0.0),
	MaxIterations:        ptr.To(30),
	MaxNudges:            ptr.To(5),
	LeadDelayMs:          ptr.To(60),
	TailDelayMs:          ptr.To(60),
	SettleDelayMs:        ptr.To(250),
	MinHoldMs:            ptr.To(5),
	MaxHoldMs:            ptr.To(3000),
	MaxProbes:            ptr.To(12),
	CalibrationSteps:     ptr.To([]float64{100, 10, 1, 0.1, 0.01, 0.001}),
	Region:               ptr.To(""),
	CaptureCmd:           ptr.To([]string{}),
	RecognizeCmd:         ptr.To([]string{}),
	MinConfidence:        ptr.To(60.0),
	ProfilePath:          ptr.To("profile-position.json"),
	RotationProfilePath:  ptr.To("profile-rotation.json"),
}

// RawConfig is the on-disk shape.
type RawConfig struct {
	SerialPort           *string    `json:"serialPort,omitempty"`
	BaudRate             *int       `json:"baudRate,omitempty"`
	PositiveKey          *string    `json:"positiveKey,omitempty"`
	NegativeKey          *string    `json:"negativeKey,omitempty"`
	FastModifier         *string    `json:"fastModifier,omitempty"`
	PreciseModifier      *string    `json:"preciseModifier,omitempty"`
	FastStepThreshold    *float64   `json:"fastStepThreshold,omitempty"`
	PreciseStepThreshold *float64   `json:"preciseStepThreshold,omitempty"`
	ToleranceAbs         *float64   `json:"toleranceAbs,omitempty"`
	ToleranceRelPct      *float64   `json:"toleranceRelPct,omitempty"`
	MaxIterations        *int       `json:"maxIterations,omitempty"`
	MaxNudges            *int       `json:"maxNudges,omitempty"`
	LeadDelayMs          *int       `json:"leadDelayMs,omitempty"`
	TailDelayMs          *int       `json:"tailDelayMs,omitempty"`
	SettleDelayMs        *int       `json:"settleDelayMs,omitempty"`
	MinHoldMs            *int       `json:"minHoldMs,omitempty"`
	MaxHoldMs            *int       `json:"maxHoldMs,omitempty"`
	MaxProbes            *int       `json:"maxProbes,omitempty"`
	CalibrationSteps     *[]float64 `json:"calibrationSteps,omitempty"`
	Region               *string    `json:"region,omitempty"`
	CaptureCmd           *[]string  `json:"captureCmd,omitempty"`
	RecognizeCmd         *[]string  `json:"recognizeCmd,omitempty"`
	MinConfidence        *float64   `json:"minConfidence,omitempty"`
	ProfilePath          *string    `json:"profilePath,omitempty"`
	RotationProfilePath  *string    `json:"rotationProfilePath,omitempty"`
}

// File is a loaded configuration.
type File struct {
	c        *RawConfig
	filepath string
}

// NewFile loads configPath. A missing file yields all defaults.
func NewFile(configPath string) (*File, error) {
	f := &File{
		c:        &RawConfig{},
		filepath: configPath,
	}
	b, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", configPath).Debug("no config file, using defaults")
			return f, nil
		}
		return nil, pkgerrors.Wrap(err, "read config")
	}
	if err := json.Unmarshal(b, f.c); err != nil {
		return nil, pkgerrors.Wrap(err, "parse config")
	}
	return f, nil
}

// Save writes the raw config back to its file.
func (f *File) Save() error {
	b, err := json.MarshalIndent(f.c, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(f.filepath, b, 0644); err != nil {
		return pkgerrors.Wrap(err, "write config")
	}
	return nil
}

func strOr(v, def *string) string {
	if v != nil {
		return *v
	}
	return *def
}

func intOr(v, def *int) int {
	if v != nil {
		return *v
	}
	return *def
}

func floatOr(v, def *float64) float64 {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) SerialPort() string  { return strOr(f.c.SerialPort, defaultConfig.SerialPort) }
func (f *File) BaudRate() int       { return intOr(f.c.BaudRate, defaultConfig.BaudRate) }
func (f *File) PositiveKey() string { return strOr(f.c.PositiveKey, defaultConfig.PositiveKey) }
func (f *File) NegativeKey() string { return strOr(f.c.NegativeKey, defaultConfig.NegativeKey) }
func (f *File) FastModifier() string {
	return strOr(f.c.FastModifier, defaultConfig.FastModifier)
}
func (f *File) PreciseModifier() string {
	return strOr(f.c.PreciseModifier, defaultConfig.PreciseModifier)
}
func (f *File) FastStepThreshold() float64 {
	return floatOr(f.c.FastStepThreshold, defaultConfig.FastStepThreshold)
}
func (f *File) PreciseStepThreshold() float64 {
	return floatOr(f.c.PreciseStepThreshold, defaultConfig.PreciseStepThreshold)
}
func (f *File) ToleranceAbs() float64 { return floatOr(f.c.ToleranceAbs, defaultConfig.ToleranceAbs) }
func (f *File) ToleranceRelPct() float64 {
	return floatOr(f.c.ToleranceRelPct, defaultConfig.ToleranceRelPct)
}
func (f *File) MaxIterations() int { return intOr(f.c.MaxIterations, defaultConfig.MaxIterations) }
func (f *File) MaxNudges() int     { return intOr(f.c.MaxNudges, defaultConfig.MaxNudges) }
func (f *File) LeadDelay() time.Duration {
	return time.Duration(intOr(f.c.LeadDelayMs, defaultConfig.LeadDelayMs)) * time.Millisecond
}
func (f *File) TailDelay() time.Duration {
	return time.Duration(intOr(f.c.TailDelayMs, defaultConfig.TailDelayMs)) * time.Millisecond
}
func (f *File) SettleDelay() time.Duration {
	return time.Duration(intOr(f.c.SettleDelayMs, defaultConfig.SettleDelayMs)) * time.Millisecond
}
func (f *File) MinHold() time.Duration {
	return time.Duration(intOr(f.c.MinHoldMs, defaultConfig.MinHoldMs)) * time.Millisecond
}
func (f *File) MaxHold() time.Duration {
	return time.Duration(intOr(f.c.MaxHoldMs, defaultConfig.MaxHoldMs)) * time.Millisecond
}
func (f *File) MaxProbes() int { return intOr(f.c.MaxProbes, defaultConfig.MaxProbes) }
func (f *File) CalibrationSteps() []float64 {
	if f.c.CalibrationSteps != nil {
		return *f.c.CalibrationSteps
	}
	return *defaultConfig.CalibrationSteps
}
func (f *File) Region() string { return strOr(f.c.Region, defaultConfig.Region) }
func (f *File) CaptureCmd() []string {
	if f.c.CaptureCmd != nil {
		return *f.c.CaptureCmd
	}
	return *defaultConfig.CaptureCmd
}
func (f *File) RecognizeCmd() []string {
	if f.c.RecognizeCmd != nil {
		return *f.c.RecognizeCmd
	}
	return *defaultConfig.RecognizeCmd
}
func (f *File) MinConfidence() float64 {
	return floatOr(f.c.MinConfidence, defaultConfig.MinConfidence)
}
func (f *File) ProfilePath() string { return strOr(f.c.ProfilePath, defaultConfig.ProfilePath) }
func (f *File) RotationProfilePath() string {
	return strOr(f.c.RotationProfilePath, defaultConfig.RotationProfilePath)
}

// LogrusFields dumps the most useful effective values for startup logging.
func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"serialPort":    f.SerialPort(),
		"positiveKey":   f.PositiveKey(),
		"negativeKey":   f.NegativeKey(),
		"toleranceAbs":  f.ToleranceAbs(),
		"maxIterations": f.MaxIterations(),
		"profilePath":   f.ProfilePath(),
	}
}
