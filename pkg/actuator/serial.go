package actuator

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// SerialConfig describes the key injector attached over a serial port and
// the logical key names bound to the two directions.
type SerialConfig struct {
	Port        string
	BaudRate    int
	PositiveKey string
	NegativeKey string
}

// Serial drives a microcontroller key injector over a serial line. The
// injector understands a small line protocol:
//
//	P <key> <ms>  press key, hold for ms, release
//	H <key>       hold key down
//	R <key>       release key
//	Z             release everything
//
// The host still sleeps for the hold duration after sending P, so presses
// never overlap. On cancellation mid-hold a Z is sent so the device never
// keeps a key down after the host gave up.
type Serial struct {
	port serial.Port
	cfg  SerialConfig
}

var _ Actuator = (*Serial)(nil)

// OpenSerial opens the injector port.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open serial port %s", cfg.Port)
	}
	return &Serial{port: port, cfg: cfg}, nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}

func (s *Serial) send(format string, args ...any) error {
	cmd := fmt.Sprintf(format, args...)
	logrus.WithField("cmd", cmd).Trace("serial send")
	if _, err := s.port.Write([]byte(cmd + "\n")); err != nil {
		return pkgerrors.Wrap(err, "write serial command")
	}
	return nil
}

func (s *Serial) key(dir Direction) string {
	if dir == Negative {
		return s.cfg.NegativeKey
	}
	return s.cfg.PositiveKey
}

func (s *Serial) PressDirection(ctx context.Context, dir Direction, hold time.Duration) error {
	ms := hold.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if err := s.send("P %s %d", s.key(dir), ms); err != nil {
		return err
	}
	if err := Sleep(ctx, hold); err != nil {
		// The device may still be mid-press; force everything up.
		_ = s.send("Z")
		return err
	}
	return nil
}

func (s *Serial) HoldModifier(ctx context.Context, m Modifier) error {
	if m.IsNone() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.send("H %s", m.Name())
}

func (s *Serial) ReleaseModifier(m Modifier) error {
	if m.IsNone() {
		return nil
	}
	return s.send("R %s", m.Name())
}
