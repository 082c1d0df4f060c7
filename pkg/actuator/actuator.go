// Package actuator abstracts the input device used to nudge an axis: a
// directional key that can be held for a duration, plus optional modifier
// keys held around it.
package actuator

import (
	"context"
	"time"
)

// Direction selects which of the two directional keys to press.
type Direction int

const (
	Positive Direction = iota
	Negative
)

func (d Direction) String() string {
	if d == Negative {
		return "negative"
	}
	return "positive"
}

// Actuator is the physical (or simulated) input device.
//
// PressDirection holds the directional key for the given duration and
// releases it. HoldModifier/ReleaseModifier bracket one or more presses;
// callers must guarantee ReleaseModifier runs on every exit path, including
// cancellation, so no key is left stuck down.
type Actuator interface {
	PressDirection(ctx context.Context, dir Direction, hold time.Duration) error
	HoldModifier(ctx context.Context, m Modifier) error
	ReleaseModifier(m Modifier) error
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
// A cancelled wait returns ctx.Err() without completing its nominal duration.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
