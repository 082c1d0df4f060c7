// Package sensor turns a region of the screen into a numeric axis reading.
// The capture and recognition pipeline is pluggable; this package only fixes
// the contract: a read either yields a float or fails with an *Error carrying
// the raw text, and a failed read is fatal to the caller's current run.
package sensor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reader produces the current axis reading. The screen region (or other
// source binding) is fixed at construction time.
type Reader interface {
	Read(ctx context.Context) (float64, error)
}

// Error reports a reading that could not be turned into a number, either
// because recognition confidence was too low or the cleaned text is not
// numeric. Raw preserves the recognizer output for diagnostics.
type Error struct {
	Raw    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sensor: %s (raw %q)", e.Reason, e.Raw)
}

// replacements for glyphs the recognizer commonly confuses with digits.
var replacements = strings.NewReplacer(
	"O", "0",
	"o", "0",
	"l", "1",
	"I", "1",
	"S", "5",
	",", ".",
	" ", "",
)

// ParseReading cleans recognizer text and parses it as a float. It returns
// an *Error when the cleaned text is empty or not a finite number.
func ParseReading(raw string) (float64, error) {
	text := replacements.Replace(strings.TrimSpace(raw))
	text = strings.Trim(text, "\"'`")
	if text == "" {
		return 0, &Error{Raw: raw, Reason: "empty reading"}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &Error{Raw: raw, Reason: "not numeric"}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Raw: raw, Reason: "non-finite reading"}
	}
	return v, nil
}
