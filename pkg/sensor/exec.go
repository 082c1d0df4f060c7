package sensor

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ExecReader shells out to an external capture+recognition pipeline. The
// capture command is expected to write an image of the configured region
// somewhere the recognize command can find it; the recognize command prints
// the recognized text, optionally followed by a tab and a confidence in
// [0, 100].
type ExecReader struct {
	// CaptureCmd and RecognizeCmd are argv slices. The region string is
	// appended to CaptureCmd.
	CaptureCmd    []string
	RecognizeCmd  []string
	Region        string
	MinConfidence float64
}

var _ Reader = (*ExecReader)(nil)

func (r *ExecReader) Read(ctx context.Context) (float64, error) {
	if len(r.CaptureCmd) > 0 {
		args := append(append([]string{}, r.CaptureCmd[1:]...), r.Region)
		if out, err := exec.CommandContext(ctx, r.CaptureCmd[0], args...).CombinedOutput(); err != nil {
			return 0, pkgerrors.Wrapf(err, "capture command failed: %s", strings.TrimSpace(string(out)))
		}
	}

	out, err := exec.CommandContext(ctx, r.RecognizeCmd[0], r.RecognizeCmd[1:]...).Output()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "recognize command failed")
	}

	raw := strings.TrimSpace(string(out))
	text := raw
	if tab := strings.LastIndexByte(raw, '\t'); tab >= 0 {
		conf, convErr := strconv.ParseFloat(strings.TrimSpace(raw[tab+1:]), 64)
		if convErr == nil {
			text = strings.TrimSpace(raw[:tab])
			if conf < r.MinConfidence {
				return 0, &Error{Raw: text, Reason: "low confidence"}
			}
		}
	}

	v, err := ParseReading(text)
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"raw": text, "value": v}).Trace("sensor read")
	return v, nil
}
