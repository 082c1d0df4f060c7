package profile

import (
	"encoding/json"
	"math"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ocraxis/ocraxis/pkg/actuator"
)

// record is the on-disk shape. heldKey "" means no modifier.
type record struct {
	Target  float64 `json:"target"`
	Ms      float64 `json:"ms"`
	HeldKey string  `json:"heldKey"`
}

// Load reads a profile file, tolerating unsorted input. Records with
// non-finite or non-positive target/ms are discarded with a warning.
// An empty usable set yields ErrEmptyProfile.
func Load(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read profile")
	}
	return Decode(b)
}

// Decode parses profile JSON. See Load.
func Decode(b []byte) (Profile, error) {
	var records []record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, pkgerrors.Wrap(err, "parse profile")
	}

	var p Profile
	for _, r := range records {
		if !usable(r.Target) || !usable(r.Ms) {
			logrus.WithFields(logrus.Fields{
				"target": r.Target,
				"ms":     r.Ms,
			}).Warn("discarding invalid profile record")
			continue
		}
		p = append(p, Entry{
			Step:     r.Target,
			Duration: time.Duration(r.Ms * float64(time.Millisecond)),
			Modifier: actuator.Named(r.HeldKey),
		})
	}
	if len(p) == 0 {
		return nil, ErrEmptyProfile
	}
	return p.Sort(), nil
}

// Save writes the profile in the flat record format, one file per axis
// class.
func Save(path string, p Profile) error {
	records := make([]record, 0, len(p))
	for _, e := range p {
		records = append(records, record{
			Target:  e.Step,
			Ms:      float64(e.Duration) / float64(time.Millisecond),
			HeldKey: e.Modifier.Name(),
		})
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "marshal profile")
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return pkgerrors.Wrap(err, "write profile")
	}
	return nil
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
