package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile_MissingFileUsesDefaults(t *testing.T) {
	f, err := NewFile(t.TempDir() + "/nope.json")
	require.NoError(t, err)

	assert.Equal(t, "right", f.PositiveKey())
	assert.Equal(t, "left", f.NegativeKey())
	assert.Equal(t, 0.005, f.ToleranceAbs())
	assert.Equal(t, 30, f.MaxIterations())
	assert.Equal(t, 250*time.Millisecond, f.SettleDelay())
	assert.NotEmpty(t, f.CalibrationSteps())
}

func TestNewFile_OverridesAndFallbacks(t *testing.T) {
	path := t.TempDir() + "/ocraxis.json"
	require.NoError(t, os.WriteFile(path, []byte(`{
		"positiveKey": "up",
		"toleranceAbs": 0.1,
		"maxIterations": 7,
		"calibrationSteps": [1, 0.1]
	}`), 0644))

	f, err := NewFile(path)
	require.NoError(t, err)

	assert.Equal(t, "up", f.PositiveKey())
	assert.Equal(t, 0.1, f.ToleranceAbs())
	assert.Equal(t, 7, f.MaxIterations())
	assert.Equal(t, []float64{1, 0.1}, f.CalibrationSteps())
	// Absent keys keep their defaults.
	assert.Equal(t, "left", f.NegativeKey())
	assert.Equal(t, 5, f.MaxNudges())
}

func TestNewFile_BadJSON(t *testing.T) {
	path := t.TempDir() + "/bad.json"
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := NewFile(path)
	assert.Error(t, err)
}
