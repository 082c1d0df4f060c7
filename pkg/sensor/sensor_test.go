package sensor

import (
	"errors"
	"testing"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "plain", raw: "23.4", want: 23.4},
		{name: "negative", raw: "-180.0", want: -180},
		{name: "whitespace", raw: "  42.5  ", want: 42.5},
		{name: "ocr O for zero", raw: "1O.5", want: 10.5},
		{name: "ocr l for one", raw: "l2", want: 12},
		{name: "comma decimal", raw: "3,14", want: 3.14},
		{name: "inner spaces", raw: "1 234.5", want: 1234.5},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "@#!", wantErr: true},
		{name: "nan text", raw: "NaN", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReading(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseReading(%q) expected error, got %v", tt.raw, got)
				}
				var sensorErr *Error
				if !errors.As(err, &sensorErr) {
					t.Fatalf("ParseReading(%q) error is %T, want *Error", tt.raw, err)
				}
				if sensorErr.Raw != tt.raw {
					t.Errorf("Error.Raw = %q, want %q", sensorErr.Raw, tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReading(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseReading(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
