package capture

import (
	"testing"
	"time"
)

func TestRecordingWindow(t *testing.T) {
	tests := []struct {
		name            string
		durationSeconds float64
		want            time.Duration
	}{
		{"unknown duration falls back to the short default", 0, DefaultWindow},
		{"negative duration falls back to the short default", -3, DefaultWindow},
		{"short stream records in full", 12, 12 * time.Second},
		{"fractional duration is preserved", 1.5, 1500 * time.Millisecond},
		{"exactly the cap records the cap", 900, MaxWindow},
		{"feature-length stream is capped", 7200, MaxWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecordingWindow(tt.durationSeconds); got != tt.want {
				t.Errorf("RecordingWindow(%v) = %v, want %v", tt.durationSeconds, got, tt.want)
			}
		})
	}
}
