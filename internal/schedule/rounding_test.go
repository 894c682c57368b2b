package schedule

import (
	"testing"
	"time"
)

func TestRoundDuration(t *testing.T) {
	cases := []struct {
		name      string
		d         time.Duration
		rounding  string
		threshold string
		want      time.Duration
	}{
		{"normally rounds down below half", 52*time.Minute + 10*time.Second, RoundNormally, "15min", 45 * time.Minute},
		{"normally rounds up at half", 52*time.Minute + 30*time.Second, RoundNormally, "15min", 60 * time.Minute},
		{"normally to the minute", 59*time.Minute + 29*time.Second, RoundNormally, "minute", 59 * time.Minute},
		{"up to 5min", 61 * time.Minute, RoundUp, "5min", 65 * time.Minute},
		{"up already aligned", 65 * time.Minute, RoundUp, "5min", 65 * time.Minute},
		{"down to 30min", 89 * time.Minute, RoundDown, "30min", 60 * time.Minute},
		{"down to hour", 119 * time.Minute, RoundDown, "hour", 60 * time.Minute},
		{"normally to hour", 89 * time.Minute, RoundNormally, "hour", 60 * time.Minute},
		{"unknown mode is a no-op", 52 * time.Minute, "sideways", "15min", 52 * time.Minute},
		{"unknown threshold is a no-op", 52 * time.Minute, RoundNormally, "2min", 52 * time.Minute},
		{"zero stays zero", 0, RoundUp, "hour", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RoundDuration(tc.d, tc.rounding, tc.threshold); got != tc.want {
				t.Fatalf("RoundDuration(%v, %s, %s) = %v, want %v", tc.d, tc.rounding, tc.threshold, got, tc.want)
			}
		})
	}
}

func TestValidRounding(t *testing.T) {
	if !ValidRounding(RoundNormally, "15min") || !ValidRounding(RoundUp, "hour") || !ValidRounding(RoundDown, "minute") {
		t.Fatalf("expected documented configs to validate")
	}
	if ValidRounding("sideways", "15min") || ValidRounding(RoundNormally, "2min") || ValidRounding("", "") {
		t.Fatalf("expected unknown configs to fail validation")
	}
}
