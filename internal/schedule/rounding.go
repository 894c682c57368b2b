package schedule

import "time"

// Rounding modes for service-hour accumulation.
const (
	RoundNormally = "normally"
	RoundUp       = "up"
	RoundDown     = "down"
)

var thresholds = map[string]time.Duration{
	"minute": time.Minute,
	"5min":   5 * time.Minute,
	"15min":  15 * time.Minute,
	"30min":  30 * time.Minute,
	"hour":   time.Hour,
}

// RoundDuration rounds a clocked lesson duration per the location's
// service-hour policy. Unknown modes or thresholds leave the duration
// untouched, and durations never round below zero.
func RoundDuration(d time.Duration, rounding, threshold string) time.Duration {
	unit, ok := thresholds[threshold]
	if !ok || d < 0 {
		return d
	}

	switch rounding {
	case RoundNormally:
		return d.Round(unit)
	case RoundUp:
		if remainder := d % unit; remainder != 0 {
			return d - remainder + unit
		}
		return d
	case RoundDown:
		return d - d%unit
	default:
		return d
	}
}

// ValidRounding reports whether a location rounding config is one the policy
// engine understands.
func ValidRounding(rounding, threshold string) bool {
	if rounding != RoundNormally && rounding != RoundUp && rounding != RoundDown {
		return false
	}
	_, ok := thresholds[threshold]
	return ok
}
