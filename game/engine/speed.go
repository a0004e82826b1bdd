package engine

import "fmt"

// ValidateTickPeriod checks a tick period in milliseconds against the speed slider range
func ValidateTickPeriod(periodMs int) error {
	if periodMs < MinTickPeriodMs || periodMs > MaxTickPeriodMs {
		return fmt.Errorf("%w: tick_period_ms must be between %d and %d, got %d",
			ErrInvalidTickPeriod, MinTickPeriodMs, MaxTickPeriodMs, periodMs)
	}
	return nil
}

// SpeedLabel describes a tick period the way the speed slider does. Lower is faster.
func SpeedLabel(periodMs int) string {
	switch {
	case periodMs > 500:
		return "Very Slow"
	case periodMs > 400:
		return "Slow"
	case periodMs > 300:
		return "Normal"
	case periodMs > 200:
		return "Fast"
	default:
		return "Super Fast!"
	}
}
