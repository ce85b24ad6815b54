package attendance

import (
	"fmt"
)

// =============================================================================
// CLASSIFICATION - In-time vs. on-time threshold, applied at ingestion
// =============================================================================

// AbsentInTime is the sentinel in-time meaning no punch was recorded.
const AbsentInTime = "00:00:00"

// ParseTimeOfDay converts "HH:MM:SS" to seconds since midnight.
func ParseTimeOfDay(s string) (int, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%02d:%02d:%02d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM:SS", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return h*3600 + m*60 + sec, nil
}

// Classify derives the stored status from an in-time and the configured
// on-time threshold. "00:00:00" always means Absent; otherwise arriving at
// or before the threshold is OnTime, after it Late.
func Classify(inTime, threshold string) (Status, error) {
	if inTime == AbsentInTime {
		return StatusAbsent, nil
	}
	in, err := ParseTimeOfDay(inTime)
	if err != nil {
		return "", err
	}
	limit, err := ParseTimeOfDay(threshold)
	if err != nil {
		return "", fmt.Errorf("on-time threshold: %w", err)
	}
	if in <= limit {
		return StatusOnTime, nil
	}
	return StatusLate, nil
}
