package types

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDelay converts a compact delay string from the portal's timetable data
// into a signed duration. The encoding is "" for no delay, "+N" for N minutes
// late and "-N" for N minutes early.
//
// A non-empty string that does not follow the encoding is upstream data
// corruption and is returned as an error, never silently treated as zero.
func ParseDelay(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	var sign time.Duration
	switch s[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("invalid delay string %q: missing sign prefix", s)
	}

	magnitude := s[1:]
	if magnitude == "" {
		return 0, fmt.Errorf("invalid delay string %q: no digits after sign", s)
	}
	for i := 0; i < len(magnitude); i++ {
		if magnitude[i] < '0' || magnitude[i] > '9' {
			return 0, fmt.Errorf("invalid delay string %q: non-digit magnitude", s)
		}
	}

	minutes, err := strconv.ParseInt(magnitude, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid delay string %q: %w", s, err)
	}

	return sign * time.Duration(minutes) * time.Minute, nil
}
