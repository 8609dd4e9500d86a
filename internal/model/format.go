package model

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatClock renders a second count as HH:MM:SS.
func FormatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hrs := totalSeconds / 3600
	mins := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hrs, mins, secs)
}

// ParseDurationSeconds parses a duration typed into a form or passed on the
// command line: a positive whole number of seconds.
func ParseDurationSeconds(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: duration is required", ErrInvalidTimer)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q is not a number of seconds", ErrInvalidTimer, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: duration must be a positive number of seconds", ErrInvalidTimer)
	}
	return n, nil
}
