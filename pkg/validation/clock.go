package validation

import (
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// EndOfDay is the end time of a booking that finishes exactly at midnight.
const EndOfDay = "24:00"

// ParseClock converts a zero-padded "HH:MM" 24-hour time into minutes after midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hours, err := strconv.Atoi(s[:2])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minutes, err := strconv.Atoi(s[3:])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hours*60 + minutes, nil
}

// ParseEndClock is ParseClock that also accepts EndOfDay.
func ParseEndClock(s string) (int, error) {
	if strings.TrimSpace(s) == EndOfDay {
		return MinutesPerDay, nil
	}
	return ParseClock(s)
}

// FormatClock renders minutes after midnight as "HH:MM". Values outside a day are not wrapped.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
