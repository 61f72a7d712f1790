package clock

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the number of minutes in a workday clock.
// FormatMinutes clamps to [0, MinutesPerDay-1] so arithmetic drift can
// never roll a timeline into the next day.
const MinutesPerDay = 24 * 60

// ParseMinutes converts an "HH:MM" clock string to minutes from midnight.
// A trailing ":SS" component is ignored. The second return value reports
// whether the input was parseable; malformed or empty input never panics.
func ParseMinutes(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if h < 0 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatMinutes renders minutes from midnight as "HH:MM", clamped to the
// current day.
func FormatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	if m > MinutesPerDay-1 {
		m = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
