package billing

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRate parses an hourly rate from its user-entered string form.
// The rate is kept as a string while a station is idle and re-parsed at every
// computation, so a stale numeric cache can never disagree with what the
// operator typed.
func ParseRate(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("hourly rate is empty")
	}
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("hourly rate %q is not a number", raw)
	}
	if rate < 0 {
		return 0, fmt.Errorf("hourly rate %q is negative", raw)
	}
	return rate, nil
}

// DisplayRate parses a rate for display purposes only. A missing or malformed
// rate renders as 0 rather than an error; starting a session still requires a
// valid rate.
func DisplayRate(raw string) float64 {
	rate, err := ParseRate(raw)
	if err != nil {
		return 0
	}
	return rate
}

// Cost computes the billed cost of a session of the given length.
func Cost(durationSeconds int64, hourlyRate float64) float64 {
	return float64(durationSeconds) / 3600 * hourlyRate
}
