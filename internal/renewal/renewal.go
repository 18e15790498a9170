// Package renewal computes re-enrollment dates from a program's renewal
// period policy. Policies are free-form strings maintained by program
// sponsors: "never", "calendar year(s)", or a day count such as "90".
package renewal

import (
	"strconv"
	"strings"
	"time"
)

// Compute returns the date a patient must re-enroll, given the program's
// renewal period and a reference date (enrollment date normally, completion
// date once the enrollment is completed). ok is false when the program never
// requires re-enrollment or the policy string is unrecognized; malformed
// input degrades to ok=false rather than an error.
func Compute(renewalPeriod string, reference time.Time) (time.Time, bool) {
	switch strings.ToLower(strings.TrimSpace(renewalPeriod)) {
	case "", "never":
		return time.Time{}, false
	case "calendar year", "calendar years":
		return time.Date(reference.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	days, err := strconv.Atoi(strings.TrimSpace(renewalPeriod))
	if err != nil {
		return time.Time{}, false
	}
	return Date(reference).AddDate(0, 0, days), true
}

// Date truncates t to a UTC calendar date. All schedule arithmetic in the
// service works on these normalized values.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
