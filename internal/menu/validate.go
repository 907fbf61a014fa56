package menu

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxFlightNumber is the largest flight number the upstream accepts.
	MaxFlightNumber = 9999
	// MaxDaysOut bounds how far ahead menu data is assumed to exist.
	MaxDaysOut = 365
)

// Validate checks q against query policy relative to now. It is pure: every
// rule is evaluated independently, violations accumulate as issue plus
// recommendation pairs, and an invalid query is reported in the result rather
// than as an error. Callers must not send an invalid query upstream.
func Validate(q Query, now time.Time) ValidationResult {
	res := ValidationResult{Query: q}

	today := truncateToDate(now)
	dep := truncateToDate(q.DepartureDate)

	if dep.Before(today) {
		res.add(
			fmt.Sprintf("departure date %s is in the past", q.DepartureDate.Format("2006-01-02")),
			"use today's date or a future date in YYYY-MM-DD format",
		)
	}
	if dep.After(today.AddDate(0, 0, MaxDaysOut)) {
		res.add(
			fmt.Sprintf("departure date %s is more than %d days ahead", q.DepartureDate.Format("2006-01-02"), MaxDaysOut),
			"menus are published closer to departure; choose a date within the next year",
		)
	}
	if q.FlightNumber < 1 || q.FlightNumber > MaxFlightNumber {
		res.add(
			fmt.Sprintf("flight number %d is out of range (1-%d)", q.FlightNumber, MaxFlightNumber),
			"use the numeric flight number without the carrier prefix, e.g. 30 for DL30",
		)
	}
	if !isAlpha(q.DepartureAirport, 3) {
		res.add(
			fmt.Sprintf("departure airport code %q must be exactly 3 letters", q.DepartureAirport),
			"use the three-letter IATA airport code, e.g. ATL",
		)
	}
	if !isAlpha(q.OperatingCarrier, 2) {
		res.add(
			fmt.Sprintf("operating carrier code %q must be exactly 2 letters", q.OperatingCarrier),
			"use the two-letter IATA carrier code, e.g. DL",
		)
	}

	res.Valid = len(res.Issues) == 0
	return res
}

func (r *ValidationResult) add(issue, recommendation string) {
	r.Issues = append(r.Issues, issue)
	r.Recommendations = append(r.Recommendations, recommendation)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isAlpha(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// FilterServices returns the services whose cabin code matches one of the
// requested codes, case-insensitively, preserving the original order. An empty
// code set keeps everything.
func FilterServices(services []Service, codes []string) []Service {
	if len(codes) == 0 {
		return services
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			want[c] = true
		}
	}
	if len(want) == 0 {
		return services
	}
	var out []Service
	for _, s := range services {
		if want[strings.ToUpper(s.CabinCode)] {
			out = append(out, s)
		}
	}
	return out
}

// SplitCabinCodes parses a comma-separated cabin code list as received from
// CLI flags or query strings.
func SplitCabinCodes(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, strings.ToUpper(p))
	}
	return out
}
