package types

import (
	"regexp"
	"strconv"
	"strings"
)

var yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// IsPresent reports whether a résumé end date denotes an ongoing position
func IsPresent(date string) bool {
	d := strings.ToLower(strings.TrimSpace(date))
	return d == "present" || d == "current" || d == "now" || strings.Contains(d, "present") || strings.Contains(d, "current")
}

// YearOf returns the first four-digit year in a free-form date such as "Jan 2020" or "03/2019".
// The present year is returned for ongoing dates.
func YearOf(date string, presentYear int) (int, bool) {
	if IsPresent(date) {
		return presentYear, true
	}
	m := yearRegex.FindString(date)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}
