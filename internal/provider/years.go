package provider

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultYearTolerance widens a single year into a range when filtering results.
const DefaultYearTolerance = 3

// earliestYear is the lower bound used when none is given.
const earliestYear = 1900

var (
	singleYearRe = regexp.MustCompile(`^\d{4}$`)
	yearSpanRe   = regexp.MustCompile(`^(\d{4})?\s*-\s*(\d{4})?$`)
)

// now is replaced in tests.
var now = time.Now

// YearRange parses a year or year range:
//
//	"1993"      -> [1993-t, 1993+t]
//	"1990-2000" -> [1990, 2000]
//	"1990-"     -> [1990, current year+t]
//	"-2005"     -> [1900-t, 2005]
//
// Anything else, including "", yields [1900-t, current year+t].
func YearRange(s string, tolerance int) (int, int) {
	s = strings.TrimSpace(s)
	lo, hi := earliestYear-tolerance, now().Year()+tolerance

	if singleYearRe.MatchString(s) {
		y, _ := strconv.Atoi(s)
		return y - tolerance, y + tolerance
	}

	m := yearSpanRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return lo, hi
	}
	if m[1] != "" {
		lo, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		hi, _ = strconv.Atoi(m[2])
	}
	return lo, hi
}

// YearInRange reports whether year falls in [lo, hi]. Unknown years (0)
// are accepted.
func YearInRange(year, lo, hi int) bool {
	return year == 0 || (year >= lo && year <= hi)
}
