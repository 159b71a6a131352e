package format

import (
	"regexp"
	"strings"
)

var (
	emptyPairRe = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	dashRunRe   = regexp.MustCompile(`-(\s*-)+`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
)

// FixPadding cleans up the debris left behind when template fields are
// missing: empty bracket pairs, repeated dashes, doubled whitespace and
// dangling separators at either end. Applying it twice gives the same
// result as applying it once.
func FixPadding(s string) string {
	for {
		next := emptyPairRe.ReplaceAllString(s, "")
		next = dashRunRe.ReplaceAllString(next, "-")
		next = spaceRunRe.ReplaceAllString(next, " ")
		next = strings.Trim(next, " -")
		next = strings.TrimLeft(next, "/")
		if next == s {
			return s
		}
		s = next
	}
}
