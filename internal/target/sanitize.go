package target

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const invalidFilenameChars = "<>:\"/\\|?*"

var errEmptyName = errors.New("name is empty after sanitization")

// sanitizeSegment makes name safe as a single path element. Reserved and
// control characters become spaces, runs of spaces collapse and the result
// is trimmed of spaces and dots.
func sanitizeSegment(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := false
	for _, r := range name {
		if r < 32 || r == 127 || r == ' ' || strings.ContainsRune(invalidFilenameChars, r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	result := strings.Trim(b.String(), " ")
	if result == "" || strings.Trim(result, ".") == "" {
		return "", errEmptyName
	}
	return result, nil
}

var (
	sceneDropRe = regexp.MustCompile(`[^A-Za-z0-9\s._-]`)
	sceneSepRe  = regexp.MustCompile(`[\s._-]+`)
)

// Letters that carry no combining mark to strip.
var sceneLetters = strings.NewReplacer(
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "Ae",
	"œ", "oe", "Œ", "Oe",
	"ß", "ss", "ẞ", "Ss",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"ı", "i",
)

// scene rewrites name in the dotted release style, folded to ASCII, e.g.
// "Amélie (2001).mkv" becomes "Amelie.2001.mkv". Characters with no ASCII
// form are dropped.
func scene(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, sceneLetters.Replace(name))
	if err != nil {
		folded = sceneLetters.Replace(name)
	}
	folded = sceneDropRe.ReplaceAllString(folded, "")
	folded = sceneSepRe.ReplaceAllString(folded, ".")
	return strings.Trim(folded, ".")
}
