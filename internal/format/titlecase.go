package format

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words kept lower case unless they open the string.
var lowercaseWords = []string{
	"a", "an", "and", "as", "at", "but", "by", "en", "for", "from", "if",
	"in", "into", "is", "nor", "of", "on", "onto", "or", "per", "the",
	"to", "via", "vs", "with",
	"aac", "ac3", "h264", "h265", "hevc", "x264", "x265", "xvid",
}

// Words always upper cased.
var uppercaseWords = []string{
	"i", "ii", "iii", "iv", "v", "vi", "vii", "viii", "ix", "x",
	"3d", "aka", "atm", "bbc", "cia", "csi", "dc", "dvd", "fbi", "hbo",
	"hd", "lotr", "mlb", "nasa", "nba", "nfl", "nhl", "nsfw", "nyc",
	"ova", "sos", "svu", "tv", "uk", "ufo", "usa", "vhs", "wwe", "wwii",
}

// padding characters separate words in media names
const padding = " .-"

// TitleCase capitalizes s the way media titles are written:
// "at the theatre" becomes "At the Theatre" and "world war ii" becomes
// "World War II".
func TitleCase(s string) string {
	if s == "" {
		return s
	}

	// A cases.Caser must not be shared between goroutines.
	titled := []rune(cases.Title(language.English).String(s))

	snapshot := make([]rune, len(titled))
	for i, r := range titled {
		snapshot[i] = unicode.ToLower(r)
	}

	applyExceptions(titled, snapshot, lowercaseWords, unicode.ToLower, true)
	applyExceptions(titled, snapshot, uppercaseWords, unicode.ToUpper, false)
	capitalizeInitialisms(titled)

	return string(titled)
}

// applyExceptions rewrites every whole-word occurrence of words found in
// snapshot, mapping each rune with conv. Replacements never change length,
// so snapshot offsets stay valid for out.
func applyExceptions(out, snapshot []rune, words []string, conv func(rune) rune, skipStart bool) {
	for _, word := range words {
		w := []rune(word)
		for i := 0; i+len(w) <= len(snapshot); i++ {
			if skipStart && i == 0 {
				continue
			}
			if !hasRunesAt(snapshot, w, i) {
				continue
			}
			if !isBoundary(snapshot, i-1) || !isBoundary(snapshot, i+len(w)) {
				continue
			}
			for j := range w {
				out[i+j] = conv(out[i+j])
			}
		}
	}
}

// capitalizeInitialisms upper cases a letter that sits between two dots when
// a letter precedes the first dot, so "s.h.i.e.l.d." keeps its shape.
func capitalizeInitialisms(out []rune) {
	for i := 2; i+1 < len(out); i++ {
		if out[i+1] == '.' && out[i-1] == '.' && unicode.IsLetter(out[i-2]) && unicode.IsLetter(out[i]) {
			out[i] = unicode.ToUpper(out[i])
		}
	}
}

func hasRunesAt(s, w []rune, at int) bool {
	for j, r := range w {
		if s[at+j] != r {
			return false
		}
	}
	return true
}

func isBoundary(s []rune, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r := s[i]
	return strings.ContainsRune(padding, r) || unicode.IsSpace(r) || unicode.IsPunct(r)
}
