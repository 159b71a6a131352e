package target

import (
	"path/filepath"
	"regexp"
	"strings"
)

var bracketTagRe = regexp.MustCompile(`\[[^\[\]]+\]`)

// preserveTags appends the bracketed tags of source that name lacks,
// keeping ext last. Tags compare case-insensitively.
func preserveTags(name, ext, source string) string {
	tags := bracketTagRe.FindAllString(strings.TrimSuffix(source, filepath.Ext(source)), -1)
	if len(tags) == 0 {
		return name
	}

	stem := name
	if ext != "" && strings.HasSuffix(name, ext) {
		stem = strings.TrimSuffix(name, ext)
	} else {
		ext = ""
	}

	seen := make(map[string]bool)
	for _, tag := range bracketTagRe.FindAllString(stem, -1) {
		seen[normalizeTag(tag)] = true
	}
	for _, tag := range tags {
		norm := normalizeTag(tag)
		if norm == "" || seen[norm] {
			continue
		}
		stem += tag
		seen[norm] = true
	}
	return stem + ext
}

func normalizeTag(tag string) string {
	tag = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(tag), "["), "]")
	return strings.ToLower(strings.TrimSpace(tag))
}
