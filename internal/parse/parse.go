// Package parse guesses media fields from file names. Its output is the raw
// key/value map that targets turn into metadata.
package parse

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/Digital-Shane/namer/internal/errs"
)

const providerName = "parse"

// Keys of the parsed field map.
const (
	KeyType             = "type"
	KeyTitle            = "title"
	KeyEpisodeTitle     = "episode_title"
	KeySeason           = "season"
	KeyEpisode          = "episode" // int, or []int for multi-episode files
	KeyDate             = "date"    // time.Time
	KeyYear             = "year"
	KeyContainer        = "container"
	KeyReleaseGroup     = "release_group"
	KeyCountry          = "country"
	KeySubtitleLanguage = "subtitle_language"
	KeyAudioCodec       = "audio_codec"
	KeyAudioProfile     = "audio_profile"
	KeyVideoCodec       = "video_codec"
	KeyVideoProfile     = "video_profile"
	KeyScreenSize       = "screen_size"
	KeySource           = "source"
	KeyOther            = "other" // []string
)

// Parser turns a media path into raw fields.
type Parser interface {
	Parse(path string) (map[string]any, error)
}

// dateMark stands in for an air date once it has been lifted out of a name.
const dateMark = "\x00date"

// parentDepth bounds how far up the tree names are looked for.
const parentDepth = 3

type kind int

const (
	kindWord kind = iota
	kindEpisode
	kindYear
	kindTag
	kindCountry
)

type token struct {
	text string
	kind kind
}

// Guesser is the built-in Parser. It splits a file name into tokens,
// recognizes episode markers, years and release tags, and takes the words
// before the first recognized token as the title.
type Guesser struct{}

// New returns a Guesser.
func New() *Guesser {
	return &Guesser{}
}

// Parse extracts fields from the file name of path. Parent folders fill in
// a missing show name or season.
func (g *Guesser) Parse(path string) (map[string]any, error) {
	name := filepath.Base(path)
	if strings.TrimSpace(name) == "" || name == "." || name == string(filepath.Separator) {
		return nil, errs.Validation(providerName, "no file name in %q", path)
	}

	out := make(map[string]any)
	stem := name
	if ext := extension(name); ext != "" {
		out[KeyContainer] = strings.ToLower(ext[1:])
		stem = strings.TrimSuffix(name, ext)
		if IsSubtitle(name) {
			if lang, rest, ok := subtitleLanguage(stem); ok {
				out[KeySubtitleLanguage] = lang
				stem = rest
			}
		}
	}

	toks := fields(stem, out)

	lastEpisode := -1
	for i, t := range toks {
		if t.kind == kindEpisode {
			lastEpisode = i
		}
	}
	if lastEpisode >= 0 {
		out[KeyType] = "episode"
	} else {
		out[KeyType] = "movie"
	}

	if title := leadingWords(toks); title != "" {
		out[KeyTitle] = title
	}
	if lastEpisode >= 0 {
		if title := wordsAfter(toks, lastEpisode); title != "" {
			out[KeyEpisodeTitle] = title
		}
	}
	if _, ok := out[KeyReleaseGroup]; !ok {
		if group := trailingGroup(toks, lastEpisode); group != "" {
			out[KeyReleaseGroup] = group
		}
	}

	if out[KeyType] == "episode" {
		fromParents(path, out)
	}
	return out, nil
}

// fields tokenizes stem and records every recognized token in out.
func fields(stem string, out map[string]any) []token {
	stem = dottedCodecRe.ReplaceAllString(stem, "$1$2")
	stem = channelsRe.ReplaceAllString(stem, "$1")

	if m := dateRe.FindStringSubmatchIndex(stem); m != nil {
		y, _ := strconv.Atoi(stem[m[2]:m[3]])
		mo, _ := strconv.Atoi(stem[m[4]:m[5]])
		d, _ := strconv.Atoi(stem[m[6]:m[7]])
		date := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
		// reject impossible days such as 2019-02-31
		if date.Day() == d {
			out[KeyDate] = date
			stem = stem[:m[2]] + " " + dateMark + " " + stem[m[7]:]
		}
	}

	toks := tokenize(stem)
	splitReleaseGroup(toks, out)

	var (
		seenTag   bool
		prevAudio bool
		years     []int
		episodes  []int
		other     []string
	)
	for i := range toks {
		t := &toks[i]
		lower := strings.ToLower(t.text)
		switch {
		case t.text == dateMark:
			t.kind = kindEpisode
		case episodeMarker(t.text, out, &episodes):
			t.kind = kindEpisode
		case i > 0 && yearRe.MatchString(t.text):
			t.kind = kindYear
			years = append(years, i)
		default:
			if tag(lower, prevAudio, seenTag, out, &other) {
				t.kind = kindTag
				seenTag = true
			}
		}
		_, isAudio := audioCodecs[lower]
		prevAudio = isAudio && t.kind == kindTag
	}

	// only the last year-shaped token is the year; earlier ones belong to the title
	if len(years) > 0 {
		last := years[len(years)-1]
		for _, i := range years[:len(years)-1] {
			toks[i].kind = kindWord
		}
		out[KeyYear], _ = strconv.Atoi(toks[last].text)
	}

	for i := 1; i+1 < len(toks); i++ {
		next := toks[i+1].kind
		if toks[i].kind == kindWord && countries[toks[i].text] && (next == kindEpisode || next == kindYear) {
			toks[i].kind = kindCountry
			out[KeyCountry] = toks[i].text
		}
	}

	switch len(episodes) {
	case 0:
	case 1:
		out[KeyEpisode] = episodes[0]
	default:
		out[KeyEpisode] = episodes
	}
	if len(other) > 0 {
		out[KeyOther] = other
	}
	return toks
}

func tokenize(stem string) []token {
	parts := strings.FieldsFunc(stem, func(r rune) bool {
		return r == ' ' || r == '.' || r == '_' || r == '\t'
	})
	toks := make([]token, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "()[]{}-,")
		if p == "" {
			continue
		}
		toks = append(toks, token{text: p})
	}
	return toks
}

// splitReleaseGroup handles the "x264-GROUP" suffix convention.
func splitReleaseGroup(toks []token, out map[string]any) {
	if len(toks) == 0 {
		return
	}
	last := &toks[len(toks)-1]
	lower := strings.ToLower(last.text)
	if isTag(lower) {
		return
	}
	i := strings.LastIndex(last.text, "-")
	if i <= 0 {
		return
	}
	head, tail := last.text[:i], last.text[i+1:]
	if !releaseGroupRe.MatchString(tail) {
		return
	}
	if !isTag(strings.ToLower(head)) && !yearRe.MatchString(head) {
		return
	}
	out[KeyReleaseGroup] = tail
	last.text = head
}

func isTag(lower string) bool {
	if screenSizeRe.MatchString(lower) {
		return true
	}
	for _, table := range []map[string]string{audioCodecs, videoCodecs, videoProfiles, sources, others} {
		if _, ok := table[lower]; ok {
			return true
		}
	}
	return false
}

// episodeMarker recognizes S01E02, S01E02E03, 1x02, S01 and E02 tokens.
func episodeMarker(text string, out map[string]any, episodes *[]int) bool {
	setSeason := func(s string) {
		if _, ok := out[KeySeason]; !ok {
			out[KeySeason], _ = strconv.Atoi(s)
		}
	}
	addEpisode := func(s string) {
		n, _ := strconv.Atoi(s)
		if !slices.Contains(*episodes, n) {
			*episodes = append(*episodes, n)
		}
	}

	if m := seasonEpisodeRe.FindStringSubmatch(text); m != nil {
		setSeason(m[1])
		for _, e := range episodeNumRe.FindAllStringSubmatch(m[2], -1) {
			addEpisode(e[1])
		}
		return true
	}
	if m := crossEpisodeRe.FindStringSubmatch(text); m != nil {
		setSeason(m[1])
		addEpisode(m[2])
		return true
	}
	if m := seasonOnlyRe.FindStringSubmatch(text); m != nil {
		setSeason(m[1])
		return true
	}
	if m := episodeOnlyRe.FindStringSubmatch(text); m != nil {
		addEpisode(m[1])
		return true
	}
	return false
}

// tag records a quality, source or other tag. Ambiguous words only count
// after an unambiguous tag, and audio profiles only right after a codec.
func tag(lower string, prevAudio, seenTag bool, out map[string]any, other *[]string) bool {
	if ambiguous[lower] && !seenTag {
		return false
	}
	matched := false
	set := func(key, value string) {
		if _, ok := out[key]; !ok {
			out[key] = value
		}
		matched = true
	}

	if m := screenSizeRe.FindStringSubmatch(lower); m != nil {
		set(KeyScreenSize, m[1]+m[2])
	}
	if lower == "4k" || lower == "uhd" {
		set(KeyScreenSize, "2160p")
	}
	if v, ok := audioCodecs[lower]; ok {
		set(KeyAudioCodec, v)
	}
	if v, ok := audioProfiles[lower]; ok && prevAudio {
		set(KeyAudioProfile, v)
	}
	if v, ok := videoCodecs[lower]; ok {
		set(KeyVideoCodec, v)
	}
	if v, ok := videoProfiles[lower]; ok {
		set(KeyVideoProfile, v)
	}
	if v, ok := sources[lower]; ok {
		set(KeySource, v)
	}
	if v, ok := others[lower]; ok {
		if !slices.Contains(*other, v) {
			*other = append(*other, v)
		}
		matched = true
	}
	return matched
}

// leadingWords joins the words before the first recognized token.
func leadingWords(toks []token) string {
	var words []string
	for _, t := range toks {
		if t.kind != kindWord {
			break
		}
		words = append(words, t.text)
	}
	return strings.Join(words, " ")
}

// wordsAfter joins the run of words that follows toks[i].
func wordsAfter(toks []token, i int) string {
	var words []string
	for _, t := range toks[i+1:] {
		if t.kind != kindWord {
			break
		}
		words = append(words, t.text)
	}
	return strings.Join(words, " ")
}

// trailingGroup picks the first unknown word after the release tags, as in
// "show.s01e04.1080p.ac3.rargb.sample".
func trailingGroup(toks []token, lastEpisode int) string {
	firstTag := -1
	for i, t := range toks {
		if t.kind == kindTag && i > lastEpisode {
			firstTag = i
			break
		}
	}
	if firstTag < 0 {
		return ""
	}
	for _, t := range toks[firstTag+1:] {
		if t.kind == kindWord && releaseGroupRe.MatchString(t.text) {
			return t.text
		}
	}
	return ""
}

// subtitleLanguage splits a trailing language code off a subtitle stem,
// as in "movie.en" or "movie.pt-BR". Three-letter codes are accepted only
// when they have a two-letter equivalent, so words like "end" are kept.
func subtitleLanguage(stem string) (string, string, bool) {
	i := strings.LastIndexAny(stem, "._ ")
	if i <= 0 {
		return "", stem, false
	}
	code := stem[i+1:]
	if len(code) < 2 || len(code) > 7 {
		return "", stem, false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", stem, false
	}
	base, conf := tag.Base()
	if conf == language.No || len(base.String()) != 2 {
		return "", stem, false
	}
	return tag.String(), stem[:i], true
}

// fromParents fills in the show name and season of an episode from the
// folders above it, skipping season folders when looking for the name.
func fromParents(path string, out map[string]any) {
	dir := filepath.Dir(path)
	for range parentDepth {
		if dir == "." || dir == filepath.Dir(dir) {
			return
		}
		base := filepath.Base(dir)
		if season, ok := seasonFromDir(base); ok {
			if _, set := out[KeySeason]; !set {
				out[KeySeason] = season
			}
		} else if _, set := out[KeyTitle]; !set {
			toks := fields(base, make(map[string]any))
			if title := leadingWords(toks); title != "" {
				out[KeyTitle] = title
			}
		}
		dir = filepath.Dir(dir)
	}
}
