package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Pattern compilation for media file parsing
var (
	// File type patterns
	videoRe    = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|mpeg|mpg|m4v|3gp|vob|ts|mts|m2ts|rmvb|divx|ogm|ogv)$`)
	subtitleRe = regexp.MustCompile(`(?i)\.(srt|sub|idx|ass|ssa|smi|vtt|sbv|sami|usf|stl|sup|dfxp|ttml)$`)

	// Episode markers, matched against single tokens
	seasonEpisodeRe = regexp.MustCompile(`(?i)^s(\d{1,3})((?:-?e\d{1,4})+)$`)
	crossEpisodeRe  = regexp.MustCompile(`(?i)^(\d{1,2})x(\d{1,3})$`)
	seasonOnlyRe    = regexp.MustCompile(`(?i)^s(\d{1,3})$`)
	episodeOnlyRe   = regexp.MustCompile(`(?i)^e(?:p)?(\d{1,4})$`)
	episodeNumRe    = regexp.MustCompile(`(?i)e(\d+)`)

	// Air dates, matched against the whole name
	dateRe = regexp.MustCompile(`(?:^|[ ._\-(\[])((?:19|20)\d{2})[ ._-](0[1-9]|1[0-2])[ ._-](0[1-9]|[12]\d|3[01])(?:$|[ ._\-)\]])`)

	yearRe       = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	screenSizeRe = regexp.MustCompile(`(?i)^(\d{3,4})([pi])$`)

	// Dotted codec spellings that would otherwise be split into tokens
	dottedCodecRe = regexp.MustCompile(`(?i)\b([hx])\.(26[45])\b`)
	channelsRe    = regexp.MustCompile(`(?i)\b(dd\+?|ddp|aac|dts|ac3|eac3|truehd|flac|atmos)[ ._]?[2-7]\.[01]\b`)

	// Season folders such as "Season 02" or "S02"
	seasonDirRe = regexp.MustCompile(`(?i)^(?:season|series|s)[\s._-]*(\d{1,3})$`)

	releaseGroupRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// Quality tags keyed by lower-case token.
var (
	audioCodecs = map[string]string{
		"ac3":    "Dolby Digital",
		"dd":     "Dolby Digital",
		"eac3":   "Dolby Digital Plus",
		"ddp":    "Dolby Digital Plus",
		"dd+":    "Dolby Digital Plus",
		"dts":    "DTS",
		"dts-hd": "DTS-HD",
		"dtshd":  "DTS-HD",
		"truehd": "Dolby TrueHD",
		"atmos":  "Dolby Atmos",
		"aac":    "AAC",
		"flac":   "FLAC",
		"mp3":    "MP3",
		"opus":   "Opus",
	}

	// only recognized right after an audio codec
	audioProfiles = map[string]string{
		"ma": "Master Audio",
		"hq": "High Quality",
		"he": "High Efficiency",
		"lc": "Low Complexity",
	}

	videoCodecs = map[string]string{
		"x264":  "H.264",
		"h264":  "H.264",
		"avc":   "H.264",
		"x265":  "H.265",
		"h265":  "H.265",
		"hevc":  "H.265",
		"xvid":  "Xvid",
		"divx":  "DivX",
		"av1":   "AV1",
		"vp9":   "VP9",
		"mpeg2": "MPEG-2",
	}

	videoProfiles = map[string]string{
		"hi10p":  "High 10",
		"hi10":   "High 10",
		"10bit":  "10-bit",
		"hdr":    "HDR10",
		"hdr10":  "HDR10",
		"hdr10+": "HDR10+",
		"dovi":   "Dolby Vision",
		"dv":     "Dolby Vision",
	}

	sources = map[string]string{
		"bluray":  "Blu-ray",
		"blu-ray": "Blu-ray",
		"bdrip":   "Blu-ray",
		"brrip":   "Blu-ray",
		"bdremux": "Blu-ray",
		"web":     "Web",
		"webrip":  "Web",
		"web-dl":  "Web",
		"webdl":   "Web",
		"hdtv":    "HDTV",
		"pdtv":    "HDTV",
		"dvd":     "DVD",
		"dvdrip":  "DVD",
		"cam":     "Camera",
		"hdcam":   "Camera",
	}

	others = map[string]string{
		"sample":   "Sample",
		"proper":   "Proper",
		"repack":   "Repack",
		"remux":    "Remux",
		"bdremux":  "Remux",
		"extended": "Extended",
		"unrated":  "Unrated",
		"internal": "Internal",
		"limited":  "Limited",
		"webrip":   "Rip",
		"bdrip":    "Rip",
		"brrip":    "Rip",
		"dvdrip":   "Rip",
	}

	// Tags that are also plain words; they only count once an
	// unambiguous tag has been seen.
	ambiguous = map[string]bool{
		"web": true, "cam": true, "dv": true, "proper": true, "extended": true,
		"internal": true, "limited": true, "unrated": true, "sample": true,
	}

	countries = map[string]bool{
		"US": true, "UK": true, "GB": true, "AU": true, "CA": true, "NZ": true, "IE": true,
	}
)

// IsVideo checks if the filename has a video extension
func IsVideo(filename string) bool {
	return videoRe.MatchString(filename)
}

// IsSubtitle checks if the filename has a subtitle extension
func IsSubtitle(filename string) bool {
	return subtitleRe.MatchString(filename)
}

// IsMedia reports whether filename is a video or a subtitle.
func IsMedia(filename string) bool {
	return IsVideo(filename) || IsSubtitle(filename)
}

// extension returns the dot-prefixed extension of a media file, or "".
func extension(filename string) string {
	if loc := videoRe.FindStringIndex(filename); loc != nil {
		return filename[loc[0]:]
	}
	if loc := subtitleRe.FindStringIndex(filename); loc != nil {
		return filename[loc[0]:]
	}
	return ""
}

// seasonFromDir extracts a season number from a folder name like "Season 2".
func seasonFromDir(name string) (int, bool) {
	m := seasonDirRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
