package target

import (
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
)

// Default templates
const (
	DefaultMovieDirectory   = ""
	DefaultMovieFormat      = "{title} ({year}){extension}"
	DefaultEpisodeDirectory = ""
	DefaultEpisodeFormat    = "{series} - S{season:02}E{episode:02} - {title}{extension}"
	DefaultHits             = 5
)

// Settings controls how targets are parsed, searched and named.
type Settings struct {
	// Directory templates may contain "/" to nest folders. Empty keeps
	// the source folder; relative results are placed under it.
	MovieDirectory   string
	MovieFormat      string
	EpisodeDirectory string
	EpisodeFormat    string

	Lower bool // lower-case the file name
	Scene bool // dotted ASCII file name, e.g. "Jurassic.Park.1993.mkv"

	// PreserveTags carries bracketed tags such as "[Extended]" from the
	// source name over to the new one.
	PreserveTags bool

	// ReplaceBefore edits the file name before parsing; ReplaceAfter edits
	// the rendered file name. Keys are applied in sorted order.
	ReplaceBefore map[string]string
	ReplaceAfter  map[string]string

	MovieAPI   provider.ID
	EpisodeAPI provider.ID

	Hits          int
	YearTolerance int
	Language      string

	// Media forces every target to one kind. Empty trusts the parser.
	Media metadata.Kind

	Map MapOptions
}

// MapOptions adjusts how parser output becomes metadata.
type MapOptions struct {
	// MultiEpisodeLast keeps the highest number of a multi-episode file
	// instead of the lowest.
	MultiEpisodeLast bool

	// IgnoreCountry stops a parsed country code from standing in for a
	// missing release group.
	IgnoreCountry bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MovieDirectory:   DefaultMovieDirectory,
		MovieFormat:      DefaultMovieFormat,
		EpisodeDirectory: DefaultEpisodeDirectory,
		EpisodeFormat:    DefaultEpisodeFormat,
		Hits:             DefaultHits,
		YearTolerance:    provider.DefaultYearTolerance,
	}
}

func (s Settings) templates(kind metadata.Kind) (dir, file string) {
	if kind == metadata.KindEpisode {
		return s.EpisodeDirectory, s.EpisodeFormat
	}
	return s.MovieDirectory, s.MovieFormat
}

func (s Settings) api(kind metadata.Kind) provider.ID {
	if kind == metadata.KindEpisode {
		return s.EpisodeAPI
	}
	return s.MovieAPI
}
