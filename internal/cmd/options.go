package cmd

import (
	"github.com/spf13/pflag"

	"github.com/Digital-Shane/namer/internal/config"
)

// options holds the command line flags.
type options struct {
	configPath string

	movieFormat      string
	movieDirectory   string
	episodeFormat    string
	episodeDirectory string
	movieAPI         string
	episodeAPI       string
	media            string
	language         string
	hits             int
	yearTolerance    int
	lower            bool
	scene            bool
	probe            bool
	preserveTags     bool

	batch      bool
	test       bool
	noCache    bool
	noProgress bool
	workers    int
	link       string
	verbose    int
}

// apply copies every flag the user set onto cfg.
func (o *options) apply(flags *pflag.FlagSet, cfg *config.Config) {
	strs := map[string]*string{
		"movie-format":      &cfg.MovieFormat,
		"movie-directory":   &cfg.MovieDirectory,
		"episode-format":    &cfg.EpisodeFormat,
		"episode-directory": &cfg.EpisodeDirectory,
		"movie-api":         &cfg.MovieAPI,
		"episode-api":       &cfg.EpisodeAPI,
		"media":             &cfg.Media,
		"language":          &cfg.Language,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			*dst = flags.Lookup(name).Value.String()
		}
	}
	if flags.Changed("hits") {
		cfg.Hits = o.hits
	}
	if flags.Changed("year-tolerance") {
		cfg.YearTolerance = o.yearTolerance
	}
	if flags.Changed("workers") {
		cfg.WorkerCount = o.workers
	}
	if flags.Changed("lower") {
		cfg.Lower = o.lower
	}
	if flags.Changed("scene") {
		cfg.Scene = o.scene
	}
	if flags.Changed("preserve-tags") {
		cfg.PreserveTags = o.preserveTags
	}
	if flags.Changed("probe") {
		cfg.Probe = o.probe
	}
	if o.noCache {
		cfg.EnableCache = false
	}
}
