// Package config loads user settings from ~/.namer/config.json with NAMER_*
// environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/provider/catalog"
	"github.com/Digital-Shane/namer/internal/target"
)

// EnvPrefix prefixes environment overrides, e.g. NAMER_TMDB_API_KEY.
const EnvPrefix = "NAMER"

// Replacement is one literal substitution. Pairs are kept as a list since
// map keys in config files are case folded.
type Replacement struct {
	From string `json:"from" mapstructure:"from"`
	To   string `json:"to" mapstructure:"to"`
}

// Config mirrors the config file.
type Config struct {
	MovieDirectory   string `json:"movie_directory" mapstructure:"movie_directory"`
	MovieFormat      string `json:"movie_format" mapstructure:"movie_format"`
	EpisodeDirectory string `json:"episode_directory" mapstructure:"episode_directory"`
	EpisodeFormat    string `json:"episode_format" mapstructure:"episode_format"`

	Lower        bool `json:"lower" mapstructure:"lower"`
	Scene        bool `json:"scene" mapstructure:"scene"`
	PreserveTags bool `json:"preserve_tags" mapstructure:"preserve_tags"`

	ReplaceBefore []Replacement `json:"replace_before" mapstructure:"replace_before"`
	ReplaceAfter  []Replacement `json:"replace_after" mapstructure:"replace_after"`

	MovieAPI      string `json:"movie_api" mapstructure:"movie_api"`
	EpisodeAPI    string `json:"episode_api" mapstructure:"episode_api"`
	Hits          int    `json:"hits" mapstructure:"hits"`
	YearTolerance int    `json:"year_tolerance" mapstructure:"year_tolerance"`
	Language      string `json:"language" mapstructure:"language"`
	Media         string `json:"media" mapstructure:"media"`

	MultiEpisodeLast bool `json:"multi_episode_last" mapstructure:"multi_episode_last"`
	IgnoreCountry    bool `json:"ignore_country" mapstructure:"ignore_country"`

	// Probe fills missing quality from ffprobe
	Probe bool `json:"probe" mapstructure:"probe"`

	// Provider credentials
	OMDbAPIKey string `json:"omdb_api_key" mapstructure:"omdb_api_key"`
	TMDbAPIKey string `json:"tmdb_api_key" mapstructure:"tmdb_api_key"`
	TVDbAPIKey string `json:"tvdb_api_key" mapstructure:"tvdb_api_key"`
	TVDbToken  string `json:"tvdb_token" mapstructure:"tvdb_token"`

	EnableCache    bool `json:"enable_cache" mapstructure:"enable_cache"`
	CacheTTLHours  int  `json:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	TimeoutSeconds int  `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	WorkerCount    int  `json:"worker_count" mapstructure:"worker_count"`

	EnableLogging    bool `json:"enable_logging" mapstructure:"enable_logging"`
	LogRetentionDays int  `json:"log_retention_days" mapstructure:"log_retention_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MovieDirectory:   target.DefaultMovieDirectory,
		MovieFormat:      target.DefaultMovieFormat,
		EpisodeDirectory: target.DefaultEpisodeDirectory,
		EpisodeFormat:    target.DefaultEpisodeFormat,
		MovieAPI:         string(provider.TMDb),
		EpisodeAPI:       string(provider.TVDb),
		Hits:             target.DefaultHits,
		YearTolerance:    provider.DefaultYearTolerance,
		Language:         "en",
		EnableCache:      true,
		CacheTTLHours:    24,
		TimeoutSeconds:   30,
		WorkerCount:      4,
		EnableLogging:    true,
		LogRetentionDays: 30,
	}
}

// Dir returns the folder holding the config file, cache and journals.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".namer"), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// CachePath returns where the response cache is persisted.
func CachePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.gob"), nil
}

// Load reads the config file at path, or ConfigPath when path is empty.
// Environment variables override the file and the file overrides the
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// No replacements are nil, whether defaulted or written as [].
	if len(cfg.ReplaceBefore) == 0 {
		cfg.ReplaceBefore = nil
	}
	if len(cfg.ReplaceAfter) == 0 {
		cfg.ReplaceAfter = nil
	}
	return cfg, nil
}

// setDefaults registers every key so that environment overrides reach
// Unmarshal even when the file does not mention them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("movie_directory", d.MovieDirectory)
	v.SetDefault("movie_format", d.MovieFormat)
	v.SetDefault("episode_directory", d.EpisodeDirectory)
	v.SetDefault("episode_format", d.EpisodeFormat)
	v.SetDefault("lower", d.Lower)
	v.SetDefault("scene", d.Scene)
	v.SetDefault("replace_before", []Replacement{})
	v.SetDefault("replace_after", []Replacement{})
	v.SetDefault("movie_api", d.MovieAPI)
	v.SetDefault("episode_api", d.EpisodeAPI)
	v.SetDefault("hits", d.Hits)
	v.SetDefault("year_tolerance", d.YearTolerance)
	v.SetDefault("language", d.Language)
	v.SetDefault("media", d.Media)
	v.SetDefault("multi_episode_last", d.MultiEpisodeLast)
	v.SetDefault("ignore_country", d.IgnoreCountry)
	v.SetDefault("probe", d.Probe)
	v.SetDefault("preserve_tags", d.PreserveTags)
	v.SetDefault("omdb_api_key", "")
	v.SetDefault("tmdb_api_key", "")
	v.SetDefault("tvdb_api_key", "")
	v.SetDefault("tvdb_token", "")
	v.SetDefault("enable_cache", d.EnableCache)
	v.SetDefault("cache_ttl_hours", d.CacheTTLHours)
	v.SetDefault("timeout_seconds", d.TimeoutSeconds)
	v.SetDefault("worker_count", d.WorkerCount)
	v.SetDefault("enable_logging", d.EnableLogging)
	v.SetDefault("log_retention_days", d.LogRetentionDays)
}

// Save writes the configuration to path, or ConfigPath when path is empty.
func (cfg *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Settings converts the file settings into target settings.
func (cfg *Config) Settings() (target.Settings, error) {
	s := target.Settings{
		MovieDirectory:   cfg.MovieDirectory,
		MovieFormat:      cfg.MovieFormat,
		EpisodeDirectory: cfg.EpisodeDirectory,
		EpisodeFormat:    cfg.EpisodeFormat,
		Lower:            cfg.Lower,
		Scene:            cfg.Scene,
		PreserveTags:     cfg.PreserveTags,
		ReplaceBefore:    replacements(cfg.ReplaceBefore),
		ReplaceAfter:     replacements(cfg.ReplaceAfter),
		MovieAPI:         provider.ID(strings.ToLower(cfg.MovieAPI)),
		EpisodeAPI:       provider.ID(strings.ToLower(cfg.EpisodeAPI)),
		Hits:             cfg.Hits,
		YearTolerance:    cfg.YearTolerance,
		Language:         cfg.Language,
		Map: target.MapOptions{
			MultiEpisodeLast: cfg.MultiEpisodeLast,
			IgnoreCountry:    cfg.IgnoreCountry,
		},
	}
	if s.MovieFormat == "" {
		s.MovieFormat = target.DefaultMovieFormat
	}
	if s.EpisodeFormat == "" {
		s.EpisodeFormat = target.DefaultEpisodeFormat
	}
	if s.Hits <= 0 {
		s.Hits = target.DefaultHits
	}
	if cfg.Media != "" {
		kind, err := metadata.ParseKind(cfg.Media)
		if err != nil {
			return target.Settings{}, err
		}
		s.Media = kind
	}
	return s, nil
}

// Catalog returns the provider settings. The cache is left to the caller.
func (cfg *Config) Catalog() catalog.Config {
	return catalog.Config{
		OMDbKey:   cfg.OMDbAPIKey,
		TMDbKey:   cfg.TMDbAPIKey,
		TVDbKey:   cfg.TVDbAPIKey,
		TVDbToken: cfg.TVDbToken,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// CacheTTL returns how long cached responses stay valid.
func (cfg *Config) CacheTTL() time.Duration {
	return time.Duration(cfg.CacheTTLHours) * time.Hour
}

func replacements(pairs []Replacement) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.From != "" {
			m[p.From] = p.To
		}
	}
	return m
}
