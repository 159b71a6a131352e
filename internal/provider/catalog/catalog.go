// Package catalog wires the built-in metadata services into a provider
// registry.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/provider/omdb"
	"github.com/Digital-Shane/namer/internal/provider/tmdb"
	"github.com/Digital-Shane/namer/internal/provider/tvdb"
	"github.com/Digital-Shane/namer/internal/provider/tvmaze"
	"github.com/Digital-Shane/namer/internal/transport"
)

// Config holds the credentials and transport settings for all services.
type Config struct {
	OMDbKey   string
	TMDbKey   string
	TVDbKey   string
	TVDbToken string

	// Cache is shared by every service. Nil disables response caching.
	Cache      *transport.Cache
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger

	// BaseURLs overrides service endpoints, keyed by provider id.
	BaseURLs map[provider.ID]string
}

type limit struct {
	rate  rate.Limit
	burst int
}

// Published request budgets. OMDb and TVDb publish none.
var limits = map[provider.ID]limit{
	provider.TMDb:   {rate: 4, burst: 40},
	provider.TVMaze: {rate: 2, burst: 20},
}

// NewRegistry registers a factory for each built-in service. Nothing is
// constructed until the registry hands a provider out.
func NewRegistry(cfg Config) (*provider.Registry, error) {
	r := provider.NewRegistry()
	movie := []metadata.Kind{metadata.KindMovie}
	episode := []metadata.Kind{metadata.KindEpisode}
	useCache := cfg.Cache != nil

	factories := map[provider.ID]provider.Factory{
		provider.OMDb: {Kinds: movie, New: func(context.Context) (provider.Provider, error) {
			p, err := omdb.New(omdb.Config{
				APIKey:  cfg.OMDbKey,
				BaseURL: cfg.BaseURLs[provider.OMDb],
				Cache:   useCache,
			}, cfg.doer(provider.OMDb), omdb.WithLogger(cfg.Logger))
			return checked(p, err)
		}},
		provider.TMDb: {Kinds: movie, New: func(context.Context) (provider.Provider, error) {
			p, err := tmdb.New(tmdb.Config{
				APIKey:  cfg.TMDbKey,
				BaseURL: cfg.BaseURLs[provider.TMDb],
				Cache:   useCache,
			}, cfg.doer(provider.TMDb), tmdb.WithLogger(cfg.Logger))
			return checked(p, err)
		}},
		provider.TVDb: {Kinds: episode, New: func(ctx context.Context) (provider.Provider, error) {
			p, err := tvdb.New(ctx, tvdb.Config{
				APIKey:  cfg.TVDbKey,
				Token:   cfg.TVDbToken,
				BaseURL: cfg.BaseURLs[provider.TVDb],
				Cache:   useCache,
			}, cfg.doer(provider.TVDb), tvdb.WithLogger(cfg.Logger))
			return checked(p, err)
		}},
		provider.TVMaze: {Kinds: episode, New: func(context.Context) (provider.Provider, error) {
			return tvmaze.New(tvmaze.Config{
				BaseURL: cfg.BaseURLs[provider.TVMaze],
				Cache:   useCache,
			}, cfg.doer(provider.TVMaze), tvmaze.WithLogger(cfg.Logger)), nil
		}},
	}

	for _, id := range []provider.ID{provider.OMDb, provider.TMDb, provider.TVDb, provider.TVMaze} {
		if err := r.Register(id, factories[id]); err != nil {
			return nil, fmt.Errorf("register %s: %w", id, err)
		}
	}
	return r, nil
}

func (cfg Config) doer(id provider.ID) *transport.Client {
	opts := []transport.Option{
		transport.WithHTTPClient(cfg.HTTPClient),
		transport.WithTimeout(cfg.Timeout),
		transport.WithLogger(cfg.Logger),
	}
	if cfg.Cache != nil {
		opts = append(opts, transport.WithCache(cfg.Cache))
	}
	if l, ok := limits[id]; ok {
		opts = append(opts, transport.WithRateLimit(l.rate, l.burst))
	}
	return transport.New(string(id), opts...)
}

// checked keeps a failed constructor from returning a typed nil provider.
func checked[P provider.Provider](p P, err error) (provider.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
