package tmdb

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tmdb "github.com/ryanbradynd05/go-tmdb"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/transport"
)

const (
	defaultPageCap = 5
	dateLayout     = "2006-01-02"
)

// Config holds the settings for the TMDb provider
type Config struct {
	APIKey  string
	BaseURL string
	Cache   bool
	PageCap int
}

// Provider searches movies on The Movie Database.
type Provider struct {
	client  *Client
	pageCap int
	logger  zerolog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger.With().Str("component", "provider").Str("provider", providerName).Logger()
	}
}

// New creates a TMDb provider that sends requests through doer.
func New(cfg Config, doer transport.Doer, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.InvalidCredential(providerName, "api key is required")
	}
	p := &Provider{
		client:  NewClient(cfg.APIKey, doer, cfg.BaseURL, cfg.Cache),
		pageCap: cfg.PageCap,
		logger:  zerolog.Nop(),
	}
	if p.pageCap <= 0 {
		p.pageCap = defaultPageCap
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider name
func (p *Provider) Name() provider.ID {
	return provider.TMDb
}

// Kinds returns the media kinds TMDb can search.
func (p *Provider) Kinds() []metadata.Kind {
	return []metadata.Kind{metadata.KindMovie}
}

// Search tries the TMDb id, then the IMDb id, then the title.
func (p *Provider) Search(ctx context.Context, q provider.Query) iter.Seq2[metadata.Metadata, error] {
	return func(yield func(metadata.Metadata, error) bool) {
		switch {
		case q.IDTmdb != "":
			movie, err := p.client.Movie(ctx, q.IDTmdb, q.Language)
			if err != nil {
				yield(nil, err)
				return
			}
			yield(fromMovie(movie), nil)
		case q.IDImdb != "":
			p.searchImdb(ctx, q, yield)
		case strings.TrimSpace(q.Name) != "":
			p.searchTitle(ctx, q, yield)
		default:
			yield(nil, errs.NotFound(providerName, "query needs a TMDb id, an IMDb id or a title"))
		}
	}
}

func (p *Provider) searchImdb(ctx context.Context, q provider.Query, yield func(metadata.Metadata, error) bool) {
	resp, err := p.client.Find(ctx, q.IDImdb, "imdb_id", q.Language)
	if err != nil {
		yield(nil, err)
		return
	}
	if len(resp.MovieResults) == 0 {
		yield(nil, errs.NotFound(providerName, "no movie with IMDb id %s", q.IDImdb))
		return
	}
	for i := range resp.MovieResults {
		m := fromShort(&resp.MovieResults[i])
		m.IDImdb = q.IDImdb
		if !yield(m, nil) {
			return
		}
	}
}

func (p *Provider) searchTitle(ctx context.Context, q provider.Query, yield func(metadata.Metadata, error) bool) {
	lo, hi := q.YearRange()
	found := false

	for page := 1; page <= p.pageCap; page++ {
		resp, err := p.client.SearchMovies(ctx, SearchParams{Query: q.Name, Page: page, Language: q.Language})
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				break
			}
			yield(nil, err)
			return
		}
		p.logger.Debug().Str("query", q.Name).Int("page", page).Int("results", len(resp.Results)).Msg("search page")

		for i := range resp.Results {
			m := fromShort(&resp.Results[i])
			if !provider.YearInRange(m.ReleaseYear(), lo, hi) {
				continue
			}
			found = true
			if !yield(m, nil) {
				return
			}
		}

		if page >= resp.TotalPages {
			break
		}
	}

	if !found {
		yield(nil, errs.NotFound(providerName, "no movie matches %q", q.Name))
	}
}

func fromShort(s *tmdb.MovieShort) *metadata.Movie {
	m := &metadata.Movie{}
	m.Title = s.Title
	m.Synopsis = s.Overview
	m.IDTmdb = strconv.Itoa(s.ID)
	setDate(&m.Base, s.ReleaseDate)
	return m
}

func fromMovie(movie *tmdb.Movie) *metadata.Movie {
	m := &metadata.Movie{}
	m.Title = movie.Title
	m.Synopsis = movie.Overview
	m.IDTmdb = strconv.Itoa(movie.ID)
	m.IDImdb = movie.ImdbID
	setDate(&m.Base, movie.ReleaseDate)
	return m
}

func setDate(b *metadata.Base, s string) {
	if d, err := time.Parse(dateLayout, s); err == nil {
		b.Date = d
		b.Year = d.Year()
	}
}
