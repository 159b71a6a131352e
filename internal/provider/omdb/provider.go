package omdb

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/omdb"
	"github.com/rs/zerolog"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/transport"
)

const (
	pageSize       = 10
	defaultPageCap = 10
	releasedLayout = "02 Jan 2006"
)

// Config holds the settings for the OMDb provider
type Config struct {
	APIKey  string
	BaseURL string
	Cache   bool
	PageCap int
}

// Provider searches movies on OMDb.
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

// New creates an OMDb provider that sends requests through doer.
func New(cfg Config, doer transport.Doer, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.InvalidCredential(providerName, "api key is required")
	}
	p := &Provider{
		client:  NewClient(cfg.APIKey, doer, cfg.BaseURL, cfg.Cache),
		pageCap: cfg.PageCap,
		logger:  zerolog.Nop(),
	}
	if p.pageCap <= 0 || p.pageCap > MaxPage {
		p.pageCap = defaultPageCap
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider name.
func (p *Provider) Name() provider.ID {
	return provider.OMDb
}

// Kinds returns the media kinds OMDb can search.
func (p *Provider) Kinds() []metadata.Kind {
	return []metadata.Kind{metadata.KindMovie}
}

// Search looks a movie up by IMDb id, or else searches by title and
// filters by year range.
func (p *Provider) Search(ctx context.Context, q provider.Query) iter.Seq2[metadata.Metadata, error] {
	return func(yield func(metadata.Metadata, error) bool) {
		switch {
		case q.IDImdb != "":
			m, err := p.lookup(ctx, q.IDImdb)
			if err != nil {
				yield(nil, err)
				return
			}
			yield(m, nil)
		case strings.TrimSpace(q.Name) != "":
			p.searchTitle(ctx, q, yield)
		default:
			yield(nil, errs.NotFound(providerName, "query needs an IMDb id or a title"))
		}
	}
}

func (p *Provider) searchTitle(ctx context.Context, q provider.Query, yield func(metadata.Metadata, error) bool) {
	lo, hi := q.YearRange()
	found := false

	for page := 1; page <= p.pageCap; page++ {
		resp, err := p.client.Search(ctx, SearchParams{Query: q.Name, Media: "movie", Page: page})
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				break
			}
			yield(nil, err)
			return
		}
		p.logger.Debug().Str("query", q.Name).Int("page", page).Int("results", len(resp.Search)).Msg("search page")

		for _, entry := range resp.Search {
			if !provider.YearInRange(entryYear(entry.Year), lo, hi) {
				continue
			}
			m, err := p.lookup(ctx, entry.ImdbID)
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			if err != nil {
				yield(nil, err)
				return
			}
			found = true
			if !yield(m, nil) {
				return
			}
		}

		total, _ := strconv.Atoi(resp.TotalResults)
		if page*pageSize >= total {
			break
		}
	}

	if !found {
		yield(nil, errs.NotFound(providerName, "no movie matches %q", q.Name))
	}
}

func (p *Provider) lookup(ctx context.Context, id string) (metadata.Metadata, error) {
	resp, err := p.client.Title(ctx, TitleParams{ID: id, Media: "movie", Plot: "full"})
	if err != nil {
		return nil, err
	}
	return toMovie(resp), nil
}

func toMovie(resp *TitleResponse) *metadata.Movie {
	m := &metadata.Movie{}
	m.Title = resp.Title
	m.Year = entryYear(resp.Year)
	if d, err := time.Parse(releasedLayout, resp.Released); err == nil {
		m.Date = d
	}
	if resp.Plot != "N/A" {
		m.Synopsis = resp.Plot
	}
	m.IDImdb = resp.ImdbID
	return m
}

// entryYear reads the first year of values like "1993" or "2005–2010".
func entryYear(s string) int {
	y, err := strconv.Atoi(omdb.FirstYear(s))
	if err != nil {
		return 0
	}
	return y
}
