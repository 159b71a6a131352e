package tvdb

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/transport"
)

const (
	defaultPageCap  = 20
	maxSeriesProbes = 5
	dateLayout      = "2006-01-02"
)

// Config holds the settings for the TVDb provider
type Config struct {
	APIKey  string
	Token   string // optional; skips the first login
	BaseURL string
	Cache   bool
	PageCap int
}

// Provider searches episodes on TheTVDB v3 API.
type Provider struct {
	client  *Client
	session *session
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

// New creates a TVDb provider. Without a token and with caching disabled
// it logs in immediately; otherwise the first search does.
func New(ctx context.Context, cfg Config, doer transport.Doer, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" && cfg.Token == "" {
		return nil, errs.InvalidCredential(providerName, "api key is required")
	}
	client := NewClient(doer, cfg.BaseURL, cfg.Cache)
	p := &Provider{
		client:  client,
		pageCap: cfg.PageCap,
		logger:  zerolog.Nop(),
	}
	if p.pageCap <= 0 {
		p.pageCap = defaultPageCap
	}
	for _, opt := range opts {
		opt(p)
	}
	p.session = &session{client: client, apiKey: cfg.APIKey, token: cfg.Token, logger: p.logger}

	if cfg.Token == "" && !cfg.Cache {
		if _, err := p.session.login(ctx, ""); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name returns the provider name
func (p *Provider) Name() provider.ID {
	return provider.TVDb
}

// Kinds returns the media kinds TVDb can search.
func (p *Provider) Kinds() []metadata.Kind {
	return []metadata.Kind{metadata.KindEpisode}
}

// Search finds episodes by TVDb series id, or by series name probing at
// most five matching series. Within a series the air date narrows the
// listing first, then season and episode numbers.
func (p *Provider) Search(ctx context.Context, q provider.Query) iter.Seq2[metadata.Metadata, error] {
	return func(yield func(metadata.Metadata, error) bool) {
		if err := ValidateLanguage(q.Language); err != nil {
			yield(nil, err)
			return
		}
		c := &authCall{session: p.session, logger: p.logger}

		switch {
		case q.IDTvdb != "":
			found, more, err := p.seriesEpisodes(ctx, c, q, q.IDTvdb, yield)
			switch {
			case err != nil:
				yield(nil, err)
			case more && !found:
				yield(nil, errs.NotFound(providerName, "no episodes for series %s", q.IDTvdb))
			}
		case strings.TrimSpace(q.Series) != "":
			p.searchSeries(ctx, c, q, yield)
		default:
			yield(nil, errs.NotFound(providerName, "query needs a TVDb id or a series name"))
		}
	}
}

func (p *Provider) searchSeries(ctx context.Context, c *authCall, q provider.Query, yield func(metadata.Metadata, error) bool) {
	var matches []Series
	err := c.do(ctx, func(token string) error {
		var err error
		matches, err = p.client.SearchSeries(ctx, token, SeriesSearch{Name: q.Series}, q.Language)
		return err
	})
	if err != nil {
		yield(nil, err)
		return
	}

	found := false
	for i, s := range matches {
		if i == maxSeriesProbes {
			break
		}
		f, more, err := p.seriesEpisodes(ctx, c, q, strconv.Itoa(s.ID), yield)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			yield(nil, err)
			return
		}
		if !more {
			return
		}
		found = found || f
	}
	if !found {
		yield(nil, errs.NotFound(providerName, "no episodes match %q", q.Series))
	}
}

// seriesEpisodes yields the episodes of one series that match q. found
// reports whether anything was yielded and more is false once the
// consumer stopped.
func (p *Provider) seriesEpisodes(ctx context.Context, c *authCall, q provider.Query, id string, yield func(metadata.Metadata, error) bool) (found, more bool, err error) {
	var series *Series
	err = c.do(ctx, func(token string) error {
		var err error
		series, err = p.client.SeriesByID(ctx, token, id, q.Language)
		return err
	})
	if err != nil {
		return false, true, err
	}

	var filter EpisodeQuery
	filtered := true
	switch {
	case !q.Date.IsZero():
		filter.FirstAired = q.Date.Format(dateLayout)
	case q.Season != nil || q.Episode != nil:
		filter.AiredSeason, filter.AiredEpisode = q.Season, q.Episode
	default:
		filtered = false
	}

	for page := 1; page <= p.pageCap; page++ {
		var resp *EpisodesResponse
		err := c.do(ctx, func(token string) error {
			var err error
			if filtered {
				filter.Page = page
				resp, err = p.client.SeriesEpisodesQuery(ctx, token, id, filter, q.Language)
			} else {
				resp, err = p.client.SeriesEpisodes(ctx, token, id, page, q.Language)
			}
			return err
		})
		if err != nil {
			if found && errors.Is(err, errs.ErrNotFound) {
				break
			}
			return found, true, err
		}

		for i := range resp.Data {
			found = true
			if !yield(toEpisode(series, &resp.Data[i]), nil) {
				return true, false, nil
			}
		}

		if resp.Links.Next == nil || (resp.Links.Last != nil && page >= *resp.Links.Last) {
			break
		}
	}
	return found, true, nil
}

// authCall runs authenticated requests for a single search. A rejected
// token triggers one login and one retry of the same request; a second
// rejection is returned as is.
type authCall struct {
	session  *session
	logger   zerolog.Logger
	relogged bool
}

func (c *authCall) do(ctx context.Context, fn func(token string) error) error {
	token, err := c.session.ensure(ctx)
	if err != nil {
		return err
	}
	err = fn(token)
	if !errors.Is(err, errs.ErrInvalidCredential) || c.relogged {
		return err
	}

	c.relogged = true
	c.logger.Debug().Msg("token rejected, logging in again")
	if token, err = c.session.login(ctx, token); err != nil {
		return err
	}
	return fn(token)
}

func toEpisode(series *Series, e *Episode) *metadata.Episode {
	m := &metadata.Episode{
		Series: series.SeriesName,
	}
	// multi-part names arrive joined with ";"
	name, _, _ := strings.Cut(e.EpisodeName, ";")
	m.Title = strings.TrimSpace(name)
	m.Synopsis = e.Overview
	m.IDTvdb = strconv.Itoa(series.ID)
	if series.ImdbID != "" {
		m.IDImdb = series.ImdbID
	}
	if e.AiredSeason != nil {
		m.Season = metadata.Int(*e.AiredSeason)
	}
	if e.AiredEpisodeNumber != nil {
		m.Episode = metadata.Int(*e.AiredEpisodeNumber)
	}
	if d, err := time.Parse(dateLayout, e.FirstAired); err == nil {
		m.Date = d
	}
	return m
}
