package tvmaze

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/provider"
	"github.com/Digital-Shane/namer/internal/transport"
)

const (
	maxAttempts        = 5
	defaultBackoffUnit = time.Second
	dateLayout         = "2006-01-02"
)

// Config holds the settings for the TVMaze provider
type Config struct {
	BaseURL string
	Cache   bool
}

// Provider searches episodes on TVMaze.
type Provider struct {
	client *Client
	unit   time.Duration
	logger zerolog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger.With().Str("component", "provider").Str("provider", providerName).Logger()
	}
}

// WithBackoffUnit sets the time unit of the rate-limit backoff. The nth
// retry waits n*2 units.
func WithBackoffUnit(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.unit = d
		}
	}
}

// New creates a TVMaze provider that sends requests through doer.
func New(cfg Config, doer transport.Doer, opts ...Option) *Provider {
	p := &Provider{
		client: NewClient(doer, cfg.BaseURL, cfg.Cache),
		unit:   defaultBackoffUnit,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *Provider) Name() provider.ID {
	return provider.TVMaze
}

// Kinds returns the media kinds TVMaze can search.
func (p *Provider) Kinds() []metadata.Kind {
	return []metadata.Kind{metadata.KindEpisode}
}

// Search finds episodes by TVMaze id, by a TVDb or IMDb id lookup, or by
// series name. The air date narrows a show's episodes first, then season
// and episode numbers.
func (p *Provider) Search(ctx context.Context, q provider.Query) iter.Seq2[metadata.Metadata, error] {
	return func(yield func(metadata.Metadata, error) bool) {
		var (
			show *Show
			err  error
		)
		switch {
		case q.IDTvmaze != "":
			err = p.call(ctx, "show", func() error {
				var err error
				show, err = p.client.Show(ctx, q.IDTvmaze, false)
				return err
			})
		case q.IDTvdb != "":
			err = p.call(ctx, "lookup", func() error {
				var err error
				show, err = p.client.ShowLookup(ctx, "", q.IDTvdb)
				return err
			})
		case q.IDImdb != "":
			err = p.call(ctx, "lookup", func() error {
				var err error
				show, err = p.client.ShowLookup(ctx, q.IDImdb, "")
				return err
			})
		case strings.TrimSpace(q.Series) != "":
			p.searchSeries(ctx, q, yield)
			return
		default:
			yield(nil, errs.NotFound(providerName, "query needs a TVMaze, TVDb or IMDb id, or a series name"))
			return
		}
		if err != nil {
			yield(nil, err)
			return
		}

		found, more, err := p.showEpisodes(ctx, q, show, yield)
		switch {
		case err != nil:
			yield(nil, err)
		case more && !found:
			yield(nil, errs.NotFound(providerName, "no episodes for show %d", show.ID))
		}
	}
}

func (p *Provider) searchSeries(ctx context.Context, q provider.Query, yield func(metadata.Metadata, error) bool) {
	var matches []ShowMatch
	err := p.call(ctx, "search", func() error {
		var err error
		matches, err = p.client.ShowSearch(ctx, q.Series)
		return err
	})
	if err != nil {
		yield(nil, err)
		return
	}

	found := false
	for i := range matches {
		f, more, err := p.showEpisodes(ctx, q, &matches[i].Show, yield)
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

// showEpisodes yields the episodes of show that match q. found reports
// whether anything was yielded and more is false once the consumer stopped.
func (p *Provider) showEpisodes(ctx context.Context, q provider.Query, show *Show, yield func(metadata.Metadata, error) bool) (found, more bool, err error) {
	id := strconv.Itoa(show.ID)
	var episodes []Episode

	switch {
	case !q.Date.IsZero():
		err = p.call(ctx, "episodes by date", func() error {
			var err error
			episodes, err = p.client.EpisodesByDate(ctx, id, q.Date)
			return err
		})
	case q.Season != nil && q.Episode != nil:
		err = p.call(ctx, "episode by number", func() error {
			ep, err := p.client.EpisodeByNumber(ctx, id, *q.Season, *q.Episode)
			if err == nil {
				episodes = []Episode{*ep}
			}
			return err
		})
	default:
		err = p.call(ctx, "episodes", func() error {
			var err error
			episodes, err = p.client.ShowEpisodes(ctx, id, false)
			return err
		})
	}
	if err != nil {
		return false, true, err
	}

	for i := range episodes {
		ep := &episodes[i]
		if q.Date.IsZero() && !(numberMatches(q.Season, ep.Season) && numberMatches(q.Episode, ep.Number)) {
			continue
		}
		found = true
		if !yield(toEpisode(show, ep), nil) {
			return true, false, nil
		}
	}
	return found, true, nil
}

// call runs fn, retrying while TVMaze reports its request budget spent.
// The last rate-limit error is returned once the attempts run out.
func (p *Provider) call(ctx context.Context, op string, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{unit: p.unit}, maxAttempts-1), ctx)
	err := backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !rateLimited(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		p.logger.Debug().Str("op", op).Dur("wait", wait).Msg("rate limited, backing off")
	})

	var e *errs.Error
	if err != nil && !errors.As(err, &e) {
		return errs.Network(providerName, err, "%s", op)
	}
	return err
}

// linearBackOff waits attempt*2 units before each retry.
type linearBackOff struct {
	unit    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt*2) * b.unit
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

func rateLimited(err error) bool {
	var e *errs.Error
	return errors.As(err, &e) && e.Code == errs.CodeRateLimited
}

func numberMatches(want, got *int) bool {
	return want == nil || (got != nil && *got == *want)
}

func toEpisode(show *Show, e *Episode) *metadata.Episode {
	m := &metadata.Episode{
		Series: show.Name,
	}
	m.Title = e.Name
	m.Synopsis = plainText(e.Summary)
	m.IDTvmaze = strconv.Itoa(show.ID)
	m.IDImdb = show.Externals.Imdb
	if show.Externals.TheTVDB != nil {
		m.IDTvdb = strconv.Itoa(*show.Externals.TheTVDB)
	}
	if e.Season != nil {
		m.Season = metadata.Int(*e.Season)
	}
	if e.Number != nil {
		m.Episode = metadata.Int(*e.Number)
	}
	if d, err := time.Parse(dateLayout, e.Airdate); err == nil {
		m.Date = d
	}
	return m
}

// plainText strips the HTML markup TVMaze uses in summaries.
func plainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
