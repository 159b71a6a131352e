package tvmaze

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/transport"
)

const (
	providerName   = "tvmaze"
	defaultBaseURL = "https://api.tvmaze.com"

	// StatusRateLimited is what TVMaze answers with once the request budget
	// is spent, alongside the usual 429.
	StatusRateLimited = 443
)

// Externals holds the ids a show has on other services.
type Externals struct {
	Imdb    string `json:"imdb"`
	TheTVDB *int   `json:"thetvdb"`
	TVRage  *int   `json:"tvrage"`
}

// Show is a TVMaze show record.
type Show struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Premiered string    `json:"premiered"`
	Summary   string    `json:"summary"`
	Language  string    `json:"language"`
	Externals Externals `json:"externals"`
	Embedded  *struct {
		Episodes []Episode `json:"episodes"`
	} `json:"_embedded,omitempty"`
}

// Episode is a TVMaze episode record.
type Episode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  *int   `json:"season"`
	Number  *int   `json:"number"`
	Airdate string `json:"airdate"`
	Summary string `json:"summary"`
}

// ShowMatch is one hit of a show search.
type ShowMatch struct {
	Score float64 `json:"score"`
	Show  Show    `json:"show"`
}

// Client calls the TVMaze HTTP API. TVMaze needs no credentials.
type Client struct {
	doer     transport.Doer
	baseURL  string
	useCache bool
}

// NewClient creates a client.
func NewClient(doer transport.Doer, baseURL string, useCache bool) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{doer: doer, baseURL: strings.TrimRight(baseURL, "/"), useCache: useCache}
}

// Show fetches a show, optionally embedding its episode list.
func (c *Client) Show(ctx context.Context, id string, embedEpisodes bool) (*Show, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Show
	if err := c.get(ctx, "/shows/"+n, embedParams(embedEpisodes), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShowSearch lists shows whose name matches query, best match first.
func (c *Client) ShowSearch(ctx context.Context, query string) ([]ShowMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.Validation(providerName, "search query is required")
	}
	var out []ShowMatch
	if err := c.get(ctx, "/search/shows", url.Values{"q": {query}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShowSingleSearch returns the single best match for query.
func (c *Client) ShowSingleSearch(ctx context.Context, query string, embedEpisodes bool) (*Show, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.Validation(providerName, "search query is required")
	}
	params := embedParams(embedEpisodes)
	if params == nil {
		params = url.Values{}
	}
	params.Set("q", query)
	var out Show
	if err := c.get(ctx, "/singlesearch/shows", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShowLookup finds a show by its IMDb or TVDb id. Exactly one is given.
func (c *Client) ShowLookup(ctx context.Context, imdbID, tvdbID string) (*Show, error) {
	imdbID, tvdbID = strings.TrimSpace(imdbID), strings.TrimSpace(tvdbID)
	params := url.Values{}
	switch {
	case imdbID != "" && tvdbID != "":
		return nil, errs.Validation(providerName, "lookup takes either an IMDb id or a TVDb id, not both")
	case imdbID != "":
		params.Set("imdb", imdbID)
	case tvdbID != "":
		n, err := numericID(tvdbID)
		if err != nil {
			return nil, err
		}
		params.Set("thetvdb", n)
	default:
		return nil, errs.Validation(providerName, "lookup needs an IMDb id or a TVDb id")
	}
	var out Show
	if err := c.get(ctx, "/lookup/shows", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShowEpisodes lists every episode of a show.
func (c *Client) ShowEpisodes(ctx context.Context, id string, specials bool) ([]Episode, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var params url.Values
	if specials {
		params = url.Values{"specials": {"1"}}
	}
	var out []Episode
	if err := c.get(ctx, "/shows/"+n+"/episodes", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EpisodesByDate lists the episodes of a show aired on date.
func (c *Client) EpisodesByDate(ctx context.Context, id string, date time.Time) ([]Episode, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, errs.Validation(providerName, "air date is required")
	}
	var out []Episode
	params := url.Values{"date": {date.Format(dateLayout)}}
	if err := c.get(ctx, "/shows/"+n+"/episodesbydate", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EpisodeByNumber fetches one episode by season and number.
func (c *Client) EpisodeByNumber(ctx context.Context, id string, season, number int) (*Episode, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	if season < 0 || number < 0 {
		return nil, errs.Validation(providerName, "season and episode must not be negative")
	}
	params := url.Values{
		"season": {strconv.Itoa(season)},
		"number": {strconv.Itoa(number)},
	}
	var out Episode
	if err := c.get(ctx, "/shows/"+n+"/episodebynumber", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.doer.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		URL:      c.baseURL + path,
		Params:   params,
		UseCache: c.useCache,
	})
	if err != nil {
		return err
	}
	if resp.Status == StatusRateLimited {
		return &errs.Error{
			Provider: providerName,
			Kind:     errs.ErrNetwork,
			Code:     errs.CodeRateLimited,
			Message:  "request budget exceeded",
			Retry:    true,
		}
	}
	if err := errs.FromStatus(providerName, resp.Status); err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return errs.Network(providerName, err, "decode response")
	}
	return nil
}

func embedParams(episodes bool) url.Values {
	if !episodes {
		return nil
	}
	return url.Values{"embed": {"episodes"}}
}

func numericID(id string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n <= 0 {
		return "", errs.Validation(providerName, "id must be a positive number, got %q", id)
	}
	return strconv.Itoa(n), nil
}
