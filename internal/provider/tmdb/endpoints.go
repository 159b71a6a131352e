package tmdb

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	tmdb "github.com/ryanbradynd05/go-tmdb"
	"golang.org/x/text/language"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/transport"
)

const (
	providerName   = "tmdb"
	defaultBaseURL = "https://api.themoviedb.org/3"
	// MaxPage is the highest page the search endpoint serves.
	MaxPage = 1000
)

var externalSources = []string{
	"imdb_id", "freebase_mid", "freebase_id", "tvdb_id", "tvrage_id",
	"facebook_id", "twitter_id", "instagram_id",
}

// FindResponse is the body of an external id lookup.
type FindResponse struct {
	MovieResults []tmdb.MovieShort `json:"movie_results"`
}

// SearchParams selects a page of movie search results.
type SearchParams struct {
	Query        string
	Page         int
	Year         string
	Language     string
	IncludeAdult bool
}

// Client calls the TMDb v3 HTTP API.
type Client struct {
	doer     transport.Doer
	apiKey   string
	baseURL  string
	useCache bool
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, doer transport.Doer, baseURL string, useCache bool) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		doer:     doer,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		useCache: useCache,
	}
}

// Find resolves an id from another service.
func (c *Client) Find(ctx context.Context, externalID, source, lang string) (*FindResponse, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, errs.Validation(providerName, "find requires an external id")
	}
	if !slices.Contains(externalSources, source) {
		return nil, errs.Validation(providerName, "unsupported external source %q", source)
	}
	params := url.Values{"external_source": {source}}
	if err := setLanguage(params, lang); err != nil {
		return nil, err
	}

	var out FindResponse
	if err := c.get(ctx, "/find/"+url.PathEscape(externalID), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Movie fetches a movie by TMDb id.
func (c *Client) Movie(ctx context.Context, id, lang string) (*tmdb.Movie, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n <= 0 {
		return nil, errs.Validation(providerName, "movie id must be a positive number, got %q", id)
	}
	params := url.Values{}
	if err := setLanguage(params, lang); err != nil {
		return nil, err
	}

	var out tmdb.Movie
	if err := c.get(ctx, "/movie/"+strconv.Itoa(n), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchMovies returns one page of movies matching the query.
func (c *Client) SearchMovies(ctx context.Context, p SearchParams) (*tmdb.MovieSearchResults, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, errs.Validation(providerName, "search requires a query")
	}
	page := p.Page
	if page == 0 {
		page = 1
	}
	if page < 1 || page > MaxPage {
		return nil, errs.Validation(providerName, "page must be between 1 and %d, got %d", MaxPage, p.Page)
	}

	params := url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(page)},
		"include_adult": {strconv.FormatBool(p.IncludeAdult)},
	}
	if year := strings.TrimSpace(p.Year); year != "" {
		if _, err := strconv.Atoi(year); err != nil {
			return nil, errs.Validation(providerName, "year must be numeric, got %q", p.Year)
		}
		params.Set("year", year)
	}
	if err := setLanguage(params, p.Language); err != nil {
		return nil, err
	}

	var out tmdb.MovieSearchResults
	if err := c.get(ctx, "/search/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errs.InvalidCredential(providerName, "api key is required")
	}
	params.Set("api_key", c.apiKey)

	resp, err := c.doer.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		URL:      c.baseURL + path,
		Params:   params,
		UseCache: c.useCache,
	})
	if err != nil {
		return err
	}
	if err := errs.FromStatus(providerName, resp.Status); err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return errs.Network(providerName, err, "decode response")
	}
	return nil
}

// setLanguage validates a BCP 47 tag such as "en" or "pt-BR".
func setLanguage(params url.Values, lang string) error {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil
	}
	if _, err := language.Parse(lang); err != nil {
		return errs.Validation(providerName, "invalid language %q", lang)
	}
	params.Set("language", lang)
	return nil
}
