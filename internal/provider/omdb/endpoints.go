package omdb

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/Digital-Shane/omdb"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/transport"
)

const providerName = "omdb"

// MaxPage is the highest page the search endpoint serves.
const MaxPage = 100

var imdbIDRe = regexp.MustCompile(`^tt\d+$`)

// TitleResponse is the body of a by-id or by-title lookup.
type TitleResponse struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Released string `json:"Released"`
	Plot     string `json:"Plot"`
	ImdbID   string `json:"imdbID"`
	Type     string `json:"Type"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// SearchEntry is one row of a search page.
type SearchEntry struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Search       []SearchEntry `json:"Search"`
	TotalResults string        `json:"totalResults"`
	Response     string        `json:"Response"`
	Error        string        `json:"Error"`
}

// TitleParams selects a single title. Exactly one of ID and Title is set.
type TitleParams struct {
	ID    string
	Title string
	Year  string
	Media string // "", movie, series or episode
	Plot  string // "", short or full
}

// SearchParams selects a page of search results.
type SearchParams struct {
	Query string
	Year  string
	Media string
	Page  int
}

// Client calls the OMDb HTTP API.
type Client struct {
	doer     transport.Doer
	apiKey   string
	baseURL  string
	useCache bool
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, doer transport.Doer, baseURL string, useCache bool) *Client {
	if baseURL == "" {
		baseURL = omdb.DefaultURL
	}
	return &Client{doer: doer, apiKey: apiKey, baseURL: baseURL, useCache: useCache}
}

// Title looks up one title by IMDb id or by exact name.
func (c *Client) Title(ctx context.Context, p TitleParams) (*TitleResponse, error) {
	id, title := strings.TrimSpace(p.ID), strings.TrimSpace(p.Title)
	switch {
	case id == "" && title == "":
		return nil, errs.Validation(providerName, "title lookup requires an IMDb id or a title")
	case id != "" && title != "":
		return nil, errs.Validation(providerName, "title lookup accepts an IMDb id or a title, not both")
	case id != "" && !imdbIDRe.MatchString(id):
		return nil, errs.Validation(providerName, "invalid IMDb id %q", id)
	}
	if err := validateMedia(p.Media); err != nil {
		return nil, err
	}
	if p.Plot != "" && p.Plot != "short" && p.Plot != "full" {
		return nil, errs.Validation(providerName, "plot must be short or full, got %q", p.Plot)
	}
	year, err := validateYear(p.Year)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	setIf(params, "i", id)
	setIf(params, "t", title)
	setIf(params, "y", year)
	setIf(params, "type", p.Media)
	setIf(params, "plot", p.Plot)

	var out TitleResponse
	if err := c.get(ctx, params, &out); err != nil {
		return nil, err
	}
	if err := responseError(out.Response, out.Error); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search returns one page of titles matching query.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, errs.Validation(providerName, "search requires a query")
	}
	if err := validateMedia(p.Media); err != nil {
		return nil, err
	}
	page := p.Page
	if page == 0 {
		page = 1
	}
	if page < 1 || page > MaxPage {
		return nil, errs.Validation(providerName, "page must be between 1 and %d, got %d", MaxPage, p.Page)
	}
	year, err := validateYear(p.Year)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("s", query)
	params.Set("page", strconv.Itoa(page))
	setIf(params, "y", year)
	setIf(params, "type", p.Media)

	var out SearchResponse
	if err := c.get(ctx, params, &out); err != nil {
		return nil, err
	}
	if err := responseError(out.Response, out.Error); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errs.InvalidCredential(providerName, "api key is required")
	}
	params.Set("apikey", c.apiKey)
	params.Set("r", "json")

	resp, err := c.doer.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		URL:      c.baseURL,
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

// responseError interprets OMDb's in-band failure flag.
func responseError(flag, message string) error {
	if !strings.EqualFold(flag, "false") {
		return nil
	}
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "api key"):
		return errs.InvalidCredential(providerName, "%s", message)
	case strings.Contains(lower, "not found"), strings.Contains(lower, "too many results"):
		return errs.NotFound(providerName, "%s", message)
	default:
		return errs.Network(providerName, nil, "%s", message)
	}
}

func validateMedia(media string) error {
	switch media {
	case "", "movie", "series", "episode":
		return nil
	}
	return errs.Validation(providerName, "media must be movie, series or episode, got %q", media)
}

func validateYear(year string) (string, error) {
	year = strings.TrimSpace(year)
	if year == "" {
		return "", nil
	}
	if _, err := strconv.Atoi(year); err != nil {
		return "", errs.Validation(providerName, "year must be numeric, got %q", year)
	}
	return year, nil
}

func setIf(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
