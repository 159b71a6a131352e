package tvdb

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/transport"
)

const (
	providerName   = "tvdb"
	defaultBaseURL = "https://api.thetvdb.com"
)

// Languages lists the codes accepted in Accept-Language.
var Languages = []string{
	"cs", "da", "de", "el", "en", "es", "fi", "fr", "he", "hr", "hu", "it",
	"ja", "ko", "nl", "no", "pl", "pt", "ru", "sl", "sv", "tr", "zh",
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	APIKey string `json:"apikey"`
}

// TokenResponse is returned by login and refresh_token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Series is a TVDb series record.
type Series struct {
	ID         int    `json:"id"`
	SeriesName string `json:"seriesName"`
	FirstAired string `json:"firstAired"`
	Overview   string `json:"overview"`
	ImdbID     string `json:"imdbId"`
}

// Episode is a TVDb episode record.
type Episode struct {
	ID                 int    `json:"id"`
	SeriesID           int    `json:"seriesId"`
	AiredSeason        *int   `json:"airedSeason"`
	AiredEpisodeNumber *int   `json:"airedEpisodeNumber"`
	EpisodeName        string `json:"episodeName"`
	FirstAired         string `json:"firstAired"`
	Overview           string `json:"overview"`
	ImdbID             string `json:"imdbId"`
}

// Links carries paging information for episode listings.
type Links struct {
	First *int `json:"first"`
	Last  *int `json:"last"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

// SeriesResponse wraps a single series.
type SeriesResponse struct {
	Data Series `json:"data"`
}

// EpisodeResponse wraps a single episode.
type EpisodeResponse struct {
	Data Episode `json:"data"`
}

// EpisodesResponse is one page of episodes.
type EpisodesResponse struct {
	Data  []Episode `json:"data"`
	Links Links     `json:"links"`
}

// SearchResponse lists series matching a search.
type SearchResponse struct {
	Data []Series `json:"data"`
}

// EpisodeQuery narrows an episode listing. Zero values are omitted.
type EpisodeQuery struct {
	AiredSeason  *int
	AiredEpisode *int
	FirstAired   string // YYYY-MM-DD
	Page         int
}

// SeriesSearch selects series. Exactly one field is set.
type SeriesSearch struct {
	Name     string
	ImdbID   string
	Zap2itID string
}

// Client calls the TVDb v3 HTTP API. Authenticated calls take the bearer
// token explicitly; token lifecycle belongs to the caller.
type Client struct {
	doer     transport.Doer
	baseURL  string
	useCache bool
}

// NewClient creates a client. Responses are cached when useCache is set,
// except for language-qualified calls.
func NewClient(doer transport.Doer, baseURL string, useCache bool) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{doer: doer, baseURL: strings.TrimRight(baseURL, "/"), useCache: useCache}
}

// Login exchanges an API key for a token.
func (c *Client) Login(ctx context.Context, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", errs.InvalidCredential(providerName, "api key is required")
	}
	resp, err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/login",
		Body:   LoginRequest{APIKey: apiKey},
	})
	if err != nil {
		return "", err
	}
	return decodeToken(resp)
}

// RefreshToken extends a token that has not yet expired.
func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errs.InvalidCredential(providerName, "no token to refresh")
	}
	resp, err := c.doer.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/refresh_token",
		Headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if err != nil {
		return "", err
	}
	return decodeToken(resp)
}

// EpisodeByID fetches one episode.
func (c *Client) EpisodeByID(ctx context.Context, token, id, lang string) (*Episode, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out EpisodeResponse
	if err := c.get(ctx, token, "/episodes/"+n, nil, lang, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// SeriesByID fetches one series.
func (c *Client) SeriesByID(ctx context.Context, token, id, lang string) (*Series, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out SeriesResponse
	if err := c.get(ctx, token, "/series/"+n, nil, lang, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// SeriesEpisodes lists one page of a series' episodes.
func (c *Client) SeriesEpisodes(ctx context.Context, token, id string, page int, lang string) (*EpisodesResponse, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	params, err := pageParams(page)
	if err != nil {
		return nil, err
	}
	var out EpisodesResponse
	if err := c.get(ctx, token, "/series/"+n+"/episodes", params, lang, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SeriesEpisodesQuery lists one page of a series' episodes matching q.
func (c *Client) SeriesEpisodesQuery(ctx context.Context, token, id string, q EpisodeQuery, lang string) (*EpisodesResponse, error) {
	n, err := numericID(id)
	if err != nil {
		return nil, err
	}
	params, err := pageParams(q.Page)
	if err != nil {
		return nil, err
	}
	if q.AiredSeason != nil {
		if *q.AiredSeason < 0 {
			return nil, errs.Validation(providerName, "season must not be negative")
		}
		params.Set("airedSeason", strconv.Itoa(*q.AiredSeason))
	}
	if q.AiredEpisode != nil {
		if *q.AiredEpisode < 0 {
			return nil, errs.Validation(providerName, "episode must not be negative")
		}
		params.Set("airedEpisode", strconv.Itoa(*q.AiredEpisode))
	}
	if q.FirstAired != "" {
		params.Set("firstAired", q.FirstAired)
	}
	var out EpisodesResponse
	if err := c.get(ctx, token, "/series/"+n+"/episodes/query", params, lang, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchSeries finds series by name, IMDb id or Zap2it id.
func (c *Client) SearchSeries(ctx context.Context, token string, s SeriesSearch, lang string) ([]Series, error) {
	params := url.Values{}
	set := 0
	for key, value := range map[string]string{"name": s.Name, "imdbId": s.ImdbID, "zap2itId": s.Zap2itID} {
		if v := strings.TrimSpace(value); v != "" {
			params.Set(key, v)
			set++
		}
	}
	if set != 1 {
		return nil, errs.Validation(providerName, "series search takes exactly one of name, imdbId or zap2itId")
	}
	var out SearchResponse
	if err := c.get(ctx, token, "/search/series", params, lang, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, token, path string, params url.Values, lang string, out any) error {
	if err := ValidateLanguage(lang); err != nil {
		return err
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	if lang != "" {
		headers["Accept-Language"] = lang
	}

	resp, err := c.doer.Do(ctx, transport.Request{
		Method:   http.MethodGet,
		URL:      c.baseURL + path,
		Params:   params,
		Headers:  headers,
		UseCache: c.useCache && lang == "",
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

// ValidateLanguage accepts "" or one of Languages.
func ValidateLanguage(lang string) error {
	if lang == "" || slices.Contains(Languages, lang) {
		return nil
	}
	return errs.Validation(providerName, "unsupported language %q", lang)
}

func decodeToken(resp *transport.Response) (string, error) {
	if err := errs.FromStatus(providerName, resp.Status); err != nil {
		return "", err
	}
	var out TokenResponse
	if err := resp.Decode(&out); err != nil {
		return "", errs.Network(providerName, err, "decode token")
	}
	if out.Token == "" {
		return "", errs.Network(providerName, nil, "empty token in response")
	}
	return out.Token, nil
}

func numericID(id string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n <= 0 {
		return "", errs.Validation(providerName, "id must be a positive number, got %q", id)
	}
	return strconv.Itoa(n), nil
}

func pageParams(page int) (url.Values, error) {
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, errs.Validation(providerName, "page must be positive, got %d", page)
	}
	return url.Values{"page": {strconv.Itoa(page)}}, nil
}
