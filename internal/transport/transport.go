// Package transport performs the HTTP requests issued by endpoint clients,
// with an optional response cache, rate limit and per-call timeout.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Digital-Shane/namer/internal/errs"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

const maxBodySize = 8 << 20

// Request describes one HTTP call.
type Request struct {
	Method   string
	URL      string
	Params   url.Values
	Body     any // JSON encoded when non-nil
	Headers  map[string]string
	UseCache bool
}

// Response is the raw outcome of a call. Status is passed through
// unchanged; interpreting it is the caller's job.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body decodes to nothing.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Doer is implemented by *Client and by test fakes.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Client executes requests for one upstream service.
type Client struct {
	name       string
	httpClient *http.Client
	cache      *Cache
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCache enables response caching for requests that ask for it.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRateLimit spaces requests to at most limit per second with the given burst.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.limiter = rate.NewLimiter(limit, burst)
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client. name labels errors and log lines.
func New(name string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "transport").Str("service", name).Logger()
	return c
}

// Do performs req. Transport failures, timeouts included, are reported as
// network errors; any HTTP status is returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := buildURL(req.URL, req.Params)
	if err != nil {
		return nil, errs.Validation(c.name, "invalid url %q", req.URL)
	}

	var payload []byte
	if req.Body != nil {
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, errs.Validation(c.name, "encode request body: %v", err)
		}
	}

	var key string
	if req.UseCache && c.cache != nil {
		key = cacheKey(method, target, payload, req.Headers)
		if resp, ok := c.cache.get(key); ok {
			c.logger.Trace().Str("url", target).Msg("cache hit")
			return resp, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errs.Network(c.name, err, "rate limit wait")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errs.Validation(c.name, "build request: %v", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errs.Network(c.name, err, "%s %s", method, req.URL)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, errs.Network(c.name, err, "read response body")
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", req.URL).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	resp := &Response{Status: httpResp.StatusCode, Body: data}
	if key != "" && resp.Status >= 200 && resp.Status < 300 {
		c.cache.set(key, resp)
	}
	return resp, nil
}

func buildURL(raw string, params url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("missing scheme or host")
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
