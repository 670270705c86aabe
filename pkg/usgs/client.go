// Package usgs is a small client for the USGS Water Services instantaneous
// (iv) and daily (dv) value endpoints.
package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultBaseURL = "https://waterservices.usgs.gov/nwis"
	DefaultTimeout = 30 * time.Second

	endpointIV = "iv"
	endpointDV = "dv"

	dateLayout = "2006-01-02"
)

var (
	// ErrUpstream marks transport failures, non-200 responses and
	// undecodable bodies from Water Services.
	ErrUpstream = errors.New("usgs upstream failure")
	// ErrInvalidQuery is returned before any request is made.
	ErrInvalidQuery = errors.New("invalid usgs query")
)

// Error describes a failed Water Services request.
type Error struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("usgs %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("usgs %s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrUpstream }

// Observer receives per-request timings and cache hits.
type Observer interface {
	Upstream(endpoint string, d time.Duration, err error)
	UpstreamCacheHit(endpoint string)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// CacheTTL enables response caching keyed by request URL. Zero disables.
	CacheTTL time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	observer   Observer
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client; its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query selects sites for an instantaneous-values request. Exactly one of
// StateCd, CountyCd or Sites must be set.
type Query struct {
	StateCd      string
	CountyCd     string
	Sites        []string
	ActiveOnly   bool
	ParameterCds []string
}

func (q Query) values() (url.Values, error) {
	selectors := 0
	v := url.Values{}
	v.Set("format", "json")
	if q.StateCd != "" {
		selectors++
		v.Set("stateCd", q.StateCd)
	}
	if q.CountyCd != "" {
		selectors++
		v.Set("countyCd", q.CountyCd)
	}
	if len(q.Sites) > 0 {
		selectors++
		v.Set("sites", strings.Join(q.Sites, ","))
	}
	if selectors != 1 {
		return nil, fmt.Errorf("%w: exactly one of stateCd, countyCd, sites is required", ErrInvalidQuery)
	}
	if q.ActiveOnly {
		v.Set("siteStatus", "active")
	}
	if len(q.ParameterCds) > 0 {
		v.Set("parameterCd", strings.Join(q.ParameterCds, ","))
	}
	return v, nil
}

// InstantValues fetches the latest readings for the sites selected by q.
func (c *Client) InstantValues(ctx context.Context, q Query) (*Response, error) {
	v, err := q.values()
	if err != nil {
		return nil, err
	}
	return c.get(ctx, endpointIV, v)
}

// DailyValues fetches daily statistics for one site and parameter between
// start and end (dates only, inclusive).
func (c *Client) DailyValues(ctx context.Context, site string, start, end time.Time, parameterCd string) (*Response, error) {
	if site == "" {
		return nil, fmt.Errorf("%w: site is required", ErrInvalidQuery)
	}
	v := url.Values{}
	v.Set("format", "json")
	v.Set("sites", site)
	v.Set("startDT", start.Format(dateLayout))
	v.Set("endDT", end.Format(dateLayout))
	if parameterCd != "" {
		v.Set("parameterCd", parameterCd)
	}
	return c.get(ctx, endpointDV, v)
}

func (c *Client) get(ctx context.Context, endpoint string, v url.Values) (*Response, error) {
	reqURL := c.baseURL + "/" + endpoint + "/?" + v.Encode()

	if c.cache != nil {
		if cached, found := c.cache.Get(reqURL); found {
			if resp, ok := cached.(*Response); ok {
				c.logger.Debug("usgs cache hit", "endpoint", endpoint, "url", reqURL)
				if c.observer != nil {
					c.observer.UpstreamCacheHit(endpoint)
				}
				return resp, nil
			}
		}
	}

	start := time.Now()
	resp, err := c.fetch(ctx, endpoint, reqURL)
	if c.observer != nil {
		c.observer.Upstream(endpoint, time.Since(start), err)
	}
	if err != nil {
		c.logger.Warn("usgs request failed", "endpoint", endpoint, "url", reqURL, "error", err)
		return nil, err
	}
	c.logger.Debug("usgs request",
		"endpoint", endpoint,
		"url", reqURL,
		"series", len(resp.Value.TimeSeries),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if c.cache != nil {
		c.cache.Set(reqURL, resp, cache.DefaultExpiration)
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, reqURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Err: err}
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.logger.Debug("usgs close body", "error", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &Error{
			Endpoint:   endpoint,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))),
		}
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}
