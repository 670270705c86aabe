// Package favclient talks to the rivergauge HTTP API: station search,
// details and history, and the favorites endpoints.
package favclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	favtypes "rivergauge-server/internal/modules/favorites/types"
	"rivergauge-server/internal/modules/stations/types"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
)

// ErrAPI matches every *APIError.
var ErrAPI = errors.New("rivergauge api error")

// APIError is a failure envelope (or an unreadable response) from the server.
type APIError struct {
	StatusCode int
	Message    string
	Cause      string
}

func (e *APIError) Error() string {
	if e.Cause != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SearchStations(ctx context.Context, req types.SearchRequest) ([]types.Card, error) {
	v := url.Values{}
	if req.State != "" {
		v.Set("state", req.State)
	}
	if req.County != "" {
		v.Set("county", req.County)
	}
	var cards []types.Card
	if err := c.do(ctx, http.MethodGet, "/api/stations?"+v.Encode(), nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) StationDetails(ctx context.Context, site string) (types.Detail, error) {
	var d types.Detail
	err := c.do(ctx, http.MethodGet, "/api/stations/"+url.PathEscape(site), nil, &d)
	return d, err
}

// StationHistory fetches daily temperatures; days <= 0 uses the server default.
func (c *Client) StationHistory(ctx context.Context, site string, days int) ([]types.ChartPoint, error) {
	path := "/api/stations/" + url.PathEscape(site) + "/history"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	var points []types.ChartPoint
	if err := c.do(ctx, http.MethodGet, path, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *Client) ListFavorites(ctx context.Context, userID string) ([]favtypes.Favorite, error) {
	var favorites []favtypes.Favorite
	if err := c.do(ctx, http.MethodGet, "/api/favorites?userId="+url.QueryEscape(userID), nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (c *Client) AddFavorite(ctx context.Context, nf favtypes.NewFavorite) (favtypes.Favorite, error) {
	var fav favtypes.Favorite
	err := c.do(ctx, http.MethodPost, "/api/favorites", nf, &fav)
	return fav, err
}

func (c *Client) RemoveFavorite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/favorites?id="+url.QueryEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.logger.Debug("favclient close body", "error", err)
		}
	}()
	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", res.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: res.StatusCode, Message: "unreadable response", Cause: err.Error()}
	}
	if !env.Success || res.StatusCode >= 400 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg, Cause: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
