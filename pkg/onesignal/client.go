// Package onesignal is a client for the OneSignal REST API. It sends notifications to
// every device, to external user ids or to segments, manages segments and segment
// membership, and memoizes read operations in an injected cache.
package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tinywideclouds/go-onesignal/pkg/cache"
	"github.com/tinywideclouds/go-onesignal/pkg/onesignal/config"
)

// Client talks to one OneSignal application. It is safe for concurrent use.
type Client struct {
	appID       string
	restAPIKey  string
	defaultIcon string
	language    string
	baseURL     *url.URL
	ttl         time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Client
	logger     *slog.Logger
}

// New validates cfg and prepares an authenticated transport. A nil store disables
// caching; a nil logger falls back to slog.Default().
func New(cfg config.Config, store cache.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrConfiguration, err)
	}
	if store == nil {
		store = cache.NewNop()
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(math.Ceil(cfg.RequestsPerSecond)))
	}

	return &Client{
		appID:       cfg.AppID,
		restAPIKey:  cfg.RESTAPIKey,
		defaultIcon: cfg.DefaultIcon,
		language:    cfg.Language,
		baseURL:     baseURL,
		ttl:         cfg.Cache.TTL,
		httpClient:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
		limiter:     limiter,
		cache:       store,
		logger:      logger.With("component", "OneSignalClient", "app_id", cfg.AppID),
	}, nil
}

// AppID returns the application the client is bound to.
func (c *Client) AppID() string { return c.appID }

type apiResponse struct {
	status int
	body   []byte
}

// do performs a single request. Any status >= 400 is a TransportError.
func (c *Client) do(ctx context.Context, op, method string, path []string, query url.Values, body any) (*apiResponse, error) {
	joined := strings.Join(path, "/")
	fail := func(status int, respBody []byte, err error) error {
		return &TransportError{Op: op, Method: method, Path: joined, StatusCode: status, Body: string(respBody), Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(0, nil, err)
		}
	}

	escaped := make([]string, len(path))
	for i, p := range path {
		escaped[i] = url.PathEscape(p)
	}
	u := c.baseURL.JoinPath(escaped...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fail(0, nil, fmt.Errorf("failed to marshal payload: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fail(0, nil, err)
	}
	req.Header.Set("Authorization", "Basic "+c.restAPIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(0, nil, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(resp.StatusCode, nil, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fail(resp.StatusCode, respBody, ErrUnexpectedStatus)
	}
	return &apiResponse{status: resp.StatusCode, body: respBody}, nil
}

// doJSON performs a request and decodes the body into dest. An empty body leaves dest untouched.
func (c *Client) doJSON(ctx context.Context, op, method string, path []string, query url.Values, body, dest any) error {
	resp, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, dest); err != nil {
		return &TransportError{
			Op:     op,
			Method: method,
			Path:   strings.Join(path, "/"),
			Body:   string(resp.body),
			Err:    fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// --- Read-through cache ---

// lookup reports whether key holds a value and decodes it into dest.
// Backend failures count as a miss.
func (c *Client) lookup(ctx context.Context, key string, dest any) bool {
	err := c.cache.Get(ctx, key, dest)
	if err == nil {
		c.logger.Debug("Cache hit", "key", key)
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("Cache read failed, fetching from provider", "key", key, "err", err)
	}
	return false
}

// store populates the cache. Caching is an optimization, so failures are only logged.
func (c *Client) store(ctx context.Context, key string, value any) {
	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "err", err)
	}
}

func (c *Client) invalidate(ctx context.Context, key string) {
	if err := c.cache.Del(ctx, key); err != nil {
		c.logger.Warn("Cache invalidation failed", "key", key, "err", err)
	}
}

// remember returns the cached value under key, or computes, caches and returns it.
func remember[T any](ctx context.Context, c *Client, key string, compute func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	fresh, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

func segmentsKey(appID string) string {
	return fmt.Sprintf("onesignal:segments:%s", appID)
}

func segmentCreateKey(appID, name string) string {
	return fmt.Sprintf("onesignal:segment_create:%s:%s", appID, name)
}

func segmentNameKey(appID, segmentID string) string {
	return fmt.Sprintf("onesignal:segment_name:%s:%s", appID, segmentID)
}

func devicesKey(appID string, limit, offset int) string {
	return fmt.Sprintf("onesignal:devices:%s:limit%d:offset%d", appID, limit, offset)
}

func usersSegmentKey(appID, tagKey string, limit, offset int) string {
	return fmt.Sprintf("onesignal:users_segment:%s:%s:limit%d:offset%d", appID, tagKey, limit, offset)
}
