package onesignal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-onesignal/pkg/cache"
	"github.com/tinywideclouds/go-onesignal/pkg/onesignal"
	"github.com/tinywideclouds/go-onesignal/pkg/onesignal/config"
)

const (
	testAppID   = "app-123"
	testRESTKey = "rest-key"
	testIcon    = "https://cdn.example/default.png"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorded is one request seen by the fake OneSignal API.
type recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   map[string]any
}

// fakeAPI simulates the OneSignal REST API and records what it receives.
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recorded
	respond  func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) *fakeAPI {
	t.Helper()
	api := &fakeAPI{respond: respond}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.Body))
		}
		api.mu.Lock()
		api.requests = append(api.requests, rec)
		api.mu.Unlock()

		api.respond(w, r)
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) Requests() []recorded {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]recorded(nil), a.requests...)
}

func (a *fakeAPI) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *fakeAPI) Last() recorded {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[len(a.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.AppID = testAppID
	cfg.RESTAPIKey = testRESTKey
	cfg.DefaultIcon = testIcon
	cfg.BaseURL = baseURL + "/api/v1/"
	return *cfg
}

func newTestClient(t *testing.T, api *fakeAPI, store cache.Client) *onesignal.Client {
	t.Helper()
	client, err := onesignal.New(testConfig(api.URL), store, newTestLogger())
	require.NoError(t, err)
	return client
}

// fakeClock drives clockStore expiry in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type clockEntry struct {
	value     []byte
	expiresAt time.Time
}

// clockStore is a cache.Client whose expiry follows a fakeClock. Values are stored as
// JSON, like the real backends, so cached reads go through the same round-trip.
type clockStore struct {
	mu    sync.Mutex
	clock *fakeClock
	items map[string]clockEntry
}

func newMemoryStore(clock *fakeClock) *clockStore {
	return &clockStore{clock: clock, items: map[string]clockEntry{}}
}

func (s *clockStore) Get(_ context.Context, key string, dest any) error {
	s.mu.Lock()
	e, ok := s.items[key]
	s.mu.Unlock()
	if !ok || !s.clock.Now().Before(e.expiresAt) {
		return cache.ErrMiss
	}
	return json.Unmarshal(e.value, dest)
}

func (s *clockStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[key] = clockEntry{value: b, expiresAt: s.clock.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *clockStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}
