// Package geocode resolves shipment addresses to coordinates through a
// third-party lookup service with a strict request-spacing limit.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dispatch-next/internal/config"
)

var (
	ErrDisabled      = errors.New("geocode disabled")
	ErrLookupFailed  = errors.New("geocode lookup failed")
	ErrNoResult      = errors.New("geocode no result")
	ErrEmptyAddress  = errors.New("geocode empty address")
	ErrInvalidConfig = errors.New("geocode config invalid")
)

// Result resolved coordinates for an address
type Result struct {
	Latitude  float64 `json:"lat,string"`
	Longitude float64 `json:"lon,string"`
}

// Client throttled geocode client. The throttle is process wide: the
// upstream service enforces roughly one request per second per key, so
// concurrent lookups are serialized with a minimum spacing.
type Client struct {
	enabled     bool
	baseURL     string
	apiKey      string
	minInterval time.Duration
	httpClient  *http.Client

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient builds a geocode client from configuration
func NewClient(cfg *config.GeocodeConfig) *Client {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false}
	}
	interval := time.Duration(cfg.MinIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 1100 * time.Millisecond
	}
	return &Client{
		enabled:     true,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		minInterval: interval,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether lookups are available
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.baseURL != ""
}

// Lookup resolves an address string to coordinates. Callers treat failures
// as soft: a shipment saves fine without coordinates.
func (c *Client) Lookup(ctx context.Context, address string) (*Result, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + "/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", ErrLookupFailed, resp.StatusCode)
	}

	var results []Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}
	return &results[0], nil
}

// throttle blocks until the minimum spacing since the previous request has
// elapsed, or the context is cancelled.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.minInterval - now.Sub(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
