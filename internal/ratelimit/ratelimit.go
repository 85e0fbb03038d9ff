// Package ratelimit wraps the todos API HTTP client so 429 responses are
// retried with exponential backoff before giving up.
package ratelimit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// NoRetries as Config.MaxRetries sends each request once, even when it gets 429.
const NoRetries = -1

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxDelay   = 8 * time.Second
)

// Config tunes how a Client backs off when the API throttles it.
type Config struct {
	HTTPClient *http.Client // nil means a client with a 30s timeout

	// MaxRetries caps the re-sends after a 429. Zero picks the default of 3
	// and NoRetries turns retrying off.
	MaxRetries int

	BaseDelay time.Duration // first backoff step, 500ms when unset
	MaxDelay  time.Duration // backoff and Retry-After ceiling, 8s when unset

	// EnableJitter spreads each delay over 80-120% of its computed value.
	EnableJitter bool

	Stats   *Stats // optional, counts every 429 seen
	Service string // shown in RateLimitError
}

// Client sends todos API requests and absorbs short bursts of throttling.
type Client struct {
	httpClient   *http.Client
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	enableJitter bool
	stats        *Stats
	service      string
}

// NewClient fills in defaults for every unset Config field.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}

	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	return &Client{
		httpClient:   httpClient,
		maxRetries:   maxRetries,
		baseDelay:    baseDelay,
		maxDelay:     maxDelay,
		enableJitter: cfg.EnableJitter,
		stats:        cfg.Stats,
		service:      cfg.Service,
	}
}

// HTTPClient exposes the wrapped client so callers can close idle connections.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Do sends the request and re-sends it while the API answers 429, up to
// the configured retry count. The body is read once and replayed on each
// attempt. Any other status is returned to the caller untouched.
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, header http.Header) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = io.ReadAll(body); err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := newRequest(ctx, method, url, payload, header)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if c.stats != nil {
			c.stats.RecordRateLimit()
		}
		if attempt >= c.maxRetries {
			return nil, &RateLimitError{
				Service:     c.service,
				Attempt:     attempt,
				MaxAttempts: c.maxRetries,
			}
		}

		delay := c.calculateBackoff(attempt, ParseRetryAfter(resp.Header.Get("Retry-After")))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func newRequest(ctx context.Context, method, url string, payload []byte, header http.Header) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// calculateBackoff prefers the server's Retry-After and otherwise doubles
// the base delay per attempt, both capped at maxDelay.
func (c *Client) calculateBackoff(attempt int, retryAfter *time.Duration) time.Duration {
	if retryAfter != nil {
		if *retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return *retryAfter
	}

	// base * 2^attempt
	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt)))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}

	if c.enableJitter {
		jitterFactor := 0.8 + rand.Float64()*0.4
		delay = time.Duration(float64(delay) * jitterFactor)
	}

	return delay
}

// RateLimitError means the API kept answering 429 after every retry.
// The server is reachable, it just refuses to serve us right now.
type RateLimitError struct {
	Service     string
	Attempt     int
	MaxAttempts int
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	service := e.Service
	if service == "" {
		service = "API"
	}
	return fmt.Sprintf("%s rate limit exceeded after %d retries (max %d)", service, e.Attempt, e.MaxAttempts)
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date. It returns nil when the header is absent or unusable.
func ParseRetryAfter(value string) *time.Duration {
	if value == "" {
		return nil
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		if seconds < 0 {
			return nil
		}
		d := time.Duration(seconds) * time.Second
		return &d
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &d
	}

	return nil
}

// Stats counts how often the API throttled this client. Safe for concurrent use.
type Stats struct {
	mu              sync.RWMutex
	rateLimitCount  int64
	lastRateLimitAt time.Time
}

// NewStats returns an empty counter.
func NewStats() *Stats {
	return &Stats{}
}

// RecordRateLimit notes one 429 response.
func (s *Stats) RecordRateLimit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimitCount++
	s.lastRateLimitAt = time.Now()
}

// RateLimitCount is the number of 429 responses seen so far.
func (s *Stats) RateLimitCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rateLimitCount
}

// LastRateLimitTime is when the latest 429 arrived, zero if none has.
func (s *Stats) LastRateLimitTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRateLimitAt
}
