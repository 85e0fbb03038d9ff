// Package rest provides a backend implementation for the todos REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"todoui/backend"
	"todoui/internal/ratelimit"
	"todoui/internal/utils"
)

const (
	// DefaultBaseURL is the development API base path
	DefaultBaseURL = "http://localhost:5000/api"

	serviceName         = "todos API"
	defaultErrorMessage = "Something went wrong"

	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
)

// errServerStatus marks a 5xx response as a breaker failure
var errServerStatus = errors.New("server error status")

// Config holds todos API connection settings
type Config struct {
	BaseURL    string
	Token      string // Optional bearer token
	Timeout    time.Duration
	MaxRetries *int // nil uses the client default, 0 disables 429 retries
	RetryDelay time.Duration
	HTTPClient *http.Client // Override for testing

	// Consecutive transport failures or 5xx responses that open the
	// breaker, and how long it stays open before a trial request
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// Backend implements backend.TodoStore over HTTP
type Backend struct {
	config  Config
	client  *ratelimit.Client
	stats   *ratelimit.Stats
	breaker *gobreaker.CircuitBreaker
	pause   time.Duration
	baseURL string
}

// APIError is a non-2xx response carrying the server's error message
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", serviceName, e.StatusCode, e.Message)
}

// New creates a new todos API backend
func New(cfg Config) (*Backend, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: must be an absolute http(s) URL", baseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxRetries := 0
	if cfg.MaxRetries != nil {
		maxRetries = *cfg.MaxRetries
		if maxRetries <= 0 {
			maxRetries = ratelimit.NoRetries
		}
	}

	stats := ratelimit.NewStats()
	client := ratelimit.NewClient(ratelimit.Config{
		HTTPClient:   httpClient,
		MaxRetries:   maxRetries,
		BaseDelay:    cfg.RetryDelay,
		EnableJitter: true,
		Stats:        stats,
		Service:      serviceName,
	})

	return &Backend{
		config:  cfg,
		client:  client,
		stats:   stats,
		breaker: newBreaker(cfg),
		pause:   breakerTimeout(cfg),
		baseURL: baseURL,
	}, nil
}

func newBreaker(cfg Config) *gobreaker.CircuitBreaker {
	threshold := cfg.BreakerThreshold
	if threshold <= 0 {
		threshold = defaultBreakerThreshold
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     breakerTimeout(cfg),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			utils.Debugf("circuit breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// Cancellation and throttling both mean the server is up
			var rlErr *ratelimit.RateLimitError
			return err == nil || errors.Is(err, context.Canceled) || errors.As(err, &rlErr)
		},
	})
}

func breakerTimeout(cfg Config) time.Duration {
	if cfg.BreakerTimeout <= 0 {
		return defaultBreakerTimeout
	}
	return cfg.BreakerTimeout
}

// BreakerState reports the circuit breaker state (closed, half-open, open)
func (b *Backend) BreakerState() string {
	return b.breaker.State().String()
}

// BaseURL returns the normalized API base URL
func (b *Backend) BaseURL() string {
	return b.baseURL
}

// Stats returns rate limit statistics for this backend
func (b *Backend) Stats() *ratelimit.Stats {
	return b.stats
}

// Close releases idle connections
func (b *Backend) Close() error {
	if transport, ok := b.client.HTTPClient().Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}

// doRequest performs a todos API request
func (b *Backend) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	header := http.Header{}
	header.Set("Accept", "application/json")

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
		header.Set("Content-Type", "application/json")
	}

	requestID := uuid.New().String()
	header.Set("X-Request-ID", requestID)
	if b.config.Token != "" {
		header.Set("Authorization", "Bearer "+b.config.Token)
	}

	log := utils.GetLogger().With("request_id", requestID)
	log.Debug("api request", "method", method, "path", path)

	start := time.Now()
	var resp *http.Response
	_, err := b.breaker.Execute(func() (interface{}, error) {
		var doErr error
		resp, doErr = b.client.Do(ctx, method, b.baseURL+path, bodyReader, header)
		if doErr != nil {
			return nil, doErr
		}
		if resp.StatusCode >= 500 {
			return nil, errServerStatus
		}
		return nil, nil
	})
	if errors.Is(err, errServerStatus) {
		err = nil
	}
	if err != nil {
		log.Debug("api request failed", "err", err)
		var rlErr *ratelimit.RateLimitError
		if errors.As(err, &rlErr) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, utils.ErrRequestsPaused(serviceName, b.pause)
		}
		return nil, utils.ErrBackendOffline(serviceName, err.Error())
	}

	log.Debug("api response", "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

// checkResponse maps non-2xx responses to errors.
// notFound, when non-nil, is returned for 404.
func checkResponse(resp *http.Response, notFound error) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return utils.ErrAuthenticationFailed(serviceName)
	case http.StatusNotFound:
		if notFound != nil {
			return notFound
		}
	}

	var payload struct {
		Error string `json:"error"`
	}
	message := defaultErrorMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		message = payload.Error
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

func todoPath(id int) string {
	return "/todos/" + strconv.Itoa(id)
}

// =============================================================================
// Todo Operations
// =============================================================================

// ListTodos returns every todo in server order
func (b *Backend) ListTodos(ctx context.Context) ([]backend.Todo, error) {
	resp, err := b.doRequest(ctx, http.MethodGet, "/todos", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp, nil); err != nil {
		return nil, err
	}

	var todos []backend.Todo
	if err := json.NewDecoder(resp.Body).Decode(&todos); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}

	if todos == nil {
		todos = []backend.Todo{}
	}
	return todos, nil
}

// CreateTodo creates a new todo with the given body
func (b *Backend) CreateTodo(ctx context.Context, body string) (*backend.Todo, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, utils.ErrEmptyBody(backend.ErrEmptyBody)
	}

	resp, err := b.doRequest(ctx, http.MethodPost, "/todos", map[string]string{"body": body})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp, nil); err != nil {
		return nil, err
	}

	var created backend.Todo
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode created todo: %w", err)
	}
	return &created, nil
}

// UpdateTodo sets the completion flag of a todo
func (b *Backend) UpdateTodo(ctx context.Context, id int, completed bool) error {
	resp, err := b.doRequest(ctx, http.MethodPatch, todoPath(id), map[string]bool{"completed": completed})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return checkResponse(resp, utils.ErrTodoNotFound(id))
}

// DeleteTodo deletes a todo
func (b *Backend) DeleteTodo(ctx context.Context, id int) error {
	resp, err := b.doRequest(ctx, http.MethodDelete, todoPath(id), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return checkResponse(resp, utils.ErrTodoNotFound(id))
}

// Ensure Backend implements the interface
var _ backend.TodoStore = (*Backend)(nil)
