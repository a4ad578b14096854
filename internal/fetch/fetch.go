// Package fetch is the outbound HTTP collaborator used by the pipeline.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of zero leaves retrying to the caller.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config bundles HTTP client and resilience settings.
type Config struct {
	Name    string
	Client  *http.Client
	Backoff BackoffConfig

	// OnStateChange is called when the circuit breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

var (
	// ErrStatus wraps every non-2xx response.
	ErrStatus = errors.New("unexpected status code")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// StatusError carries the status of a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d from %s", ErrStatus, e.Code, e.URL)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Client fetches raw bytes or JSON bodies through a circuit breaker.
type Client struct {
	cfg     Config
	circuit *gobreaker.CircuitBreaker
}

// New creates a Client. A nil http.Client falls back to http.DefaultClient.
func New(cfg Config) *Client {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Backoff.InitialInterval <= 0 {
		cfg.Backoff.InitialInterval = 500 * time.Millisecond
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return &Client{
		cfg:     cfg,
		circuit: gobreaker.NewCircuitBreaker(settings),
	}
}

// Get returns the full body of a successful GET. Any non-2xx response is
// an error; partial content is never returned.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.doWithResilience(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

// GetJSON decodes the body of a successful GET into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// doWithResilience executes the request through the circuit breaker and,
// when configured, retries with exponential backoff.
func (c *Client) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) ([]byte, error) {
	if c.cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if c.cfg.Backoff.MaxRetries < 0 {
		return nil, errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil, &StatusError{URL: req.URL.String(), Code: resp.StatusCode}
			}
			return io.ReadAll(resp.Body)
		})
		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		if attempt >= c.cfg.Backoff.MaxRetries || !retryable(err) {
			return nil, err
		}

		delay := c.cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.cfg.Backoff.MaxInterval && c.cfg.Backoff.MaxInterval > 0 {
			delay = c.cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// retryable reports whether err is worth another attempt: transport
// failures, 429 and 5xx.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}
