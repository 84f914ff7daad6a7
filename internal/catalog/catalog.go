// Package catalog fetches the Star Wars film catalog from SWAPI.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// DefaultURL is the SWAPI films endpoint.
const DefaultURL = "https://swapi.dev/api/films"

// Film is one record of the catalog, in the shape SWAPI returns it.
// Director and Producer may hold several comma separated names.
type Film struct {
	Title        string `json:"title"`
	OpeningCrawl string `json:"opening_crawl"`
	Director     string `json:"director"`
	Producer     string `json:"producer"`
	ReleaseDate  string `json:"release_date"`
}

// Films is the body of the films endpoint.
type Films struct {
	Count   int    `json:"count"`
	Results []Film `json:"results"`
}

// RemoteError reports a failed call to the catalog. StatusCode is the HTTP
// status the catalog answered with, or zero when no response was received.
type RemoteError struct {
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("catalog request failed: %v", e.Err)
	}
	return fmt.Sprintf("catalog request failed with status code %d", e.StatusCode)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Config holds the client settings.
type Config struct {
	URL     string
	Timeout time.Duration
	// FailureThreshold consecutive failures open the circuit breaker for
	// OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client calls the films endpoint through a circuit breaker.
type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Films]
}

// New returns a Client. Zero config values fall back to sensible defaults.
func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	threshold := cfg.FailureThreshold
	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*Films](gobreaker.Settings{
			Name:    "swapi",
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
	}
}

// Films fetches the whole catalog. Transport failures and non-2xx answers are
// reported as *RemoteError; an undecodable body is returned as a plain error.
func (c *Client) Films(ctx context.Context) (*Films, error) {
	films, err := c.breaker.Execute(func() (*Films, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &RemoteError{StatusCode: http.StatusServiceUnavailable, Err: err}
		}
		return nil, err
	}
	return films, nil
}

func (c *Client) fetch(ctx context.Context) (*Films, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &RemoteError{StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var films Films
	if err := json.NewDecoder(resp.Body).Decode(&films); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return &films, nil
}
