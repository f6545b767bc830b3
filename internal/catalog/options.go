package catalog

import (
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://pokeapi.co/api/v2"
	DefaultTimeout = 5 * time.Second
)

// Config holds the construction parameters of a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns the public PokeAPI address with a 5 second timeout.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: "pokedex-api/1.0",
	}
}

// Recorder observes every outbound call. Outcome is "ok" or the error Kind.
type Recorder interface {
	ObserveCatalogCall(operation, outcome string, duration time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled HTTP client. Its Timeout is left as given.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRecorder attaches a call observer, typically the metrics registry.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}
