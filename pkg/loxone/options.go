package loxone

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// DefaultResolverEndpoint is the Loxone cloud DNS service.
const DefaultResolverEndpoint = "https://dns.loxonecloud.com"

// ClientOption configures a Client.
type ClientOption func(*clientConfig) error

// clientConfig holds the configuration for a Client.
type clientConfig struct {
	resolverEndpoint   string
	timeout            time.Duration
	insecureSkipVerify bool
	httpClient         *http.Client
	cache              Cache
	maxReconnects      int
	logger             *slog.Logger
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		resolverEndpoint:   DefaultResolverEndpoint,
		timeout:            10 * time.Second,
		insecureSkipVerify: true,
		httpClient:         nil,
		cache:              nil,
		maxReconnects:      1,
		logger:             nil,
	}
}

// WithResolverEndpoint sets the base URL of the IP resolver service.
// Default is DefaultResolverEndpoint.
func WithResolverEndpoint(endpoint string) ClientOption {
	return func(c *clientConfig) error {
		if endpoint == "" {
			return errors.New("resolver endpoint must not be empty")
		}
		c.resolverEndpoint = endpoint
		return nil
	}
}

// WithTimeout sets the connect and read timeout applied to every request.
// Default is 10 seconds. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithInsecureSkipVerify controls TLS certificate validation for device
// requests. Miniservers serve self-signed certificates (or none at all), so
// validation is skipped by default. Ignored when WithHTTPClient is used.
func WithInsecureSkipVerify(skip bool) ClientOption {
	return func(c *clientConfig) error {
		c.insecureSkipVerify = skip
		return nil
	}
}

// WithHTTPClient replaces the HTTP client built from the timeout and TLS
// options.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithCache sets the store used to persist resolved IP addresses between
// clients. By default every client gets its own MemoryCache.
func WithCache(cache Cache) ClientOption {
	return func(c *clientConfig) error {
		if cache == nil {
			return errors.New("cache must not be nil")
		}
		c.cache = cache
		return nil
	}
}

// WithMaxReconnects sets how many times an operation re-resolves the
// Miniserver IP after a connection failure before giving up.
// Default is 1.
func WithMaxReconnects(n int) ClientOption {
	return func(c *clientConfig) error {
		if n < 0 {
			return errors.New("max reconnects must not be negative")
		}
		c.maxReconnects = n
		return nil
	}
}

// WithLogger sets a structured logger for debug and error logging.
// By default, no logging is performed.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}
