package loxone

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// maxBodySize bounds how much of a response is read. Structure files of large
// installations are a few megabytes.
const maxBodySize = 32 << 20

// Client represents a connection to a Loxone Miniserver.
type Client struct {
	serial   string
	username string
	password string

	resolverEndpoint string
	http             *http.Client
	cache            Cache
	maxReconnects    int
	logger           *slog.Logger

	mu sync.Mutex
	ip string
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

// transportError marks a request that never produced an HTTP response.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// NewClient creates a client for the Miniserver with the given serial number.
// The IP is taken from the cache when present, otherwise it is resolved right
// away and a *ResolutionError is returned if that fails.
// Options can be provided to configure the client behavior.
func NewClient(ctx context.Context, serial, username, password string, opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if serial == "" {
		return nil, errors.New("serial number must not be empty")
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = newHTTPClient(cfg.timeout, cfg.insecureSkipVerify)
	}
	cache := cfg.cache
	if cache == nil {
		cache = NewMemoryCache()
	}

	c := &Client{
		serial:           serial,
		username:         username,
		password:         password,
		resolverEndpoint: strings.TrimRight(cfg.resolverEndpoint, "/"),
		http:             hc,
		cache:            cache,
		maxReconnects:    cfg.maxReconnects,
		logger:           cfg.logger,
	}

	if ip, ok := cache.Get(CacheKey(serial)); ok {
		if c.logger != nil {
			c.logger.Debug("using cached miniserver ip", "serial", serial, "ip", ip)
		}
		c.ip = ip
		return c, nil
	}

	ip, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.ip = ip
	return c, nil
}

func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecure} //nolint:gosec // miniservers use self-signed certificates

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// MiniserverIP returns the address all requests are currently sent to.
func (c *Client) MiniserverIP() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ip
}

// resolve asks the resolver service for the current Miniserver IP and stores
// it in the cache.
func (c *Client) resolve(ctx context.Context) (string, error) {
	reqURL := c.resolverEndpoint + "/?getip&snr=" + url.QueryEscape(c.serial) + "&json=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &ResolutionError{Err: err}
	}
	resp, err := c.send(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("resolver unreachable", "serial", c.serial, "error", err)
		}
		return "", &ResolutionError{Err: err}
	}
	if resp.status != http.StatusOK {
		return "", &ResolutionError{StatusCode: resp.status, Err: ErrUnexpectedStatus}
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return "", &ResolutionError{StatusCode: resp.status, Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)}
	}
	var payload struct {
		IPHTTPS *string `mapstructure:"IPHTTPS"`
	}
	if err := decodeWeak(raw, &payload); err != nil || payload.IPHTTPS == nil || *payload.IPHTTPS == "" {
		return "", &ResolutionError{StatusCode: resp.status, Err: ErrMissingIP}
	}
	ip := *payload.IPHTTPS

	if err := c.cache.Set(CacheKey(c.serial), ip); err != nil && c.logger != nil {
		c.logger.Warn("failed to cache miniserver ip", "serial", c.serial, "error", err)
	}
	if c.logger != nil {
		c.logger.Debug("resolved miniserver ip", "serial", c.serial, "ip", ip)
	}
	return ip, nil
}

// send performs req and reads the whole body. Errors are *transportError
// unless the request could not be built.
func (c *Client) send(req *http.Request) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read body: %w", err)}
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

// get sends an authenticated GET for path to the current Miniserver IP.
func (c *Client) get(ctx context.Context, path string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+c.MiniserverIP()+path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)

	if c.logger != nil {
		c.logger.Debug("request sent", "path", path)
	}
	return c.send(req)
}

// do sends a GET for path and, when the Miniserver cannot be reached,
// re-resolves its IP and tries again, at most maxReconnects times.
// Any HTTP response ends the loop, whatever its status.
func (c *Client) do(ctx context.Context, path string) (*response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxReconnects; attempt++ {
		if attempt > 0 {
			ip, err := c.resolve(ctx)
			if err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.ip = ip
			c.mu.Unlock()
		}

		resp, err := c.get(ctx, path)
		if err == nil {
			if c.logger != nil {
				c.logger.Debug("response received", "path", path, "status", resp.status)
			}
			return resp, nil
		}

		var te *transportError
		if !errors.As(err, &te) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request canceled: %w", ctxErr)
		}
		if c.logger != nil {
			c.logger.Warn("miniserver unreachable", "ip", c.MiniserverIP(), "attempt", attempt+1, "error", err)
		}
		lastErr = te.err
	}
	return nil, &ConnectionError{Attempts: c.maxReconnects + 1, Err: lastErr}
}

// MiniserverInfo returns the structure file as a generic map. A non-200
// status or a body that is not a JSON object yields a nil map and no error.
func (c *Client) MiniserverInfo(ctx context.Context) (map[string]any, error) {
	resp, err := c.do(ctx, "/data/LoxAPP3.json")
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, nil
	}

	var info map[string]any
	if err := json.Unmarshal(resp.body, &info); err != nil {
		if c.logger != nil {
			c.logger.Warn("invalid structure file", "error", err)
		}
		return nil, nil
	}
	return info, nil
}

// Structure returns the typed structure file.
func (c *Client) Structure(ctx context.Context) (*Structure, error) {
	const op = "read structure file"

	resp, err := c.do(ctx, "/data/LoxAPP3.json")
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, &ControlError{Op: op, StatusCode: resp.status, Err: ErrUnexpectedStatus}
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return nil, &ControlError{Op: op, StatusCode: resp.status, Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)}
	}
	s, err := DecodeStructure(raw)
	if err != nil {
		return nil, &ControlError{Op: op, StatusCode: resp.status, Err: err}
	}
	return s, nil
}

// command sends a /jdev/sps/io command for a control and returns LL.value.
func (c *Client) command(ctx context.Context, op, uuid, cmd string) (string, error) {
	resp, err := c.do(ctx, "/jdev/sps/io/"+uuid+"/"+cmd)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", &ControlError{Op: op, StatusCode: resp.status, Err: ErrUnexpectedStatus}
	}

	value, err := parseValue(resp.body)
	if err != nil {
		return "", &ControlError{Op: op, StatusCode: resp.status, Err: err}
	}
	return value, nil
}

// SwitchState reports whether the switch is on. The value is read as an
// integer, so "1" and "1.0" both count as on.
func (c *Client) SwitchState(ctx context.Context, uuid string) (bool, error) {
	value, err := c.command(ctx, "read switch state", uuid, "state")
	if err != nil {
		return false, err
	}
	return intValue(value) == 1, nil
}

// SetSwitchState turns the switch on or off and returns the state the
// Miniserver reports afterwards. Only the exact value "1" counts as on.
func (c *Client) SetSwitchState(ctx context.Context, uuid string, on bool) (bool, error) {
	cmd := "off"
	if on {
		cmd = "on"
	}
	value, err := c.command(ctx, "change switch state", uuid, cmd)
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// ControlValue returns the raw value of a control.
func (c *Client) ControlValue(ctx context.Context, uuid string) (string, error) {
	return c.command(ctx, "read control value", uuid, "state")
}

// SetControlValue sends value to a control. It returns true when the
// Miniserver echoes the same value back.
func (c *Client) SetControlValue(ctx context.Context, uuid, value string) (bool, error) {
	got, err := c.command(ctx, "set control value", uuid, value)
	if err != nil {
		return false, err
	}
	return got == value, nil
}

// ActivatePushButton sends a pulse to a push button.
func (c *Client) ActivatePushButton(ctx context.Context, uuid string) (bool, error) {
	value, err := c.command(ctx, "activate push button", uuid, "pulse")
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// SetRadioValue selects an output of a radio button control.
func (c *Client) SetRadioValue(ctx context.Context, uuid, value string) (bool, error) {
	got, err := c.command(ctx, "set radio value", uuid, value)
	if err != nil {
		return false, err
	}
	return got == "1", nil
}

// Reboot restarts the Miniserver. It reports whether the request was
// accepted with status 200. The IP is not re-resolved on failure.
func (c *Client) Reboot(ctx context.Context) bool {
	resp, err := c.get(ctx, "/dev/sys/reboot")
	if err != nil {
		if c.logger != nil {
			c.logger.Error("reboot failed", "ip", c.MiniserverIP(), "error", err)
		}
		return false
	}
	return resp.status == http.StatusOK
}
