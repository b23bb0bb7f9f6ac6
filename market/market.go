// Package market talks to the platform's app market API: account
// login, update polling and availability pings.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/errors"
)

const defaultMaxAttempts = 3

// UserInfo is the market's description of an account.
type UserInfo struct {
	Alias string `json:"alias"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is an authenticated market session.
type Session struct {
	UserInfo
	Token string `json:"token"`
}

// Client is an HTTP client for the market API. Requests are rate
// limited and transient failures are retried with exponential backoff.
type Client struct {
	baseURL     string
	http        *http.Client
	limiter     ratelimit.Limiter
	maxAttempts int
	retryWait   *backoff.Backoff
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.http = c
	}
}

func WithMaxAttempts(n int) ClientOption {
	return func(client *Client) {
		client.maxAttempts = n
	}
}

func WithRetryWait(min, max time.Duration) ClientOption {
	return func(client *Client) {
		client.retryWait.Min = min
		client.retryWait.Max = max
	}
}

func NewClient(cfg *configs.Config, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:     strings.TrimRight(cfg.MarketAPIURL, "/"),
		http:        &http.Client{Timeout: cfg.MarketRequestTimeout},
		limiter:     ratelimit.New(cfg.MarketMaxRequestRate),
		maxAttempts: defaultMaxAttempts,
		retryWait: &backoff.Backoff{
			Min:    500 * time.Millisecond,
			Max:    10 * time.Second,
			Jitter: true,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Ping checks market availability.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping/", nil, "", nil)
}

// Login authenticates an account. Invalid credentials surface as a 401
// RequestError.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/login/", body, "", &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// Logout invalidates a market session token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout/", nil, token, nil)
}

// LatestAppVersions returns the latest published version per app id,
// scoped to a platform target version. Apps unknown to the market are
// absent from the result.
func (c *Client) LatestAppVersions(ctx context.Context, appIDs []string, target string) (map[string]string, error) {
	body := map[string]interface{}{"ids": appIDs}
	if target != "" {
		body["target"] = target
	}

	var versions map[string]string
	if err := c.do(ctx, http.MethodPost, "/apps/latest/", body, "", &versions); err != nil {
		return nil, err
	}

	return versions, nil
}

// do runs one rate limited request with retries on transient errors.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, token string, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	c.retryWait.Reset()

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryWait.Duration()):
			case <-ctx.Done():
				return ctx.Err()
			}
			log.WithFields(log.Fields{"path": path, "attempt": attempt + 1}).
				Debug("Retrying market request")
		}

		c.limiter.Take()

		retryable, err := c.doOnce(ctx, method, path, payload, token, out)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("market request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, token string, out interface{}) (retryable bool, err error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return false, err
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return false, &errors.RequestError{
			StatusCode: http.StatusUnauthorized,
			Err:        fmt.Errorf("market authentication failed"),
		}
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("market responded with status %d", resp.StatusCode)
	default:
		b, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("market responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("could not decode market response: %w", err)
		}
	}

	return false, nil
}
