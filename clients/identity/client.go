// Package identity is the typed client for the Auth/Profile service.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	api "controlroom/pkg/api/identity"
	"controlroom/pkg/auth"
	"controlroom/pkg/clients"
	"controlroom/pkg/logging"
	"controlroom/pkg/models"
)

// Client represents an identity API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	store       auth.Store
	logger      logging.Logger
	retryConfig clients.RetryConfig
}

// Config represents the configuration for the identity client
type Config struct {
	BaseURL              string
	Store                auth.Store
	Timeout              time.Duration
	Logger               logging.Logger
	RetryConfig          *clients.RetryConfig
	CircuitBreakerConfig *clients.CircuitBreakerConfig
}

// NewClient creates a new identity API client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	retryConfig := clients.DefaultRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}
	if config.CircuitBreakerConfig != nil {
		retryConfig.CircuitBreaker = clients.NewCircuitBreaker(*config.CircuitBreakerConfig)
	}

	return &Client{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: clients.DefaultTransport(),
		},
		store:       config.Store,
		logger:      config.Logger,
		retryConfig: retryConfig,
	}
}

// Login authenticates with email and password. On success the session and
// profile are written to the credential store.
func (c *Client) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	var out api.LoginResponse
	err := c.post(ctx, "/api/auth/login", api.LoginRequest{Email: email, Password: password}, &out, false)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	c.store.SetSession(auth.Session{Token: out.Token, RefreshToken: out.RefreshToken})
	c.store.SetProfile(out.Profile)
	return out.Profile, nil
}

// RefreshProfile fetches the current profile. A 401 triggers one token
// rotation before the call is retried, which covers the race where the
// access token expired between two dashboard actions.
func (c *Client) RefreshProfile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := c.get(ctx, "/api/auth/profile", &profile, true)
	if err != nil {
		return nil, fmt.Errorf("profile refresh failed: %w", err)
	}
	return &profile, nil
}

// RotateToken exchanges the refresh token for a new session and stores it.
func (c *Client) RotateToken(ctx context.Context) error {
	refresh := c.store.RefreshToken()
	if refresh == "" {
		return auth.ErrUnauthenticated
	}

	var out api.RefreshTokenResponse
	if err := c.post(ctx, "/api/auth/refresh", api.RefreshTokenRequest{RefreshToken: refresh}, &out, false); err != nil {
		return fmt.Errorf("token rotation failed: %w", err)
	}
	c.store.SetSession(auth.Session{Token: out.Token, RefreshToken: out.RefreshToken})
	return nil
}

// Logout clears the credential store. The server-side session revocation is
// best-effort; a failed call still logs the user out locally.
func (c *Client) Logout(ctx context.Context) {
	if err := c.post(ctx, "/api/auth/logout", struct{}{}, nil, true); err != nil {
		c.logger.WithError(err).Debug("Server-side logout failed")
	}
	c.store.Clear()
}

func (c *Client) get(ctx context.Context, endpoint string, out any, authed bool) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out, authed)
}

func (c *Client) post(ctx context.Context, endpoint string, in, out any, authed bool) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, endpoint, body, out, authed)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any, authed bool) error {
	status, err := c.doOnce(ctx, method, endpoint, body, out, authed)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && authed {
		// Race with token expiry: rotate once and retry.
		if err := c.RotateToken(ctx); err != nil {
			return err
		}
		status, err = c.doOnce(ctx, method, endpoint, body, out, authed)
		if err != nil {
			return err
		}
	}
	if status == http.StatusUnauthorized {
		return auth.ErrUnauthenticated
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("identity API returned status %d", status)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte, out any, authed bool) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.store.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := clients.DoWithRetry(ctx, c.httpClient, req, c.retryConfig)
	if err != nil {
		return 0, fmt.Errorf("failed to call identity API: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
