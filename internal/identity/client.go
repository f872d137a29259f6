// Package identity talks to the external identity service: account creation,
// password sign-in and refresh-token exchange. Like the document store client
// it never retries and surfaces every failure to the caller.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Credentials is what every identity operation returns: a bearer token, the
// user it belongs to, a refresh token and the token's lifetime.
type Credentials struct {
	Token        string
	UserID       string
	RefreshToken string
	ExpiresIn    time.Duration
}

// AuthFailedError reports a sign-in or refresh the identity service refused.
type AuthFailedError struct {
	StatusCode int
	Reason     string
}

func (e *AuthFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("Authentication failed: %s.", e.Reason)
	}
	return "Authentication failed. Check your email and password."
}

// Client calls the identity endpoints.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient builds an identity client rooted at baseURL.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type tokenResponse struct {
	IDToken      string `json:"idToken"`
	LocalID      string `json:"localId"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (Credentials, error) {
	return c.account(ctx, "/v1/accounts/signup", email, password)
}

// SignIn exchanges email and password for a credential.
func (c *Client) SignIn(ctx context.Context, email, password string) (Credentials, error) {
	return c.account(ctx, "/v1/accounts/signin", email, password)
}

func (c *Client) account(ctx context.Context, path, email, password string) (Credentials, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp tokenResponse
	if err := c.post(ctx, path, body, &resp); err != nil {
		return Credentials{}, err
	}
	return credentialsFrom(resp.IDToken, resp.LocalID, resp.RefreshToken, resp.ExpiresIn), nil
}

// Refresh exchanges a refresh token for a fresh credential. The refresh
// token rotates: the returned one replaces the one passed in.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Credentials, error) {
	body := map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	var resp struct {
		IDToken      string `json:"id_token"`
		UserID       string `json:"user_id"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := c.post(ctx, "/v1/token", body, &resp); err != nil {
		return Credentials{}, err
	}
	return credentialsFrom(resp.IDToken, resp.UserID, resp.RefreshToken, resp.ExpiresIn), nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := c.baseURL + path
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach the identity service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(respBody, &failure)
		c.logger.Warn("identity request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("reason", failure.Error.Message),
		)
		return &AuthFailedError{StatusCode: resp.StatusCode, Reason: failure.Error.Message}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func credentialsFrom(token, userID, refreshToken, expiresIn string) Credentials {
	ttl := time.Hour
	if d, err := time.ParseDuration(expiresIn + "s"); err == nil && d > 0 {
		ttl = d
	}
	return Credentials{
		Token:        token,
		UserID:       userID,
		RefreshToken: refreshToken,
		ExpiresIn:    ttl,
	}
}
