// Package backend is the client for the remote JSON document store. Every
// resource lives under a per-user namespace and every call carries the live
// session token. The client performs no retries, no caching and no
// deduplication: repeating a create produces a duplicate record with a fresh
// server-assigned id.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client performs create/read/update/delete calls against the document store.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient builds a client rooted at baseURL, e.g. "https://host/db".
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// url builds <base>/<parts...>.json[?auth=<token>].
func (c *Client) url(token string, parts ...string) string {
	u := c.baseURL + "/" + strings.Join(parts, "/") + ".json"
	if token != "" {
		u += "?auth=" + url.QueryEscape(token)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, u string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("url", u),
			zap.Int("status", resp.StatusCode),
		)
		return nil, statusError(u, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// create POSTs payload and returns the server-assigned key.
func (c *Client) create(ctx context.Context, u string, payload any) (string, error) {
	body, err := c.do(ctx, http.MethodPost, u, payload)
	if err != nil {
		return "", err
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal create response: %w", err)
	}
	return out.Name, nil
}

// fetch GETs a collection and returns its key-to-payload mapping. An absent
// collection comes back as a JSON null, which decodes to an empty map rather
// than an error.
func (c *Client) fetch(ctx context.Context, u string) (map[string]json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if len(body) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal collection: %w", err)
	}
	return raw, nil
}

func (c *Client) put(ctx context.Context, u string, payload any) error {
	_, err := c.do(ctx, http.MethodPut, u, payload)
	return err
}

func (c *Client) delete(ctx context.Context, u string) error {
	_, err := c.do(ctx, http.MethodDelete, u, nil)
	return err
}

// sortedKeys orders server keys ascending. Push keys sort lexicographically
// in creation order, so this reconstructs insertion order (oldest first).
func sortedKeys(raw map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
