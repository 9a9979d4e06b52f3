// Package upstream implements the session backend client against a remote
// lighting API. Responses are normalized at this boundary: callers never see
// the backend's inconsistent field names or role payload shapes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorsvet/lighting-console/internal/api/metrics"
	"github.com/gorsvet/lighting-console/internal/core/domain"
	"github.com/gorsvet/lighting-console/internal/core/ports"
)

// Client talks to the backend's /auth endpoints. Every call is single-shot:
// no retries, no backoff; the first failure is terminal for that call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL. httpClient may be nil;
// the default client carries no timeout, so cancellation is the caller's
// context's job.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type credentialsBody struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// loginWire tolerates both observed token field names. The canonical
// contract is "token"; "accessToken" is accepted as legacy.
type loginWire struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// flexID tolerates backends emitting the identifier as a JSON number or a
// string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// profileWire is the union-shaped "who am I" payload: the role may arrive as
// a list, a single string, a bracketed authorities CSV, or any combination.
type profileWire struct {
	ID          flexID   `json:"id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Role        string   `json:"role"`
	Authorities string   `json:"authorities"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, identifier, secret string) (*ports.LoginResult, error) {
	var wire loginWire
	err := c.post(ctx, "/auth/login", credentialsBody{Identifier: identifier, Secret: secret}, &wire)
	if err != nil {
		return nil, err
	}

	token := wire.Token
	if token == "" {
		token = wire.AccessToken
	}
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	tokenType := wire.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &ports.LoginResult{Token: token, TokenType: tokenType}, nil
}

// Register creates an account. The response carries no usable session token.
func (c *Client) Register(ctx context.Context, identifier, secret string) (*ports.Account, error) {
	var wire struct {
		ID    flexID   `json:"id"`
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	err := c.post(ctx, "/auth/register", credentialsBody{Identifier: identifier, Secret: secret}, &wire)
	if err != nil {
		return nil, err
	}
	return &ports.Account{ID: string(wire.ID), Email: wire.Email, Roles: wire.Roles}, nil
}

// Me resolves the current profile with the given bearer token. The returned
// role set is already canonical and variant-expanded.
func (c *Client) Me(ctx context.Context, token string) (*domain.Profile, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build me request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe("me", "error", start)
		return nil, fmt.Errorf("me request: %w", err)
	}
	defer resp.Body.Close()
	observe("me", strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var wire profileWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &domain.Profile{
		ID:    string(wire.ID),
		Email: wire.Email,
		Roles: domain.ExpandRoles(wire.Roles, wire.Role, wire.Authorities),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	op := strings.TrimPrefix(path, "/auth/")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(op, "error", start)
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()
	observe(op, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func observe(op, status string, start time.Time) {
	metrics.UpstreamRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

// decodeError builds an AuthError from a non-2xx response, preferring the
// server-supplied message over the generic per-status fallback.
func decodeError(resp *http.Response) error {
	msg := statusFallback(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var wire struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &wire) == nil {
			if wire.Error != "" {
				msg = wire.Error
			} else if wire.Message != "" {
				msg = wire.Message
			}
		}
	}
	return &domain.AuthError{Status: resp.StatusCode, Message: msg}
}

func statusFallback(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "invalid credentials"
	case http.StatusForbidden:
		return "access forbidden"
	case http.StatusLocked, http.StatusTooManyRequests:
		return "account temporarily locked"
	case http.StatusConflict:
		return "account already exists"
	default:
		return "request failed"
	}
}
