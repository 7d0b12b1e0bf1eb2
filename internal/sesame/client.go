// Package sesame talks to the Sesame time-tracking HTTP API. Each call is
// a single attempt with no retry; retrying is the caller's decision.
package sesame

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AuthError means the login call was rejected.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("sesame login rejected: %d %s", e.StatusCode, e.Body)
}

// APIError means the check-in call was rejected after a successful login.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sesame check-in rejected: %d %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL    string // e.g. https://back-eu1.sesametime.com/api/v3
	Email      string
	Password   string
	EmployeeID string
	Timezone   string // sent verbatim in the check-in payload
	HTTPClient *http.Client
}

// Client performs the two-step login + check-in flow.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	password   string
	employeeID string
	timezone   string
}

// NewClient creates a Sesame API client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: hc,
		baseURL:    opts.BaseURL,
		email:      opts.Email,
		password:   opts.Password,
		employeeID: opts.EmployeeID,
		timezone:   opts.Timezone,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Data string `json:"data"`
}

type checkInRequest struct {
	Origin   string `json:"origin"`
	Timezone string `json:"timezone"`
}

// Login authenticates and returns a bearer token. Any non-2xx response is
// an *AuthError; network failures propagate wrapped.
func (c *Client) Login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Email: c.email, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("encoding login request: %w", err)
	}

	resp, err := c.post(ctx, c.baseURL+"/security/login", "", body)
	if err != nil {
		return "", fmt.Errorf("sesame login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	return lr.Data, nil
}

// CheckIn submits the clock-in for the configured employee. The remote
// side effect is not idempotent; callers must gate on their own daily
// state before invoking this.
func (c *Client) CheckIn(ctx context.Context, token string) error {
	body, err := json.Marshal(checkInRequest{Origin: "web", Timezone: c.timezone})
	if err != nil {
		return fmt.Errorf("encoding check-in request: %w", err)
	}

	url := fmt.Sprintf("%s/employees/%s/check-in", c.baseURL, c.employeeID)
	resp, err := c.post(ctx, url, token, body)
	if err != nil {
		return fmt.Errorf("sesame check-in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	return nil
}

func (c *Client) post(ctx context.Context, url, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return string(data)
}
