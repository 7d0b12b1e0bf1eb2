package sesame

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:    baseURL,
		Email:      "user@example.com",
		Password:   "secret",
		EmployeeID: "emp-42",
		Timezone:   "Europe/Madrid",
	})
}

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/security/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req["email"])
		assert.Equal(t, "secret", req["password"])

		_, _ = w.Write([]byte(`{"data": "token-123"}`))
	}))
	defer srv.Close()

	token, err := newTestClient(srv.URL).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-123", token)
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "bad credentials")
}

func TestCheckInSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/employees/emp-42/check-in", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "web", req["origin"])
		assert.Equal(t, "Europe/Madrid", req["timezone"])

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL).CheckIn(context.Background(), "token-123"))
}

func TestCheckInRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "already clocked in"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).CheckIn(context.Background(), "token-123")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "already clocked in")
}

func TestTransportErrorPropagates(t *testing.T) {
	// Point at a closed server to force a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	assert.False(t, errors.As(err, &authErr), "network failure must not classify as auth rejection")
}
