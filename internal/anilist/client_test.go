package anilist

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.Client(), server.URL)
}

func TestClient_Request_Success(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, http.StatusOK, `{"data":{"Viewer":{"id":7}}}`, func(r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "query { Viewer { id } }", body["query"])
		assert.Equal(t, map[string]any{"a": float64(1)}, body["variables"])
	})

	data, err := client.Request(t.Context(), "query { Viewer { id } }", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Viewer":{"id":7}}`, string(data))
}

func TestClient_Request_GraphQLErrors(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, http.StatusBadRequest, `{"data":null,"errors":[{"message":"Invalid token","status":400}]}`, nil)

	_, err := client.Request(t.Context(), "query { Viewer { id } }", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "Invalid token", apiErr.Errors[0].Message)
	assert.Empty(t, apiErr.Text)
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestClient_Request_NonJSONError(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil)

	_, err := client.Request(t.Context(), "query { Viewer { id } }", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "<html>bad gateway</html>", apiErr.Text)
	assert.Equal(t, KindServer, apiErr.Kind())
}

func TestClient_Request_ErrorsWithOKStatus(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, http.StatusOK, `{"data":null,"errors":[{"message":"Not Found.","status":404}]}`, nil)

	_, err := client.Request(t.Context(), "query { Viewer { id } }", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Not Found.", apiErr.Errors[0].Message)
}

func TestClient_Request_EmptyData(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, http.StatusOK, `{"data":null}`, nil)

	_, err := client.Request(t.Context(), "query { Viewer { id } }", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_Request_Transport(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(nil, url)
	_, err := client.Request(t.Context(), "query { Viewer { id } }", nil)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, kind)
}

func TestAPIError_Kind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   ErrorKind
	}{
		{0, KindTransport},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusInternalServerError, KindServer},
		{http.StatusServiceUnavailable, KindServer},
		{http.StatusBadRequest, KindGeneric},
	}

	for _, tt := range tests {
		err := &APIError{Status: tt.status}
		assert.Equal(t, tt.want, err.Kind(), "status %d", tt.status)
	}

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}
