package scrapeproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/core/ports"
)

func TestFetchWrapsTargetInProxyCall(t *testing.T) {
	var gotRequest *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r.Clone(context.Background())
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer server.Close()

	c := New(server.URL, "secret-key", "tenant-42")
	body, err := c.Fetch(context.Background(), ports.FetchRequest{URL: "https://api.example.com/ships/1"}, "session=abc")
	require.NoError(t, err)
	assert.Equal(t, `{"data":{}}`, string(body))

	require.NotNil(t, gotRequest)
	assert.Equal(t, http.MethodGet, gotRequest.Method)
	q := gotRequest.URL.Query()
	assert.Equal(t, "secret-key", q.Get("api_key"))
	assert.Equal(t, "https://api.example.com/ships/1", q.Get("url"))
	assert.Equal(t, "true", q.Get("forward_headers"))
	assert.Equal(t, "session=abc", gotRequest.Header.Get("Cookie"))
	assert.Equal(t, "tenant-42", gotRequest.Header.Get("X-System-Id"))
}

func TestFetchPostsFilterAsJSONBody(t *testing.T) {
	var gotMethod, gotBody, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer server.Close()

	c := New(server.URL, "k", "sys")
	filter := map[string]any{"operator": "Coral Line"}
	_, err := c.Fetch(context.Background(), ports.FetchRequest{URL: "https://api.example.com/itineraries", Filter: filter}, "")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotBody), &decoded))
	assert.Equal(t, filter, decoded)
}

func TestFetchUnauthorizedStatusIsErrUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := New(server.URL, "k", "sys")
		_, err := c.Fetch(context.Background(), ports.FetchRequest{URL: "https://api.example.com/ships/1"}, "stale")
		assert.ErrorIs(t, err, ports.ErrUnauthorized, "status %d", status)
		server.Close()
	}
}

func TestFetchOtherErrorStatusIsNotUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream blew up")
	}))
	defer server.Close()

	c := New(server.URL, "k", "sys")
	_, err := c.Fetch(context.Background(), ports.FetchRequest{URL: "https://api.example.com/ships/1"}, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrUnauthorized)
	assert.Contains(t, err.Error(), "502")
}
