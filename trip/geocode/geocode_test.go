package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/triplog/core/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.GeocoderConfig{
		BaseURL:  srv.URL,
		APIKey:   "secret",
		Language: "ja",
		Timeout:  time.Second,
	}, srv.Client())
}

func TestReverse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "35.6812,139.7671", r.URL.Query().Get("latlng"))
		assert.Equal(t, "ja", r.URL.Query().Get("language"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"1 Marunouchi, Tokyo"},{"formatted_address":"Tokyo"}]}`))
	})

	addr, err := c.Reverse(context.Background(), 35.6812, 139.7671)
	require.NoError(t, err)
	assert.Equal(t, "1 Marunouchi, Tokyo", addr)
}

func TestReverseFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"zero results": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		},
		"denied": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		},
		"http error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestClient(t, h).Reverse(context.Background(), 1, 2)
			assert.Error(t, err)
		})
	}

	_, err := newTestClient(t, cases["zero results"]).Reverse(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestCoordinates(t *testing.T) {
	assert.Equal(t, "(35.6812, 139.7671)", Coordinates(35.6812, 139.7671))
	assert.Equal(t, "(-1, 0.5)", Coordinates(-1, 0.5))
}
