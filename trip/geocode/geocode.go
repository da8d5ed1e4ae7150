// Package geocode turns coordinates into a postal address using a
// Google-compatible reverse geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m3rciful/triplog/core/config"
	"github.com/m3rciful/triplog/core/logger"
	"github.com/m3rciful/triplog/core/netutil"
)

// ErrNoResult is returned when the endpoint answers without an address.
var ErrNoResult = errors.New("geocode: no result")

// Reverser resolves coordinates to an address.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// Client calls the reverse geocoding endpoint.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	http     *http.Client
}

// New builds a client from cfg. A nil httpClient selects a retrying client
// with the configured timeout.
func New(cfg config.GeocoderConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = netutil.NewClient(netutil.ClientOptions{Timeout: cfg.Timeout, Retries: 2, Backoff: 200 * time.Millisecond})
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		http:     httpClient,
	}
}

type response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// Reverse returns the first formatted address for the coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	start := time.Now()
	q := url.Values{}
	q.Set("latlng", formatFloat(lat)+","+formatFloat(lon))
	if c.language != "" {
		q.Set("language", c.language)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("geocode: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.fail(ctx, start, fmt.Errorf("geocode: request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", c.fail(ctx, start, fmt.Errorf("geocode: http status %d", resp.StatusCode))
	}
	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", c.fail(ctx, start, fmt.Errorf("geocode: decode: %w", err))
	}
	if body.Status != "OK" || len(body.Results) == 0 || body.Results[0].FormattedAddress == "" {
		err := ErrNoResult
		if body.Status != "" && body.Status != "OK" && body.Status != "ZERO_RESULTS" {
			err = fmt.Errorf("geocode: status %s: %s", body.Status, body.ErrorMessage)
		}
		return "", c.fail(ctx, start, err)
	}

	logger.Debug(ctx, logger.CompGeocoder, "geocode.reverse",
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return body.Results[0].FormattedAddress, nil
}

func (c *Client) fail(ctx context.Context, start time.Time, err error) error {
	logger.Warn(ctx, logger.CompGeocoder, "geocode.reverse",
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
		slog.Duration("duration", logger.Took(start)),
	)
	return err
}

// Coordinates renders the pair the way it is stored when no address is
// available, e.g. "(35.6812, 139.7671)".
func Coordinates(lat, lon float64) string {
	return "(" + formatFloat(lat) + ", " + formatFloat(lon) + ")"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
