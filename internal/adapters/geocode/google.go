package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/pkg/config"
	"github.com/ecoloop/scrapmap/internal/pkg/metrics"
)

// Client talks to a Google-style geocoding API. Both directions go
// through the same endpoint: forward with address=, reverse with latlng=.
type Client struct {
	baseURL string
	apiKey  string
	region  string
	http    *http.Client
}

// NewClient creates a geocoding client from config.
func NewClient(cfg config.GeocodingConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		region:  cfg.Region,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ReverseGeocode returns a formatted address for the point, or an empty
// string when the provider has none. An unreachable provider is an error;
// a point with no address is not.
func (c *Client) ReverseGeocode(ctx context.Context, p domain.GeoPoint) (string, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", p.Latitude, p.Longitude))

	resp, err := c.query(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].FormattedAddress, nil
}

// PlaceSearch resolves a free-text query to a place, or nil when nothing
// matches.
func (c *Client) PlaceSearch(ctx context.Context, query string) (*domain.Place, error) {
	params := url.Values{}
	params.Set("address", query)
	if c.region != "" {
		params.Set("region", c.region)
	}

	resp, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	top := resp.Results[0]
	return &domain.Place{
		Point: domain.GeoPoint{
			Latitude:  top.Geometry.Location.Lat,
			Longitude: top.Geometry.Location.Lng,
		},
		Address: top.FormattedAddress,
	}, nil
}

func (c *Client) query(ctx context.Context, params url.Values) (res *geocodeResponse, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.GeocodeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	httpRes, err := c.http.Do(req)
	if err != nil {
		slog.Error("geocoding request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = httpRes.Body.Close()
	}()

	if httpRes.StatusCode != http.StatusOK {
		slog.Error("geocoding upstream error", "status", httpRes.StatusCode)
		return nil, fmt.Errorf("geocoding api status %d", httpRes.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}

	// ZERO_RESULTS is a normal outcome; everything else non-OK is not.
	if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("geocoding api status %q", decoded.Status)
	}
	return &decoded, nil
}
