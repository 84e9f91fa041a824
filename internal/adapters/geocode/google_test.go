package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GeocodingConfig{BaseURL: srv.URL, APIKey: "test", Region: "in"})
}

func TestReverseGeocode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("latlng"); got == "" {
			t.Error("missing latlng parameter")
		}
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Connaught Place, New Delhi","geometry":{"location":{"lat":28.6139,"lng":77.2090}}}]}`))
	})

	addr, err := c.ReverseGeocode(context.Background(), domain.GeoPoint{Latitude: 28.6139, Longitude: 77.2090})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "Connaught Place, New Delhi" {
		t.Errorf("address = %q", addr)
	}
}

func TestReverseGeocode_NoResultIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	addr, err := c.ReverseGeocode(context.Background(), domain.GeoPoint{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "" {
		t.Errorf("expected empty address, got %q", addr)
	}
}

func TestPlaceSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("address") != "bengaluru scrap yard" {
			t.Errorf("address = %q", q.Get("address"))
		}
		if q.Get("region") != "in" {
			t.Errorf("region = %q", q.Get("region"))
		}
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Bengaluru, Karnataka","geometry":{"location":{"lat":12.9716,"lng":77.5946}}}]}`))
	})

	place, err := c.PlaceSearch(context.Background(), "bengaluru scrap yard")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place == nil || place.Address != "Bengaluru, Karnataka" || place.Point.Latitude != 12.9716 {
		t.Errorf("unexpected place: %+v", place)
	}
}

func TestPlaceSearch_NoMatchReturnsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	place, err := c.PlaceSearch(context.Background(), "zzzzzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place != nil {
		t.Errorf("expected nil place, got %+v", place)
	}
}

func TestQuery_UpstreamFailureStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","results":[]}`))
	})

	if _, err := c.PlaceSearch(context.Background(), "anything"); err == nil {
		t.Error("expected an error for REQUEST_DENIED")
	}
}

func TestQuery_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := c.ReverseGeocode(context.Background(), domain.GeoPoint{Latitude: 1, Longitude: 2}); err == nil {
		t.Error("expected an error for a 502")
	}
}
