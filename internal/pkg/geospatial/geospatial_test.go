package geospatial_test

import (
	"math"
	"testing"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/pkg/geospatial"
)

func TestHaversine_KnownDistance(t *testing.T) {
	delhi := domain.GeoPoint{Latitude: 28.6139, Longitude: 77.2090}
	mumbai := domain.GeoPoint{Latitude: 19.0760, Longitude: 72.8777}

	d := geospatial.Haversine(delhi, mumbai)
	// Great-circle Delhi-Mumbai is roughly 1150 km.
	if d < 1_100_000 || d > 1_200_000 {
		t.Errorf("Delhi-Mumbai distance = %.0f m, expected ~1150 km", d)
	}

	if z := geospatial.Haversine(delhi, delhi); math.Abs(z) > 1e-6 {
		t.Errorf("zero distance = %v", z)
	}
}

func TestZoomFor_SinglePointClampsToMax(t *testing.T) {
	b := domain.NewBounds()
	b.Extend(domain.GeoPoint{Latitude: 28.6, Longitude: 77.2})

	if z := geospatial.ZoomFor(b, 15); z != 15 {
		t.Errorf("single point zoom = %d, want 15", z)
	}
}

func TestZoomFor_EmptyBounds(t *testing.T) {
	if z := geospatial.ZoomFor(domain.NewBounds(), 15); z != 15 {
		t.Errorf("empty bounds zoom = %d, want 15", z)
	}
}

func TestZoomFor_WideSpreadZoomsOut(t *testing.T) {
	b := domain.NewBounds()
	b.Extend(domain.GeoPoint{Latitude: 28.6139, Longitude: 77.2090}) // Delhi
	b.Extend(domain.GeoPoint{Latitude: 8.5241, Longitude: 76.9366})  // Trivandrum

	z := geospatial.ZoomFor(b, 15)
	if z >= 15 {
		t.Errorf("country-scale bounds zoom = %d, expected well below the cap", z)
	}
	if z < 0 {
		t.Errorf("zoom must not be negative, got %d", z)
	}
}

func TestZoomFor_TightClusterHitsCap(t *testing.T) {
	b := domain.NewBounds()
	b.Extend(domain.GeoPoint{Latitude: 28.61390, Longitude: 77.20900})
	b.Extend(domain.GeoPoint{Latitude: 28.61392, Longitude: 77.20903})

	if z := geospatial.ZoomFor(b, 15); z != 15 {
		t.Errorf("near-coincident markers zoom = %d, want clamp at 15", z)
	}
}

func TestBoundsOf(t *testing.T) {
	markers := []domain.ListingMarker{
		{Point: domain.GeoPoint{Latitude: 10, Longitude: 20}},
		{Point: domain.GeoPoint{Latitude: -5, Longitude: 30}},
		{Point: domain.GeoPoint{Latitude: 2, Longitude: 25}},
	}
	b := geospatial.BoundsOf(markers)
	if b.MinLat != -5 || b.MaxLat != 10 || b.MinLng != 20 || b.MaxLng != 30 {
		t.Errorf("unexpected bounds: %+v", b)
	}
	c := b.Center()
	if c.Latitude != 2.5 || c.Longitude != 25 {
		t.Errorf("unexpected center: %+v", c)
	}
}
