package geospatial

import (
	"math"

	"github.com/ecoloop/scrapmap/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Nominal viewport the zoom fit is computed against; matches the map
// panel the markers are rendered into.
const (
	viewportWidthPx  = 1024.0
	viewportHeightPx = 500.0
	tileSizePx       = 256.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLng := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000 // meters
}

// BoundsOf returns the bounding box covering all markers.
func BoundsOf(markers []domain.ListingMarker) domain.Bounds {
	b := domain.NewBounds()
	for _, m := range markers {
		b.Extend(m.Point)
	}
	return b
}

// ZoomFor returns the largest integer web-mercator zoom at which bounds
// fit the nominal viewport, clamped to [0, maxZoom]. A zero-extent box
// (single marker, or several markers at one point) has no finite fit and
// comes back as maxZoom.
func ZoomFor(b domain.Bounds, maxZoom int) int {
	if b.Empty() {
		return maxZoom
	}

	latFraction := (mercLat(b.MaxLat) - mercLat(b.MinLat)) / math.Pi

	lngDiff := b.MaxLng - b.MinLng
	if lngDiff < 0 {
		lngDiff += 360
	}
	lngFraction := lngDiff / 360

	zoom := float64(maxZoom)
	if latFraction > 0 {
		zoom = math.Min(zoom, math.Floor(math.Log2(viewportHeightPx/tileSizePx/latFraction)))
	}
	if lngFraction > 0 {
		zoom = math.Min(zoom, math.Floor(math.Log2(viewportWidthPx/tileSizePx/lngFraction)))
	}
	if zoom < 0 {
		zoom = 0
	}
	return int(zoom)
}

// mercLat projects a latitude onto the web-mercator Y axis (radians).
func mercLat(lat float64) float64 {
	sin := math.Sin(toRad(lat))
	return math.Log((1+sin)/(1-sin)) / 2
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
