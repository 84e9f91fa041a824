package domain

// GeoPoint is the canonical in-memory geographic coordinate (WGS 84).
// A GeoPoint is always fully populated; a listing without a usable
// location simply has no GeoPoint at all.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point is inside the WGS 84 envelope.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// GeoJSONPoint is the only encoding written back to the listing store.
// Coordinates are [longitude, latitude], per the GeoJSON spec.
type GeoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Point converts the GeoJSON axis order back to a GeoPoint.
func (g GeoJSONPoint) Point() GeoPoint {
	return GeoPoint{Latitude: g.Coordinates[1], Longitude: g.Coordinates[0]}
}

// Bounds is a geographic bounding box, grown one point at a time.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
	empty  bool
}

// NewBounds returns an empty bounding box.
func NewBounds() Bounds {
	return Bounds{empty: true}
}

// Extend grows the box to cover p.
func (b *Bounds) Extend(p GeoPoint) {
	if b.empty {
		b.MinLat, b.MaxLat = p.Latitude, p.Latitude
		b.MinLng, b.MaxLng = p.Longitude, p.Longitude
		b.empty = false
		return
	}
	if p.Latitude < b.MinLat {
		b.MinLat = p.Latitude
	}
	if p.Latitude > b.MaxLat {
		b.MaxLat = p.Latitude
	}
	if p.Longitude < b.MinLng {
		b.MinLng = p.Longitude
	}
	if p.Longitude > b.MaxLng {
		b.MaxLng = p.Longitude
	}
}

// Empty reports whether the box covers no points yet.
func (b Bounds) Empty() bool { return b.empty }

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLng + b.MaxLng) / 2,
	}
}
