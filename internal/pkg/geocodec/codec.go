// Package geocodec normalizes the geography column of scrap listings.
//
// The column has historically been written in three incompatible shapes:
// a plain {latitude, longitude} pair, a GeoJSON Point, and a WKT string
// of the form POINT(lng lat). Reads stay permissive across all three;
// writes always use GeoJSON, the only encoding verified to round-trip
// through the listing store without silent loss.
package geocodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/ecoloop/scrapmap/internal/core/domain"
)

// Format tags the detected encoding of a persisted geography value.
type Format string

const (
	FormatPair    Format = "pair"
	FormatGeoJSON Format = "geojson"
	FormatWKT     Format = "wkt"
)

// pairProbe covers both field spellings seen in stored pairs: the
// canonical latitude/longitude and the lat/lng shorthand the old client
// wrote during its format experiments.
type pairProbe struct {
	Type        *string   `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Lat         *float64  `json:"lat"`
	Lng         *float64  `json:"lng"`
}

// Decode inspects raw structurally, detects which of the three encodings
// it carries, and returns the canonical point. It fails with
// domain.ErrUnrecognizedFormat when nothing matches and with
// domain.ErrOutOfRange when the decoded coordinates leave the WGS 84
// envelope.
func Decode(raw []byte) (domain.GeoPoint, error) {
	p, _, err := DecodeDetect(raw)
	return p, err
}

// DecodeDetect is Decode plus the detected source format, used by the
// backfill tool to find values still stored in a legacy encoding.
func DecodeDetect(raw []byte) (domain.GeoPoint, Format, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
	}

	switch trimmed[0] {
	case '{':
		return decodeObject(trimmed)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
		}
		return decodeWKT(s)
	default:
		// Bare text column, not JSON-quoted.
		return decodeWKT(string(trimmed))
	}
}

func decodeObject(raw []byte) (domain.GeoPoint, Format, error) {
	var probe pairProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
	}

	if probe.Type != nil {
		if *probe.Type != "Point" || len(probe.Coordinates) < 2 {
			return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
		}
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
		}
		pt, ok := g.Geometry().(orb.Point)
		if !ok {
			return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
		}
		return checked(domain.GeoPoint{Latitude: pt.Lat(), Longitude: pt.Lon()}, FormatGeoJSON)
	}

	switch {
	case probe.Latitude != nil && probe.Longitude != nil:
		return checked(domain.GeoPoint{Latitude: *probe.Latitude, Longitude: *probe.Longitude}, FormatPair)
	case probe.Lat != nil && probe.Lng != nil:
		return checked(domain.GeoPoint{Latitude: *probe.Lat, Longitude: *probe.Lng}, FormatPair)
	default:
		return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
	}
}

func decodeWKT(s string) (domain.GeoPoint, Format, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToUpper(s), "POINT") {
		return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
	}
	pt, err := wkt.UnmarshalPoint(strings.ToUpper(s[:5]) + s[5:])
	if err != nil {
		return domain.GeoPoint{}, "", domain.ErrUnrecognizedFormat
	}
	return checked(domain.GeoPoint{Latitude: pt.Lat(), Longitude: pt.Lon()}, FormatWKT)
}

func checked(p domain.GeoPoint, f Format) (domain.GeoPoint, Format, error) {
	if !p.Valid() {
		return domain.GeoPoint{}, f, fmt.Errorf("%w: lat=%v lng=%v", domain.ErrOutOfRange, p.Latitude, p.Longitude)
	}
	return p, f, nil
}

// Encode emits the GeoJSON form, the contract-of-record for writes.
// Callers must not write the pair or WKT encodings.
func Encode(p domain.GeoPoint) domain.GeoJSONPoint {
	return domain.GeoJSONPoint{
		Type:        "Point",
		Coordinates: [2]float64{p.Longitude, p.Latitude},
	}
}

// EncodeJSON is Encode marshaled for the persistence boundary.
func EncodeJSON(p domain.GeoPoint) ([]byte, error) {
	return json.Marshal(Encode(p))
}
