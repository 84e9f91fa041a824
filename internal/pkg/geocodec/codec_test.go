package geocodec_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/pkg/geocodec"
)

const tolerance = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= tolerance }

func TestDecode_GeoJSONAxisOrder(t *testing.T) {
	p, err := geocodec.Decode([]byte(`{"type":"Point","coordinates":[12.97,77.59]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// GeoJSON coordinates are [lng, lat].
	if !near(p.Latitude, 77.59) || !near(p.Longitude, 12.97) {
		t.Errorf("expected lat=77.59 lng=12.97, got %+v", p)
	}
}

func TestDecode_PairPassthrough(t *testing.T) {
	p, err := geocodec.Decode([]byte(`{"latitude":28.6,"longitude":77.2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(p.Latitude, 28.6) || !near(p.Longitude, 77.2) {
		t.Errorf("unexpected point: %+v", p)
	}
}

func TestDecode_LegacyShortPair(t *testing.T) {
	p, err := geocodec.Decode([]byte(`{"lat":19.076,"lng":72.8777}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(p.Latitude, 19.076) || !near(p.Longitude, 72.8777) {
		t.Errorf("unexpected point: %+v", p)
	}
}

func TestDecode_WKT(t *testing.T) {
	for _, raw := range []string{
		`"POINT(77.2 28.6)"`, // JSON-quoted
		`POINT(77.2 28.6)`,   // bare text
		`"point(77.2 28.6)"`, // lower case
	} {
		p, err := geocodec.Decode([]byte(raw))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", raw, err)
		}
		if !near(p.Latitude, 28.6) || !near(p.Longitude, 77.2) {
			t.Errorf("%s: unexpected point: %+v", raw, p)
		}
	}
}

func TestDecode_OutOfRange(t *testing.T) {
	_, err := geocodec.Decode([]byte(`{"latitude":95,"longitude":10}`))
	if !errors.Is(err, domain.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}

	_, err = geocodec.Decode([]byte(`{"type":"Point","coordinates":[200,10]}`))
	if !errors.Is(err, domain.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for lng 200, got %v", err)
	}
}

func TestDecode_Unrecognized(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte(`  `),
		[]byte(`{"foo":1}`),
		[]byte(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`),
		[]byte(`{"type":"Point","coordinates":[77.2]}`),
		[]byte(`"LINESTRING(0 0, 1 1)"`),
		[]byte(`42`),
		[]byte(`{"latitude":28.6}`), // half a pair is not a point
	}
	for _, raw := range cases {
		if _, err := geocodec.Decode(raw); !errors.Is(err, domain.ErrUnrecognizedFormat) {
			t.Errorf("%s: expected ErrUnrecognizedFormat, got %v", raw, err)
		}
	}
}

func TestEncode_AlwaysGeoJSON(t *testing.T) {
	g := geocodec.Encode(domain.GeoPoint{Latitude: 28.6139, Longitude: 77.2090})
	if g.Type != "Point" {
		t.Errorf("expected type Point, got %s", g.Type)
	}
	if !near(g.Coordinates[0], 77.2090) || !near(g.Coordinates[1], 28.6139) {
		t.Errorf("expected [lng, lat] order, got %v", g.Coordinates)
	}

	data, err := geocodec.EncodeJSON(domain.GeoPoint{Latitude: 28.6139, Longitude: 77.2090})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["type"] != "Point" {
		t.Errorf("encoded type = %v", out["type"])
	}
}

func TestRoundTrip(t *testing.T) {
	points := []domain.GeoPoint{
		{Latitude: 28.6139, Longitude: 77.2090},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 0, Longitude: 0},
		{Latitude: 90, Longitude: 180},
		{Latitude: -90, Longitude: -180},
		{Latitude: 12.971598765432101, Longitude: 77.594562345678901},
	}
	for _, want := range points {
		data, err := geocodec.EncodeJSON(want)
		if err != nil {
			t.Fatalf("encode %+v: %v", want, err)
		}
		got, format, err := geocodec.DecodeDetect(data)
		if err != nil {
			t.Fatalf("decode %+v: %v", want, err)
		}
		if format != geocodec.FormatGeoJSON {
			t.Errorf("round-trip format = %s, want geojson", format)
		}
		if !near(got.Latitude, want.Latitude) || !near(got.Longitude, want.Longitude) {
			t.Errorf("round-trip mismatch: want %+v got %+v", want, got)
		}
	}
}

func TestDecodeDetect_Formats(t *testing.T) {
	cases := map[string]geocodec.Format{
		`{"latitude":28.6,"longitude":77.2}`:         geocodec.FormatPair,
		`{"type":"Point","coordinates":[77.2,28.6]}`: geocodec.FormatGeoJSON,
		`"POINT(77.2 28.6)"`:                         geocodec.FormatWKT,
	}
	for raw, want := range cases {
		_, format, err := geocodec.DecodeDetect([]byte(raw))
		if err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if format != want {
			t.Errorf("%s: format = %s, want %s", raw, format, want)
		}
	}
}
