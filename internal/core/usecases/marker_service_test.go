package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/ports"
	"github.com/ecoloop/scrapmap/internal/core/usecases"
)

// --- Mock ListingRepository ---

type mockListingRepo struct {
	listFn        func(ctx context.Context) ([]domain.Listing, error)
	getByIDFn     func(ctx context.Context, id string) (*domain.Listing, error)
	updateGeoFn   func(ctx context.Context, id string, geo domain.GeoJSONPoint, address string) (int64, error)
	updateBatchFn func(ctx context.Context, updates []ports.GeoUpdate) error
}

func (m *mockListingRepo) ListWithCoordinates(ctx context.Context) ([]domain.Listing, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockListingRepo) UpdateGeolocation(ctx context.Context, id string, geo domain.GeoJSONPoint, address string) (int64, error) {
	if m.updateGeoFn != nil {
		return m.updateGeoFn(ctx, id, geo, address)
	}
	return 1, nil
}

func (m *mockListingRepo) UpdateGeolocationBatch(ctx context.Context, updates []ports.GeoUpdate) error {
	if m.updateBatchFn != nil {
		return m.updateBatchFn(ctx, updates)
	}
	return nil
}

// --- Tests ---

func TestMarkerService_LoadAll_MixedEncodings(t *testing.T) {
	repo := &mockListingRepo{
		listFn: func(ctx context.Context) ([]domain.Listing, error) {
			return []domain.Listing{
				{ID: "a", Title: "Copper wire", MaterialCategory: "Metal",
					GeoRaw: json.RawMessage(`{"type":"Point","coordinates":[77.2090,28.6139]}`)},
				{ID: "b", Title: "PET bottles", MaterialCategory: "Plastic",
					GeoRaw: json.RawMessage(`{"latitude":19.0760,"longitude":72.8777}`)},
				{ID: "c", Title: "Newspapers", MaterialCategory: "Paper",
					GeoRaw: json.RawMessage(`"POINT(77.5946 12.9716)"`)},
				{ID: "d", Title: "No location at all"},
				{ID: "e", Title: "Garbage geography",
					GeoRaw: json.RawMessage(`{"wat":true}`)},
			}, nil
		},
	}

	svc := usecases.NewMarkerService(repo, nil)
	markers, err := svc.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}
	if markers[0].ListingID != "a" || markers[0].Point.Latitude != 28.6139 {
		t.Errorf("geojson marker wrong: %+v", markers[0])
	}
	if markers[1].Point.Longitude != 72.8777 {
		t.Errorf("pair marker wrong: %+v", markers[1])
	}
	if markers[2].Point.Latitude != 12.9716 {
		t.Errorf("wkt marker wrong: %+v", markers[2])
	}
}

func TestMarkerService_LoadAll_DefaultCategory(t *testing.T) {
	repo := &mockListingRepo{
		listFn: func(ctx context.Context) ([]domain.Listing, error) {
			return []domain.Listing{
				{ID: "a", Title: "Mystery pile",
					GeoRaw: json.RawMessage(`{"latitude":1,"longitude":2}`)},
			}, nil
		},
	}

	svc := usecases.NewMarkerService(repo, nil)
	markers, err := svc.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if markers[0].Category != "Other" {
		t.Errorf("expected default category Other, got %q", markers[0].Category)
	}
}

func TestMarkerService_LoadOne(t *testing.T) {
	repo := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			return &domain.Listing{ID: id, Title: "Copper wire",
				GeoRaw: json.RawMessage(`{"type":"Point","coordinates":[77.2090,28.6139]}`)}, nil
		},
	}

	svc := usecases.NewMarkerService(repo, nil)
	m, err := svc.LoadOne(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Point.Latitude != 28.6139 || m.Point.Longitude != 77.2090 {
		t.Errorf("unexpected point: %+v", m.Point)
	}
}

func TestMarkerService_LoadOne_UndecodableIsNotFound(t *testing.T) {
	repo := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			return &domain.Listing{ID: id, GeoRaw: json.RawMessage(`"not a point"`)}, nil
		},
	}

	svc := usecases.NewMarkerService(repo, nil)
	_, err := svc.LoadOne(context.Background(), "abc")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkerService_LoadAll_RepoError(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &mockListingRepo{
		listFn: func(ctx context.Context) ([]domain.Listing, error) { return nil, boom },
	}

	svc := usecases.NewMarkerService(repo, nil)
	if _, err := svc.LoadAll(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
}
