package ports

import (
	"context"

	"github.com/ecoloop/scrapmap/internal/core/domain"
)

// GeoUpdate is one listing's geography rewritten to the canonical
// encoding, applied in bulk by the backfill.
type GeoUpdate struct {
	ListingID string
	Geo       domain.GeoJSONPoint
}

// ListingRepository persists scrap listings. The geography column is
// returned raw; decoding is the coordinate codec's job.
type ListingRepository interface {
	// ListWithCoordinates returns listings that have any stored geography,
	// decodable or not.
	ListWithCoordinates(ctx context.Context) ([]domain.Listing, error)
	GetByID(ctx context.Context, id string) (*domain.Listing, error)

	// UpdateGeolocation writes the GeoJSON point and returns the affected
	// row count. Zero rows with a nil error is a real outcome, not a bug:
	// the store silently no-ops some writes.
	UpdateGeolocation(ctx context.Context, id string, geo domain.GeoJSONPoint, address string) (int64, error)

	// UpdateGeolocationBatch rewrites many rows in one round trip.
	UpdateGeolocationBatch(ctx context.Context, updates []GeoUpdate) error
}

// PickupRequestRepository persists pickup requests.
type PickupRequestRepository interface {
	Create(ctx context.Context, req *domain.PickupRequest) error
	ListByListing(ctx context.Context, listingID string) ([]domain.PickupRequest, error)
}
