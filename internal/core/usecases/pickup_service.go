package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/ports"
	"github.com/ecoloop/scrapmap/internal/pkg/geocodec"
	"github.com/ecoloop/scrapmap/internal/pkg/geospatial"
	"github.com/ecoloop/scrapmap/internal/pkg/metrics"
)

// PickupService commits resolved pickup points and records pickup
// requests against them.
type PickupService struct {
	listings  ports.ListingRepository
	pickups   ports.PickupRequestRepository
	markers   *MarkerService
	publisher ports.EventPublisher
}

// NewPickupService creates a new PickupService. markers and publisher
// may be nil where cache invalidation / events are not wired.
func NewPickupService(
	listings ports.ListingRepository,
	pickups ports.PickupRequestRepository,
	markers *MarkerService,
	publisher ports.EventPublisher,
) *PickupService {
	return &PickupService{listings: listings, pickups: pickups, markers: markers, publisher: publisher}
}

// SaveLocation encodes the point as GeoJSON and writes it to the
// listing. The write is verified: the store reports success with zero
// affected rows for some silently rejected inputs, and that outcome is
// surfaced as domain.ErrNotPersisted, never as success. Nothing here
// retries; the caller decides whether to re-invoke.
func (s *PickupService) SaveLocation(ctx context.Context, listingID string, pt domain.GeoPoint, address string) error {
	if !pt.Valid() {
		metrics.LocationSaves.WithLabelValues("invalid").Inc()
		return fmt.Errorf("save location for %s: %w", listingID, domain.ErrOutOfRange)
	}

	geo := geocodec.Encode(pt)

	affected, err := s.listings.UpdateGeolocation(ctx, listingID, geo, address)
	if err != nil {
		metrics.LocationSaves.WithLabelValues("transport_error").Inc()
		return fmt.Errorf("update geolocation for %s: %w", listingID, err)
	}
	if affected == 0 {
		metrics.LocationSaves.WithLabelValues("not_persisted").Inc()
		return fmt.Errorf("update geolocation for %s: %w", listingID, domain.ErrNotPersisted)
	}
	metrics.LocationSaves.WithLabelValues("ok").Inc()

	// The marker snapshot is stale now; the caller re-reads via LoadOne
	// instead of reloading unrelated state.
	if s.markers != nil {
		s.markers.InvalidateAll(ctx)
	}
	if s.publisher != nil {
		ev := &domain.LocationUpdated{
			ListingID: listingID,
			Point:     pt,
			Address:   address,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.publisher.PublishLocationUpdated(ctx, ev); err != nil {
			slog.Warn("publish location update", "listing_id", listingID, "error", err)
		}
	}
	return nil
}

// RequestPickup records a pickup request for a listing. The listing must
// have a decodable pickup point; the requester's own point, when given,
// is kept as a straight-line distance for display.
func (s *PickupService) RequestPickup(ctx context.Context, listingID, requesterID, note string, from *domain.GeoPoint) (*domain.PickupRequest, error) {
	marker, err := s.markers.LoadOne(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("pickup request for %s: %w", listingID, err)
	}

	req := &domain.PickupRequest{
		ListingID:   listingID,
		RequesterID: requesterID,
		Point:       marker.Point,
		Note:        note,
		CreatedAt:   time.Now().UTC(),
	}
	if from != nil && from.Valid() {
		d := geospatial.Haversine(*from, marker.Point)
		req.DistanceM = &d
	}

	if err := s.pickups.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create pickup request: %w", err)
	}
	return req, nil
}

// ListPickups returns the pickup requests recorded for a listing.
func (s *PickupService) ListPickups(ctx context.Context, listingID string) ([]domain.PickupRequest, error) {
	return s.pickups.ListByListing(ctx, listingID)
}
