package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/ports"
	"github.com/ecoloop/scrapmap/internal/pkg/geocodec"
	"github.com/ecoloop/scrapmap/internal/pkg/metrics"
)

const (
	markersCacheKey = "markers:all"
	markersCacheTTL = 300 // seconds
)

// defaultCategory is shown when a listing has no material category.
const defaultCategory = "Other"

// MarkerService shapes listings into map markers. Rows whose geography
// fails to decode are dropped from the set, not surfaced as errors:
// sparse location data is an expected steady state here.
type MarkerService struct {
	listings ports.ListingRepository
	cache    ports.CacheService
}

// NewMarkerService creates a new MarkerService.
func NewMarkerService(listings ports.ListingRepository, cache ports.CacheService) *MarkerService {
	return &MarkerService{listings: listings, cache: cache}
}

// LoadAll returns a fresh snapshot of all decodable markers. Callers
// re-invoke to refresh; the slice is never mutated in place.
func (s *MarkerService) LoadAll(ctx context.Context) ([]domain.ListingMarker, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, markersCacheKey); err == nil {
			var markers []domain.ListingMarker
			if err := json.Unmarshal(data, &markers); err == nil {
				metrics.CacheHits.WithLabelValues("markers").Inc()
				return markers, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("markers").Inc()
	}

	listings, err := s.listings.ListWithCoordinates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	markers := make([]domain.ListingMarker, 0, len(listings))
	for _, l := range listings {
		m, ok := s.toMarker(l)
		if !ok {
			continue
		}
		markers = append(markers, m)
	}
	metrics.MarkersLoaded.Add(float64(len(markers)))

	if s.cache != nil {
		if data, err := json.Marshal(markers); err == nil {
			_ = s.cache.Set(ctx, markersCacheKey, data, markersCacheTTL)
		}
	}

	return markers, nil
}

// LoadOne returns the marker for a single listing, or domain.ErrNotFound
// when the listing does not exist or has no decodable point.
func (s *MarkerService) LoadOne(ctx context.Context, listingID string) (*domain.ListingMarker, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	m, ok := s.toMarker(*l)
	if !ok {
		return nil, fmt.Errorf("listing %s has no decodable location: %w", listingID, domain.ErrNotFound)
	}
	return &m, nil
}

// InvalidateAll drops the cached marker snapshot, e.g. after a location
// write or a cross-instance update event.
func (s *MarkerService) InvalidateAll(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, markersCacheKey)
	}
}

func (s *MarkerService) toMarker(l domain.Listing) (domain.ListingMarker, bool) {
	if len(l.GeoRaw) == 0 {
		return domain.ListingMarker{}, false
	}
	pt, err := geocodec.Decode(l.GeoRaw)
	if err != nil {
		// Logged, never user-facing: the row just disappears from the map.
		slog.Debug("dropping listing with undecodable geography",
			"listing_id", l.ID, "error", err)
		metrics.MarkersDropped.Inc()
		return domain.ListingMarker{}, false
	}

	category := l.MaterialCategory
	if category == "" {
		category = defaultCategory
	}

	return domain.ListingMarker{
		ListingID: l.ID,
		Point:     pt,
		Title:     l.Title,
		Price:     l.ListedPrice,
		Quantity:  l.Quantity,
		Unit:      l.Unit,
		Category:  category,
	}, true
}
