package ports

import (
	"context"

	"github.com/ecoloop/scrapmap/internal/core/domain"
)

// LocationProvider yields a device position fix. In production the fix
// crosses the API boundary as a client-reported reading; in tests it is
// faked to exercise timeout and supersession behavior.
type LocationProvider interface {
	CurrentPosition(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error)
}

// Geocoder translates between points and addresses.
type Geocoder interface {
	// ReverseGeocode returns a formatted address for a point, or an empty
	// string when the provider has none.
	ReverseGeocode(ctx context.Context, p domain.GeoPoint) (string, error)

	// PlaceSearch resolves a free-text query to a place, or nil when
	// nothing matches.
	PlaceSearch(ctx context.Context, query string) (*domain.Place, error)
}

// MaterialDetector labels recyclable materials in an image.
type MaterialDetector interface {
	Detect(ctx context.Context, image []byte, filename string) ([]domain.LabelCount, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishLocationUpdated(ctx context.Context, ev *domain.LocationUpdated) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeLocationUpdates(ctx context.Context, handler func(ctx context.Context, ev *domain.LocationUpdated) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
