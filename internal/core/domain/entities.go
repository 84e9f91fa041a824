package domain

import (
	"encoding/json"
	"time"
)

// Listing is a scrap listing row as read from the backing store.
// GeoRaw carries the persisted geography column verbatim; historically it
// has held three different encodings, so decoding is deferred to the
// coordinate codec rather than done at scan time.
type Listing struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	ListedPrice      *float64        `json:"listed_price,omitempty"`
	Quantity         *float64        `json:"quantity,omitempty"`
	Unit             string          `json:"unit,omitempty"`
	MaterialCategory string          `json:"material_category,omitempty"`
	GeoRaw           json.RawMessage `json:"geolocation,omitempty"`
	Address          string          `json:"address,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ListingMarker is the map-facing projection of a listing: one marker per
// listing with a decodable point. Listings without one are never defaulted
// to (0,0); they are simply absent from the marker set.
type ListingMarker struct {
	ListingID string   `json:"listing_id"`
	Point     GeoPoint `json:"point"`
	Title     string   `json:"title"`
	Price     *float64 `json:"price,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Category  string   `json:"category"`
}

// PickupRequest records a buyer asking to collect a listing at its
// resolved pickup point.
type PickupRequest struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	RequesterID string    `json:"requester_id"`
	Point       GeoPoint  `json:"point"`
	Address     string    `json:"address,omitempty"`
	Note        string    `json:"note,omitempty"`
	DistanceM   *float64  `json:"distance_m,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LocationUpdated is published after a pickup location write is verified.
type LocationUpdated struct {
	ListingID string    `json:"listing_id"`
	Point     GeoPoint  `json:"point"`
	Address   string    `json:"address,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Place is a forward-geocoded search result.
type Place struct {
	Point   GeoPoint `json:"point"`
	Address string   `json:"address"`
}

// PositionOptions mirrors the device geolocation request knobs.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

// LabelCount is one recognized material class in a detection result.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MaterialShare is a label's share of the total detected item count.
type MaterialShare struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MapViewState is the viewport plus selection, owned exclusively by the
// map view synchronizer. Rendering code reads snapshots; it never writes.
type MapViewState struct {
	Center           GeoPoint `json:"center"`
	Zoom             int      `json:"zoom"`
	SelectedMarkerID string   `json:"selected_marker_id,omitempty"`
}

// AcquisitionSource identifies how a pickup point is being obtained.
type AcquisitionSource string

const (
	SourceDevice AcquisitionSource = "device"
	SourceSearch AcquisitionSource = "search"
	SourceManual AcquisitionSource = "manual"
)

// AcquisitionPhase is the lifecycle phase of a location acquisition.
type AcquisitionPhase string

const (
	PhaseIdle      AcquisitionPhase = "idle"
	PhaseAcquiring AcquisitionPhase = "acquiring"
	PhaseResolved  AcquisitionPhase = "resolved"
	PhaseFailed    AcquisitionPhase = "failed"
)

// FailureReason classifies why an acquisition failed.
type FailureReason string

const (
	ReasonPermissionDenied FailureReason = "permission_denied"
	ReasonUnavailable      FailureReason = "unavailable"
	ReasonTimeout          FailureReason = "timeout"
	ReasonInvalidInput     FailureReason = "invalid_input"
)

// AcquisitionState is a snapshot of the acquisition state machine.
// Point and Address are set only in the resolved phase, Reason only in
// the failed phase.
type AcquisitionState struct {
	Phase   AcquisitionPhase  `json:"phase"`
	Source  AcquisitionSource `json:"source,omitempty"`
	Point   *GeoPoint         `json:"point,omitempty"`
	Address string            `json:"address,omitempty"`
	Reason  FailureReason     `json:"reason,omitempty"`
}
