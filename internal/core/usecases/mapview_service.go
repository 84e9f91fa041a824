package usecases

import (
	"strings"
	"sync"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/pkg/geospatial"
)

// Viewport policy observed in production: never zoom past 15 when
// fitting, always re-center at 15 on selection, start at 14.
const (
	DefaultZoom = 14
	SelectZoom  = 15
	MaxFitZoom  = 15
)

// DefaultCenter is the map's initial center before any point is known.
var DefaultCenter = domain.GeoPoint{Latitude: 20.5937, Longitude: 78.9629}

// Current marker is drawn larger than the rest.
const (
	markerSizeCurrent = 40
	markerSizeOther   = 30
)

// MapViewService owns the map viewport and marker selection. Every
// center/zoom/selection change funnels through it; nothing else touches
// MapViewState fields. Until the map SDK reports ready, mutations are
// held as a pending view and applied on SetReady, replacing the ad hoc
// script-loaded flags the behavior was ported from.
type MapViewService struct {
	mu      sync.Mutex
	ready   bool
	state   domain.MapViewState
	pending *domain.MapViewState
	markers []domain.ListingMarker
	current string // listing being viewed/edited, drawn larger
}

// NewMapViewService creates a view centered on the default viewport.
func NewMapViewService() *MapViewService {
	return &MapViewService{
		state: domain.MapViewState{Center: DefaultCenter, Zoom: DefaultZoom},
	}
}

// SetReady marks the map SDK loaded and applies any held view.
func (s *MapViewService) SetReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	if s.pending != nil {
		s.state = *s.pending
		s.pending = nil
	}
}

// Ready reports whether the map SDK has finished loading.
func (s *MapViewService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// CenterOn sets the viewport imperatively, keeping the selection.
func (s *MapViewService) CenterOn(p domain.GeoPoint, zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.Center = p
	next.Zoom = zoom
	s.apply(next)
}

// SetMarkers replaces the marker set. Marker state is rebuilt, never
// mutated in place; a selection pointing at a vanished marker is cleared.
func (s *MapViewService) SetMarkers(markers []domain.ListingMarker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append([]domain.ListingMarker(nil), markers...)
	if s.state.SelectedMarkerID != "" && s.find(s.state.SelectedMarkerID) == nil {
		next := s.state
		next.SelectedMarkerID = ""
		s.apply(next)
	}
}

// FitToMarkers replaces the marker set and fits the viewport to its
// bounding box, clamping zoom at MaxFitZoom so a lone marker or a tight
// cluster does not zoom in arbitrarily far. An empty set leaves the
// viewport untouched.
func (s *MapViewService) FitToMarkers(markers []domain.ListingMarker) {
	s.SetMarkers(markers)
	if len(markers) == 0 {
		return
	}

	b := geospatial.BoundsOf(markers)

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.Center = b.Center()
	next.Zoom = geospatial.ZoomFor(b, MaxFitZoom)
	s.apply(next)
}

// SelectMarker selects a marker and re-centers on it at SelectZoom so
// the info panel and marker stay in view. Returns false for unknown ids.
func (s *MapViewService) SelectMarker(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.find(id)
	if m == nil {
		return false
	}
	next := s.state
	next.SelectedMarkerID = id
	next.Center = m.Point
	next.Zoom = SelectZoom
	s.apply(next)
	return true
}

// Deselect clears the selection, leaving center and zoom alone.
func (s *MapViewService) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.SelectedMarkerID = ""
	s.apply(next)
}

// SetCurrentListing marks which listing's marker is drawn larger.
func (s *MapViewService) SetCurrentListing(listingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = listingID
}

// State returns a snapshot of the applied viewport.
func (s *MapViewService) State() domain.MapViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Markers returns the current marker snapshot.
func (s *MapViewService) Markers() []domain.ListingMarker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ListingMarker(nil), s.markers...)
}

// MarkerSize returns the icon edge in pixels for a listing's marker.
func (s *MapViewService) MarkerSize(listingID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if listingID != "" && listingID == s.current {
		return markerSizeCurrent
	}
	return markerSizeOther
}

// apply commits a view, or holds it while the map SDK is still loading.
// Callers hold s.mu.
func (s *MapViewService) apply(next domain.MapViewState) {
	if !s.ready {
		s.pending = &next
		return
	}
	s.state = next
}

func (s *MapViewService) find(id string) *domain.ListingMarker {
	for i := range s.markers {
		if s.markers[i].ListingID == id {
			return &s.markers[i]
		}
	}
	return nil
}

// MarkerColor maps a material category to its marker color. Unknown or
// missing categories render blue.
func MarkerColor(category string) string {
	switch strings.ToLower(category) {
	case "metal":
		return "red"
	case "plastic":
		return "green"
	case "paper":
		return "yellow"
	case "glass":
		return "purple"
	case "electronics":
		return "orange"
	case "textile":
		return "pink"
	case "organic":
		return "brown"
	default:
		return "blue"
	}
}
