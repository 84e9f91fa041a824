package usecases

import (
	"sync"

	"github.com/ecoloop/scrapmap/internal/core/ports"
)

// AcquisitionManager hands out one acquisition session per listing being
// edited. Sessions are created lazily and discarded when the edit ends
// (save, cancel, or navigation away).
type AcquisitionManager struct {
	geocoder ports.Geocoder
	view     *MapViewService

	mu       sync.Mutex
	sessions map[string]*AcquisitionService
}

// NewAcquisitionManager creates an empty session registry.
func NewAcquisitionManager(geocoder ports.Geocoder, view *MapViewService) *AcquisitionManager {
	return &AcquisitionManager{
		geocoder: geocoder,
		view:     view,
		sessions: make(map[string]*AcquisitionService),
	}
}

// Session returns the editing session for a listing, creating it if
// needed.
func (m *AcquisitionManager) Session(listingID string) *AcquisitionService {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[listingID]
	if !ok {
		s = NewAcquisitionService(m.geocoder, m.view)
		m.sessions[listingID] = s
	}
	return s
}

// End cancels and discards a listing's session, if one exists.
func (m *AcquisitionManager) End(listingID string) {
	m.mu.Lock()
	s, ok := m.sessions[listingID]
	delete(m.sessions, listingID)
	m.mu.Unlock()
	if ok {
		s.Cancel()
	}
}
