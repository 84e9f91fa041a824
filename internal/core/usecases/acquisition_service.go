package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/ports"
	"github.com/ecoloop/scrapmap/internal/pkg/metrics"
)

// Device acquisition waits: warn after 10s, let the provider give up at
// 15s with high accuracy and no cached fix.
const (
	softWarnAfter   = 10 * time.Second
	providerTimeout = 15 * time.Second
)

// AcquisitionService runs one listing-location editing session's state
// machine: Idle -> Acquiring(source) -> Resolved | Failed.
//
// Only one acquisition is in flight at a time. Starting a new one bumps
// a generation counter and cancels the previous acquisition's context;
// a result arriving under a stale generation is discarded, so results
// apply in last-writer-wins order without any lock held across the
// provider call.
//
// A failure is surfaced to the caller as a Failed snapshot, but the
// stored session state keeps its prior value (Idle or the previous
// Resolved point) so the user can retry with another source.
type AcquisitionService struct {
	geocoder ports.Geocoder
	view     *MapViewService

	mu     sync.Mutex
	gen    uint64
	state  domain.AcquisitionState
	prev   domain.AcquisitionState // last settled state, restored on failure
	cancel context.CancelFunc
}

// NewAcquisitionService creates an idle session. view may be nil in
// contexts with no viewport to synchronize (e.g. the backfill CLI).
func NewAcquisitionService(geocoder ports.Geocoder, view *MapViewService) *AcquisitionService {
	return &AcquisitionService{
		geocoder: geocoder,
		view:     view,
		state:    domain.AcquisitionState{Phase: domain.PhaseIdle},
	}
}

// AcquireDevice resolves the point from the device location provider,
// then best-effort reverse geocodes it; a missing address never fails
// the resolution. Provider errors map onto the failure taxonomy.
func (s *AcquisitionService) AcquireDevice(ctx context.Context, provider ports.LocationProvider) domain.AcquisitionState {
	g, actx := s.begin(ctx, domain.SourceDevice)

	warn := time.AfterFunc(softWarnAfter, func() {
		slog.Warn("device location still pending", "waited", softWarnAfter.String())
	})
	pt, err := provider.CurrentPosition(actx, domain.PositionOptions{
		HighAccuracy: true,
		Timeout:      providerTimeout,
		MaxAge:       0,
	})
	warn.Stop()

	if err != nil {
		return s.fail(g, domain.SourceDevice, domain.FailureFor(err))
	}
	if !pt.Valid() {
		return s.fail(g, domain.SourceDevice, domain.ReasonInvalidInput)
	}

	addr := s.reverseGeocode(actx, pt)
	return s.resolve(g, domain.SourceDevice, pt, addr, DefaultZoom)
}

// AcquireSearch resolves the point from a place search. The address
// comes straight from the search result; no reverse geocoding.
func (s *AcquisitionService) AcquireSearch(ctx context.Context, query string) domain.AcquisitionState {
	g, actx := s.begin(ctx, domain.SourceSearch)

	if query == "" {
		return s.fail(g, domain.SourceSearch, domain.ReasonInvalidInput)
	}

	place, err := s.geocoder.PlaceSearch(actx, query)
	if err != nil {
		return s.fail(g, domain.SourceSearch, domain.ReasonUnavailable)
	}
	if place == nil {
		return s.fail(g, domain.SourceSearch, domain.ReasonInvalidInput)
	}

	return s.resolve(g, domain.SourceSearch, place.Point, place.Address, SelectZoom)
}

// AcquireManual resolves the point from a map click or marker drag and
// reverse geocodes it like the device path. The map does not re-center;
// the user is already looking at the point they clicked.
func (s *AcquisitionService) AcquireManual(ctx context.Context, pt domain.GeoPoint) domain.AcquisitionState {
	g, actx := s.begin(ctx, domain.SourceManual)

	if !pt.Valid() {
		return s.fail(g, domain.SourceManual, domain.ReasonInvalidInput)
	}

	addr := s.reverseGeocode(actx, pt)
	return s.resolve(g, domain.SourceManual, pt, addr, 0)
}

// Cancel returns the session to Idle and discards any in-flight result.
func (s *AcquisitionService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = domain.AcquisitionState{Phase: domain.PhaseIdle}
	s.prev = s.state
}

// State returns a snapshot of the session state.
func (s *AcquisitionService) State() domain.AcquisitionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin starts a new generation, cancelling the previous acquisition's
// context so superseded network calls abort instead of clobbering a
// newer result.
func (s *AcquisitionService) begin(ctx context.Context, source domain.AcquisitionSource) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	actx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.state.Phase != domain.PhaseAcquiring {
		s.prev = s.state
	}
	s.state = domain.AcquisitionState{Phase: domain.PhaseAcquiring, Source: source}
	return s.gen, actx
}

func (s *AcquisitionService) resolve(g uint64, source domain.AcquisitionSource, pt domain.GeoPoint, addr string, zoom int) domain.AcquisitionState {
	s.mu.Lock()
	if g != s.gen {
		// Superseded while we were waiting; drop the result.
		stale := s.state
		s.mu.Unlock()
		return stale
	}
	s.state = domain.AcquisitionState{
		Phase:   domain.PhaseResolved,
		Source:  source,
		Point:   &pt,
		Address: addr,
	}
	snapshot := s.state
	s.mu.Unlock()

	metrics.Acquisitions.WithLabelValues(string(source), "resolved").Inc()
	if s.view != nil && zoom > 0 {
		s.view.CenterOn(pt, zoom)
	}
	return snapshot
}

func (s *AcquisitionService) fail(g uint64, source domain.AcquisitionSource, reason domain.FailureReason) domain.AcquisitionState {
	failed := domain.AcquisitionState{Phase: domain.PhaseFailed, Source: source, Reason: reason}

	s.mu.Lock()
	if g == s.gen && s.state.Phase == domain.PhaseAcquiring {
		// Keep the prior settled value (Idle or the previous Resolved
		// point) so a retry can start from where it was.
		s.state = s.prev
	}
	s.mu.Unlock()

	metrics.Acquisitions.WithLabelValues(string(source), string(reason)).Inc()
	slog.Info("location acquisition failed", "source", source, "reason", reason)
	return failed
}

func (s *AcquisitionService) reverseGeocode(ctx context.Context, pt domain.GeoPoint) string {
	if s.geocoder == nil {
		return ""
	}
	addr, err := s.geocoder.ReverseGeocode(ctx, pt)
	if err != nil {
		slog.Debug("reverse geocode failed", "error", err)
		return ""
	}
	return addr
}
