package usecases_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/usecases"
)

// --- Mock providers ---

type mockLocationProvider struct {
	fn func(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error)
}

func (m *mockLocationProvider) CurrentPosition(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error) {
	return m.fn(ctx, opts)
}

type mockGeocoder struct {
	reverseFn func(ctx context.Context, p domain.GeoPoint) (string, error)
	searchFn  func(ctx context.Context, query string) (*domain.Place, error)
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, p domain.GeoPoint) (string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return "", nil
}

func (m *mockGeocoder) PlaceSearch(ctx context.Context, query string) (*domain.Place, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

// --- Tests ---

func TestAcquisition_DeviceResolvesWithAddress(t *testing.T) {
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "Connaught Place, New Delhi", nil
		},
	}
	provider := &mockLocationProvider{
		fn: func(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error) {
			if !opts.HighAccuracy {
				t.Error("expected high accuracy request")
			}
			return domain.GeoPoint{Latitude: 28.6139, Longitude: 77.2090}, nil
		},
	}

	svc := usecases.NewAcquisitionService(geocoder, nil)
	st := svc.AcquireDevice(context.Background(), provider)

	if st.Phase != domain.PhaseResolved {
		t.Fatalf("expected resolved, got %s (%s)", st.Phase, st.Reason)
	}
	if st.Source != domain.SourceDevice {
		t.Errorf("source = %s", st.Source)
	}
	if st.Point == nil || st.Point.Latitude != 28.6139 {
		t.Errorf("point = %+v", st.Point)
	}
	if st.Address != "Connaught Place, New Delhi" {
		t.Errorf("address = %q", st.Address)
	}
}

func TestAcquisition_ReverseGeocodeFailureDoesNotFailResolution(t *testing.T) {
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	provider := &mockLocationProvider{
		fn: func(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error) {
			return domain.GeoPoint{Latitude: 28.6, Longitude: 77.2}, nil
		},
	}

	svc := usecases.NewAcquisitionService(geocoder, nil)
	st := svc.AcquireDevice(context.Background(), provider)

	if st.Phase != domain.PhaseResolved {
		t.Fatalf("expected resolved despite geocode failure, got %s", st.Phase)
	}
	if st.Address != "" {
		t.Errorf("expected empty address, got %q", st.Address)
	}
}

func TestAcquisition_ProviderErrorMapping(t *testing.T) {
	cases := map[error]domain.FailureReason{
		domain.ErrPermissionDenied:    domain.ReasonPermissionDenied,
		domain.ErrPositionTimeout:     domain.ReasonTimeout,
		domain.ErrPositionUnavailable: domain.ReasonUnavailable,
	}
	for provErr, want := range cases {
		provider := &mockLocationProvider{
			fn: func(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error) {
				return domain.GeoPoint{}, provErr
			},
		}
		svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)
		st := svc.AcquireDevice(context.Background(), provider)
		if st.Phase != domain.PhaseFailed || st.Reason != want {
			t.Errorf("%v: got phase=%s reason=%s, want failed/%s", provErr, st.Phase, st.Reason, want)
		}
		// The session itself stays retryable.
		if got := svc.State().Phase; got != domain.PhaseIdle {
			t.Errorf("%v: session phase = %s, want idle", provErr, got)
		}
	}
}

func TestAcquisition_SearchUsesResultAddress(t *testing.T) {
	reverseCalled := false
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			reverseCalled = true
			return "wrong", nil
		},
		searchFn: func(ctx context.Context, query string) (*domain.Place, error) {
			return &domain.Place{
				Point:   domain.GeoPoint{Latitude: 12.9716, Longitude: 77.5946},
				Address: "Bengaluru, Karnataka",
			}, nil
		},
	}

	svc := usecases.NewAcquisitionService(geocoder, nil)
	st := svc.AcquireSearch(context.Background(), "bengaluru scrap yard")

	if st.Phase != domain.PhaseResolved {
		t.Fatalf("expected resolved, got %s", st.Phase)
	}
	if st.Address != "Bengaluru, Karnataka" {
		t.Errorf("address = %q", st.Address)
	}
	if reverseCalled {
		t.Error("search path must not reverse geocode")
	}
}

func TestAcquisition_SearchNoMatchIsInvalidInput(t *testing.T) {
	svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)
	st := svc.AcquireSearch(context.Background(), "zzzzzz")
	if st.Phase != domain.PhaseFailed || st.Reason != domain.ReasonInvalidInput {
		t.Errorf("got %s/%s, want failed/invalid_input", st.Phase, st.Reason)
	}
}

func TestAcquisition_ManualOutOfRange(t *testing.T) {
	svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)
	st := svc.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 95, Longitude: 10})
	if st.Phase != domain.PhaseFailed || st.Reason != domain.ReasonInvalidInput {
		t.Errorf("got %s/%s, want failed/invalid_input", st.Phase, st.Reason)
	}
}

func TestAcquisition_LastWriterWins(t *testing.T) {
	// A starts first but resolves after B; B's result must stand.
	started := make(chan struct{})
	release := make(chan struct{})
	slow := &mockLocationProvider{
		fn: func(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error) {
			close(started)
			<-release
			return domain.GeoPoint{Latitude: 1, Longitude: 1}, nil
		},
	}

	svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var aState domain.AcquisitionState
	go func() {
		defer wg.Done()
		aState = svc.AcquireDevice(context.Background(), slow)
	}()

	<-started
	bState := svc.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 28.6139, Longitude: 77.2090})
	close(release)
	wg.Wait()

	if bState.Phase != domain.PhaseResolved {
		t.Fatalf("B not resolved: %s", bState.Phase)
	}
	final := svc.State()
	if final.Phase != domain.PhaseResolved || final.Point == nil || final.Point.Latitude != 28.6139 {
		t.Errorf("final state reflects A, want B: %+v", final)
	}
	// A's late return must have observed the supersession, not applied.
	if aState.Point != nil && aState.Point.Latitude == 1 {
		t.Errorf("stale acquisition applied its own result: %+v", aState)
	}
}

func TestAcquisition_SupersededContextIsCancelled(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	slow := &mockLocationProvider{
		fn: func(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error) {
			close(started)
			select {
			case <-ctx.Done():
				close(cancelled)
				return domain.GeoPoint{}, ctx.Err()
			case <-time.After(2 * time.Second):
				return domain.GeoPoint{Latitude: 1, Longitude: 1}, nil
			}
		},
	}

	svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)
	go svc.AcquireDevice(context.Background(), slow)

	<-started
	svc.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 2, Longitude: 2})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("superseded acquisition's context was never cancelled")
	}
}

func TestAcquisition_ResolvedIsReenterable(t *testing.T) {
	svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)

	first := svc.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 10, Longitude: 10})
	if first.Phase != domain.PhaseResolved {
		t.Fatalf("first: %s", first.Phase)
	}
	second := svc.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 20, Longitude: 20})
	if second.Phase != domain.PhaseResolved || second.Point.Latitude != 20 {
		t.Errorf("re-entry did not replace the resolved point: %+v", second)
	}
}

func TestAcquisition_FailureKeepsPriorResolved(t *testing.T) {
	svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)

	svc.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 10, Longitude: 10})
	st := svc.AcquireSearch(context.Background(), "") // invalid input
	if st.Phase != domain.PhaseFailed {
		t.Fatalf("expected surfaced failure, got %s", st.Phase)
	}

	session := svc.State()
	if session.Phase != domain.PhaseResolved || session.Point == nil || session.Point.Latitude != 10 {
		t.Errorf("session lost its prior resolved point: %+v", session)
	}
}

func TestAcquisition_Cancel(t *testing.T) {
	svc := usecases.NewAcquisitionService(&mockGeocoder{}, nil)
	svc.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 10, Longitude: 10})
	svc.Cancel()
	if st := svc.State(); st.Phase != domain.PhaseIdle || st.Point != nil {
		t.Errorf("expected idle after cancel, got %+v", st)
	}
}

func TestAcquisitionManager_SessionsArePerListing(t *testing.T) {
	mgr := usecases.NewAcquisitionManager(&mockGeocoder{}, nil)

	a := mgr.Session("listing-a")
	b := mgr.Session("listing-b")
	if a == b {
		t.Fatal("distinct listings must get distinct sessions")
	}
	if mgr.Session("listing-a") != a {
		t.Error("same listing must get the same session back")
	}

	a.AcquireManual(context.Background(), domain.GeoPoint{Latitude: 5, Longitude: 5})
	mgr.End("listing-a")
	if mgr.Session("listing-a") == a {
		t.Error("ended session must not be handed out again")
	}
}
