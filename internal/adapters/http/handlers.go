package http

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/usecases"
	"github.com/ecoloop/scrapmap/internal/pkg/metrics"
)

// MarkerView is a listing marker plus its rendering hints. Color follows
// the material category; size depends on whether the marker belongs to
// the listing the client is currently editing.
type MarkerView struct {
	domain.ListingMarker
	Color string `json:"color"`
	Size  int    `json:"size"`
}

func markerViews(deps *Dependencies, markers []domain.ListingMarker) []MarkerView {
	views := make([]MarkerView, 0, len(markers))
	for _, m := range markers {
		views = append(views, MarkerView{
			ListingMarker: m,
			Color:         usecases.MarkerColor(m.Category),
			Size:          deps.MapView.MarkerSize(m.ListingID),
		})
	}
	return views
}

// ListMarkersHandler returns all decodable listing markers.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers, err := deps.Markers.LoadAll(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		// Offset/limit pagination on the full marker set
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(markers)
		if offset >= total {
			markers = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			markers = markers[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(PaginatedResponse{Data: markerViews(deps, markers), Pagination: pg})
	}
}

// GetMarkerHandler returns one listing's marker.
func GetMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}
		marker, err := deps.Markers.LoadOne(c.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "listing has no pickup location")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(MarkerView{
			ListingMarker: *marker,
			Color:         usecases.MarkerColor(marker.Category),
			Size:          deps.MapView.MarkerSize(marker.ListingID),
		})
	}
}

type saveLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// SaveLocationHandler commits a resolved pickup point. On success the
// marker is re-read from the store so the response reflects persisted
// state, not the request payload.
func SaveLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}

		var req saveLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		pt := domain.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude}
		if err := deps.Pickups.SaveLocation(c.Context(), id, pt, req.Address); err != nil {
			switch {
			case errors.Is(err, domain.ErrOutOfRange):
				return errBadRequest(c, "coordinates out of range")
			case errors.Is(err, domain.ErrNotPersisted):
				return errNotPersisted(c, "location was not saved; please retry")
			default:
				return errInternal(c, err.Error())
			}
		}

		// A successful save ends the listing's editing session.
		deps.Acquisitions.End(id)

		marker, err := deps.Markers.LoadOne(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(MarkerView{
			ListingMarker: *marker,
			Color:         usecases.MarkerColor(marker.Category),
			Size:          deps.MapView.MarkerSize(marker.ListingID),
		})
	}
}

type acquireRequest struct {
	Source string `json:"source"` // "device" | "search" | "manual"

	// Device: the client-reported fix, or the error it hit.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"` // "permission_denied" | "unavailable" | "timeout"

	// Search
	Query string `json:"query"`
}

// reportedPosition adapts a client-reported device fix to the location
// provider port. The browser does the actual geolocation; the server
// only sees the outcome.
type reportedPosition struct {
	point domain.GeoPoint
	fail  string
}

func (r reportedPosition) CurrentPosition(ctx context.Context, opts domain.PositionOptions) (domain.GeoPoint, error) {
	switch r.fail {
	case "permission_denied":
		return domain.GeoPoint{}, domain.ErrPermissionDenied
	case "timeout":
		return domain.GeoPoint{}, domain.ErrPositionTimeout
	case "unavailable":
		return domain.GeoPoint{}, domain.ErrPositionUnavailable
	}
	return r.point, nil
}

// AcquireLocationHandler runs one acquisition attempt for a listing's
// session. A newer attempt always supersedes an in-flight one.
func AcquireLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}

		var req acquireRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		session := deps.Acquisitions.Session(id)

		var state domain.AcquisitionState
		switch req.Source {
		case "device":
			provider := reportedPosition{fail: req.Error}
			if req.Latitude != nil && req.Longitude != nil {
				provider.point = domain.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
			} else if provider.fail == "" {
				provider.fail = "unavailable"
			}
			state = session.AcquireDevice(c.Context(), provider)
		case "search":
			state = session.AcquireSearch(c.Context(), req.Query)
		case "manual":
			if req.Latitude == nil || req.Longitude == nil {
				return errBadRequest(c, "latitude and longitude are required for manual acquisition")
			}
			state = session.AcquireManual(c.Context(), domain.GeoPoint{
				Latitude:  *req.Latitude,
				Longitude: *req.Longitude,
			})
		default:
			return errBadRequest(c, "source must be device, search, or manual")
		}

		return c.JSON(state)
	}
}

// CancelAcquisitionHandler aborts any in-flight acquisition and resets
// the listing's session to idle.
func CancelAcquisitionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}
		deps.Acquisitions.Session(id).Cancel()
		return c.JSON(deps.Acquisitions.Session(id).State())
	}
}

// AcquisitionStateHandler returns the listing's current acquisition state.
func AcquisitionStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}
		return c.JSON(deps.Acquisitions.Session(id).State())
	}
}

type pickupRequestBody struct {
	RequesterID string   `json:"requester_id"`
	Note        string   `json:"note"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// RequestPickupHandler records a pickup request against a listing.
func RequestPickupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}

		var body pickupRequestBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.RequesterID == "" {
			return errBadRequest(c, "requester_id is required")
		}

		var from *domain.GeoPoint
		if body.Latitude != nil && body.Longitude != nil {
			from = &domain.GeoPoint{Latitude: *body.Latitude, Longitude: *body.Longitude}
		}

		req, err := deps.Pickups.RequestPickup(c.Context(), id, body.RequesterID, body.Note, from)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "listing has no pickup location")
			}
			return errInternal(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	}
}

// ListPickupsHandler returns the pickup requests recorded for a listing.
func ListPickupsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}
		reqs, err := deps.Pickups.ListPickups(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(reqs)
	}
}

// ViewportHandler returns the current map view state.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.MapView.State())
	}
}

// MapReadyHandler marks the map as initialized, applying any viewport
// change that arrived before the map could render.
func MapReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.MapView.SetReady()
		return c.JSON(deps.MapView.State())
	}
}

type selectRequest struct {
	MarkerID string `json:"marker_id"`
}

// SelectMarkerHandler selects a marker and re-centers on it.
func SelectMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.MarkerID == "" {
			return errBadRequest(c, "marker_id is required")
		}
		if !deps.MapView.SelectMarker(req.MarkerID) {
			return errNotFound(c, "marker not found")
		}
		return c.JSON(deps.MapView.State())
	}
}

// DeselectMarkerHandler clears the selection without moving the viewport.
func DeselectMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.MapView.Deselect()
		return c.JSON(deps.MapView.State())
	}
}

// FitMarkersHandler fits the viewport to the current marker set.
func FitMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers, err := deps.Markers.LoadAll(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		deps.MapView.SetMarkers(markers)
		deps.MapView.FitToMarkers(markers)
		return c.JSON(deps.MapView.State())
	}
}

type centerRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

// CenterViewportHandler re-centers the viewport on a point.
func CenterViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req centerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		pt := domain.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude}
		if !pt.Valid() {
			return errBadRequest(c, "coordinates out of range")
		}
		zoom := req.Zoom
		if zoom <= 0 {
			zoom = usecases.DefaultZoom
		}
		deps.MapView.CenterOn(pt, zoom)
		return c.JSON(deps.MapView.State())
	}
}

// DetectMaterialsHandler runs material recognition on an uploaded photo.
func DetectMaterialsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return errBadRequest(c, "image file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return errInternal(c, err.Error())
		}
		defer f.Close()

		image, err := io.ReadAll(f)
		if err != nil {
			return errInternal(c, err.Error())
		}

		counts, shares, err := deps.Detection.Detect(c.Context(), image, fh.Filename)
		if err != nil {
			metrics.Detections.WithLabelValues("error").Inc()
			return errInternal(c, err.Error())
		}
		metrics.Detections.WithLabelValues("ok").Inc()

		return c.JSON(fiber.Map{
			"labels": counts,
			"shares": shares,
		})
	}
}

// StatsHandler returns row counts from the marketplace tables.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats struct {
			Listings       int    `json:"listings"`
			WithLocation   int    `json:"with_location"`
			PickupRequests int    `json:"pickup_requests"`
			LastSave       string `json:"last_save,omitempty"`
		}
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM scrap_listings),
				(SELECT count(*) FROM scrap_listings WHERE geolocation IS NOT NULL),
				(SELECT count(*) FROM pickup_requests),
				COALESCE((SELECT max(updated_at)::text FROM scrap_listings), '')
		`)
		if err := row.Scan(&stats.Listings, &stats.WithLocation, &stats.PickupRequests, &stats.LastSave); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}
