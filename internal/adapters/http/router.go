package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/ecoloop/scrapmap/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// The old combined map payload; kept for older clients until sunset.
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/map",
			SunsetDate:  time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/markers",
		},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/markers", timeout.NewWithContext(ListMarkersHandler(deps), 15*time.Second))
	v1.Get("/map", timeout.NewWithContext(LegacyMapHandler(deps), 15*time.Second))
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), 15*time.Second))

	v1.Get("/listings/:id/marker", timeout.NewWithContext(GetMarkerHandler(deps), 15*time.Second))
	v1.Post("/listings/:id/location", timeout.NewWithContext(SaveLocationHandler(deps), 15*time.Second))
	v1.Post("/listings/:id/location/acquire", timeout.NewWithContext(AcquireLocationHandler(deps), 30*time.Second))
	v1.Post("/listings/:id/location/cancel", CancelAcquisitionHandler(deps))
	v1.Get("/listings/:id/location/state", AcquisitionStateHandler(deps))
	v1.Post("/listings/:id/pickup", timeout.NewWithContext(RequestPickupHandler(deps), 15*time.Second))
	v1.Get("/listings/:id/pickups", timeout.NewWithContext(ListPickupsHandler(deps), 15*time.Second))

	// Map view synchronizer
	v1.Get("/viewport", ViewportHandler(deps))
	v1.Post("/viewport/ready", MapReadyHandler(deps))
	v1.Post("/viewport/select", SelectMarkerHandler(deps))
	v1.Post("/viewport/deselect", DeselectMarkerHandler(deps))
	v1.Post("/viewport/fit", timeout.NewWithContext(FitMarkersHandler(deps), 15*time.Second))
	v1.Post("/viewport/center", CenterViewportHandler(deps))

	// Material detection
	v1.Post("/detect", timeout.NewWithContext(DetectMaterialsHandler(deps), 45*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

// LegacyMapHandler serves the pre-pagination marker payload.
func LegacyMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers, err := deps.Markers.LoadAll(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"markers":  markerViews(deps, markers),
			"viewport": deps.MapView.State(),
		})
	}
}
