package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ecoloop/scrapmap/internal/adapters/detect"
	"github.com/ecoloop/scrapmap/internal/adapters/geocode"
	"github.com/ecoloop/scrapmap/internal/adapters/http"
	natsadapter "github.com/ecoloop/scrapmap/internal/adapters/nats"
	"github.com/ecoloop/scrapmap/internal/adapters/postgres"
	"github.com/ecoloop/scrapmap/internal/adapters/valkey"
	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/ports"
	"github.com/ecoloop/scrapmap/internal/core/usecases"
	"github.com/ecoloop/scrapmap/internal/pkg/config"
	"github.com/ecoloop/scrapmap/internal/pkg/logging"
	"github.com/ecoloop/scrapmap/internal/pkg/metrics"
	"github.com/ecoloop/scrapmap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("scrapmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache. The API degrades to uncached reads when Valkey is down.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS publisher for location-updated events
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos and outbound clients
	listingRepo := postgres.NewListingRepo(db)
	pickupRepo := postgres.NewPickupRepo(db)
	geocoder := geocode.NewClient(cfg.Geocoding)
	detector := detect.NewClient(cfg.Detector)

	// Use cases
	markerSvc := usecases.NewMarkerService(listingRepo, cacheSvc)
	viewSvc := usecases.NewMapViewService()
	acquisitions := usecases.NewAcquisitionManager(geocoder, viewSvc)
	pickupSvc := usecases.NewPickupService(listingRepo, pickupRepo, markerSvc, publisher)
	detectionSvc := usecases.NewDetectionService(detector)

	// Location updates from other instances invalidate the marker cache.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeLocationUpdates(ctx, func(ctx context.Context, ev *domain.LocationUpdated) error {
			markerSvc.InvalidateAll(ctx)
			slog.Debug("marker cache invalidated", "listing_id", ev.ListingID)
			return nil
		})
		if err != nil {
			slog.Warn("subscribe location updates", "error", err)
		}
	}

	deps := &http.Dependencies{
		Markers:      markerSvc,
		MapView:      viewSvc,
		Acquisitions: acquisitions,
		Pickups:      pickupSvc,
		Detection:    detectionSvc,
		NATS:         natsConn,
		DB:           db,
		Cache:        cache,
	}

	// Pool stats for the Prometheus scrape
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // detection photos
		AppName:      "ScrapMap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.ecoloop.in",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
