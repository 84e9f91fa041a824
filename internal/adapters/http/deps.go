package http

import (
	"github.com/nats-io/nats.go"

	"github.com/ecoloop/scrapmap/internal/adapters/postgres"
	"github.com/ecoloop/scrapmap/internal/adapters/valkey"
	"github.com/ecoloop/scrapmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Markers      *usecases.MarkerService
	MapView      *usecases.MapViewService
	Acquisitions *usecases.AcquisitionManager
	Pickups      *usecases.PickupService
	Detection    *usecases.DetectionService
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache
}
