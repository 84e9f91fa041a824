// Command geocode-backfill rewrites legacy geography encodings to GeoJSON.
//
// Reads stay permissive across all historical encodings, so the API works
// without this; the backfill just shrinks the legacy surface over time.
// Undecodable values are reported and left untouched.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ecoloop/scrapmap/internal/adapters/postgres"
	"github.com/ecoloop/scrapmap/internal/core/ports"
	"github.com/ecoloop/scrapmap/internal/pkg/config"
	"github.com/ecoloop/scrapmap/internal/pkg/geocodec"
	"github.com/ecoloop/scrapmap/internal/pkg/logging"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	batchSize := flag.Int("batch-size", 200, "rows per batch update")
	flag.Parse()

	cfg, err := config.Load("scrapmap-backfill")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("info", "text")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewListingRepo(db)

	listings, err := repo.ListWithCoordinates(ctx)
	if err != nil {
		log.Fatalf("list listings: %v", err)
	}

	var (
		pending     []ports.GeoUpdate
		canonical   int
		rewritten   int
		undecodable int
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if !*dryRun {
			if err := repo.UpdateGeolocationBatch(ctx, pending); err != nil {
				log.Fatalf("batch update: %v", err)
			}
		}
		rewritten += len(pending)
		pending = nil
	}

	for _, l := range listings {
		pt, format, err := geocodec.DecodeDetect(l.GeoRaw)
		if err != nil {
			undecodable++
			slog.Warn("skipping undecodable geography",
				"listing_id", l.ID, "error", err)
			continue
		}
		if format == geocodec.FormatGeoJSON {
			canonical++
			continue
		}

		slog.Info("normalizing listing geography",
			"listing_id", l.ID, "from", string(format), "dry_run", *dryRun)
		pending = append(pending, ports.GeoUpdate{
			ListingID: l.ID,
			Geo:       geocodec.Encode(pt),
		})
		if len(pending) >= *batchSize {
			flush()
		}
	}
	flush()

	slog.Info("backfill finished",
		"scanned", len(listings),
		"already_canonical", canonical,
		"rewritten", rewritten,
		"undecodable", undecodable,
		"dry_run", *dryRun)

	if undecodable > 0 {
		os.Exit(1)
	}
}
