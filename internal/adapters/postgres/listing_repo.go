package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ecoloop/scrapmap/internal/core/domain"
	"github.com/ecoloop/scrapmap/internal/core/ports"
)

// ListingRepo implements ports.ListingRepository with pgx.
type ListingRepo struct {
	db *DB
}

// NewListingRepo creates a new ListingRepo.
func NewListingRepo(db *DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// ListWithCoordinates returns every listing with a non-null geolocation
// column. The column is jsonb and is returned verbatim; rows whose value
// turns out undecodable are the codec's problem, not the query's.
func (r *ListingRepo) ListWithCoordinates(ctx context.Context) ([]domain.Listing, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, title, listed_price, quantity, COALESCE(unit, ''),
		       COALESCE(material_category, ''), geolocation, COALESCE(address, ''), created_at
		FROM scrap_listings
		WHERE geolocation IS NOT NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		var geo []byte
		if err := rows.Scan(
			&l.ID, &l.Title, &l.ListedPrice, &l.Quantity, &l.Unit,
			&l.MaterialCategory, &geo, &l.Address, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		l.GeoRaw = json.RawMessage(geo)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// GetByID returns a listing by UUID.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	var geo []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, title, listed_price, quantity, COALESCE(unit, ''),
		       COALESCE(material_category, ''), geolocation, COALESCE(address, ''), created_at
		FROM scrap_listings WHERE id = $1
	`, id).Scan(
		&l.ID, &l.Title, &l.ListedPrice, &l.Quantity, &l.Unit,
		&l.MaterialCategory, &geo, &l.Address, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	l.GeoRaw = json.RawMessage(geo)
	return &l, nil
}

// UpdateGeolocation writes the canonical GeoJSON point and the optional
// address. The affected row count is returned as-is; callers treat zero
// rows with no error as a rejected write, so this must not paper over it.
func (r *ListingRepo) UpdateGeolocation(ctx context.Context, id string, geo domain.GeoJSONPoint, address string) (int64, error) {
	payload, err := json.Marshal(geo)
	if err != nil {
		return 0, fmt.Errorf("marshal geolocation: %w", err)
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE scrap_listings
		SET geolocation = $2, address = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`, id, payload, address)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateGeolocationBatch rewrites many geolocation columns in one round
// trip using pgx.Batch. Used by the backfill to normalize legacy encodings.
func (r *ListingRepo) UpdateGeolocationBatch(ctx context.Context, updates []ports.GeoUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		payload, err := json.Marshal(u.Geo)
		if err != nil {
			return fmt.Errorf("marshal geolocation for %s: %w", u.ListingID, err)
		}
		batch.Queue(`
			UPDATE scrap_listings SET geolocation = $2, updated_at = now() WHERE id = $1
		`, u.ListingID, payload)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range updates {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
