package postgres

import (
	"context"

	"github.com/ecoloop/scrapmap/internal/core/domain"
)

// PickupRepo implements ports.PickupRequestRepository with pgx.
type PickupRepo struct {
	db *DB
}

// NewPickupRepo creates a new PickupRepo.
func NewPickupRepo(db *DB) *PickupRepo {
	return &PickupRepo{db: db}
}

// Create inserts a pickup request and fills in the generated id.
func (r *PickupRepo) Create(ctx context.Context, req *domain.PickupRequest) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO pickup_requests (listing_id, requester_id, latitude, longitude, address, note, distance_m, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		RETURNING id
	`, req.ListingID, req.RequesterID, req.Point.Latitude, req.Point.Longitude,
		req.Address, req.Note, req.DistanceM, req.CreatedAt,
	).Scan(&req.ID)
}

// ListByListing returns pickup requests for a listing, newest first.
func (r *PickupRepo) ListByListing(ctx context.Context, listingID string) ([]domain.PickupRequest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, listing_id, requester_id, latitude, longitude,
		       COALESCE(address, ''), COALESCE(note, ''), distance_m, created_at
		FROM pickup_requests
		WHERE listing_id = $1
		ORDER BY created_at DESC
	`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.PickupRequest
	for rows.Next() {
		var p domain.PickupRequest
		if err := rows.Scan(
			&p.ID, &p.ListingID, &p.RequesterID, &p.Point.Latitude, &p.Point.Longitude,
			&p.Address, &p.Note, &p.DistanceM, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, p)
	}
	return reqs, rows.Err()
}
