package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tripio/travel-marketplace/internal/model"
)

// ErrDestinationNotFound indicates that a destination lookup missed.
var ErrDestinationNotFound = errors.New("destination not found")

// DestinationRepo manages persistence for destinations.  Rating
// rollups (average_rating, review_count) are denormalized onto the
// row and refreshed from package rollups by RefreshRating.
type DestinationRepo struct{ db *sql.DB }

func NewDestinationRepo(db *sql.DB) *DestinationRepo { return &DestinationRepo{db: db} }

const destinationColumns = `id, region_id, name, slug, description, short_description,
	latitude, longitude, address, main_image_url, average_rating, review_count, is_active, featured`

func scanDestination(row interface{ Scan(...any) error }) (model.Destination, error) {
	var d model.Destination
	err := row.Scan(&d.ID, &d.RegionID, &d.Name, &d.Slug, &d.Description, &d.ShortDescription,
		&d.Latitude, &d.Longitude, &d.Address, &d.MainImageURL, &d.AverageRating, &d.ReviewCount,
		&d.IsActive, &d.Featured)
	return d, err
}

// Create inserts a destination and assigns the generated ID.
func (r *DestinationRepo) Create(ctx context.Context, d *model.Destination) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO destinations
			(region_id, name, slug, description, short_description, latitude, longitude,
			 address, main_image_url, is_active, featured)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		d.RegionID, d.Name, d.Slug, d.Description, d.ShortDescription,
		d.Latitude, d.Longitude, d.Address, d.MainImageURL, d.IsActive, d.Featured)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// GetBySlug fetches an active destination by slug.
func (r *DestinationRepo) GetBySlug(ctx context.Context, slug string) (model.Destination, error) {
	d, err := scanDestination(r.db.QueryRowContext(ctx,
		"SELECT "+destinationColumns+" FROM destinations WHERE slug=? AND is_active=1 LIMIT 1", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Destination{}, ErrDestinationNotFound
	}
	return d, err
}

// GetByID fetches a destination regardless of active flag.
func (r *DestinationRepo) GetByID(ctx context.Context, id uint64) (model.Destination, error) {
	d, err := scanDestination(r.db.QueryRowContext(ctx,
		"SELECT "+destinationColumns+" FROM destinations WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Destination{}, ErrDestinationNotFound
	}
	return d, err
}

// ListByRegion returns the active destinations inside a region,
// best-rated first.
func (r *DestinationRepo) ListByRegion(ctx context.Context, regionID uint64) ([]model.Destination, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+destinationColumns+
			" FROM destinations WHERE region_id=? AND is_active=1 ORDER BY average_rating DESC, name",
		regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDestinations(rows)
}

// ListFeatured returns featured, active destinations for the landing feed.
func (r *DestinationRepo) ListFeatured(ctx context.Context, limit int) ([]model.Destination, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+destinationColumns+
			" FROM destinations WHERE featured=1 AND is_active=1 ORDER BY average_rating DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDestinations(rows)
}

func collectDestinations(rows *sql.Rows) ([]model.Destination, error) {
	out := []model.Destination{}
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update rewrites a destination's editable fields.
func (r *DestinationRepo) Update(ctx context.Context, d model.Destination) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE destinations SET name=?, description=?, short_description=?, latitude=?, longitude=?,
			address=?, main_image_url=?, is_active=?, featured=? WHERE id=?`,
		d.Name, d.Description, d.ShortDescription, d.Latitude, d.Longitude,
		d.Address, d.MainImageURL, d.IsActive, d.Featured, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDestinationNotFound
	}
	return nil
}

// RefreshRating recomputes the destination's rating rollup from the
// rollups of its active packages.  Called inside the review
// transaction after a package rollup changes.
func (r *DestinationRepo) RefreshRating(ctx context.Context, tx *sql.Tx, destinationID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE destinations SET
			average_rating = COALESCE((
				SELECT SUM(average_rating*review_count)/NULLIF(SUM(review_count),0)
				FROM packages WHERE destination_id=? AND is_active=1), 0),
			review_count = COALESCE((
				SELECT SUM(review_count)
				FROM packages WHERE destination_id=? AND is_active=1), 0)
		 WHERE id=?`, destinationID, destinationID, destinationID)
	return err
}
