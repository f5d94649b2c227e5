// This file defines repository methods for the geographic browse
// hierarchy: regions and travel interests. Regions form an adjacency
// list (continent → country → state/province → city); destinations
// hang off regions and live in destination_repository.go.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tripio/travel-marketplace/internal/model"
)

// ErrRegionNotFound indicates that a region was not located in the DB.
var ErrRegionNotFound = errors.New("region not found")

// ErrSlugExists is returned when a slug collides with an existing
// region, destination or package.
var ErrSlugExists = errors.New("slug already exists")

// RegionRepo manages persistence for regions and travel interests.
type RegionRepo struct{ db *sql.DB }

func NewRegionRepo(db *sql.DB) *RegionRepo { return &RegionRepo{db: db} }

const regionColumns = "id, name, slug, code, parent_id, description, image_url, is_active, featured"

func scanRegion(row interface{ Scan(...any) error }) (model.Region, error) {
	var reg model.Region
	err := row.Scan(&reg.ID, &reg.Name, &reg.Slug, &reg.Code, &reg.ParentID,
		&reg.Description, &reg.ImageURL, &reg.IsActive, &reg.Featured)
	return reg, err
}

// Create inserts a region and assigns the generated ID back to the
// struct.  Slug collisions map to ErrSlugExists.
func (r *RegionRepo) Create(ctx context.Context, reg *model.Region) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO regions (name, slug, code, parent_id, description, image_url, is_active, featured)
		 VALUES (?,?,?,?,?,?,?,?)`,
		reg.Name, reg.Slug, reg.Code, reg.ParentID, reg.Description,
		reg.ImageURL, reg.IsActive, reg.Featured)
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
	reg.ID = uint64(id)
	return nil
}

// GetBySlug fetches an active region by its slug.
func (r *RegionRepo) GetBySlug(ctx context.Context, slug string) (model.Region, error) {
	reg, err := scanRegion(r.db.QueryRowContext(ctx,
		"SELECT "+regionColumns+" FROM regions WHERE slug=? AND is_active=1 LIMIT 1", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Region{}, ErrRegionNotFound
	}
	return reg, err
}

// GetByID fetches a region regardless of active flag.  Admin screens
// need to see deactivated rows too.
func (r *RegionRepo) GetByID(ctx context.Context, id uint64) (model.Region, error) {
	reg, err := scanRegion(r.db.QueryRowContext(ctx,
		"SELECT "+regionColumns+" FROM regions WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Region{}, ErrRegionNotFound
	}
	return reg, err
}

// ListChildren returns the active child regions of parentID, or the
// active root regions when parentID is nil.
func (r *RegionRepo) ListChildren(ctx context.Context, parentID *uint64) ([]model.Region, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+regionColumns+" FROM regions WHERE parent_id IS NULL AND is_active=1 ORDER BY name")
	} else {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+regionColumns+" FROM regions WHERE parent_id=? AND is_active=1 ORDER BY name", *parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Region{}
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// ListFeatured returns the featured, active regions for the landing feed.
func (r *RegionRepo) ListFeatured(ctx context.Context) ([]model.Region, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+regionColumns+" FROM regions WHERE featured=1 AND is_active=1 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Region{}
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Update rewrites a region's editable fields.
func (r *RegionRepo) Update(ctx context.Context, reg model.Region) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE regions SET name=?, code=?, description=?, image_url=?, is_active=?, featured=?
		 WHERE id=?`,
		reg.Name, reg.Code, reg.Description, reg.ImageURL, reg.IsActive, reg.Featured, reg.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRegionNotFound
	}
	return nil
}

// ListInterests returns all travel interest categories.
func (r *RegionRepo) ListInterests(ctx context.Context) ([]model.TravelInterest, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, icon FROM travel_interests ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TravelInterest{}
	for rows.Next() {
		var ti model.TravelInterest
		if err := rows.Scan(&ti.ID, &ti.Name, &ti.Icon); err != nil {
			return nil, err
		}
		out = append(out, ti)
	}
	return out, rows.Err()
}
