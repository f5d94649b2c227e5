package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tripio/travel-marketplace/internal/model"
)

// ErrPackageNotFound indicates that a package lookup missed.
var ErrPackageNotFound = errors.New("package not found")

// PackageRepo manages persistence for travel packages and their
// itineraries.  Ownership checks live here so that handlers only have
// to branch on sentinel errors.
type PackageRepo struct{ db *sql.DB }

func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *PackageRepo) DB() *sql.DB { return r.db }

const packageColumns = `id, seller_id, destination_id, title, slug, description, short_description,
	duration_days, max_travelers, transportation_type, difficulty_level,
	base_price_cents, discount_price_cents, currency,
	what_is_included, what_is_excluded, main_image_url,
	is_active, featured, average_rating, review_count, created_at, updated_at`

func scanPackage(row interface{ Scan(...any) error }) (model.Package, error) {
	var p model.Package
	err := row.Scan(&p.ID, &p.SellerID, &p.DestinationID, &p.Title, &p.Slug,
		&p.Description, &p.ShortDescription, &p.DurationDays, &p.MaxTravelers,
		&p.TransportationType, &p.DifficultyLevel, &p.BasePriceCents,
		&p.DiscountPriceCents, &p.Currency, &p.WhatIsIncluded, &p.WhatIsExcluded,
		&p.MainImageURL, &p.IsActive, &p.Featured, &p.AverageRating,
		&p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a package and assigns the generated ID.
func (r *PackageRepo) Create(ctx context.Context, p *model.Package) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO packages
			(seller_id, destination_id, title, slug, description, short_description,
			 duration_days, max_travelers, transportation_type, difficulty_level,
			 base_price_cents, discount_price_cents, currency,
			 what_is_included, what_is_excluded, main_image_url, is_active, featured)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.SellerID, p.DestinationID, p.Title, p.Slug, p.Description, p.ShortDescription,
		p.DurationDays, p.MaxTravelers, p.TransportationType, p.DifficultyLevel,
		p.BasePriceCents, p.DiscountPriceCents, p.Currency,
		p.WhatIsIncluded, p.WhatIsExcluded, p.MainImageURL, p.IsActive, p.Featured)
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
	p.ID = uint64(id)
	return nil
}

// GetBySlug fetches an active package by slug.  Buyers browse by
// slug; inactive packages are invisible to them.
func (r *PackageRepo) GetBySlug(ctx context.Context, slug string) (model.Package, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx,
		"SELECT "+packageColumns+" FROM packages WHERE slug=? AND is_active=1 LIMIT 1", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Package{}, ErrPackageNotFound
	}
	return p, err
}

// GetByID fetches a package regardless of active flag.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (model.Package, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx,
		"SELECT "+packageColumns+" FROM packages WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Package{}, ErrPackageNotFound
	}
	return p, err
}

// GetOwned fetches a package and verifies that sellerID owns it,
// returning ErrForbidden otherwise.
func (r *PackageRepo) GetOwned(ctx context.Context, id, sellerID uint64) (model.Package, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Package{}, err
	}
	if p.SellerID != sellerID {
		return model.Package{}, ErrForbidden
	}
	return p, nil
}

// ListBySeller returns all of a seller's packages, newest first,
// including inactive ones.
func (r *PackageRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Package, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+packageColumns+" FROM packages WHERE seller_id=? ORDER BY created_at DESC",
		sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPackages(rows)
}

// ListFeatured returns featured, active packages for the landing feed.
func (r *PackageRepo) ListFeatured(ctx context.Context, limit int) ([]model.Package, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+packageColumns+
			" FROM packages WHERE featured=1 AND is_active=1 ORDER BY average_rating DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPackages(rows)
}

func collectPackages(rows *sql.Rows) ([]model.Package, error) {
	out := []model.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites a package's editable fields after verifying
// ownership.
func (r *PackageRepo) Update(ctx context.Context, p model.Package, sellerID uint64) error {
	if _, err := r.GetOwned(ctx, p.ID, sellerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE packages SET title=?, description=?, short_description=?,
			duration_days=?, max_travelers=?, transportation_type=?, difficulty_level=?,
			base_price_cents=?, discount_price_cents=?, currency=?,
			what_is_included=?, what_is_excluded=?, main_image_url=?, is_active=?
		 WHERE id=?`,
		p.Title, p.Description, p.ShortDescription,
		p.DurationDays, p.MaxTravelers, p.TransportationType, p.DifficultyLevel,
		p.BasePriceCents, p.DiscountPriceCents, p.Currency,
		p.WhatIsIncluded, p.WhatIsExcluded, p.MainImageURL, p.IsActive, p.ID)
	return err
}

// Delete removes a package that has never been booked.  Packages with
// bookings are financial history and can only be deactivated; the
// attempt returns ErrConflict.
func (r *PackageRepo) Delete(ctx context.Context, id, sellerID uint64) error {
	if _, err := r.GetOwned(ctx, id, sellerID); err != nil {
		return err
	}
	var bookings int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE package_id=?", id).Scan(&bookings); err != nil {
		return err
	}
	if bookings > 0 {
		return ErrConflict
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM packages WHERE id=?", id)
	return err
}

// SetFeatured flips the landing-feed flag.  Admin only.
func (r *PackageRepo) SetFeatured(ctx context.Context, id uint64, featured bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE packages SET featured=? WHERE id=?", featured, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPackageNotFound
	}
	return nil
}

// RefreshRating recomputes the package's rating rollup from its
// published reviews.  Runs inside the review transaction.
func (r *PackageRepo) RefreshRating(ctx context.Context, tx *sql.Tx, packageID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE packages SET
			average_rating = COALESCE((
				SELECT AVG(rating) FROM reviews WHERE package_id=? AND is_published=1), 0),
			review_count = (
				SELECT COUNT(*) FROM reviews WHERE package_id=? AND is_published=1)
		 WHERE id=?`, packageID, packageID, packageID)
	return err
}

// ReplaceItinerary swaps out a package's full day-by-day itinerary in
// one transaction after verifying ownership.
func (r *PackageRepo) ReplaceItinerary(ctx context.Context, packageID, sellerID uint64, days []model.ItineraryDay) error {
	if _, err := r.GetOwned(ctx, packageID, sellerID); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM itinerary_days WHERE package_id=?", packageID); err != nil {
		return err
	}
	for _, d := range days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO itinerary_days (package_id, day, title, description, accommodation, meals_included)
			 VALUES (?,?,?,?,?,?)`,
			packageID, d.Day, d.Title, d.Description, d.Accommodation, d.MealsIncluded); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListItinerary returns a package's itinerary ordered by day.
func (r *PackageRepo) ListItinerary(ctx context.Context, packageID uint64) ([]model.ItineraryDay, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, package_id, day, title, description, accommodation, meals_included
		 FROM itinerary_days WHERE package_id=? ORDER BY day`, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ItineraryDay{}
	for rows.Next() {
		var d model.ItineraryDay
		if err := rows.Scan(&d.ID, &d.PackageID, &d.Day, &d.Title,
			&d.Description, &d.Accommodation, &d.MealsIncluded); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
