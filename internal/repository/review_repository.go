package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tripio/travel-marketplace/internal/model"
)

// Errors returned by ReviewRepo.
var (
	ErrReviewNotFound = errors.New("review not found")
	ErrReviewExists   = errors.New("package already reviewed by this user")
)

// ReviewRepo persists reviews and keeps the denormalised rating
// rollups on packages and destinations in step.  Every write that can
// change a rollup runs the recomputation inside the same transaction.
type ReviewRepo struct {
	db           *sql.DB
	packages     *PackageRepo
	destinations *DestinationRepo
}

func NewReviewRepo(db *sql.DB, packages *PackageRepo, destinations *DestinationRepo) *ReviewRepo {
	return &ReviewRepo{db: db, packages: packages, destinations: destinations}
}

const reviewColumns = "id, user_id, package_id, booking_id, rating, title, content, is_published, created_at, updated_at"

func scanReview(row interface{ Scan(...any) error }) (model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.PackageID, &rv.BookingID, &rv.Rating,
		&rv.Title, &rv.Content, &rv.IsPublished, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

// Create inserts a review and refreshes the rollups in the same
// transaction.  The unique (user_id, package_id) index maps to
// ErrReviewExists.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review, destinationID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (user_id, package_id, booking_id, rating, title, content, is_published)
		 VALUES (?,?,?,?,?,?,?)`,
		rv.UserID, rv.PackageID, rv.BookingID, rv.Rating, rv.Title, rv.Content, rv.IsPublished)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrReviewExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)

	if err := r.refreshRollups(ctx, tx, rv.PackageID, destinationID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPublished flips a review's visibility and refreshes the rollups.
// Admin moderation goes through here.
func (r *ReviewRepo) SetPublished(ctx context.Context, id uint64, published bool) error {
	var (
		packageID     uint64
		destinationID uint64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT rv.package_id, p.destination_id
		 FROM reviews rv JOIN packages p ON p.id = rv.package_id
		 WHERE rv.id=?`, id).Scan(&packageID, &destinationID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReviewNotFound
	}
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE reviews SET is_published=? WHERE id=?", published, id); err != nil {
		return err
	}
	if err := r.refreshRollups(ctx, tx, packageID, destinationID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ReviewRepo) refreshRollups(ctx context.Context, tx *sql.Tx, packageID, destinationID uint64) error {
	if err := r.packages.RefreshRating(ctx, tx, packageID); err != nil {
		return err
	}
	return r.destinations.RefreshRating(ctx, tx, destinationID)
}

// GetByID fetches a review by primary key.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrReviewNotFound
	}
	return rv, err
}

// ListByPackage returns the published reviews of a package, newest
// first, with the total for pagination.
func (r *ReviewRepo) ListByPackage(ctx context.Context, packageID uint64, page, pageSize int) ([]model.Review, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reviews WHERE package_id=? AND is_published=1",
		packageID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+
			" FROM reviews WHERE package_id=? AND is_published=1 ORDER BY created_at DESC LIMIT ? OFFSET ?",
		packageID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Review, 0, pageSize)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

// ListByUser returns the user's own reviews, published or not.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
