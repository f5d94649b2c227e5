package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tripio/travel-marketplace/internal/model"
)

// ErrAvailabilityNotFound indicates that an availability window was
// not located.
var ErrAvailabilityNotFound = errors.New("availability not found")

// AvailabilityRepo manages bookable departure windows.  Slot counts
// are the booking system's inventory: DecrementSlotsTx and
// RestoreSlotsTx run inside the booking transaction so a window can
// never be oversold.
type AvailabilityRepo struct{ db *sql.DB }

func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

const availabilityColumns = "id, package_id, start_date, end_date, available_slots, is_available, special_price_cents"

func scanAvailability(row interface{ Scan(...any) error }) (model.Availability, error) {
	var a model.Availability
	err := row.Scan(&a.ID, &a.PackageID, &a.StartDate, &a.EndDate,
		&a.AvailableSlots, &a.IsAvailable, &a.SpecialPriceCents)
	return a, err
}

// Create inserts an availability window for a package the seller
// owns.
func (r *AvailabilityRepo) Create(ctx context.Context, a *model.Availability, sellerID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT seller_id FROM packages WHERE id=?", a.PackageID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPackageNotFound
	}
	if err != nil {
		return err
	}
	if owner != sellerID {
		return ErrForbidden
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO availabilities (package_id, start_date, end_date, available_slots, is_available, special_price_cents)
		 VALUES (?,?,?,?,?,?)`,
		a.PackageID, a.StartDate, a.EndDate, a.AvailableSlots, a.IsAvailable, a.SpecialPriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID fetches a window by ID.
func (r *AvailabilityRepo) GetByID(ctx context.Context, id uint64) (model.Availability, error) {
	a, err := scanAvailability(r.db.QueryRowContext(ctx,
		"SELECT "+availabilityColumns+" FROM availabilities WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Availability{}, ErrAvailabilityNotFound
	}
	return a, err
}

// ListByPackage returns a package's open future windows in departure
// order.  Sellers pass includeClosed to see everything.
func (r *AvailabilityRepo) ListByPackage(ctx context.Context, packageID uint64, includeClosed bool) ([]model.Availability, error) {
	q := "SELECT " + availabilityColumns + " FROM availabilities WHERE package_id=?"
	if !includeClosed {
		q += " AND is_available=1 AND start_date >= CURDATE()"
	}
	q += " ORDER BY start_date"
	rows, err := r.db.QueryContext(ctx, q, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Availability{}
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update rewrites a window's editable fields after verifying that the
// seller owns the parent package.
func (r *AvailabilityRepo) Update(ctx context.Context, a model.Availability, sellerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE availabilities av JOIN packages p ON p.id = av.package_id
		 SET av.start_date=?, av.end_date=?, av.available_slots=?, av.is_available=?, av.special_price_cents=?
		 WHERE av.id=? AND p.seller_id=?`,
		a.StartDate, a.EndDate, a.AvailableSlots, a.IsAvailable, a.SpecialPriceCents,
		a.ID, sellerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing window from someone else's window.
		if _, err := r.GetByID(ctx, a.ID); err != nil {
			return err
		}
		return ErrForbidden
	}
	return nil
}

// DecrementSlotsTx atomically takes n slots from an open window.  The
// guard in the WHERE clause is what prevents overselling under
// concurrent bookings; zero rows affected means the slots were gone.
func (r *AvailabilityRepo) DecrementSlotsTx(ctx context.Context, tx *sql.Tx, id uint64, n uint32) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE availabilities SET available_slots = available_slots - ?
		 WHERE id=? AND is_available=1 AND available_slots >= ?`,
		n, id, n)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrInsufficientSlots
	}
	return nil
}

// RestoreSlotsTx gives n slots back to a window when its booking is
// cancelled.
func (r *AvailabilityRepo) RestoreSlotsTx(ctx context.Context, tx *sql.Tx, id uint64, n uint32) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE availabilities SET available_slots = available_slots + ? WHERE id=?", n, id)
	return err
}
