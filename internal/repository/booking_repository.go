package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
)

// BookingRepo persists bookings and their travellers.  It satisfies
// payment.BookingStore so the payment status machine can project
// outcomes onto bookings without knowing about SQL.
//
// Bookings are never deleted; cancellation and refunds are status
// transitions guarded in the UPDATE's WHERE clause so a row can only
// move along the allowed lifecycle even under concurrent requests.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the handle for transactions shared with other repos
// (slot decrement + booking insert must commit together).
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, reference_code, user_id, package_id, availability_id, status,
	num_travelers, contact_name, contact_email, contact_phone, special_requirements,
	unit_price_cents, total_price_cents, currency,
	created_at, updated_at, paid_at, cancelled_at, cancellation_reason`

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var (
		b      model.Booking
		reason sql.NullString
	)
	err := row.Scan(&b.ID, &b.ReferenceCode, &b.UserID, &b.PackageID, &b.AvailabilityID,
		&b.Status, &b.NumTravelers, &b.ContactName, &b.ContactEmail, &b.ContactPhone,
		&b.SpecialRequirements, &b.UnitPriceCents, &b.TotalPriceCents, &b.Currency,
		&b.CreatedAt, &b.UpdatedAt, &b.PaidAt, &b.CancelledAt, &reason)
	b.CancellationReason = reason.String
	return b, err
}

// CreateTx inserts a booking and its travellers inside the caller's
// transaction.  The total is always recomputed from unit price and
// traveller count before the write, never trusted from the caller.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking, travelers []model.Traveler) error {
	b.RecalculateTotal()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings
			(reference_code, user_id, package_id, availability_id, status,
			 num_travelers, contact_name, contact_email, contact_phone, special_requirements,
			 unit_price_cents, total_price_cents, currency)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ReferenceCode, b.UserID, b.PackageID, b.AvailabilityID, b.Status,
		b.NumTravelers, b.ContactName, b.ContactEmail, b.ContactPhone, b.SpecialRequirements,
		b.UnitPriceCents, b.TotalPriceCents, b.Currency)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	for _, t := range travelers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO travelers
				(booking_id, first_name, last_name, email, phone, date_of_birth, gender, passport_number, nationality)
			 VALUES (?,?,?,?,?,?,?,?,?)`,
			b.ID, t.FirstName, t.LastName, t.Email, t.Phone,
			t.DateOfBirth, t.Gender, t.PassportNumber, t.Nationality); err != nil {
			return err
		}
	}
	return nil
}

// ReferenceExists reports whether a reference code is already taken,
// so callers can retry generation on the rare collision.
func (r *BookingRepo) ReferenceExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE reference_code=?", code).Scan(&n)
	return n > 0, err
}

// GetByID fetches a booking.  Misses translate to the payment
// package's sentinel so the status machine and handlers share one
// error.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, payment.ErrBookingNotFound
	}
	return b, err
}

// GetByIDForUser fetches a booking and verifies that userID owns it.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (model.Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != userID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

// GetByReference fetches a booking by its human-readable code.
func (r *BookingRepo) GetByReference(ctx context.Context, code string) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE reference_code=? LIMIT 1", code))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, payment.ErrBookingNotFound
	}
	return b, err
}

// ListByUser returns a buyer's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListForSeller returns bookings across all of a seller's packages,
// optionally filtered by status, newest first.
func (r *BookingRepo) ListForSeller(ctx context.Context, sellerID uint64, status string) ([]model.Booking, error) {
	q := `SELECT ` + prefixBookingColumns("b") + `
		FROM bookings b JOIN packages p ON p.id = b.package_id
		WHERE p.seller_id=?`
	args := []any{sellerID}
	if status != "" {
		q += " AND b.status=?"
		args = append(args, status)
	}
	q += " ORDER BY b.created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListTravelers returns a booking's traveller records.
func (r *BookingRepo) ListTravelers(ctx context.Context, bookingID uint64) ([]model.Traveler, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, first_name, last_name, email, phone,
			date_of_birth, gender, passport_number, nationality
		 FROM travelers WHERE booking_id=? ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Traveler{}
	for rows.Next() {
		var t model.Traveler
		if err := rows.Scan(&t.ID, &t.BookingID, &t.FirstName, &t.LastName,
			&t.Email, &t.Phone, &t.DateOfBirth, &t.Gender,
			&t.PassportNumber, &t.Nationality); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CancelTx marks a cancellable booking cancelled inside the caller's
// transaction.  The status guard makes a concurrent payment or second
// cancel lose the race cleanly with ErrConflict.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status=?, cancelled_at=NOW(), cancellation_reason=?
		 WHERE id=? AND status IN (?,?)`,
		model.BookingStatusCancelled, reason, id,
		model.BookingStatusPending, model.BookingStatusConfirmed)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// Confirm moves a pending booking to confirmed.  Sellers acknowledge
// a booking before payment; any other starting state is a conflict.
func (r *BookingRepo) Confirm(ctx context.Context, id uint64) error {
	return r.transition(ctx, id, model.BookingStatusConfirmed, model.BookingStatusPending)
}

// Complete moves a paid booking to completed once the trip has run.
func (r *BookingRepo) Complete(ctx context.Context, id uint64) error {
	return r.transition(ctx, id, model.BookingStatusCompleted, model.BookingStatusPaid)
}

func (r *BookingRepo) transition(ctx context.Context, id uint64, to string, from ...string) error {
	args := []any{to, id}
	placeholders := ""
	for i, f := range from {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, f)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=? AND status IN ("+placeholders+")", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// MarkPaid projects a completed payment onto the booking.  Part of
// payment.BookingStore.  Guarded so a late success webhook cannot
// resurrect a booking that was cancelled while the charge was in
// flight (its slots are already restored).
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=?, paid_at=? WHERE id=? AND status IN (?,?)",
		model.BookingStatusPaid, paidAt, id,
		model.BookingStatusPending, model.BookingStatusConfirmed)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, "SELECT status FROM bookings WHERE id=?", id).Scan(&status)
	if err == sql.ErrNoRows {
		return payment.ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	if status == model.BookingStatusPaid {
		// Redelivered webhook; the projection already happened.
		return nil
	}
	log.Printf("booking: payment completed for booking %d in status %s, not marking paid", id, status)
	return ErrConflict
}

// MarkRefunded projects a refunded payment onto the booking.  Part of
// payment.BookingStore.
func (r *BookingRepo) MarkRefunded(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=?",
		model.BookingStatusRefunded, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payment.ErrBookingNotFound
	}
	return nil
}

// HasCompletedForPackage reports whether the user has a paid or
// completed booking for the package.  Reviews require one.
func (r *BookingRepo) HasCompletedForPackage(ctx context.Context, userID, packageID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE user_id=? AND package_id=? AND status IN (?,?)",
		userID, packageID, model.BookingStatusPaid, model.BookingStatusCompleted).Scan(&n)
	return n > 0, err
}

func prefixBookingColumns(alias string) string {
	return alias + `.id, ` + alias + `.reference_code, ` + alias + `.user_id, ` + alias + `.package_id, ` +
		alias + `.availability_id, ` + alias + `.status, ` + alias + `.num_travelers, ` +
		alias + `.contact_name, ` + alias + `.contact_email, ` + alias + `.contact_phone, ` +
		alias + `.special_requirements, ` + alias + `.unit_price_cents, ` + alias + `.total_price_cents, ` +
		alias + `.currency, ` + alias + `.created_at, ` + alias + `.updated_at, ` +
		alias + `.paid_at, ` + alias + `.cancelled_at, ` + alias + `.cancellation_reason`
}
