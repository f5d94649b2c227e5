package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
)

// PaymentRepo persists payment attempts.  It satisfies
// payment.PaymentStore; misses translate to the payment package's
// sentinels so the status machine never sees sql.ErrNoRows.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, booking_id, amount_cents, currency, method, status,
	transaction_id, gateway_response, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Currency, &p.Method,
		&p.Status, &p.TransactionID, &p.GatewayResponse, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a payment and assigns the generated ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (booking_id, amount_cents, currency, method, status, transaction_id, gateway_response)
		 VALUES (?,?,?,?,?,?,?)`,
		p.BookingID, p.AmountCents, p.Currency, p.Method, p.Status,
		p.TransactionID, p.GatewayResponse)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches a payment by primary key.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, payment.ErrPaymentNotFound
	}
	return p, err
}

// GetByTransactionID fetches a payment by the gateway intent id.
// Webhook events correlate through this column, so it carries a
// unique index.
func (r *PaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE transaction_id=? LIMIT 1", transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, payment.ErrPaymentNotFound
	}
	return p, err
}

// UpdateStatus moves a payment to the given status.  A non-nil
// gatewayResponse replaces the stored payload; nil leaves it alone.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uint64, status string, gatewayResponse []byte) error {
	var (
		res sql.Result
		err error
	)
	if gatewayResponse != nil {
		res, err = r.db.ExecContext(ctx,
			"UPDATE payments SET status=?, gateway_response=? WHERE id=?",
			status, gatewayResponse, id)
	} else {
		res, err = r.db.ExecContext(ctx,
			"UPDATE payments SET status=? WHERE id=?", status, id)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

// HasCompleted reports whether the booking already has a completed
// payment.  Guards against double charging on intent retries.
func (r *PaymentRepo) HasCompleted(ctx context.Context, bookingID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments WHERE booking_id=? AND status=?",
		bookingID, model.PaymentStatusCompleted).Scan(&n)
	return n > 0, err
}

// ListByBooking returns every payment attempt for a booking, oldest
// first, for the buyer's payment history view.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE booking_id=? ORDER BY created_at",
		bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
