package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tripio/travel-marketplace/internal/model"
)

// ActivityRepo persists tracked user activity and search-term
// counters.  The queue consumer is the only writer for activities;
// dashboards read the aggregates.
type ActivityRepo struct{ db *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// Insert stores one activity event.
func (r *ActivityRepo) Insert(ctx context.Context, a model.UserActivity) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_activities
			(user_id, session_id, ip_address, action, page, package_id, destination_id, metadata, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		a.UserID, a.SessionID, a.IPAddress, a.Action, a.Page,
		a.PackageID, a.DestinationID, a.Metadata, createdAt)
	return err
}

// RecordSearchTerm upserts a search-term counter: first search
// inserts the row, repeats bump the count and last_searched_at.
func (r *ActivityRepo) RecordSearchTerm(ctx context.Context, term string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO search_terms (term, count, first_searched_at, last_searched_at)
		 VALUES (?, 1, NOW(), NOW())
		 ON DUPLICATE KEY UPDATE count = count + 1, last_searched_at = NOW()`, term)
	return err
}

// TopSearchTerms returns the most-searched terms for the admin
// dashboard.
func (r *ActivityRepo) TopSearchTerms(ctx context.Context, limit int) ([]model.SearchTerm, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, term, count, first_searched_at, last_searched_at
		 FROM search_terms ORDER BY count DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SearchTerm{}
	for rows.Next() {
		var t model.SearchTerm
		if err := rows.Scan(&t.ID, &t.Term, &t.Count, &t.FirstSearchedAt, &t.LastSearchedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SellerStats is the aggregate block on the seller dashboard.  All
// monetary figures are minor units and count only paid or completed
// bookings.
type SellerStats struct {
	PackageCount       int64   `json:"package_count"`
	ActivePackageCount int64   `json:"active_package_count"`
	BookingCount       int64   `json:"booking_count"`
	PendingBookings    int64   `json:"pending_bookings"`
	RevenueCents       int64   `json:"revenue_cents"`
	AverageRating      float64 `json:"average_rating"`
}

// SellerDashboard aggregates a seller's packages, bookings and
// revenue in one round trip per figure.
func (r *ActivityRepo) SellerDashboard(ctx context.Context, sellerID uint64) (SellerStats, error) {
	var s SellerStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0),
			COALESCE(SUM(average_rating*review_count)/NULLIF(SUM(review_count),0), 0)
		 FROM packages WHERE seller_id=?`, sellerID).
		Scan(&s.PackageCount, &s.ActivePackageCount, &s.AverageRating)
	if err != nil {
		return SellerStats{}, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(b.status='pending'), 0),
			COALESCE(SUM(CASE WHEN b.status IN ('paid','completed') THEN b.total_price_cents ELSE 0 END), 0)
		 FROM bookings b JOIN packages p ON p.id=b.package_id
		 WHERE p.seller_id=?`, sellerID).
		Scan(&s.BookingCount, &s.PendingBookings, &s.RevenueCents)
	if err != nil {
		return SellerStats{}, err
	}
	return s, nil
}

// PlatformStats is the aggregate block on the admin dashboard.
type PlatformStats struct {
	UserCount      int64 `json:"user_count"`
	SellerCount    int64 `json:"seller_count"`
	PackageCount   int64 `json:"package_count"`
	BookingCount   int64 `json:"booking_count"`
	PaidBookings   int64 `json:"paid_bookings"`
	RevenueCents   int64 `json:"revenue_cents"`
	ActivityEvents int64 `json:"activity_events"`
}

// PlatformDashboard aggregates marketplace-wide figures for admins.
func (r *ActivityRepo) PlatformDashboard(ctx context.Context) (PlatformStats, error) {
	var s PlatformStats
	queries := []struct {
		sql  string
		dest []any
	}{
		{"SELECT COUNT(*), COALESCE(SUM(role='SELLER'), 0) FROM users",
			[]any{&s.UserCount, &s.SellerCount}},
		{"SELECT COUNT(*) FROM packages", []any{&s.PackageCount}},
		{`SELECT COUNT(*), COALESCE(SUM(status IN ('paid','completed')), 0),
			COALESCE(SUM(CASE WHEN status IN ('paid','completed') THEN total_price_cents ELSE 0 END), 0)
		  FROM bookings`,
			[]any{&s.BookingCount, &s.PaidBookings, &s.RevenueCents}},
		{"SELECT COUNT(*) FROM user_activities", []any{&s.ActivityEvents}},
	}
	for _, q := range queries {
		if err := r.db.QueryRowContext(ctx, q.sql).Scan(q.dest...); err != nil {
			return PlatformStats{}, err
		}
	}
	return s, nil
}
