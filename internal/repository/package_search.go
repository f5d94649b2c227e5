package repository

import (
	"context"
	"strings"
)

// PackageSearchQuery defines filters & pagination for searching
// packages.  Prices are minor units; dates are "2006-01-02" strings
// matched against availability windows.
type PackageSearchQuery struct {
	Keyword       string
	Destination   string
	Region        string
	MinPriceCents int64
	MaxPriceCents int64
	MinDuration   int
	MaxDuration   int
	Difficulty    string
	StartAfter    string
	StartBefore   string
	SortBy        string // price_asc, price_desc, rating, newest
	Page          int
	PageSize      int
}

// PublicPackageRow is the flattened listing shape returned by search.
type PublicPackageRow struct {
	ID               uint64  `json:"id"`
	Title            string  `json:"title"`
	Slug             string  `json:"slug"`
	ShortDescription string  `json:"short_description"`
	DestinationID    uint64  `json:"destination_id"`
	Destination      string  `json:"destination"`
	Region           string  `json:"region"`
	DurationDays     uint32  `json:"duration_days"`
	Difficulty       string  `json:"difficulty_level"`
	PriceCents       int64   `json:"price_cents"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency"`
	AverageRating    float64 `json:"average_rating"`
	ReviewCount      uint32  `json:"review_count"`
	MainImageURL     string  `json:"main_image_url"`
}

// effective price used by filters and sorting: discount when set,
// base price otherwise.
const searchPriceExpr = "COALESCE(NULLIF(p.discount_price_cents, 0), p.base_price_cents)"

// Search returns a page of active packages matching the query plus
// the total match count for pagination.
func (r *PackageRepo) Search(ctx context.Context, q PackageSearchQuery) ([]PublicPackageRow, int64, error) {
	where := []string{"p.is_active=1", "d.is_active=1"}
	args := []any{}

	if q.Keyword != "" {
		where = append(where, "(LOWER(p.title) LIKE ? OR LOWER(p.short_description) LIKE ? OR LOWER(d.name) LIKE ?)")
		kw := "%" + strings.ToLower(q.Keyword) + "%"
		args = append(args, kw, kw, kw)
	}
	if q.Destination != "" {
		where = append(where, "LOWER(d.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Destination)+"%")
	}
	if q.Region != "" {
		where = append(where, "LOWER(rg.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Region)+"%")
	}
	if q.MinPriceCents > 0 {
		where = append(where, searchPriceExpr+" >= ?")
		args = append(args, q.MinPriceCents)
	}
	if q.MaxPriceCents > 0 {
		where = append(where, searchPriceExpr+" <= ?")
		args = append(args, q.MaxPriceCents)
	}
	if q.MinDuration > 0 {
		where = append(where, "p.duration_days >= ?")
		args = append(args, q.MinDuration)
	}
	if q.MaxDuration > 0 {
		where = append(where, "p.duration_days <= ?")
		args = append(args, q.MaxDuration)
	}
	if q.Difficulty != "" {
		where = append(where, "p.difficulty_level = ?")
		args = append(args, strings.ToLower(q.Difficulty))
	}
	if q.StartAfter != "" || q.StartBefore != "" {
		sub := []string{"av.package_id = p.id", "av.is_available=1", "av.available_slots > 0"}
		if q.StartAfter != "" {
			sub = append(sub, "av.start_date >= ?")
			args = append(args, q.StartAfter)
		}
		if q.StartBefore != "" {
			sub = append(sub, "av.start_date <= ?")
			args = append(args, q.StartBefore)
		}
		where = append(where,
			"EXISTS (SELECT 1 FROM availabilities av WHERE "+strings.Join(sub, " AND ")+")")
	}

	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM packages p
		JOIN destinations d ON d.id = p.destination_id
		JOIN regions rg     ON rg.id = d.region_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "p.created_at DESC"
	switch strings.ToLower(q.SortBy) {
	case "price_asc":
		order = searchPriceExpr + " ASC"
	case "price_desc":
		order = searchPriceExpr + " DESC"
	case "rating":
		order = "p.average_rating DESC, p.review_count DESC"
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
			p.id,
			p.title,
			p.slug,
			p.short_description,
			d.id   AS destination_id,
			d.name AS destination,
			rg.name AS region,
			p.duration_days,
			p.difficulty_level,
			` + searchPriceExpr + ` AS price_cents,
			p.currency,
			p.average_rating,
			p.review_count,
			p.main_image_url
		FROM packages p
		JOIN destinations d ON d.id = p.destination_id
		JOIN regions rg     ON rg.id = d.region_id
		WHERE ` + cond + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicPackageRow, 0, limit)
	for rows.Next() {
		var row PublicPackageRow
		if err := rows.Scan(
			&row.ID,
			&row.Title,
			&row.Slug,
			&row.ShortDescription,
			&row.DestinationID,
			&row.Destination,
			&row.Region,
			&row.DurationDays,
			&row.Difficulty,
			&row.PriceCents,
			&row.Currency,
			&row.AverageRating,
			&row.ReviewCount,
			&row.MainImageURL,
		); err != nil {
			return nil, 0, err
		}
		row.Price = float64(row.PriceCents) / 100.0
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
