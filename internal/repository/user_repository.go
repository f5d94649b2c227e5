package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/utils"
)

// Errors returned by UserRepo.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrUserNotFound   = errors.New("user not found")
)

// UserRepo persists marketplace accounts.  Buyers, sellers and
// admins all live in the same users table, distinguished by role.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, username, password_hash, role, first_name, last_name,
	phone, country, city, bio, company_name, website,
	is_active, is_verified_seller, created_at, updated_at, last_active_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &u.Phone, &u.Country, &u.City, &u.Bio,
		&u.CompanyName, &u.Website, &u.IsActive, &u.IsVerifiedSeller,
		&u.CreatedAt, &u.UpdatedAt, &u.LastActiveAt)
	return u, err
}

// Create inserts a user and returns its ID.  Emails are normalized
// to lower case.  Duplicate email/username collisions are mapped to
// their sentinel errors by inspecting the MySQL duplicate-key error.
func (r *UserRepo) Create(ctx context.Context, email, username, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, role) VALUES (?,?,?,?)",
		email, username, hash, role)
	if err != nil {
		lc := strings.ToLower(err.Error())
		if strings.Contains(lc, "1062") {
			if strings.Contains(lc, "username") {
				return 0, ErrUsernameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// UpdateProfile writes the user-editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, phone=?, country=?, city=?,
			bio=?, company_name=?, website=? WHERE id=?`,
		u.FirstName, u.LastName, u.Phone, u.Country, u.City,
		u.Bio, u.CompanyName, u.Website, u.ID)
	return err
}

// TouchLastActive records that the user was just seen.  Best-effort:
// callers generally ignore the error.
func (r *UserRepo) TouchLastActive(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_active_at=NOW() WHERE id=?", id)
	return err
}

// SetActive flips the account's sign-in flag.  Used by admins to
// suspend and reinstate accounts.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetVerifiedSeller marks a seller as vetted by an admin.  It is
// rejected for non-seller accounts.
func (r *UserRepo) SetVerifiedSeller(ctx context.Context, id uint64, verified bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified_seller=? WHERE id=? AND role=?",
		verified, id, model.RoleSeller)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns a page of users, optionally filtered by role, newest
// first.  It is used by the admin moderation screens.
func (r *UserRepo) List(ctx context.Context, role string, page, pageSize int) ([]model.User, int64, error) {
	where := "1=1"
	args := []any{}
	if role != "" {
		where = "role=?"
		args = append(args, role)
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+
			" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.User, 0, pageSize)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}
