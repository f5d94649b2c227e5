package model

import "time"

// Roles recognised by the platform.  Buyers browse and book packages,
// sellers publish and manage them, and admins moderate the marketplace.
// The values match the JWT "role" claim and the users.role column.
const (
	RoleBuyer  = "BUYER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column.  The json tags
// are omitted because these structs are used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Email            – unique email address, the login identifier.
//  Username         – unique public display handle.
//  PasswordHash     – bcrypt hashed password.
//  Role             – one of BUYER, SELLER, ADMIN.
//  FirstName        – optional given name.
//  LastName         – optional family name.
//  Phone            – optional contact phone number.
//  Country          – optional country of residence.
//  City             – optional city of residence.
//  Bio              – optional free-form profile text.
//  CompanyName      – seller company name (empty for buyers).
//  Website          – seller website URL (empty for buyers).
//  IsActive         – whether the account may sign in.
//  IsVerifiedSeller – set by admins after vetting a seller.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
//  LastActiveAt     – last observed activity (nullable).
type User struct {
	ID               uint64     // users.id
	Email            string     // users.email
	Username         string     // users.username
	PasswordHash     string     // users.password_hash
	Role             string     // users.role
	FirstName        string     // users.first_name
	LastName         string     // users.last_name
	Phone            string     // users.phone
	Country          string     // users.country
	City             string     // users.city
	Bio              string     // users.bio
	CompanyName      string     // users.company_name
	Website          string     // users.website
	IsActive         bool       // users.is_active
	IsVerifiedSeller bool       // users.is_verified_seller
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
	LastActiveAt     *time.Time // users.last_active_at (nullable)
}

// FullName joins the first and last name, trimming the separator when
// either part is empty.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
