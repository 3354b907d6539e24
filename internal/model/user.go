package model

import "time"

// User represents an account record as stored in the `users` table.  The
// primary key is an opaque UUID string so that federated accounts and
// password accounts share the same identifier space.  PasswordHash is empty
// for accounts created through a federated provider.
//
// Fields:
//
//	ID           – UUID primary key of the account.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password (empty for OAuth-only accounts).
//	Provider     – "password" or the federated provider name (e.g. "google").
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Provider     string    // users.provider
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Profile mirrors the `user_profiles` table, the durable source of truth for
// structured name, phone and role data.  The in-memory auth user is a read
// cache of this row, refreshed on every sign-in or session restore.
//
// Fields:
//
//	ID        – same UUID as the owning users.id row.
//	FirstName – structured first name (may be empty until reconciled).
//	LastName  – structured last name (may be empty until reconciled).
//	Phone     – contact phone number.
//	Role      – "customer" or "admin"; defaults to "customer".
type Profile struct {
	ID        string // user_profiles.id
	FirstName string // user_profiles.first_name
	LastName  string // user_profiles.last_name
	Phone     string // user_profiles.phone
	Role      string // user_profiles.role
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and contains metadata for expiry and revocation.
// The plain token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
