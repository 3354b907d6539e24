package repository

import (
	"context"
	"database/sql"

	"github.com/qes00/allahuv3/internal/model"
)

// ProfileRepo is the durable side of the profile reconciliation described in
// the auth package: point select, insert and partial update keyed by the
// account's UUID. The stored row is the source of truth for name, phone and
// role; in-memory auth users are projections of it.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Get fetches a profile row by account id. Returns ErrNotFound when the row
// is absent so callers can distinguish "no profile yet" from real failures.
func (r *ProfileRepo) Get(ctx context.Context, id string) (model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(phone,''), COALESCE(role,'customer') FROM user_profiles WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.Role)
	if err == sql.ErrNoRows {
		return model.Profile{}, ErrNotFound
	}
	return p, err
}

// Insert creates a new profile row. Role defaults to customer when empty.
func (r *ProfileRepo) Insert(ctx context.Context, p model.Profile) error {
	role := p.Role
	if role == "" {
		role = "customer"
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_profiles (id, first_name, last_name, phone, role) VALUES (?,?,?,?,?)",
		p.ID, p.FirstName, p.LastName, p.Phone, role)
	return err
}

// PatchNames fills in first and/or last name without touching fields that
// already hold a value. An empty argument leaves the column as-is, and a
// column that is already non-empty is never overwritten.
func (r *ProfileRepo) PatchNames(ctx context.Context, id, first, last string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE user_profiles
		 SET first_name = CASE WHEN (first_name IS NULL OR first_name='') AND ?<>'' THEN ? ELSE first_name END,
		     last_name  = CASE WHEN (last_name  IS NULL OR last_name='')  AND ?<>'' THEN ? ELSE last_name  END
		 WHERE id=?`,
		first, first, last, last, id)
	return err
}

// UpdateContact updates the caller-editable account panel fields.
func (r *ProfileRepo) UpdateContact(ctx context.Context, id, first, last, phone string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_profiles SET first_name=?, last_name=?, phone=? WHERE id=?",
		first, last, phone, id)
	return err
}
