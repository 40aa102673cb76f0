package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

const userColumns = `id, email, is_superadmin, created_at`

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM app_user`).Scan(&count); err != nil {
		return 0, mapError("count users", err)
	}
	return count, nil
}

// CreateUser inserts an account; a duplicate email is a conflict.
func (s *Store) CreateUser(ctx context.Context, nu persistence.NewUser) (persistence.User, error) {
	user := persistence.User{
		ID:           s.newID(),
		Email:        nu.Email,
		IsSuperadmin: nu.IsSuperadmin,
		CreatedAt:    s.timestamp(),
	}

	_, err := s.exec(ctx, s.db,
		`INSERT INTO app_user (id, email, password_hash, is_superadmin, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, nu.PasswordHash, user.IsSuperadmin, s.dialect.timeArg(user.CreatedAt),
	)
	if err != nil {
		return persistence.User{}, mapError("create user", err)
	}
	return user, nil
}

// FindUserByEmail returns the account and its credential hash.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (persistence.User, string, error) {
	var (
		user persistence.User
		hash string
	)
	err := s.queryRow(ctx, s.db,
		`SELECT `+userColumns+`, password_hash FROM app_user WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.IsSuperadmin, scanTime(&user.CreatedAt), &hash)
	if err != nil {
		return persistence.User{}, "", mapError("find user by email", err)
	}
	return user, hash, nil
}

// GetUser retrieves an account by ID.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	var user persistence.User
	err := s.queryRow(ctx, s.db,
		`SELECT `+userColumns+` FROM app_user WHERE id = ?`, id,
	).Scan(&user.ID, &user.Email, &user.IsSuperadmin, scanTime(&user.CreatedAt))
	if err != nil {
		return persistence.User{}, mapError("get user", err)
	}
	return user, nil
}
