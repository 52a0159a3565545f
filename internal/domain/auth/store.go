package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type User struct {
	ID           string
	TenantID     string
	Email        string
	Role         string
	PasswordHash string
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, email, role, password_hash
    FROM users
    WHERE lower(email) = lower($1) AND status = 'active'
  `, email).Scan(&out.ID, &out.TenantID, &out.Email, &out.Role, &out.PasswordHash)
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}
