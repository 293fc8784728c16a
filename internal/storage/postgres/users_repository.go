package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ users.Repository = (*UserRepository)(nil)

const uniqueViolation = "23505"

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	var user users.User
	err := r.queryer().QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, name, email, password_hash, role, created_at
`, params.Name, params.Email, params.PasswordHash, params.Role).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.get(ctx, `
SELECT id, name, email, password_hash, role, created_at
  FROM users
 WHERE email = $1
`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*users.User, error) {
	return r.get(ctx, `
SELECT id, name, email, password_hash, role, created_at
  FROM users
 WHERE id = $1
`, id)
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*users.User, error) {
	var user users.User
	err := r.queryer().QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
