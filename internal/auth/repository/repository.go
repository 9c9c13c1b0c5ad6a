// Package repository provides Postgres persistence for users and sessions.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

const queryTimeout = 5 * time.Second

// User is a dashboard account. Roles gate capabilities ('admin', 'operator');
// segment classifies the identity for lead-capture policy.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Segment      string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

const userColumns = "id, email, password_hash, display_name, segment, roles, created_at, updated_at"

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.Segment, &user.Roles, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash, displayName, segment string, roles []string) (User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, segment, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns, email, passwordHash, displayName, segment, roles))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email))
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *Repository) SetUserRoles(ctx context.Context, id uuid.UUID, roles []string) (User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET roles = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, roles))
}

func (r *Repository) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var userID uuid.UUID
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, expires_at FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash).Scan(&userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, time.Time{}, ErrNotFound
	}
	return userID, expiresAt, err
}

func (r *Repository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.pool.Exec(ctx, "DELETE FROM refresh_tokens WHERE token_hash = $1", tokenHash)
	return err
}

func (r *Repository) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.pool.Exec(ctx, "DELETE FROM refresh_tokens WHERE user_id = $1", userID)
	return err
}
