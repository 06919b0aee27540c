package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository handles user database operations.
type UserRepository struct {
	q Querier
}

const userColumns = `id, username, email, password_hash, spotify_id, access_token, refresh_token, token_expiry, created_at, updated_at`

// Create inserts a new user. Returns ErrConflict if the username or email
// is already taken.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	_, err := r.q.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		now,
		now,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, username))
}

// UpdateProfile changes a user's username and email. Returns ErrConflict if
// either is already in use by another account.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, updated_at = now()
		WHERE id = $1
	`
	result, err := r.q.Exec(ctx, query, id, username, email)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkSpotify stores the Spotify account ID and token triple for a user.
func (r *UserRepository) LinkSpotify(ctx context.Context, id uuid.UUID, spotifyID, accessToken, refreshToken string, expiry time.Time) error {
	query := `
		UPDATE users
		SET spotify_id = $2, access_token = $3, refresh_token = $4, token_expiry = $5, updated_at = now()
		WHERE id = $1
	`
	result, err := r.q.Exec(ctx, query, id, spotifyID, accessToken, refreshToken, expiry)
	if err != nil {
		return fmt.Errorf("linking spotify account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateToken replaces the stored token triple after a refresh.
func (r *UserRepository) UpdateToken(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry time.Time) error {
	query := `
		UPDATE users
		SET access_token = $2, refresh_token = $3, token_expiry = $4, updated_at = now()
		WHERE id = $1
	`
	result, err := r.q.Exec(ctx, query, id, accessToken, refreshToken, expiry)
	if err != nil {
		return fmt.Errorf("updating token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.SpotifyID,
		&user.AccessToken,
		&user.RefreshToken,
		&user.TokenExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}
