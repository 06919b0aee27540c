package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateConflict(t *testing.T) {
	database, mock := setupMockDB(t)

	user := &User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "ada", "ada@example.com", "hash", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err := database.Users().Create(context.Background(), user)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByUsername(t *testing.T) {
	database, mock := setupMockDB(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM users WHERE username").
		WithArgs("ada").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "password_hash", "spotify_id",
			"access_token", "refresh_token", "token_expiry", "created_at", "updated_at",
		}).AddRow(userID, "ada", "ada@example.com", "hash", nil, nil, nil, nil, now, now))

	user, err := database.Users().GetByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.False(t, user.Linked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateToken(t *testing.T) {
	database, mock := setupMockDB(t)

	userID := uuid.New()
	expiry := time.Now().Add(time.Hour)

	mock.ExpectExec("UPDATE users").
		WithArgs(userID, "new-access", "new-refresh", expiry).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := database.Users().UpdateToken(context.Background(), userID, "new-access", "new-refresh", expiry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateProfileConflict(t *testing.T) {
	database, mock := setupMockDB(t)

	userID := uuid.New()

	mock.ExpectExec("UPDATE users").
		WithArgs(userID, "taken", "taken@example.com").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := database.Users().UpdateProfile(context.Background(), userID, "taken", "taken@example.com")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
