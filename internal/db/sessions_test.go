package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionGet(t *testing.T) {
	database, mock := setupMockDB(t)

	userID := uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("FROM sessions").
			WithArgs("session-1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "created_at", "expires_at"}).
				AddRow("session-1", userID, now, now.Add(24*time.Hour)))

		session, err := database.Sessions().Get(context.Background(), "session-1")
		require.NoError(t, err)
		assert.Equal(t, userID, session.UserID)
	})

	t.Run("expired or unknown", func(t *testing.T) {
		mock.ExpectQuery("FROM sessions").
			WithArgs("stale").
			WillReturnError(pgx.ErrNoRows)

		_, err := database.Sessions().Get(context.Background(), "stale")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteExpired(t *testing.T) {
	database, mock := setupMockDB(t)

	mock.ExpectExec("DELETE FROM sessions").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := database.Sessions().DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
