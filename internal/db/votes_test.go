package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithQuerier(mock), mock
}

func TestVoteToggle(t *testing.T) {
	database, mock := setupMockDB(t)

	userID := uuid.New()
	songID := uuid.New()
	eventID := uuid.New()

	t.Run("adds when no vote exists", func(t *testing.T) {
		mock.ExpectQuery("WITH removed AS").
			WithArgs(userID, songID, eventID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		added, err := database.Votes().Toggle(context.Background(), userID, songID, eventID)
		require.NoError(t, err)
		assert.True(t, added)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("removes when vote exists", func(t *testing.T) {
		mock.ExpectQuery("WITH removed AS").
			WithArgs(userID, songID, eventID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		added, err := database.Votes().Toggle(context.Background(), userID, songID, eventID)
		require.NoError(t, err)
		assert.False(t, added)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("toggle twice restores prior state", func(t *testing.T) {
		mock.ExpectQuery("WITH removed AS").
			WithArgs(userID, songID, eventID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("WITH removed AS").
			WithArgs(userID, songID, eventID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		first, err := database.Votes().Toggle(context.Background(), userID, songID, eventID)
		require.NoError(t, err)
		second, err := database.Votes().Toggle(context.Background(), userID, songID, eventID)
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVoteCountForSong(t *testing.T) {
	database, mock := setupMockDB(t)

	songID := uuid.New()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM votes").
		WithArgs(songID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := database.Votes().CountForSong(context.Background(), songID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteListForUser(t *testing.T) {
	database, mock := setupMockDB(t)

	eventID := uuid.New()
	userID := uuid.New()
	songA := uuid.New()
	songB := uuid.New()

	mock.ExpectQuery("SELECT song_id FROM votes").
		WithArgs(eventID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"song_id"}).AddRow(songA).AddRow(songB))

	voted, err := database.Votes().ListForUser(context.Background(), eventID, userID)
	require.NoError(t, err)
	assert.True(t, voted[songA])
	assert.True(t, voted[songB])
	assert.False(t, voted[uuid.New()])
	assert.NoError(t, mock.ExpectationsWereMet())
}
