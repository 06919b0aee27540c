package party

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-party-playlist/internal/db"
	"github.com/justestif/go-party-playlist/internal/spotify"
)

// fakeProvider implements Provider with overridable behavior per test.
type fakeProvider struct {
	searchTracks    func(ctx context.Context, query string, limit int) ([]spotify.Track, error)
	getTrack        func(ctx context.Context, trackID string) (*spotify.Track, error)
	createPlaylist  func(ctx context.Context, name, description string, public bool) (string, error)
	getPlaylist     func(ctx context.Context, playlistID string) (*spotify.PlaylistInfo, error)
	addTrack        func(ctx context.Context, playlistID, trackID string) error
	removeTrack     func(ctx context.Context, playlistID, trackID string) error
	playlistTracks  func(ctx context.Context, playlistID string) ([]spotify.Track, error)
	currentPlaylist func(ctx context.Context) ([]spotify.PlaylistInfo, error)
}

func (f *fakeProvider) SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error) {
	if f.searchTracks != nil {
		return f.searchTracks(ctx, query, limit)
	}
	return nil, nil
}

func (f *fakeProvider) GetTrack(ctx context.Context, trackID string) (*spotify.Track, error) {
	if f.getTrack != nil {
		return f.getTrack(ctx, trackID)
	}
	return &spotify.Track{ID: trackID, Name: "Track", Artist: "Artist"}, nil
}

func (f *fakeProvider) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	if f.createPlaylist != nil {
		return f.createPlaylist(ctx, name, description, public)
	}
	return "spotify-playlist-id", nil
}

func (f *fakeProvider) GetPlaylist(ctx context.Context, playlistID string) (*spotify.PlaylistInfo, error) {
	if f.getPlaylist != nil {
		return f.getPlaylist(ctx, playlistID)
	}
	return &spotify.PlaylistInfo{ID: playlistID, Name: "Existing"}, nil
}

func (f *fakeProvider) PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.Track, error) {
	if f.playlistTracks != nil {
		return f.playlistTracks(ctx, playlistID)
	}
	return nil, nil
}

func (f *fakeProvider) CurrentUserPlaylists(ctx context.Context) ([]spotify.PlaylistInfo, error) {
	if f.currentPlaylist != nil {
		return f.currentPlaylist(ctx)
	}
	return nil, nil
}

func (f *fakeProvider) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	if f.addTrack != nil {
		return f.addTrack(ctx, playlistID, trackID)
	}
	return nil
}

func (f *fakeProvider) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	if f.removeTrack != nil {
		return f.removeTrack(ctx, playlistID, trackID)
	}
	return nil
}

func setupService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(db.NewWithQuerier(mock)), mock
}

func expectAccess(mock pgxmock.PgxPoolIface, eventID, userID uuid.UUID, ok bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(eventID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(ok))
}

func TestJoin(t *testing.T) {
	service, mock := setupService(t)

	userID := uuid.New()
	eventID := uuid.New()
	hostID := uuid.New()
	moodID := uuid.New()
	now := time.Now()

	eventRows := func() *pgxmock.Rows {
		return pgxmock.NewRows([]string{
			"id", "title", "description", "created_at", "starts_at", "ends_at",
			"invite_code", "host_id", "spotify_playlist_id", "mood_id",
		}).AddRow(eventID, "House party", "", now, now, now.Add(4*time.Hour),
			"PARTY23456", hostID, "pl-1", moodID)
	}

	t.Run("unknown invite code", func(t *testing.T) {
		mock.ExpectQuery("FROM events WHERE invite_code").
			WithArgs("NOSUCHCODE").
			WillReturnError(pgx.ErrNoRows)

		_, _, err := service.Join(context.Background(), userID, "NOSUCHCODE")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("first join adds attendee", func(t *testing.T) {
		mock.ExpectQuery("FROM events WHERE invite_code").
			WithArgs("PARTY23456").
			WillReturnRows(eventRows())
		mock.ExpectExec("INSERT INTO event_attendees").
			WithArgs(eventID, userID).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		event, added, err := service.Join(context.Background(), userID, "PARTY23456")
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, eventID, event.ID)
	})

	t.Run("second join is a no-op", func(t *testing.T) {
		mock.ExpectQuery("FROM events WHERE invite_code").
			WithArgs("PARTY23456").
			WillReturnRows(eventRows())
		mock.ExpectExec("INSERT INTO event_attendees").
			WithArgs(eventID, userID).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		event, added, err := service.Join(context.Background(), userID, "PARTY23456")
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, eventID, event.ID)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleVote(t *testing.T) {
	service, mock := setupService(t)

	userID := uuid.New()
	songID := uuid.New()
	playlistID := uuid.New()
	eventID := uuid.New()
	moodID := uuid.New()

	expectSongLookup := func() {
		mock.ExpectQuery("FROM songs").
			WithArgs(songID).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "title", "artist", "spotify_track_id", "playlist_id", "mood_id",
			}).AddRow(songID, "Song", "Artist", "track-1", playlistID, moodID))
		mock.ExpectQuery("FROM playlists WHERE id").
			WithArgs(playlistID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "event_id"}).
				AddRow(playlistID, "Party mix", eventID))
	}

	t.Run("rejected without event access", func(t *testing.T) {
		expectSongLookup()
		expectAccess(mock, eventID, userID, false)

		_, _, err := service.ToggleVote(context.Background(), userID, songID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("adds and reports tally", func(t *testing.T) {
		expectSongLookup()
		expectAccess(mock, eventID, userID, true)
		mock.ExpectQuery("WITH removed AS").
			WithArgs(userID, songID, eventID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM votes").
			WithArgs(songID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

		result, gotEventID, err := service.ToggleVote(context.Background(), userID, songID)
		require.NoError(t, err)
		assert.True(t, result.Added)
		assert.Equal(t, 1, result.Votes)
		assert.Equal(t, eventID, gotEventID)
	})

	t.Run("second toggle removes and tally drops", func(t *testing.T) {
		expectSongLookup()
		expectAccess(mock, eventID, userID, true)
		mock.ExpectQuery("WITH removed AS").
			WithArgs(userID, songID, eventID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM votes").
			WithArgs(songID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

		result, _, err := service.ToggleVote(context.Background(), userID, songID)
		require.NoError(t, err)
		assert.False(t, result.Added)
		assert.Equal(t, 0, result.Votes)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSong(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	playlistID := uuid.New()
	moodID := uuid.New()
	hostID := uuid.New()

	now := time.Now()

	expectEventLoad := func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery("FROM events WHERE id").
			WithArgs(eventID).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "title", "description", "created_at", "starts_at", "ends_at",
				"invite_code", "host_id", "spotify_playlist_id", "mood_id",
			}).AddRow(eventID, "House party", "", now, now, now.Add(4*time.Hour),
				"PARTY23456", hostID, "spotify-pl", moodID))
		mock.ExpectQuery("FROM playlists WHERE event_id").
			WithArgs(eventID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "event_id"}).
				AddRow(playlistID, "Party mix", eventID))
	}

	t.Run("rejected without event access", func(t *testing.T) {
		service, mock := setupService(t)
		expectAccess(mock, eventID, userID, false)

		_, err := service.AddSong(context.Background(), userID, eventID, &fakeProvider{}, "track-1")
		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("writes mirror then appends to provider", func(t *testing.T) {
		service, mock := setupService(t)
		expectAccess(mock, eventID, userID, true)
		expectEventLoad(mock)
		mock.ExpectExec("INSERT INTO songs").
			WithArgs(pgxmock.AnyArg(), "Track", "Artist", "track-1", playlistID, moodID).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		var appendedTo, appendedTrack string
		provider := &fakeProvider{
			addTrack: func(_ context.Context, playlistID, trackID string) error {
				appendedTo, appendedTrack = playlistID, trackID
				return nil
			},
		}

		song, err := service.AddSong(context.Background(), userID, eventID, provider, "track-1")
		require.NoError(t, err)
		assert.Equal(t, "Track", song.Title)
		assert.Equal(t, "spotify-pl", appendedTo)
		assert.Equal(t, "track-1", appendedTrack)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("provider failure removes the local row", func(t *testing.T) {
		service, mock := setupService(t)
		expectAccess(mock, eventID, userID, true)
		expectEventLoad(mock)
		mock.ExpectExec("INSERT INTO songs").
			WithArgs(pgxmock.AnyArg(), "Track", "Artist", "track-1", playlistID, moodID).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("DELETE FROM songs").
			WithArgs(pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		provider := &fakeProvider{
			addTrack: func(context.Context, string, string) error {
				return errors.New("spotify is down")
			},
		}

		_, err := service.AddSong(context.Background(), userID, eventID, provider, "track-1")
		assert.ErrorIs(t, err, ErrProvider)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSearchTracksAuthorization(t *testing.T) {
	service, mock := setupService(t)

	userID := uuid.New()
	eventID := uuid.New()
	expectAccess(mock, eventID, userID, false)

	_, err := service.SearchTracks(context.Background(), userID, eventID, &fakeProvider{}, "query")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}
