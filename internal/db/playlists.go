package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlaylistRepository handles playlist and song database operations.
type PlaylistRepository struct {
	q Querier
}

// Create inserts the playlist mirror for an event. The unique constraint on
// event_id keeps the relationship one-to-one; a second insert for the same
// event returns ErrConflict.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *Playlist) error {
	query := `
		INSERT INTO playlists (id, name, event_id)
		VALUES ($1, $2, $3)
	`
	if playlist.ID == uuid.Nil {
		playlist.ID = uuid.New()
	}
	_, err := r.q.Exec(ctx, query, playlist.ID, playlist.Name, playlist.EventID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// Get retrieves a playlist by ID.
func (r *PlaylistRepository) Get(ctx context.Context, id uuid.UUID) (*Playlist, error) {
	query := `SELECT id, name, event_id FROM playlists WHERE id = $1`
	var playlist Playlist
	err := r.q.QueryRow(ctx, query, id).Scan(&playlist.ID, &playlist.Name, &playlist.EventID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}
	return &playlist, nil
}

// GetForEvent retrieves the playlist belonging to an event.
func (r *PlaylistRepository) GetForEvent(ctx context.Context, eventID uuid.UUID) (*Playlist, error) {
	query := `SELECT id, name, event_id FROM playlists WHERE event_id = $1`
	var playlist Playlist
	err := r.q.QueryRow(ctx, query, eventID).Scan(&playlist.ID, &playlist.Name, &playlist.EventID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}
	return &playlist, nil
}

// AddSong inserts a song into a playlist.
func (r *PlaylistRepository) AddSong(ctx context.Context, song *Song) error {
	query := `
		INSERT INTO songs (id, title, artist, spotify_track_id, playlist_id, mood_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}
	_, err := r.q.Exec(ctx, query,
		song.ID,
		song.Title,
		song.Artist,
		song.SpotifyTrackID,
		song.PlaylistID,
		song.MoodID,
	)
	if err != nil {
		return fmt.Errorf("inserting song: %w", err)
	}
	return nil
}

// RemoveSong deletes a song. Used to compensate when the provider append
// fails after the local row was written.
func (r *PlaylistRepository) RemoveSong(ctx context.Context, songID uuid.UUID) error {
	query := `DELETE FROM songs WHERE id = $1`
	_, err := r.q.Exec(ctx, query, songID)
	if err != nil {
		return fmt.Errorf("deleting song: %w", err)
	}
	return nil
}

// GetSong retrieves a song by ID.
func (r *PlaylistRepository) GetSong(ctx context.Context, songID uuid.UUID) (*Song, error) {
	query := `
		SELECT id, title, artist, spotify_track_id, playlist_id, mood_id
		FROM songs
		WHERE id = $1
	`
	var song Song
	err := r.q.QueryRow(ctx, query, songID).Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.SpotifyTrackID,
		&song.PlaylistID,
		&song.MoodID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying song: %w", err)
	}
	return &song, nil
}

// ListSongs retrieves all songs in a playlist with their vote tallies,
// most-voted first. Tallies are computed on demand; no count is cached.
func (r *PlaylistRepository) ListSongs(ctx context.Context, playlistID uuid.UUID) ([]SongWithVotes, error) {
	query := `
		SELECT s.id, s.title, s.artist, s.spotify_track_id, s.playlist_id, s.mood_id,
		       COUNT(v.song_id) AS votes
		FROM songs s
		LEFT JOIN votes v ON v.song_id = s.id
		WHERE s.playlist_id = $1
		GROUP BY s.id
		ORDER BY votes DESC, s.title
	`
	rows, err := r.q.Query(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w", err)
	}
	defer rows.Close()

	var songs []SongWithVotes
	for rows.Next() {
		var song SongWithVotes
		if err := rows.Scan(
			&song.ID,
			&song.Title,
			&song.Artist,
			&song.SpotifyTrackID,
			&song.PlaylistID,
			&song.MoodID,
			&song.Votes,
		); err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}
