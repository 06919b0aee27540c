package db

import (
	"context"
	"fmt"
)

// migrations are applied in order on startup. Uniqueness constraints here
// back the invariants the application relies on: invite codes are globally
// unique, one playlist per event, at most one vote per (user, song).
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		username text NOT NULL UNIQUE,
		email text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		spotify_id text,
		access_token text,
		refresh_token text,
		token_expiry timestamptz,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id text PRIMARY KEY,
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		expires_at timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS moods (
		id uuid PRIMARY KEY,
		name text NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id uuid PRIMARY KEY,
		title text NOT NULL,
		description text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now(),
		starts_at timestamptz NOT NULL,
		ends_at timestamptz NOT NULL,
		invite_code text NOT NULL UNIQUE,
		host_id uuid NOT NULL REFERENCES users(id),
		spotify_playlist_id text NOT NULL,
		mood_id uuid NOT NULL REFERENCES moods(id)
	)`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id uuid NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (event_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		event_id uuid NOT NULL UNIQUE REFERENCES events(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS songs (
		id uuid PRIMARY KEY,
		title text NOT NULL,
		artist text NOT NULL,
		spotify_track_id text NOT NULL,
		playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		mood_id uuid NOT NULL REFERENCES moods(id)
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		song_id uuid NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
		event_id uuid NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, song_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_song ON votes(song_id)`,
	`CREATE INDEX IF NOT EXISTS idx_songs_playlist ON songs(playlist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_host ON events(host_id)`,
}

// Migrate creates the schema if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.querier.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying migration %d: %w", i+1, err)
		}
	}
	return nil
}
