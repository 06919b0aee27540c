package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account, optionally linked to Spotify.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	SpotifyID    *string    // nullable - set once the account is linked
	AccessToken  *string    // nullable
	RefreshToken *string    // nullable
	TokenExpiry  *time.Time // nullable
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Linked reports whether the user has a Spotify account linked.
func (u *User) Linked() bool {
	return u.SpotifyID != nil && u.RefreshToken != nil
}

// Session represents an authenticated web session.
type Session struct {
	ID        string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Event represents a scheduled gathering with a shared playlist.
type Event struct {
	ID                uuid.UUID
	Title             string
	Description       string
	CreatedAt         time.Time
	StartsAt          time.Time
	EndsAt            time.Time
	InviteCode        string
	HostID            uuid.UUID
	SpotifyPlaylistID string
	MoodID            uuid.UUID
}

// Duration returns the scheduled length of the event.
func (e *Event) Duration() time.Duration {
	return e.EndsAt.Sub(e.StartsAt)
}

// Mood is a lazily-created tag shared by events and songs.
type Mood struct {
	ID   uuid.UUID
	Name string
}

// Playlist mirrors the event's Spotify playlist. Exactly one per event.
type Playlist struct {
	ID      uuid.UUID
	Name    string
	EventID uuid.UUID
}

// Song is a track added to an event playlist through the app.
type Song struct {
	ID             uuid.UUID
	Title          string
	Artist         string
	SpotifyTrackID string
	PlaylistID     uuid.UUID
	MoodID         uuid.UUID
}

// SongWithVotes pairs a song with its current vote tally.
type SongWithVotes struct {
	Song
	Votes int
}

// Vote records one user's vote on one song. At most one row per
// (user, song) pair, enforced by the primary key.
type Vote struct {
	UserID    uuid.UUID
	SongID    uuid.UUID
	EventID   uuid.UUID
	CreatedAt time.Time
}
