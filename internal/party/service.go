// Package party implements the event, membership, and voting domain logic.
package party

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-party-playlist/internal/db"
	"github.com/justestif/go-party-playlist/internal/spotify"
)

// providerTimeout bounds every outbound Spotify call.
const providerTimeout = 10 * time.Second

var (
	// ErrNotAuthorized is returned when the actor is neither the host nor an
	// attendee of the event.
	ErrNotAuthorized = errors.New("not authorized for this event")

	// ErrValidation is returned for malformed input, e.g. an event that ends
	// before it starts.
	ErrValidation = errors.New("invalid input")

	// ErrProvider wraps failures of the music provider API.
	ErrProvider = errors.New("music provider request failed")
)

// Provider is the per-user Spotify client surface the service needs.
// Implemented by *spotify.Client.
type Provider interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
	GetTrack(ctx context.Context, trackID string) (*spotify.Track, error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)
	GetPlaylist(ctx context.Context, playlistID string) (*spotify.PlaylistInfo, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.Track, error)
	CurrentUserPlaylists(ctx context.Context) ([]spotify.PlaylistInfo, error)
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error
	RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error
}

// Service coordinates events, attendees, songs, and votes.
type Service struct {
	database *db.DB
}

// New creates a new party service.
func New(database *db.DB) *Service {
	return &Service{database: database}
}

// Dashboard returns the events a user hosts and the events they joined.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (hosted, joined []db.Event, err error) {
	hosted, err = s.database.Events().ListHostedBy(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading hosted events: %w", err)
	}
	joined, err = s.database.Events().ListJoinedBy(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading joined events: %w", err)
	}
	return hosted, joined, nil
}

// Join adds the user to the event identified by the invite code. Joining an
// event twice is a no-op; the bool reports whether the user was newly added.
// Returns db.ErrNotFound for an unknown code.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, inviteCode string) (*db.Event, bool, error) {
	event, err := s.database.Events().GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, false, err
	}

	added, err := s.database.Events().AddAttendee(ctx, event.ID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("joining event: %w", err)
	}
	return event, added, nil
}

// authorize returns ErrNotAuthorized unless the user is the event's host or
// a current attendee.
func (s *Service) authorize(ctx context.Context, eventID, userID uuid.UUID) error {
	ok, err := s.database.Events().HasAccess(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// SearchTracks searches the provider for tracks, gated on event access.
func (s *Service) SearchTracks(ctx context.Context, userID, eventID uuid.UUID, provider Provider, query string) ([]spotify.Track, error) {
	if err := s.authorize(ctx, eventID, userID); err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	tracks, err := provider.SearchTracks(pctx, query, 10)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return tracks, nil
}

// AddSong adds a track to the event's playlist: the local mirror row is
// written first, then the track is appended to the Spotify playlist. If the
// provider append fails the local row is deleted again, so the two stores
// cannot diverge.
func (s *Service) AddSong(ctx context.Context, userID, eventID uuid.UUID, provider Provider, trackID string) (*db.Song, error) {
	if err := s.authorize(ctx, eventID, userID); err != nil {
		return nil, err
	}

	event, err := s.database.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	playlist, err := s.database.Playlists().GetForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	track, err := provider.GetTrack(pctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	song := &db.Song{
		Title:          track.Name,
		Artist:         track.Artist,
		SpotifyTrackID: track.ID,
		PlaylistID:     playlist.ID,
		MoodID:         event.MoodID,
	}
	if err := s.database.Playlists().AddSong(ctx, song); err != nil {
		return nil, err
	}

	if err := provider.AddTrackToPlaylist(pctx, event.SpotifyPlaylistID, trackID); err != nil {
		// Compensate so the mirror does not list a track the Spotify
		// playlist never got.
		_ = s.database.Playlists().RemoveSong(ctx, song.ID)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	return song, nil
}

// VoteResult reports the outcome of a vote toggle.
type VoteResult struct {
	Added bool // true if the vote was added, false if removed
	Votes int  // tally for the song after the toggle
}

// ToggleVote flips the user's vote on a song. The flip itself is a single
// atomic statement in the vote repository.
func (s *Service) ToggleVote(ctx context.Context, userID, songID uuid.UUID) (*VoteResult, uuid.UUID, error) {
	song, err := s.database.Playlists().GetSong(ctx, songID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	playlist, err := s.database.Playlists().Get(ctx, song.PlaylistID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	if err := s.authorize(ctx, playlist.EventID, userID); err != nil {
		return nil, uuid.Nil, err
	}

	added, err := s.database.Votes().Toggle(ctx, userID, songID, playlist.EventID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	votes, err := s.database.Votes().CountForSong(ctx, songID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	return &VoteResult{Added: added, Votes: votes}, playlist.EventID, nil
}
