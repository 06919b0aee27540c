package party

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-party-playlist/internal/db"
)

// inviteCodeRetries is how many times event creation regenerates the invite
// code after a uniqueness conflict before giving up.
const inviteCodeRetries = 3

// CreateEventParams carries the event-creation form input.
type CreateEventParams struct {
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	MoodName    string

	// Exactly one of these selects the Spotify playlist: a name to create a
	// fresh playlist, or the ID of an existing one to attach.
	NewPlaylistName    string
	ExistingPlaylistID string
}

func (p *CreateEventParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(p.MoodName) == "" {
		return fmt.Errorf("%w: mood is required", ErrValidation)
	}
	if !p.EndsAt.After(p.StartsAt) {
		return fmt.Errorf("%w: event must end after it starts", ErrValidation)
	}
	if p.NewPlaylistName == "" && p.ExistingPlaylistID == "" {
		return fmt.Errorf("%w: a playlist is required", ErrValidation)
	}
	return nil
}

// CreateEvent creates an event with its mood, Spotify playlist, local
// playlist mirror, and a fresh invite code.
func (s *Service) CreateEvent(ctx context.Context, hostID uuid.UUID, provider Provider, params CreateEventParams) (*db.Event, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	mood, err := s.database.Moods().FindOrCreate(ctx, strings.TrimSpace(params.MoodName))
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	var playlistID, playlistName string
	if params.NewPlaylistName != "" {
		playlistName = params.NewPlaylistName
		playlistID, err = provider.CreatePlaylist(pctx, playlistName, params.Title, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvider, err)
		}
	} else {
		info, err := provider.GetPlaylist(pctx, params.ExistingPlaylistID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvider, err)
		}
		playlistID, playlistName = info.ID, info.Name
	}

	event := &db.Event{
		Title:             strings.TrimSpace(params.Title),
		Description:       params.Description,
		StartsAt:          params.StartsAt,
		EndsAt:            params.EndsAt,
		HostID:            hostID,
		SpotifyPlaylistID: playlistID,
		MoodID:            mood.ID,
	}

	// The invite code is random; regenerate on the rare collision. The
	// uniqueness constraint on events.invite_code is what makes concurrent
	// creation safe.
	for attempt := 0; ; attempt++ {
		event.InviteCode, err = newInviteCode()
		if err != nil {
			return nil, err
		}
		event.ID = uuid.Nil

		err = s.database.Events().Create(ctx, event)
		if err == nil {
			break
		}
		if !errors.Is(err, db.ErrConflict) || attempt >= inviteCodeRetries {
			return nil, err
		}
	}

	mirror := &db.Playlist{Name: playlistName, EventID: event.ID}
	if err := s.database.Playlists().Create(ctx, mirror); err != nil {
		return nil, err
	}

	return event, nil
}

// EventView bundles everything the event page needs from local storage.
type EventView struct {
	Event         *db.Event
	MoodName      string
	Playlist      *db.Playlist
	Songs         []db.SongWithVotes
	MyVotes       map[uuid.UUID]bool
	AttendeeCount int
	IsHost        bool
}

// EventDetail loads the event page data, gated on host/attendee access.
func (s *Service) EventDetail(ctx context.Context, userID, eventID uuid.UUID) (*EventView, error) {
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

	songs, err := s.database.Playlists().ListSongs(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}

	myVotes, err := s.database.Votes().ListForUser(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	attendees, err := s.database.Events().CountAttendees(ctx, eventID)
	if err != nil {
		return nil, err
	}

	moodName := ""
	if mood, err := s.database.Moods().Get(ctx, event.MoodID); err == nil {
		moodName = mood.Name
	}

	return &EventView{
		Event:         event,
		MoodName:      moodName,
		Playlist:      playlist,
		Songs:         songs,
		MyVotes:       myVotes,
		AttendeeCount: attendees,
		IsHost:        event.HostID == userID,
	}, nil
}
