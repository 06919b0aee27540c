package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/justestif/go-party-playlist/internal/db"
	"github.com/justestif/go-party-playlist/internal/party"
	"github.com/justestif/go-party-playlist/internal/spotify"
)

// datetimeLocalFormat matches the value of an HTML datetime-local input.
const datetimeLocalFormat = "2006-01-02T15:04"

// Dashboard shows hosted and joined events (GET /dashboard).
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	hosted, joined, err := h.service.Dashboard(r.Context(), user.ID)
	if err != nil {
		redirectFlash(w, r, "danger", "Failed to load your events.", "/")
		return
	}

	data := DashboardPageData{
		PageData:     h.pageData(w, r, "Dashboard"),
		HostedEvents: hosted,
		JoinedEvents: joined,
	}
	h.render(w, "dashboard", data)
}

// NewEventForm renders the event creation page (GET /events/new).
// The user's Spotify playlists are listed so one can be attached; when the
// provider call fails the list is empty and a warning is shown.
func (h *Handlers) NewEventForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	data := EventFormPageData{
		PageData: h.pageData(w, r, "Create event"),
	}

	moods, err := h.database.Moods().List(r.Context())
	if err == nil {
		data.Moods = moods
	}

	if client, ok := h.provider(w, r, user); ok {
		playlists, err := client.CurrentUserPlaylists(r.Context())
		if err != nil {
			if data.Flash == nil {
				data.Flash = &FlashMessage{Type: "warning", Message: "Unable to fetch your Spotify playlists. Some features may be limited."}
			}
		} else {
			data.UserPlaylists = playlists
		}
	} else {
		return // provider() already redirected
	}

	h.render(w, "event_new", data)
}

// CreateEvent handles the event creation form (POST /events/new).
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	startsAt, err := time.ParseInLocation(datetimeLocalFormat, r.FormValue("starts_at"), time.Local)
	if err != nil {
		redirectFlash(w, r, "danger", "Invalid start time.", "/events/new")
		return
	}
	endsAt, err := time.ParseInLocation(datetimeLocalFormat, r.FormValue("ends_at"), time.Local)
	if err != nil {
		redirectFlash(w, r, "danger", "Invalid end time.", "/events/new")
		return
	}

	params := party.CreateEventParams{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		MoodName:    r.FormValue("mood"),
	}
	if r.FormValue("playlist_option") == "new" {
		params.NewPlaylistName = strings.TrimSpace(r.FormValue("new_playlist_name"))
	} else {
		params.ExistingPlaylistID = r.FormValue("existing_playlist_id")
	}

	client, ok := h.provider(w, r, user)
	if !ok {
		return
	}

	event, err := h.service.CreateEvent(r.Context(), user.ID, client, params)
	if err != nil {
		switch {
		case errors.Is(err, party.ErrValidation):
			redirectFlash(w, r, "danger", "Please check the event form and try again.", "/events/new")
		case errors.Is(err, party.ErrProvider):
			redirectFlash(w, r, "danger", "Failed to set up the Spotify playlist. Please try again.", "/events/new")
		default:
			redirectFlash(w, r, "danger", "An error occurred while creating the event. Please try again.", "/events/new")
		}
		return
	}

	redirectFlash(w, r, "success", fmt.Sprintf("Event created! Invite code: %s", event.InviteCode), "/dashboard")
}

// Event renders the event detail page (GET /events/{eventID}).
func (h *Handlers) Event(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		redirectFlash(w, r, "danger", "Event not found.", "/dashboard")
		return
	}

	view, err := h.service.EventDetail(r.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, party.ErrNotAuthorized):
			redirectFlash(w, r, "danger", "You do not have permission to view this event.", "/dashboard")
		case errors.Is(err, db.ErrNotFound):
			redirectFlash(w, r, "danger", "Event not found.", "/dashboard")
		default:
			redirectFlash(w, r, "danger", "Failed to load the event.", "/dashboard")
		}
		return
	}

	data := EventPageData{
		PageData:      h.pageData(w, r, view.Event.Title),
		Event:         view.Event,
		MoodName:      view.MoodName,
		IsHost:        view.IsHost,
		AttendeeCount: view.AttendeeCount,
		Songs:         toSongData(view.Songs, view.MyVotes),
	}

	// The Spotify playlist view degrades gracefully: on provider failure the
	// local song list still renders, with a warning.
	if client, ok := h.providerNoRedirect(r, user); ok {
		tracks, err := client.PlaylistTracks(r.Context(), view.Event.SpotifyPlaylistID)
		if err == nil {
			data.ProviderTracks = tracks
		} else if data.Flash == nil {
			data.Flash = &FlashMessage{Type: "warning", Message: "Unable to fetch playlist tracks. Please check your Spotify connection."}
		}
	} else if data.Flash == nil {
		data.Flash = &FlashMessage{Type: "warning", Message: "Unable to fetch playlist tracks. Please check your Spotify connection."}
	}

	h.render(w, "event", data)
}

// providerNoRedirect builds a Spotify client without redirecting on failure.
// Used where a provider outage should only degrade the page.
func (h *Handlers) providerNoRedirect(r *http.Request, user *db.User) (*spotify.Client, bool) {
	token, err := h.broker.Token(r.Context(), user)
	if err != nil {
		return nil, false
	}
	return spotify.NewWithToken(r.Context(), h.auth, token), true
}

// JoinForm renders the invite-code form (GET /join).
func (h *Handlers) JoinForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "join", h.pageData(w, r, "Join event"))
}

// Join adds the user to an event by invite code (POST /join).
func (h *Handlers) Join(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	code := strings.TrimSpace(r.FormValue("invite_code"))

	event, added, err := h.service.Join(r.Context(), user.ID, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			redirectFlash(w, r, "danger", "Invalid invite code. Please try again.", "/join")
			return
		}
		redirectFlash(w, r, "danger", "Failed to join the event. Please try again.", "/join")
		return
	}

	if added {
		setFlash(w, "success", "Successfully joined the event!")
	} else {
		setFlash(w, "info", "You are already attending this event.")
	}
	http.Redirect(w, r, "/events/"+event.ID.String(), http.StatusSeeOther)
}

// SearchSongs searches Spotify for tracks to add (GET /events/{eventID}/search).
func (h *Handlers) SearchSongs(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		redirectFlash(w, r, "danger", "Event not found.", "/dashboard")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))

	data := SearchPageData{
		PageData: h.pageData(w, r, "Search songs"),
		EventID:  eventID.String(),
		Query:    query,
	}

	if query != "" {
		client, ok := h.provider(w, r, user)
		if !ok {
			return
		}

		tracks, err := h.service.SearchTracks(r.Context(), user.ID, eventID, client, query)
		if err != nil {
			switch {
			case errors.Is(err, party.ErrNotAuthorized):
				redirectFlash(w, r, "danger", "You do not have permission to search for this event.", "/dashboard")
				return
			case errors.Is(err, party.ErrProvider):
				if data.Flash == nil {
					data.Flash = &FlashMessage{Type: "warning", Message: "Unable to search songs. Please check your Spotify connection."}
				}
			default:
				redirectFlash(w, r, "danger", "Search failed. Please try again.", "/events/"+eventID.String())
				return
			}
		}
		data.Tracks = tracks
	}

	h.render(w, "search", data)
}

// AddSong adds a track to the event playlist (POST /events/{eventID}/songs/{trackID}).
func (h *Handlers) AddSong(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		redirectFlash(w, r, "danger", "Event not found.", "/dashboard")
		return
	}
	trackID := chi.URLParam(r, "trackID")

	client, ok := h.provider(w, r, user)
	if !ok {
		return
	}

	if _, err := h.service.AddSong(r.Context(), user.ID, eventID, client, trackID); err != nil {
		switch {
		case errors.Is(err, party.ErrNotAuthorized):
			redirectFlash(w, r, "danger", "You do not have permission to add songs to this event.", "/dashboard")
		case errors.Is(err, db.ErrNotFound):
			redirectFlash(w, r, "danger", "Event not found.", "/dashboard")
		case errors.Is(err, party.ErrProvider):
			redirectFlash(w, r, "warning", "Unable to add song. Please check your Spotify connection.", "/events/"+eventID.String())
		default:
			redirectFlash(w, r, "danger", "Failed to add the song. Please try again.", "/events/"+eventID.String())
		}
		return
	}

	redirectFlash(w, r, "success", "Song added to the playlist!", "/events/"+eventID.String())
}

// Vote toggles the user's vote on a song (POST /songs/{songID}/vote).
func (h *Handlers) Vote(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	songID, err := uuid.Parse(chi.URLParam(r, "songID"))
	if err != nil {
		redirectFlash(w, r, "danger", "Song not found.", "/dashboard")
		return
	}

	result, eventID, err := h.service.ToggleVote(r.Context(), user.ID, songID)
	if err != nil {
		switch {
		case errors.Is(err, party.ErrNotAuthorized):
			redirectFlash(w, r, "danger", "Not authorized to vote in this event.", "/dashboard")
		case errors.Is(err, db.ErrNotFound):
			redirectFlash(w, r, "danger", "Song not found.", "/dashboard")
		default:
			redirectFlash(w, r, "danger", "Failed to record your vote. Please try again.", "/dashboard")
		}
		return
	}

	if result.Added {
		setFlash(w, "success", "Vote added!")
	} else {
		setFlash(w, "info", "Vote removed!")
	}
	http.Redirect(w, r, "/events/"+eventID.String(), http.StatusSeeOther)
}

// toSongData converts songs with tallies to template rows.
func toSongData(songs []db.SongWithVotes, myVotes map[uuid.UUID]bool) []SongData {
	rows := make([]SongData, len(songs))
	for i, s := range songs {
		rows[i] = SongData{
			ID:     s.ID.String(),
			Title:  s.Title,
			Artist: s.Artist,
			Votes:  s.Votes,
			Voted:  myVotes[s.ID],
		}
	}
	return rows
}
