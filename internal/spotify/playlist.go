package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// CreatePlaylist creates a new playlist for the current user.
// Returns the playlist ID.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return "", err
	}

	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return "", fmt.Errorf("creating playlist: %w", err)
	}

	return playlist.ID.String(), nil
}

// GetPlaylist retrieves a playlist's name by ID. Used to validate and label
// an existing playlist a host attaches to an event.
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	playlist, err := c.api.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("getting playlist: %w", err)
	}
	return &PlaylistInfo{ID: playlist.ID.String(), Name: playlist.Name}, nil
}

// PlaylistTracks retrieves the tracks of a playlist.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error) {
	playlist, err := c.api.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("getting playlist tracks: %w", err)
	}

	tracks := make([]Track, 0, len(playlist.Tracks.Tracks))
	for _, pt := range playlist.Tracks.Tracks {
		tracks = append(tracks, convertTrack(pt.Track))
	}
	return tracks, nil
}

// CurrentUserPlaylists retrieves the current user's playlists.
func (c *Client) CurrentUserPlaylists(ctx context.Context) ([]PlaylistInfo, error) {
	page, err := c.api.CurrentUsersPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting user playlists: %w", err)
	}

	playlists := make([]PlaylistInfo, len(page.Playlists))
	for i, p := range page.Playlists {
		playlists[i] = PlaylistInfo{ID: p.ID.String(), Name: p.Name}
	}
	return playlists, nil
}

// AddTrackToPlaylist appends a track to a playlist.
func (c *Client) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), spotify.ID(trackID))
	if err != nil {
		return fmt.Errorf("adding track to playlist: %w", err)
	}
	return nil
}

// RemoveTrackFromPlaylist removes a track from a playlist.
func (c *Client) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	_, err := c.api.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), spotify.ID(trackID))
	if err != nil {
		return fmt.Errorf("removing track from playlist: %w", err)
	}
	return nil
}
