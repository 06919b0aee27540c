package spotify

import (
	"strings"

	"github.com/zmb3/spotify/v2"
)

// Track is the track metadata the app needs from Spotify.
type Track struct {
	ID     string
	Name   string
	Artist string // Comma-separated artist names
}

// PlaylistInfo identifies one of the user's Spotify playlists.
type PlaylistInfo struct {
	ID   string
	Name string
}

// convertTrack converts a Spotify FullTrack to a Track.
func convertTrack(full spotify.FullTrack) Track {
	return Track{
		ID:     full.ID.String(),
		Name:   full.Name,
		Artist: joinArtists(full.Artists),
	}
}

// joinArtists joins artist names with ", ".
func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
