package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// SearchTracks searches Spotify for tracks matching the query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	if result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]Track, len(result.Tracks.Tracks))
	for i, full := range result.Tracks.Tracks {
		tracks[i] = convertTrack(full)
	}
	return tracks, nil
}

// GetTrack retrieves metadata for a single track.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*Track, error) {
	full, err := c.api.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("getting track: %w", err)
	}
	track := convertTrack(*full)
	return &track, nil
}
