package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// VoteRepository handles vote database operations.
type VoteRepository struct {
	q Querier
}

// Toggle flips the vote for (user, song) in a single statement: if a row
// exists it is deleted, otherwise one is inserted. The primary key on
// (user_id, song_id) keeps concurrent toggles from producing duplicates.
// Returns true if the vote was added, false if it was removed.
func (r *VoteRepository) Toggle(ctx context.Context, userID, songID, eventID uuid.UUID) (bool, error) {
	query := `
		WITH removed AS (
			DELETE FROM votes
			WHERE user_id = $1 AND song_id = $2
			RETURNING 1
		), added AS (
			INSERT INTO votes (user_id, song_id, event_id)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT (user_id, song_id) DO NOTHING
			RETURNING 1
		)
		SELECT EXISTS (SELECT 1 FROM added)
	`
	var added bool
	if err := r.q.QueryRow(ctx, query, userID, songID, eventID).Scan(&added); err != nil {
		return false, fmt.Errorf("toggling vote: %w", err)
	}
	return added, nil
}

// CountForSong returns the current vote tally for a song.
func (r *VoteRepository) CountForSong(ctx context.Context, songID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM votes WHERE song_id = $1`
	var n int
	if err := r.q.QueryRow(ctx, query, songID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting votes: %w", err)
	}
	return n, nil
}

// ListForUser returns the song IDs the user currently has toggled on within
// an event. Used to mark the user's own votes in the event view.
func (r *VoteRepository) ListForUser(ctx context.Context, eventID, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `SELECT song_id FROM votes WHERE event_id = $1 AND user_id = $2`
	rows, err := r.q.Query(ctx, query, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user votes: %w", err)
	}
	defer rows.Close()

	voted := make(map[uuid.UUID]bool)
	for rows.Next() {
		var songID uuid.UUID
		if err := rows.Scan(&songID); err != nil {
			return nil, fmt.Errorf("scanning vote: %w", err)
		}
		voted[songID] = true
	}
	return voted, rows.Err()
}
