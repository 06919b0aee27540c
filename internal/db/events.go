package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepository handles event and attendee database operations.
type EventRepository struct {
	q Querier
}

const eventColumns = `id, title, description, created_at, starts_at, ends_at, invite_code, host_id, spotify_playlist_id, mood_id`

// Create inserts a new event. Returns ErrConflict if the invite code is
// already taken, so callers can regenerate and retry.
func (r *EventRepository) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (id, title, description, created_at, starts_at, ends_at, invite_code, host_id, spotify_playlist_id, mood_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now()
	_, err := r.q.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		now,
		event.StartsAt,
		event.EndsAt,
		event.InviteCode,
		event.HostID,
		event.SpotifyPlaylistID,
		event.MoodID,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	event.CreatedAt = now
	return nil
}

// Get retrieves an event by ID.
func (r *EventRepository) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByInviteCode retrieves an event by its invite code.
func (r *EventRepository) GetByInviteCode(ctx context.Context, code string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE invite_code = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, code))
}

// ListHostedBy retrieves all events hosted by a user, newest first.
func (r *EventRepository) ListHostedBy(ctx context.Context, hostID uuid.UUID) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE host_id = $1 ORDER BY starts_at DESC`
	rows, err := r.q.Query(ctx, query, hostID)
	if err != nil {
		return nil, fmt.Errorf("querying hosted events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListJoinedBy retrieves all events a user has joined as an attendee.
func (r *EventRepository) ListJoinedBy(ctx context.Context, userID uuid.UUID) ([]Event, error) {
	query := `
		SELECT e.id, e.title, e.description, e.created_at, e.starts_at, e.ends_at, e.invite_code, e.host_id, e.spotify_playlist_id, e.mood_id
		FROM events e
		JOIN event_attendees ea ON e.id = ea.event_id
		WHERE ea.user_id = $1
		ORDER BY e.starts_at DESC
	`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying joined events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// AddAttendee adds a user to the event's attendee set. Joining twice is a
// no-op; the return value reports whether the user was newly added.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO event_attendees (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	result, err := r.q.Exec(ctx, query, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("adding attendee: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// HasAccess reports whether the user is the event's host or an attendee.
func (r *EventRepository) HasAccess(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM events WHERE id = $1 AND host_id = $2
			UNION ALL
			SELECT 1 FROM event_attendees WHERE event_id = $1 AND user_id = $2
		)
	`
	var ok bool
	if err := r.q.QueryRow(ctx, query, eventID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking event access: %w", err)
	}
	return ok, nil
}

// CountAttendees returns the number of attendees of an event.
func (r *EventRepository) CountAttendees(ctx context.Context, eventID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`
	var n int
	if err := r.q.QueryRow(ctx, query, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting attendees: %w", err)
	}
	return n, nil
}

func (r *EventRepository) scanOne(row pgx.Row) (*Event, error) {
	var event Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.CreatedAt,
		&event.StartsAt,
		&event.EndsAt,
		&event.InviteCode,
		&event.HostID,
		&event.SpotifyPlaylistID,
		&event.MoodID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return &event, nil
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.CreatedAt,
			&event.StartsAt,
			&event.EndsAt,
			&event.InviteCode,
			&event.HostID,
			&event.SpotifyPlaylistID,
			&event.MoodID,
		); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
