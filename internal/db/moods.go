package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MoodRepository handles mood database operations.
type MoodRepository struct {
	q Querier
}

// FindOrCreate returns the mood with the given name, creating it if needed.
// The upsert keyed on the name uniqueness constraint makes the operation
// deterministic under concurrent creation of the same name.
func (r *MoodRepository) FindOrCreate(ctx context.Context, name string) (*Mood, error) {
	query := `
		INSERT INTO moods (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`
	var mood Mood
	err := r.q.QueryRow(ctx, query, uuid.New(), name).Scan(&mood.ID, &mood.Name)
	if err != nil {
		return nil, fmt.Errorf("upserting mood: %w", err)
	}
	return &mood, nil
}

// Get retrieves a mood by ID.
func (r *MoodRepository) Get(ctx context.Context, id uuid.UUID) (*Mood, error) {
	query := `SELECT id, name FROM moods WHERE id = $1`
	var mood Mood
	err := r.q.QueryRow(ctx, query, id).Scan(&mood.ID, &mood.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying mood: %w", err)
	}
	return &mood, nil
}

// List retrieves all moods ordered by name.
func (r *MoodRepository) List(ctx context.Context) ([]Mood, error) {
	query := `SELECT id, name FROM moods ORDER BY name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying moods: %w", err)
	}
	defer rows.Close()

	var moods []Mood
	for rows.Next() {
		var mood Mood
		if err := rows.Scan(&mood.ID, &mood.Name); err != nil {
			return nil, fmt.Errorf("scanning mood: %w", err)
		}
		moods = append(moods, mood)
	}
	return moods, rows.Err()
}
