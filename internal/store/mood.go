package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/model"
)

type MoodStore struct {
	base
}

func NewMoodStore(db *sql.DB) *MoodStore {
	return &MoodStore{base{db: db}}
}

func (s *MoodStore) Get(ctx context.Context, userID int64) (*model.Mood, error) {
	var m model.Mood
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, mood, updated_at FROM moods WHERE user_id = ?`, userID,
	).Scan(&m.ID, &m.UserID, &m.Mood, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mood: %w", err)
	}
	return &m, nil
}

// Set stores the user's current mood, replacing any previous one.
func (s *MoodStore) Set(ctx context.Context, userID int64, mood string) (*model.Mood, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO moods (user_id, mood) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET mood = excluded.mood, updated_at = CURRENT_TIMESTAMP`,
		userID, mood,
	)
	if err != nil {
		return nil, fmt.Errorf("set mood: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *MoodStore) Clear(ctx context.Context, userID int64) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM moods WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clear mood: %w", err)
	}
	return nil
}

// ListByHousehold returns the current mood of every member of the household
// who has one set.
func (s *MoodStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Mood, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT m.id, m.user_id, m.mood, m.updated_at
		 FROM moods m JOIN users u ON u.id = m.user_id
		 WHERE u.household_id = ?
		 ORDER BY m.user_id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	defer rows.Close()

	var moods []model.Mood
	for rows.Next() {
		var m model.Mood
		if err := rows.Scan(&m.ID, &m.UserID, &m.Mood, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		moods = append(moods, m)
	}
	return moods, rows.Err()
}
