package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

type EventStore struct {
	base
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{base{db: db}}
}

func scanEvent(s scanner) (*model.Event, error) {
	var e model.Event
	if err := s.Scan(&e.ID, &e.HouseholdID, &e.Title, &e.StartUTC, &e.EndUTC, &e.TZID, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

const eventCols = `id, household_id, title, start_utc, end_utc, tzid, created_at`

func utcSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (s *EventStore) Create(ctx context.Context, householdID int64, title string, start, end time.Time, tzid string) (*model.Event, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO events (household_id, title, start_utc, end_utc, tzid) VALUES (?, ?, ?, ?, ?)`,
		householdID, title, utcSecond(start), utcSecond(end), tzid,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *EventStore) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListInWindow returns the household's events overlapping [from, to).
func (s *EventStore) ListInWindow(ctx context.Context, householdID int64, from, to time.Time) ([]model.Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+eventCols+` FROM events
		 WHERE household_id = ? AND start_utc < ? AND end_utc > ?
		 ORDER BY start_utc ASC, id ASC`,
		householdID, utcSecond(to), utcSecond(from),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Delete(ctx context.Context, id int64) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
