package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dukerupert/hearth/internal/model"
)

type CheckinStore struct {
	base
}

func NewCheckinStore(db *sql.DB) *CheckinStore {
	return &CheckinStore{base{db: db}}
}

func scanCheckin(s scanner) (*model.Checkin, error) {
	var c model.Checkin
	if err := s.Scan(&c.ID, &c.UserID, &c.LocalDate, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const checkinCols = `id, user_id, local_date, created_at`

// Insert records a check-in. The raw driver error is wrapped unchanged so a
// unique violation on (user_id, local_date) can be recognised by the caller.
func (s *CheckinStore) Insert(ctx context.Context, userID int64, day model.Date) (*model.Checkin, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO checkins (user_id, local_date) VALUES (?, ?)`,
		userID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("insert checkin: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+checkinCols+` FROM checkins WHERE id = ?`, id)
	c, err := scanCheckin(row)
	if err != nil {
		return nil, fmt.Errorf("get checkin: %w", err)
	}
	return c, nil
}

func (s *CheckinStore) Get(ctx context.Context, userID int64, day model.Date) (*model.Checkin, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+checkinCols+` FROM checkins WHERE user_id = ? AND local_date = ?`,
		userID, day,
	)
	c, err := scanCheckin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkin: %w", err)
	}
	return c, nil
}

// ListRange returns the user's check-ins between from and to inclusive,
// oldest first. A zero bound is open.
func (s *CheckinStore) ListRange(ctx context.Context, userID int64, from, to model.Date) ([]model.Checkin, error) {
	where := sq.And{sq.Eq{"user_id": userID}}
	if !from.IsZero() {
		where = append(where, sq.GtOrEq{"local_date": from.String()})
	}
	if !to.IsZero() {
		where = append(where, sq.LtOrEq{"local_date": to.String()})
	}

	query, args, err := sq.Select(checkinCols).
		From("checkins").
		Where(where).
		OrderBy("local_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build checkin query: %w", err)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	var checkins []model.Checkin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}
