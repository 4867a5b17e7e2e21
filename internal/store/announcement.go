package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/model"
)

type AnnouncementStore struct {
	base
}

func NewAnnouncementStore(db *sql.DB) *AnnouncementStore {
	return &AnnouncementStore{base{db: db}}
}

func scanAnnouncement(s scanner) (*model.Announcement, error) {
	var a model.Announcement
	var pinned int
	err := s.Scan(&a.ID, &a.UserID, &a.HouseholdID, &a.Text, &pinned,
		&a.PublishedAt, &a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Pinned = pinned != 0
	return &a, nil
}

const announcementCols = `id, user_id, household_id, text, is_pinned, published_at, expires_at, created_at, updated_at`

// normTime drops sub-second precision and the zone so stored values compare
// correctly as text.
func normTime(t null.Time) null.Time {
	if !t.Valid {
		return t
	}
	return null.TimeFrom(t.Time.UTC().Truncate(time.Second))
}

type AnnouncementParams struct {
	Text        string
	Pinned      bool
	PublishedAt null.Time
	ExpiresAt   null.Time
}

func (s *AnnouncementStore) Create(ctx context.Context, userID, householdID int64, p AnnouncementParams) (*model.Announcement, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO announcements (user_id, household_id, text, is_pinned, published_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, householdID, p.Text, boolToInt(p.Pinned), normTime(p.PublishedAt), normTime(p.ExpiresAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert announcement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AnnouncementStore) GetByID(ctx context.Context, id int64) (*model.Announcement, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+announcementCols+` FROM announcements WHERE id = ?`, id)
	a, err := scanAnnouncement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return a, nil
}

// ListActive returns the household's announcements that have not expired as
// of now, pinned first and then newest first.
func (s *AnnouncementStore) ListActive(ctx context.Context, householdID int64, now time.Time) ([]model.Announcement, error) {
	cutoff := normTime(null.TimeFrom(now))
	query, args, err := sq.Select(announcementCols).
		From("announcements").
		Where(sq.Eq{"household_id": householdID}).
		Where(sq.Or{sq.Eq{"expires_at": nil}, sq.Gt{"expires_at": cutoff}}).
		OrderBy("is_pinned DESC", "created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build announcement query: %w", err)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, *a)
	}
	return announcements, rows.Err()
}

func (s *AnnouncementStore) Update(ctx context.Context, id int64, p AnnouncementParams) (*model.Announcement, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE announcements SET text = ?, is_pinned = ?, published_at = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.Text, boolToInt(p.Pinned), normTime(p.PublishedAt), normTime(p.ExpiresAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AnnouncementStore) Delete(ctx context.Context, id int64) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}
