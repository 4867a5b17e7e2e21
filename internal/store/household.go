package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/model"
)

type HouseholdStore struct {
	base
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{base{db: db}}
}

func scanHousehold(s scanner) (*model.Household, error) {
	var h model.Household
	err := s.Scan(&h.ID, &h.Name, &h.CreatorID, &h.InviteCode, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, creator_id, invite_code, created_at, updated_at`

func (s *HouseholdStore) Create(ctx context.Context, name string, creatorID int64) (*model.Household, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO households (name, creator_id) VALUES (?, ?)`,
		name, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByInviteCode(ctx context.Context, code string) (*model.Household, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE invite_code = ?`, code)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by invite code: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Rename(ctx context.Context, id int64, name string) (*model.Household, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE households SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("rename household: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SetInviteCode replaces the invite code; a null code disables invites.
func (s *HouseholdStore) SetInviteCode(ctx context.Context, id int64, code null.String) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE households SET invite_code = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		code, id,
	)
	if err != nil {
		return fmt.Errorf("set invite code: %w", err)
	}
	return nil
}
