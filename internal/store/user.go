package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

type UserStore struct {
	base
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{base{db: db}}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.DisplayName, &u.Timezone, &u.HouseholdID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, name, display_name, timezone, household_id, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, email, name, timezone string) (*model.User, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO users (email, name, display_name, timezone) VALUES (?, ?, ?, ?)`,
		email, name, name, timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id int64, displayName, timezone string) (*model.User, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE users SET display_name = ?, timezone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		displayName, timezone, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SetHousehold moves the user into householdID, or out of any household when
// householdID is null.
func (s *UserStore) SetHousehold(ctx context.Context, id int64, householdID null.Int) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE users SET household_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		householdID, id,
	)
	if err != nil {
		return fmt.Errorf("set household: %w", err)
	}
	return nil
}

// Delete removes the user. Foreign keys cascade to the user's own lists,
// roster rows, check-ins, mood and announcements; assignments are cleared.
func (s *UserStore) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// ListByHousehold returns the household's current members.
func (s *UserStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.User, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE household_id = ? ORDER BY name ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list household users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// MemberIDs returns the ids of the household's current members.
func (s *UserStore) MemberIDs(ctx context.Context, householdID int64) ([]int64, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id FROM users WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
