package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

// ListStore persists todo and shopping lists and their rosters. Both kinds
// share one shape; the kind selects the tables.
type ListStore struct {
	base
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{base{db: db}}
}

func scanList(kind model.ListKind, s scanner) (*model.List, error) {
	var l model.List
	var userID, householdID null.Int
	var allMembers int

	err := s.Scan(&l.ID, &l.Title, &l.Icon, &userID, &householdID, &allMembers, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	owner, err := model.OwnerFromColumns(userID, householdID)
	if err != nil {
		return nil, err
	}
	l.Kind = kind
	l.Owner = owner
	l.AllMembers = allMembers != 0
	return &l, nil
}

const listCols = `id, title, icon, user_id, household_id, all_members, created_at, updated_at`

func (s *ListStore) Create(ctx context.Context, kind model.ListKind, title, icon string, owner model.Owner, allMembers bool) (*model.List, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	userID, householdID := owner.Columns()

	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO `+t.lists+` (title, icon, user_id, household_id, all_members) VALUES (?, ?, ?, ?, ?)`,
		title, icon, userID, householdID, boolToInt(allMembers),
	)
	if err != nil {
		return nil, fmt.Errorf("insert %s list: %w", kind, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, kind, id)
}

func (s *ListStore) GetByID(ctx context.Context, kind model.ListKind, id int64) (*model.List, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+listCols+` FROM `+t.lists+` WHERE id = ?`, id)
	l, err := scanList(kind, row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s list: %w", kind, err)
	}
	return l, nil
}

func (s *ListStore) Update(ctx context.Context, kind model.ListKind, id int64, title, icon string) (*model.List, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	_, err = s.conn(ctx).ExecContext(ctx,
		`UPDATE `+t.lists+` SET title = ?, icon = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, icon, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update %s list: %w", kind, err)
	}
	return s.GetByID(ctx, kind, id)
}

func (s *ListStore) SetAllMembers(ctx context.Context, kind model.ListKind, id int64, allMembers bool) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).ExecContext(ctx,
		`UPDATE `+t.lists+` SET all_members = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(allMembers), id,
	)
	if err != nil {
		return fmt.Errorf("set all members: %w", err)
	}
	return nil
}

// Delete removes the list; items, categories and roster rows cascade.
func (s *ListStore) Delete(ctx context.Context, kind model.ListKind, id int64) (bool, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return false, err
	}
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM `+t.lists+` WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete %s list: %w", kind, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListVisible returns the lists userID may see: their own lists plus the
// household's lists that are open to all members or name them on the roster.
func (s *ListStore) ListVisible(ctx context.Context, kind model.ListKind, userID int64, householdID null.Int) ([]model.List, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	visible := sq.Or{sq.Eq{"l.user_id": userID}}
	if householdID.Valid {
		visible = append(visible, sq.And{
			sq.Eq{"l.household_id": householdID.Int64},
			sq.Or{
				sq.Eq{"l.all_members": 1},
				sq.Expr(`EXISTS (SELECT 1 FROM `+t.members+` m WHERE m.`+t.memberFK+` = l.id AND m.user_id = ?)`, userID),
			},
		})
	}

	query, args, err := sq.Select(qualify("l", listCols)...).
		From(t.lists + " l").
		Where(visible).
		OrderBy("l.created_at ASC", "l.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build visible lists query: %w", err)
	}
	return s.queryLists(ctx, kind, query, args...)
}

func (s *ListStore) queryLists(ctx context.Context, kind model.ListKind, query string, args ...any) ([]model.List, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s lists: %w", kind, err)
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		l, err := scanList(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s list: %w", kind, err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// --- Roster methods ---

func (s *ListStore) RosterUserIDs(ctx context.Context, kind model.ListKind, listID int64) ([]int64, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT user_id FROM `+t.members+` WHERE `+t.memberFK+` = ? ORDER BY user_id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan roster user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceRoster swaps the roster for exactly userIDs in one transaction.
// userIDs must not contain duplicates.
func (s *ListStore) ReplaceRoster(ctx context.Context, kind model.ListKind, listID int64, userIDs []int64) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	return database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		conn := s.conn(ctx)
		if _, err := conn.ExecContext(ctx, `DELETE FROM `+t.members+` WHERE `+t.memberFK+` = ?`, listID); err != nil {
			return fmt.Errorf("clear roster: %w", err)
		}
		for _, userID := range userIDs {
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO `+t.members+` (`+t.memberFK+`, user_id) VALUES (?, ?)`,
				listID, userID,
			); err != nil {
				return fmt.Errorf("insert roster user %d: %w", userID, err)
			}
		}
		return nil
	})
}

// AddRosterMember inserts the pair if absent and reports whether it was new.
func (s *ListStore) AddRosterMember(ctx context.Context, kind model.ListKind, listID, userID int64) (bool, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return false, err
	}
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO `+t.members+` (`+t.memberFK+`, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		listID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("add roster member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *ListStore) RemoveRosterMember(ctx context.Context, kind model.ListKind, listID, userID int64) (bool, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return false, err
	}
	result, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM `+t.members+` WHERE `+t.memberFK+` = ? AND user_id = ?`,
		listID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove roster member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveFromHouseholdRosters drops userID from the roster of every list,
// of either kind, owned by householdID.
func (s *ListStore) RemoveFromHouseholdRosters(ctx context.Context, householdID, userID int64) (int64, error) {
	var removed int64
	for _, kind := range []model.ListKind{model.ListKindTodo, model.ListKindShopping} {
		t := tablesByKind[kind]
		result, err := s.conn(ctx).ExecContext(ctx,
			`DELETE FROM `+t.members+` WHERE user_id = ? AND `+t.memberFK+` IN (SELECT id FROM `+t.lists+` WHERE household_id = ?)`,
			userID, householdID,
		)
		if err != nil {
			return removed, fmt.Errorf("remove %s roster entries: %w", kind, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return removed, fmt.Errorf("rows affected: %w", err)
		}
		removed += n
	}
	return removed, nil
}
