package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

// OrderStore maintains the sort_index arena of a list's items. It works on
// todos and shopping items alike.
type OrderStore struct {
	base
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{base{db: db}}
}

// Reorder sets sort_index to the position in orderedIDs for each id that
// belongs to listID. Ids of other lists are skipped and unlisted items keep
// their index. It returns the number of rows rewritten.
func (s *OrderStore) Reorder(ctx context.Context, kind model.ListKind, listID int64, orderedIDs []int64) (int64, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return 0, err
	}

	var updated int64
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		updated = 0
		conn := s.conn(ctx)
		for idx, id := range orderedIDs {
			result, err := conn.ExecContext(ctx,
				`UPDATE `+t.items+` SET sort_index = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND `+t.itemFK+` = ?`,
				idx, id, listID,
			)
			if err != nil {
				return fmt.Errorf("update sort index: %w", err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			updated += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// Clear deletes every item of the list in one statement.
func (s *OrderStore) Clear(ctx context.Context, kind model.ListKind, listID int64) (int64, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return 0, err
	}
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM `+t.items+` WHERE `+t.itemFK+` = ?`, listID)
	if err != nil {
		return 0, fmt.Errorf("clear %s items: %w", kind, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
