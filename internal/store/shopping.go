package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

type ShoppingStore struct {
	base
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{base{db: db}}
}

// --- Category methods ---

func scanCategory(s scanner) (*model.ShoppingCategory, error) {
	var c model.ShoppingCategory
	err := s.Scan(&c.ID, &c.ListID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const categoryCols = `id, list_id, name, created_at, updated_at`

// CreateCategory inserts a category. nameKey must be the normalised form of
// name; the (list_id, name_key) pair is unique.
func (s *ShoppingStore) CreateCategory(ctx context.Context, listID int64, name, nameKey string) (*model.ShoppingCategory, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO shopping_categories (list_id, name, name_key) VALUES (?, ?, ?)`,
		listID, name, nameKey,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetCategoryByID(ctx, id)
}

func (s *ShoppingStore) GetCategoryByID(ctx context.Context, id int64) (*model.ShoppingCategory, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+categoryCols+` FROM shopping_categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *ShoppingStore) GetCategoryByKey(ctx context.Context, listID int64, nameKey string) (*model.ShoppingCategory, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+categoryCols+` FROM shopping_categories WHERE list_id = ? AND name_key = ?`,
		listID, nameKey,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by key: %w", err)
	}
	return c, nil
}

// CategoryKeyTaken reports whether another category in the list already uses
// nameKey. excludeID skips the category being renamed; pass 0 on create.
func (s *ShoppingStore) CategoryKeyTaken(ctx context.Context, listID int64, nameKey string, excludeID int64) (bool, error) {
	var count int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shopping_categories WHERE list_id = ? AND name_key = ? AND id != ?`,
		listID, nameKey, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

func (s *ShoppingStore) ListCategories(ctx context.Context, listID int64) ([]model.ShoppingCategory, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+categoryCols+` FROM shopping_categories WHERE list_id = ? ORDER BY name_key ASC, id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.ShoppingCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *ShoppingStore) RenameCategory(ctx context.Context, id int64, name, nameKey string) (*model.ShoppingCategory, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE shopping_categories SET name = ?, name_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, nameKey, id,
	)
	if err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	return s.GetCategoryByID(ctx, id)
}

// DeleteCategory removes the category and moves its items to uncategorized.
// Items are never deleted with their category.
func (s *ShoppingStore) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	var moved int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		conn := s.conn(ctx)
		result, err := conn.ExecContext(ctx,
			`UPDATE shopping_items SET shopping_category_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE shopping_category_id = ?`,
			id,
		)
		if err != nil {
			return fmt.Errorf("uncategorize items: %w", err)
		}
		if moved, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `DELETE FROM shopping_categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// --- Item methods ---

func scanItem(s scanner) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var purchased int

	err := s.Scan(
		&item.ID, &item.ListID, &item.CategoryID, &item.Name, &item.Quantity,
		&purchased, &item.SortIndex, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Purchased = purchased != 0
	return &item, nil
}

const itemCols = `id, shopping_list_id, shopping_category_id, name, quantity, purchased, sort_index, created_at, updated_at`

// CreateItem appends the item after the list's current last item.
func (s *ShoppingStore) CreateItem(ctx context.Context, listID int64, name string, quantity int, categoryID null.Int) (*model.ShoppingItem, error) {
	t := tablesByKind[model.ListKindShopping]
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO shopping_items (shopping_list_id, shopping_category_id, name, quantity, sort_index)
		 VALUES (?, ?, ?, ?, `+nextSortIndex(t)+`)`,
		listID, categoryID, name, quantity, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItemByID(ctx, id)
}

func (s *ShoppingStore) GetItemByID(ctx context.Context, id int64) (*model.ShoppingItem, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+itemCols+` FROM shopping_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) ListItemsByList(ctx context.Context, listID int64) ([]model.ShoppingItem, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+itemCols+` FROM shopping_items WHERE shopping_list_id = ? ORDER BY sort_index ASC, id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) UpdateItem(ctx context.Context, id int64, name string, quantity int, categoryID null.Int) (*model.ShoppingItem, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE shopping_items SET name = ?, quantity = ?, shopping_category_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, quantity, categoryID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetItemByID(ctx, id)
}

func (s *ShoppingStore) TogglePurchased(ctx context.Context, id int64) (*model.ShoppingItem, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE shopping_items SET purchased = 1 - purchased, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle purchased: %w", err)
	}
	return s.GetItemByID(ctx, id)
}

func (s *ShoppingStore) DeleteItem(ctx context.Context, id int64) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ClearPurchased deletes the purchased items of a list.
func (s *ShoppingStore) ClearPurchased(ctx context.Context, listID int64) (int64, error) {
	result, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM shopping_items WHERE shopping_list_id = ? AND purchased = 1`,
		listID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear purchased: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
