package lists

import (
	"context"
	"fmt"
	"strings"

	"github.com/guregu/null/v5"
	"github.com/hashicorp/go-set/v2"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/grocery"
	"github.com/dukerupert/hearth/internal/model"
)

// ItemInput is the editable content of a shopping item. Quantity defaults to
// 1. On create, an item without a category is filed under the list's
// category matching grocery.Suggest, if the list has one.
type ItemInput struct {
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	CategoryID null.Int `json:"category_id"`
}

func (in ItemInput) normalize() (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, apperr.Invalid("name is required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return in, apperr.Invalid("quantity must be positive")
	}
	return in, nil
}

func (s *Service) ListItems(ctx context.Context, actor auth.Actor, listID int64) ([]model.ShoppingItem, error) {
	var items []model.ShoppingItem
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if _, _, err := s.accessibleList(ctx, actor, model.ListKindShopping, listID); err != nil {
			return err
		}
		var err error
		items, err = s.shopping.ListItemsByList(ctx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	return items, nil
}

// AddItem appends an item to the end of the list.
func (s *Service) AddItem(ctx context.Context, actor auth.Actor, listID int64, in ItemInput) (*model.ShoppingItem, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var item *model.ShoppingItem
	var aud *set.Set[int64]
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		if _, aud, err = s.accessibleList(ctx, actor, model.ListKindShopping, listID); err != nil {
			return err
		}
		categoryID := in.CategoryID
		if categoryID.Valid {
			if err := s.checkCategory(ctx, listID, categoryID.Int64); err != nil {
				return err
			}
		} else if categoryID, err = s.suggestCategory(ctx, listID, in.Name); err != nil {
			return err
		}
		item, err = s.shopping.CreateItem(ctx, listID, in.Name, in.Quantity, categoryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindShopping, "item_created", listID, aud)
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, actor auth.Actor, itemID int64, in ItemInput) (*model.ShoppingItem, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var item *model.ShoppingItem
	var aud *set.Set[int64]
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleItem(ctx, actor, itemID)
		if err != nil {
			return err
		}
		aud = a
		if in.CategoryID.Valid {
			if err := s.checkCategory(ctx, current.ListID, in.CategoryID.Int64); err != nil {
				return err
			}
		}
		item, err = s.shopping.UpdateItem(ctx, current.ID, in.Name, in.Quantity, in.CategoryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindShopping, "item_updated", item.ListID, aud)
	return item, nil
}

func (s *Service) TogglePurchased(ctx context.Context, actor auth.Actor, itemID int64) (*model.ShoppingItem, error) {
	var item *model.ShoppingItem
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleItem(ctx, actor, itemID)
		if err != nil {
			return err
		}
		aud = a
		item, err = s.shopping.TogglePurchased(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindShopping, "item_updated", item.ListID, aud)
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, actor auth.Actor, itemID int64) error {
	var listID int64
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleItem(ctx, actor, itemID)
		if err != nil {
			return err
		}
		listID, aud = current.ListID, a
		return s.shopping.DeleteItem(ctx, current.ID)
	})
	if err != nil {
		return err
	}
	s.notify(model.ListKindShopping, "item_deleted", listID, aud)
	return nil
}

func (s *Service) ClearPurchased(ctx context.Context, actor auth.Actor, listID int64) (int64, error) {
	var cleared int64
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		if _, aud, err = s.accessibleList(ctx, actor, model.ListKindShopping, listID); err != nil {
			return err
		}
		cleared, err = s.shopping.ClearPurchased(ctx, listID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.notify(model.ListKindShopping, "cleared", listID, aud)
	return cleared, nil
}

func (s *Service) accessibleItem(ctx context.Context, actor auth.Actor, itemID int64) (*model.ShoppingItem, *set.Set[int64], error) {
	item, err := s.shopping.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, fmt.Errorf("%w: shopping item %d", apperr.ErrNotFound, itemID)
	}
	_, aud, err := s.accessibleList(ctx, actor, model.ListKindShopping, item.ListID)
	if err != nil {
		return nil, nil, err
	}
	return item, aud, nil
}

// checkCategory requires categoryID to be a category of listID.
func (s *Service) checkCategory(ctx context.Context, listID, categoryID int64) error {
	c, err := s.shopping.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil || c.ListID != listID {
		return apperr.Invalid("category %d does not belong to list %d", categoryID, listID)
	}
	return nil
}

func (s *Service) suggestCategory(ctx context.Context, listID int64, name string) (null.Int, error) {
	suggested, ok := grocery.Suggest(name)
	if !ok {
		return null.Int{}, nil
	}
	c, err := s.shopping.GetCategoryByKey(ctx, listID, NameKey(suggested))
	if err != nil || c == nil {
		return null.Int{}, err
	}
	return null.IntFrom(c.ID), nil
}

// --- Categories ---

func (s *Service) ListCategories(ctx context.Context, actor auth.Actor, listID int64) ([]model.ShoppingCategory, error) {
	var categories []model.ShoppingCategory
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if _, _, err := s.accessibleList(ctx, actor, model.ListKindShopping, listID); err != nil {
			return err
		}
		var err error
		categories, err = s.shopping.ListCategories(ctx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.ShoppingCategory{}
	}
	return categories, nil
}

// CreateCategory adds a category whose name is unique within the list after
// trimming and case folding.
func (s *Service) CreateCategory(ctx context.Context, actor auth.Actor, listID int64, name string) (*model.ShoppingCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	key := NameKey(name)

	var category *model.ShoppingCategory
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		if _, aud, err = s.accessibleList(ctx, actor, model.ListKindShopping, listID); err != nil {
			return err
		}
		if err := s.checkUnique(ctx, listID, key, 0, name); err != nil {
			return err
		}
		category, err = s.shopping.CreateCategory(ctx, listID, name, key)
		return s.categoryWriteErr(err, name)
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindShopping, "category_created", listID, aud)
	return category, nil
}

// RenameCategory renames a category. A rename that keeps the same key, such
// as a change of case, skips the uniqueness check.
func (s *Service) RenameCategory(ctx context.Context, actor auth.Actor, categoryID int64, name string) (*model.ShoppingCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	key := NameKey(name)

	var category *model.ShoppingCategory
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleCategory(ctx, actor, categoryID)
		if err != nil {
			return err
		}
		aud = a
		if key != NameKey(current.Name) {
			if err := s.checkUnique(ctx, current.ListID, key, current.ID, name); err != nil {
				return err
			}
		}
		category, err = s.shopping.RenameCategory(ctx, current.ID, name, key)
		return s.categoryWriteErr(err, name)
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindShopping, "category_updated", category.ListID, aud)
	return category, nil
}

// DeleteCategory removes a category; its items stay on the list
// uncategorized. It returns how many items were moved.
func (s *Service) DeleteCategory(ctx context.Context, actor auth.Actor, categoryID int64) (int64, error) {
	var moved, listID int64
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleCategory(ctx, actor, categoryID)
		if err != nil {
			return err
		}
		listID, aud = current.ListID, a
		moved, err = s.shopping.DeleteCategory(ctx, current.ID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.notify(model.ListKindShopping, "category_deleted", listID, aud)
	return moved, nil
}

func (s *Service) accessibleCategory(ctx context.Context, actor auth.Actor, categoryID int64) (*model.ShoppingCategory, *set.Set[int64], error) {
	c, err := s.shopping.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, fmt.Errorf("%w: category %d", apperr.ErrNotFound, categoryID)
	}
	_, aud, err := s.accessibleList(ctx, actor, model.ListKindShopping, c.ListID)
	if err != nil {
		return nil, nil, err
	}
	return c, aud, nil
}

func (s *Service) checkUnique(ctx context.Context, listID int64, key string, excludeID int64, name string) error {
	taken, err := s.shopping.CategoryKeyTaken(ctx, listID, key, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: category %q already exists", apperr.ErrDuplicateName, name)
	}
	return nil
}

// categoryWriteErr reports a unique violation that slipped past checkUnique
// as a duplicate name.
func (s *Service) categoryWriteErr(err error, name string) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		s.metrics.IncConstraintRace("category_name")
		s.logger.Warn("category name race lost", "name", name)
		return fmt.Errorf("%w: category %q already exists", apperr.ErrDuplicateName, name)
	}
	return err
}
