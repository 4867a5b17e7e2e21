package store

import (
	"context"
	"testing"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

func setupShoppingList(t *testing.T) (*ShoppingStore, *model.List) {
	t.Helper()
	db := setupTestDB(t)
	alice := createUser(t, db, "alice@example.com", "Alice")
	list, err := NewListStore(db).Create(context.Background(), model.ListKindShopping, "Groceries", "", model.UserOwner(alice.ID), false)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	return NewShoppingStore(db), list
}

func TestShoppingCategoryUniquePerList(t *testing.T) {
	ss, list := setupShoppingList(t)
	ctx := context.Background()

	if _, err := ss.CreateCategory(ctx, list.ID, "Dairy", "dairy"); err != nil {
		t.Fatalf("create category: %v", err)
	}
	_, err := ss.CreateCategory(ctx, list.ID, "DAIRY", "dairy")
	if !database.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	taken, err := ss.CategoryKeyTaken(ctx, list.ID, "dairy", 0)
	if err != nil {
		t.Fatalf("key taken: %v", err)
	}
	if !taken {
		t.Error("expected dairy to be taken")
	}
}

func TestShoppingCategorySameNameOtherList(t *testing.T) {
	ss, list := setupShoppingList(t)
	ctx := context.Background()

	other, err := NewListStore(ss.db).Create(ctx, model.ListKindShopping, "Hardware", "", list.Owner, false)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if _, err := ss.CreateCategory(ctx, list.ID, "Misc", "misc"); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := ss.CreateCategory(ctx, other.ID, "Misc", "misc"); err != nil {
		t.Fatalf("same name in another list should be allowed: %v", err)
	}
}

func TestShoppingCategoryRenameExcludesSelf(t *testing.T) {
	ss, list := setupShoppingList(t)
	ctx := context.Background()

	c, _ := ss.CreateCategory(ctx, list.ID, "Produce", "produce")
	taken, err := ss.CategoryKeyTaken(ctx, list.ID, "produce", c.ID)
	if err != nil {
		t.Fatalf("key taken: %v", err)
	}
	if taken {
		t.Error("a category should not collide with itself")
	}

	renamed, err := ss.RenameCategory(ctx, c.ID, "PRODUCE", "produce")
	if err != nil {
		t.Fatalf("rename category: %v", err)
	}
	if renamed.Name != "PRODUCE" {
		t.Errorf("name = %q, want %q", renamed.Name, "PRODUCE")
	}
}

func TestShoppingDeleteCategoryKeepsItems(t *testing.T) {
	ss, list := setupShoppingList(t)
	ctx := context.Background()

	c, _ := ss.CreateCategory(ctx, list.ID, "Dairy", "dairy")
	milk, _ := ss.CreateItem(ctx, list.ID, "Milk", 1, null.IntFrom(c.ID))
	cheese, _ := ss.CreateItem(ctx, list.ID, "Cheese", 2, null.IntFrom(c.ID))
	bread, _ := ss.CreateItem(ctx, list.ID, "Bread", 1, null.Int{})

	moved, err := ss.DeleteCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if moved != 2 {
		t.Errorf("moved = %d, want 2", moved)
	}

	items, err := ss.ListItemsByList(ctx, list.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for _, item := range items {
		if item.CategoryID.Valid {
			t.Errorf("item %q still categorized", item.Name)
		}
	}
	if items[0].ID != milk.ID || items[1].ID != cheese.ID || items[2].ID != bread.ID {
		t.Error("deleting a category should not change item order")
	}

	got, _ := ss.GetCategoryByID(ctx, c.ID)
	if got != nil {
		t.Error("expected category to be deleted")
	}
}

func TestShoppingItemLifecycle(t *testing.T) {
	ss, list := setupShoppingList(t)
	ctx := context.Background()

	a, err := ss.CreateItem(ctx, list.ID, "Eggs", 12, null.Int{})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	b, _ := ss.CreateItem(ctx, list.ID, "Flour", 1, null.Int{})
	if a.SortIndex != 0 || b.SortIndex != 1 {
		t.Errorf("sort indexes = %d, %d, want 0, 1", a.SortIndex, b.SortIndex)
	}

	toggled, err := ss.TogglePurchased(ctx, a.ID)
	if err != nil {
		t.Fatalf("toggle purchased: %v", err)
	}
	if !toggled.Purchased {
		t.Error("expected purchased after toggle")
	}

	updated, err := ss.UpdateItem(ctx, b.ID, "Rye flour", 2, null.Int{})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Name != "Rye flour" || updated.Quantity != 2 {
		t.Errorf("got %+v", updated)
	}

	cleared, err := ss.ClearPurchased(ctx, list.ID)
	if err != nil {
		t.Fatalf("clear purchased: %v", err)
	}
	if cleared != 1 {
		t.Errorf("cleared = %d, want 1", cleared)
	}
	items, _ := ss.ListItemsByList(ctx, list.ID)
	if len(items) != 1 || items[0].ID != b.ID {
		t.Errorf("items = %+v, want only flour", items)
	}
}
