package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, email, name string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), email, name, "UTC")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// createHousehold creates a household with creator as its first member.
func createHousehold(t *testing.T, db *sql.DB, name string, creator *model.User) *model.Household {
	t.Helper()
	ctx := context.Background()
	h, err := NewHouseholdStore(db).Create(ctx, name, creator.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if err := NewUserStore(db).SetHousehold(ctx, creator.ID, null.IntFrom(h.ID)); err != nil {
		t.Fatalf("set household: %v", err)
	}
	return h
}

func joinHousehold(t *testing.T, db *sql.DB, u *model.User, h *model.Household) {
	t.Helper()
	if err := NewUserStore(db).SetHousehold(context.Background(), u.ID, null.IntFrom(h.ID)); err != nil {
		t.Fatalf("join household: %v", err)
	}
}
