package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

// base gives every store a connection that honours a transaction carried in
// the context.
type base struct {
	db *sql.DB
}

func (b base) conn(ctx context.Context) database.Querier {
	return database.Conn(ctx, b.db)
}

type scanner interface{ Scan(...any) error }

// listTables names the tables backing one kind of list.
type listTables struct {
	lists    string
	members  string
	memberFK string
	items    string
	itemFK   string
}

var tablesByKind = map[model.ListKind]listTables{
	model.ListKindTodo: {
		lists:    "todo_lists",
		members:  "todo_list_members",
		memberFK: "todo_list_id",
		items:    "todos",
		itemFK:   "list_id",
	},
	model.ListKindShopping: {
		lists:    "shopping_lists",
		members:  "shopping_list_members",
		memberFK: "shopping_list_id",
		items:    "shopping_items",
		itemFK:   "shopping_list_id",
	},
}

func tablesFor(kind model.ListKind) (listTables, error) {
	t, ok := tablesByKind[kind]
	if !ok {
		return listTables{}, fmt.Errorf("%w: unknown list kind %q", apperr.ErrInvalidInput, kind)
	}
	return t, nil
}

// nextSortIndex is the append position for a new item: one past the current
// maximum, or 0 for an empty list.
func nextSortIndex(t listTables) string {
	return `(SELECT COALESCE(MAX(sort_index), -1) + 1 FROM ` + t.items + ` WHERE ` + t.itemFK + ` = ?)`
}

// qualify prefixes each column of a comma-separated list with alias.
func qualify(alias, cols string) []string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return parts
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
