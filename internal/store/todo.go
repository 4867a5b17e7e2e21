package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/model"
)

type TodoStore struct {
	base
}

func NewTodoStore(db *sql.DB) *TodoStore {
	return &TodoStore{base{db: db}}
}

// TodoParams are the editable fields of a todo.
type TodoParams struct {
	Title        string
	Description  string
	Status       string
	Priority     string
	DueDate      null.String
	AssignedToID null.Int
	Notes        string
}

func scanTodo(s scanner) (*model.Todo, error) {
	var td model.Todo
	err := s.Scan(
		&td.ID, &td.ListID, &td.Title, &td.Description, &td.Status, &td.Priority,
		&td.DueDate, &td.AssignedToID, &td.Notes, &td.SortIndex, &td.CreatedAt, &td.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &td, nil
}

const todoCols = `id, list_id, title, description, status, priority, due_date, assigned_to_id, notes, sort_index, created_at, updated_at`

// Create appends the todo after the list's current last item.
func (s *TodoStore) Create(ctx context.Context, listID int64, p TodoParams) (*model.Todo, error) {
	t := tablesByKind[model.ListKindTodo]
	result, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO todos (list_id, title, description, status, priority, due_date, assigned_to_id, notes, sort_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, `+nextSortIndex(t)+`)`,
		listID, p.Title, p.Description, p.Status, p.Priority, p.DueDate, p.AssignedToID, p.Notes, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TodoStore) GetByID(ctx context.Context, id int64) (*model.Todo, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+todoCols+` FROM todos WHERE id = ?`, id)
	td, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return td, nil
}

// ListByList returns the list's todos by sort_index; equal indexes fall back
// to id.
func (s *TodoStore) ListByList(ctx context.Context, listID int64) ([]model.Todo, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+todoCols+` FROM todos WHERE list_id = ? ORDER BY sort_index ASC, id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		td, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *td)
	}
	return todos, rows.Err()
}

func (s *TodoStore) Update(ctx context.Context, id int64, p TodoParams) (*model.Todo, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE todos SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, assigned_to_id = ?, notes = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.Title, p.Description, p.Status, p.Priority, p.DueDate, p.AssignedToID, p.Notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TodoStore) SetStatus(ctx context.Context, id int64, status string) (*model.Todo, error) {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE todos SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set todo status: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TodoStore) Delete(ctx context.Context, id int64) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}
