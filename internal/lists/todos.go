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
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// TodoInput is the editable content of a todo. Empty Status and Priority
// default to pending and low.
type TodoInput struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Status       string      `json:"status"`
	Priority     string      `json:"priority"`
	DueDate      null.String `json:"due_date"`
	AssignedToID null.Int    `json:"assigned_to_id"`
	Notes        string      `json:"notes"`
}

func (in TodoInput) params() (store.TodoParams, error) {
	p := store.TodoParams{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Status:       in.Status,
		Priority:     in.Priority,
		DueDate:      in.DueDate,
		AssignedToID: in.AssignedToID,
		Notes:        in.Notes,
	}
	if p.Title == "" {
		return p, apperr.Invalid("title is required")
	}
	if p.Status == "" {
		p.Status = model.TodoStatusPending
	}
	if !model.ValidTodoStatus(p.Status) {
		return p, apperr.Invalid("unknown status %q", p.Status)
	}
	if p.Priority == "" {
		p.Priority = model.PriorityLow
	}
	if !model.ValidPriority(p.Priority) {
		return p, apperr.Invalid("unknown priority %q", p.Priority)
	}
	if p.DueDate.Valid {
		if _, err := model.ParseDate(p.DueDate.String); err != nil {
			return p, apperr.Invalid("due_date must be YYYY-MM-DD")
		}
	}
	return p, nil
}

func (s *Service) ListTodos(ctx context.Context, actor auth.Actor, listID int64) ([]model.Todo, error) {
	var todos []model.Todo
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if _, _, err := s.accessibleList(ctx, actor, model.ListKindTodo, listID); err != nil {
			return err
		}
		var err error
		todos, err = s.todos.ListByList(ctx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// AddTodo appends a todo to the end of the list.
func (s *Service) AddTodo(ctx context.Context, actor auth.Actor, listID int64, in TodoInput) (*model.Todo, error) {
	p, err := in.params()
	if err != nil {
		return nil, err
	}

	var todo *model.Todo
	var aud *set.Set[int64]
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		if _, aud, err = s.accessibleList(ctx, actor, model.ListKindTodo, listID); err != nil {
			return err
		}
		if err := checkAssignee(aud, p.AssignedToID); err != nil {
			return err
		}
		todo, err = s.todos.Create(ctx, listID, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindTodo, "item_created", listID, aud)
	return todo, nil
}

func (s *Service) UpdateTodo(ctx context.Context, actor auth.Actor, todoID int64, in TodoInput) (*model.Todo, error) {
	p, err := in.params()
	if err != nil {
		return nil, err
	}

	var todo *model.Todo
	var aud *set.Set[int64]
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleTodo(ctx, actor, todoID)
		if err != nil {
			return err
		}
		aud = a
		// An unchanged assignee stays even if they have since left the audience.
		if !p.AssignedToID.Equal(current.AssignedToID) {
			if err := checkAssignee(aud, p.AssignedToID); err != nil {
				return err
			}
		}
		todo, err = s.todos.Update(ctx, current.ID, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindTodo, "item_updated", todo.ListID, aud)
	return todo, nil
}

// ToggleTodo flips a todo between completed and pending.
func (s *Service) ToggleTodo(ctx context.Context, actor auth.Actor, todoID int64) (*model.Todo, error) {
	var todo *model.Todo
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleTodo(ctx, actor, todoID)
		if err != nil {
			return err
		}
		aud = a
		next := model.TodoStatusCompleted
		if current.Status == model.TodoStatusCompleted {
			next = model.TodoStatusPending
		}
		todo, err = s.todos.SetStatus(ctx, current.ID, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(model.ListKindTodo, "item_updated", todo.ListID, aud)
	return todo, nil
}

func (s *Service) DeleteTodo(ctx context.Context, actor auth.Actor, todoID int64) error {
	var listID int64
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, a, err := s.accessibleTodo(ctx, actor, todoID)
		if err != nil {
			return err
		}
		listID, aud = current.ListID, a
		return s.todos.Delete(ctx, current.ID)
	})
	if err != nil {
		return err
	}
	s.notify(model.ListKindTodo, "item_deleted", listID, aud)
	return nil
}

func (s *Service) accessibleTodo(ctx context.Context, actor auth.Actor, todoID int64) (*model.Todo, *set.Set[int64], error) {
	todo, err := s.todos.GetByID(ctx, todoID)
	if err != nil {
		return nil, nil, err
	}
	if todo == nil {
		return nil, nil, fmt.Errorf("%w: todo %d", apperr.ErrNotFound, todoID)
	}
	_, aud, err := s.accessibleList(ctx, actor, model.ListKindTodo, todo.ListID)
	if err != nil {
		return nil, nil, err
	}
	return todo, aud, nil
}
