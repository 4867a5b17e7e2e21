package lists

import (
	"context"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

// Items are appended by AddTodo and AddItem at one past the list's highest
// sort_index, so freed indexes are never reused and gaps are allowed.

// Reorder gives each id in orderedIDs its 0-based position. Ids that are not
// items of the list are ignored and items left out keep their index, so the
// result may contain ties; readers break them by id. A repeated id ends up
// at its last position.
func (s *Service) Reorder(ctx context.Context, actor auth.Actor, kind model.ListKind, listID int64, orderedIDs []int64) (int64, error) {
	if len(orderedIDs) == 0 {
		return 0, apperr.ErrEmptyReorderRequest
	}
	start := time.Now()

	var updated int64
	var notifyTo []int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		_, aud, err := s.accessibleList(ctx, actor, kind, listID)
		if err != nil {
			return err
		}
		notifyTo = sortedIDs(aud)
		updated, err = s.order.Reorder(ctx, kind, listID, orderedIDs)
		return err
	})
	if err != nil {
		return 0, err
	}

	if updated < int64(len(orderedIDs)) {
		s.logger.Debug("reorder skipped ids outside list", "kind", kind, "list_id", listID,
			"requested", len(orderedIDs), "updated", updated)
	}
	s.metrics.AddReordered(string(kind), updated)
	s.metrics.ObserveMutation("reorder", start)
	s.notifier.Notify(itemEntity(kind), "reordered", listID, notifyTo)
	return updated, nil
}

// Clear deletes every item of the list in one statement.
func (s *Service) Clear(ctx context.Context, actor auth.Actor, kind model.ListKind, listID int64) (int64, error) {
	var cleared int64
	var notifyTo []int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		_, aud, err := s.accessibleList(ctx, actor, kind, listID)
		if err != nil {
			return err
		}
		notifyTo = sortedIDs(aud)
		cleared, err = s.order.Clear(ctx, kind, listID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.notifier.Notify(itemEntity(kind), "cleared", listID, notifyTo)
	return cleared, nil
}

func itemEntity(kind model.ListKind) string {
	if kind == model.ListKindShopping {
		return "shopping_item"
	}
	return "todo"
}
