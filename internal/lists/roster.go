package lists

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hashicorp/go-set/v2"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// Ledger writes explicit list rosters. Every roster user must belong to the
// list's owning household at the time of the write.
type Ledger struct {
	db      *sql.DB
	users   *store.UserStore
	lists   *store.ListStore
	metrics *metrics.Metrics
}

func NewLedger(db *sql.DB, users *store.UserStore, lists *store.ListStore, m *metrics.Metrics) *Ledger {
	return &Ledger{db: db, users: users, lists: lists, metrics: m}
}

// SetRoster replaces the roster of a household list with userIDs. If any id
// is outside the household nothing is written and the error is a
// *apperr.ForeignMemberError. It returns the stored roster, ascending.
func (l *Ledger) SetRoster(ctx context.Context, kind model.ListKind, listID int64, userIDs []int64) ([]int64, error) {
	var roster []int64
	err := database.RunInTx(ctx, l.db, func(ctx context.Context) error {
		list, err := l.householdList(ctx, kind, listID)
		if err != nil {
			return err
		}
		wanted := set.From(userIDs)
		if err := l.checkMembers(ctx, list.Owner.ID, wanted); err != nil {
			return err
		}
		roster = sortedIDs(wanted)
		return l.lists.ReplaceRoster(ctx, kind, listID, roster)
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

// AddMember adds userID to the roster and reports whether it was newly added.
func (l *Ledger) AddMember(ctx context.Context, kind model.ListKind, listID, userID int64) (bool, error) {
	var added bool
	err := database.RunInTx(ctx, l.db, func(ctx context.Context) error {
		list, err := l.householdList(ctx, kind, listID)
		if err != nil {
			return err
		}
		if err := l.checkMembers(ctx, list.Owner.ID, set.From([]int64{userID})); err != nil {
			return err
		}
		added, err = l.lists.AddRosterMember(ctx, kind, listID, userID)
		return err
	})
	return added, err
}

// RemoveMember drops userID from the roster. Removing a user who is not on it
// is a no-op and reports false.
func (l *Ledger) RemoveMember(ctx context.Context, kind model.ListKind, listID, userID int64) (bool, error) {
	var removed bool
	err := database.RunInTx(ctx, l.db, func(ctx context.Context) error {
		if _, err := l.householdList(ctx, kind, listID); err != nil {
			return err
		}
		var err error
		removed, err = l.lists.RemoveRosterMember(ctx, kind, listID, userID)
		return err
	})
	return removed, err
}

func (l *Ledger) householdList(ctx context.Context, kind model.ListKind, listID int64) (*model.List, error) {
	list, err := l.lists.GetByID(ctx, kind, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("%w: %s list %d", apperr.ErrNotFound, kind, listID)
	}
	if !list.Owner.IsHousehold() {
		return nil, fmt.Errorf("%w: only household lists have a roster", apperr.ErrInvalidOwnership)
	}
	return list, nil
}

// checkMembers fails with a ForeignMemberError naming every id in wanted that
// is not a current member of householdID.
func (l *Ledger) checkMembers(ctx context.Context, householdID int64, wanted *set.Set[int64]) error {
	if wanted.Size() == 0 {
		return nil
	}
	ids, err := l.users.MemberIDs(ctx, householdID)
	if err != nil {
		return err
	}
	members := set.From(ids)

	var foreign []int64
	for _, id := range wanted.Slice() {
		if !members.Contains(id) {
			foreign = append(foreign, id)
		}
	}
	if len(foreign) > 0 {
		l.metrics.IncRosterRejection()
		return apperr.NewForeignMemberError(householdID, foreign)
	}
	return nil
}
