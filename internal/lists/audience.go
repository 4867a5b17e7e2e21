package lists

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-set/v2"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// Resolver derives who may see and act on a list. It holds no state; every
// call reads the current household and roster rows.
type Resolver struct {
	users *store.UserStore
	lists *store.ListStore
}

func NewResolver(users *store.UserStore, lists *store.ListStore) *Resolver {
	return &Resolver{users: users, lists: lists}
}

// Resolve returns the audience of l:
//   - user-owned: the owner alone
//   - household-owned with all_members: the household's current members
//   - household-owned otherwise: the roster, which may be empty
func (r *Resolver) Resolve(ctx context.Context, l *model.List) (*set.Set[int64], error) {
	if !l.Owner.IsHousehold() {
		return set.From([]int64{l.Owner.ID}), nil
	}

	var ids []int64
	var err error
	if l.AllMembers {
		ids, err = r.users.MemberIDs(ctx, l.Owner.ID)
	} else {
		ids, err = r.lists.RosterUserIDs(ctx, l.Kind, l.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve audience of %s list %d: %w", l.Kind, l.ID, err)
	}
	return set.From(ids), nil
}

// CanAccess reports whether userID is in the audience of l.
func (r *Resolver) CanAccess(ctx context.Context, l *model.List, userID int64) (bool, error) {
	aud, err := r.Resolve(ctx, l)
	if err != nil {
		return false, err
	}
	return aud.Contains(userID), nil
}

// sortedIDs returns the members of s in ascending order.
func sortedIDs(s *set.Set[int64]) []int64 {
	ids := s.Slice()
	slices.Sort(ids)
	return ids
}
