// Package lists is the ownership and visibility kernel for todo and shopping
// lists: who owns a list, who may act on it, and how its items stay ordered.
package lists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/guregu/null/v5"
	"github.com/hashicorp/go-set/v2"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// Notifier is told about committed changes so live clients can refresh.
// recipients is the audience of the affected list.
type Notifier interface {
	Notify(entity, action string, id int64, recipients []int64)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, int64, []int64) {}

type Service struct {
	db         *sql.DB
	users      *store.UserStore
	households *store.HouseholdStore
	lists      *store.ListStore
	order      *store.OrderStore
	todos      *store.TodoStore
	shopping   *store.ShoppingStore
	resolver   *Resolver
	ledger     *Ledger
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(db *sql.DB, notifier Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	users := store.NewUserStore(db)
	listStore := store.NewListStore(db)
	return &Service{
		db:         db,
		users:      users,
		households: store.NewHouseholdStore(db),
		lists:      listStore,
		order:      store.NewOrderStore(db),
		todos:      store.NewTodoStore(db),
		shopping:   store.NewShoppingStore(db),
		resolver:   NewResolver(users, listStore),
		ledger:     NewLedger(db, users, listStore, m),
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
	}
}

// CreateListParams is the payload for a new list. Exactly one of UserID and
// HouseholdID must be set. AllMembers defaults to true for household lists;
// MemberIDs is the initial roster when it is false.
type CreateListParams struct {
	Title       string  `json:"title"`
	Icon        string  `json:"icon"`
	UserID      *int64  `json:"user_id"`
	HouseholdID *int64  `json:"household_id"`
	AllMembers  *bool   `json:"all_members"`
	MemberIDs   []int64 `json:"member_ids"`
}

// UpdateListParams edits a list. Owner fields may only repeat the current
// owner.
type UpdateListParams struct {
	Title       *string `json:"title"`
	Icon        *string `json:"icon"`
	UserID      *int64  `json:"user_id"`
	HouseholdID *int64  `json:"household_id"`
}

// ListDetail is a list together with its resolved audience.
type ListDetail struct {
	model.List
	Roster   []int64 `json:"roster"`
	Audience []int64 `json:"audience"`
}

// CreateList validates ownership, writes the list and, for a household list
// without all_members, its roster, all in one transaction.
func (s *Service) CreateList(ctx context.Context, actor auth.Actor, kind model.ListKind, p CreateListParams) (*ListDetail, error) {
	start := time.Now()
	if !kind.Valid() {
		return nil, apperr.Invalid("unknown list kind %q", kind)
	}
	owner, err := ValidateOwner(p.UserID, p.HouseholdID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, apperr.Invalid("title is required")
	}

	allMembers := owner.IsHousehold()
	if p.AllMembers != nil && owner.IsHousehold() {
		allMembers = *p.AllMembers
	}
	switch {
	case !owner.IsHousehold() && len(p.MemberIDs) > 0:
		return nil, fmt.Errorf("%w: a personal list has no roster", apperr.ErrInvalidOwnership)
	case allMembers && len(p.MemberIDs) > 0:
		return nil, apperr.Invalid("member_ids requires all_members to be false")
	}

	var detail *ListDetail
	var aud *set.Set[int64]
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		if owner.IsHousehold() && !user.InHousehold(owner.ID) {
			return fmt.Errorf("%w: not a member of household %d", apperr.ErrForbidden, owner.ID)
		}
		if !owner.IsHousehold() && owner.ID != user.ID {
			return fmt.Errorf("%w: cannot create a list for another user", apperr.ErrForbidden)
		}

		list, err := s.lists.Create(ctx, kind, title, strings.TrimSpace(p.Icon), owner, allMembers)
		if err != nil {
			return translate(err)
		}
		if owner.IsHousehold() && !allMembers {
			if _, err := s.ledger.SetRoster(ctx, kind, list.ID, p.MemberIDs); err != nil {
				return err
			}
		}
		detail, aud, err = s.detail(ctx, list)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncListCreated(string(kind), string(owner.Kind))
	s.metrics.ObserveMutation("create_list", start)
	s.logger.Debug("list created", "kind", kind, "list_id", detail.ID, "owner", owner.String())
	s.notify(kind, "created", detail.ID, aud)
	return detail, nil
}

func (s *Service) GetList(ctx context.Context, actor auth.Actor, kind model.ListKind, id int64) (*ListDetail, error) {
	var detail *ListDetail
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		list, aud, err := s.accessibleList(ctx, actor, kind, id)
		if err != nil {
			return err
		}
		detail, err = s.detailWith(ctx, list, aud)
		return err
	})
	return detail, err
}

// ListsForActor returns every list of kind the actor can see, oldest first.
func (s *Service) ListsForActor(ctx context.Context, actor auth.Actor, kind model.ListKind) ([]model.List, error) {
	if !kind.Valid() {
		return nil, apperr.Invalid("unknown list kind %q", kind)
	}
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	lists, err := s.lists.ListVisible(ctx, kind, user.ID, user.HouseholdID)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []model.List{}
	}
	return lists, nil
}

func (s *Service) UpdateList(ctx context.Context, actor auth.Actor, kind model.ListKind, id int64, p UpdateListParams) (*ListDetail, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, apperr.Invalid("title cannot be empty")
	}

	var detail *ListDetail
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		list, _, err := s.accessibleList(ctx, actor, kind, id)
		if err != nil {
			return err
		}
		if err := CheckOwnerUnchanged(list.Owner, p.UserID, p.HouseholdID); err != nil {
			return err
		}

		title, icon := list.Title, list.Icon
		if p.Title != nil {
			title = strings.TrimSpace(*p.Title)
		}
		if p.Icon != nil {
			icon = strings.TrimSpace(*p.Icon)
		}
		updated, err := s.lists.Update(ctx, kind, id, title, icon)
		if err != nil {
			return translate(err)
		}
		detail, aud, err = s.detail(ctx, updated)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(kind, "updated", id, aud)
	return detail, nil
}

// SetAudience switches a household list between all-members and an explicit
// roster. The roster is cleared when all-members is chosen.
func (s *Service) SetAudience(ctx context.Context, actor auth.Actor, kind model.ListKind, id int64, allMembers bool, memberIDs []int64) (*ListDetail, error) {
	if allMembers && len(memberIDs) > 0 {
		return nil, apperr.Invalid("member_ids requires all_members to be false")
	}

	var detail *ListDetail
	var before, after *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var list *model.List
		var err error
		list, before, err = s.managedList(ctx, actor, kind, id)
		if err != nil {
			return err
		}
		if !list.Owner.IsHousehold() {
			return fmt.Errorf("%w: a personal list has no roster", apperr.ErrInvalidOwnership)
		}

		if allMembers {
			if err := s.lists.ReplaceRoster(ctx, kind, id, nil); err != nil {
				return err
			}
		} else if _, err := s.ledger.SetRoster(ctx, kind, id, memberIDs); err != nil {
			return err
		}
		if err := s.lists.SetAllMembers(ctx, kind, id, allMembers); err != nil {
			return err
		}

		list.AllMembers = allMembers
		detail, after, err = s.detail(ctx, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(kind, "audience_changed", id, union(before, after))
	return detail, nil
}

func (s *Service) AddListMember(ctx context.Context, actor auth.Actor, kind model.ListKind, id, userID int64) (*ListDetail, error) {
	return s.editRoster(ctx, actor, kind, id, func(ctx context.Context) error {
		_, err := s.ledger.AddMember(ctx, kind, id, userID)
		return err
	})
}

func (s *Service) RemoveListMember(ctx context.Context, actor auth.Actor, kind model.ListKind, id, userID int64) (*ListDetail, error) {
	return s.editRoster(ctx, actor, kind, id, func(ctx context.Context) error {
		_, err := s.ledger.RemoveMember(ctx, kind, id, userID)
		return err
	})
}

func (s *Service) editRoster(ctx context.Context, actor auth.Actor, kind model.ListKind, id int64, edit func(ctx context.Context) error) (*ListDetail, error) {
	var detail *ListDetail
	var before, after *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var list *model.List
		var err error
		list, before, err = s.managedList(ctx, actor, kind, id)
		if err != nil {
			return err
		}
		if list.Owner.IsHousehold() && list.AllMembers {
			return apperr.Invalid("list is shared with all household members")
		}
		if err := edit(ctx); err != nil {
			return err
		}
		detail, after, err = s.detail(ctx, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(kind, "audience_changed", id, union(before, after))
	return detail, nil
}

// DeleteList removes the list with its items, categories and roster in one
// transaction. The owning user or household is untouched.
func (s *Service) DeleteList(ctx context.Context, actor auth.Actor, kind model.ListKind, id int64) error {
	var aud *set.Set[int64]
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var err error
		if _, aud, err = s.managedList(ctx, actor, kind, id); err != nil {
			return err
		}
		deleted, err := s.lists.Delete(ctx, kind, id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: %s list %d", apperr.ErrNotFound, kind, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("list deleted", "kind", kind, "list_id", id)
	s.notify(kind, "deleted", id, aud)
	return nil
}

// --- helpers ---

// loadActor re-reads the actor so household membership is current.
func (s *Service) loadActor(ctx context.Context, actor auth.Actor) (*model.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user %d", apperr.ErrForbidden, actor.UserID)
	}
	return user, nil
}

func (s *Service) loadList(ctx context.Context, kind model.ListKind, id int64) (*model.List, error) {
	if !kind.Valid() {
		return nil, apperr.Invalid("unknown list kind %q", kind)
	}
	list, err := s.lists.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("%w: %s list %d", apperr.ErrNotFound, kind, id)
	}
	return list, nil
}

// accessibleList loads a list the actor is in the audience of.
func (s *Service) accessibleList(ctx context.Context, actor auth.Actor, kind model.ListKind, id int64) (*model.List, *set.Set[int64], error) {
	if _, err := s.loadActor(ctx, actor); err != nil {
		return nil, nil, err
	}
	list, err := s.loadList(ctx, kind, id)
	if err != nil {
		return nil, nil, err
	}
	ok, err := s.resolver.CanAccess(ctx, list, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: user %d cannot access %s list %d", apperr.ErrForbidden, actor.UserID, kind, id)
	}
	aud, err := s.resolver.Resolve(ctx, list)
	if err != nil {
		return nil, nil, err
	}
	return list, aud, nil
}

// managedList loads a list the actor may manage: anyone in its audience, or
// the household creator while a household list's audience is empty.
func (s *Service) managedList(ctx context.Context, actor auth.Actor, kind model.ListKind, id int64) (*model.List, *set.Set[int64], error) {
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.loadList(ctx, kind, id)
	if err != nil {
		return nil, nil, err
	}
	aud, err := s.resolver.Resolve(ctx, list)
	if err != nil {
		return nil, nil, err
	}
	if aud.Contains(user.ID) {
		return list, aud, nil
	}
	if aud.Empty() && list.Owner.IsHousehold() && user.InHousehold(list.Owner.ID) {
		h, err := s.households.GetByID(ctx, list.Owner.ID)
		if err != nil {
			return nil, nil, err
		}
		if h != nil && h.CreatorID.Valid && h.CreatorID.Int64 == user.ID {
			return list, aud, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: user %d cannot manage %s list %d", apperr.ErrForbidden, user.ID, kind, id)
}

func (s *Service) detail(ctx context.Context, list *model.List) (*ListDetail, *set.Set[int64], error) {
	aud, err := s.resolver.Resolve(ctx, list)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.detailWith(ctx, list, aud)
	return d, aud, err
}

func (s *Service) detailWith(ctx context.Context, list *model.List, aud *set.Set[int64]) (*ListDetail, error) {
	roster := []int64{}
	if list.Owner.IsHousehold() && !list.AllMembers {
		ids, err := s.lists.RosterUserIDs(ctx, list.Kind, list.ID)
		if err != nil {
			return nil, err
		}
		if ids != nil {
			roster = ids
		}
	}
	return &ListDetail{List: *list, Roster: roster, Audience: sortedIDs(aud)}, nil
}

func (s *Service) notify(kind model.ListKind, action string, id int64, aud *set.Set[int64]) {
	if aud == nil || aud.Size() == 0 {
		return
	}
	s.notifier.Notify(string(kind)+"_list", action, id, sortedIDs(aud))
}

func union(a, b *set.Set[int64]) *set.Set[int64] {
	out := set.From(a.Slice())
	for _, id := range b.Slice() {
		out.Insert(id)
	}
	return out
}

// checkAssignee rejects an assignee outside the list's audience.
func checkAssignee(aud *set.Set[int64], userID null.Int) error {
	if userID.Valid && !aud.Contains(userID.Int64) {
		return apperr.Invalid("assignee %d cannot see this list", userID.Int64)
	}
	return nil
}

// translate maps storage constraint failures onto the error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case database.IsImmutableOwnership(err):
		return fmt.Errorf("%w: %v", apperr.ErrImmutableOwnership, err)
	case database.IsCheckViolation(err):
		return fmt.Errorf("%w: %v", apperr.ErrInvalidOwnership, err)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", apperr.ErrDuplicateName, err)
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	}
	return err
}
