// Package household manages households, their members and the
// household-wide board: moods, announcements and calendar events.
package household

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/clock"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/lists"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// DefaultShoppingLists are created for every new household.
var DefaultShoppingLists = []string{"Groceries", "Necessities", "Wishlist"}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, int64, []int64) {}

type Service struct {
	db              *sql.DB
	users           *store.UserStore
	households      *store.HouseholdStore
	lists           *store.ListStore
	moods           *store.MoodStore
	announcements   *store.AnnouncementStore
	events          *store.EventStore
	clock           clock.Clock
	defaultTimezone string
	notifier        lists.Notifier
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewService(db *sql.DB, c clock.Clock, defaultTimezone string, notifier lists.Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		db:              db,
		users:           store.NewUserStore(db),
		households:      store.NewHouseholdStore(db),
		lists:           store.NewListStore(db),
		moods:           store.NewMoodStore(db),
		announcements:   store.NewAnnouncementStore(db),
		events:          store.NewEventStore(db),
		clock:           c,
		defaultTimezone: defaultTimezone,
		notifier:        notifier,
		metrics:         m,
		logger:          logger,
	}
}

// Create makes a household with the actor as creator and first member, and
// seeds its default shopping lists, all in one transaction.
func (s *Service) Create(ctx context.Context, actor auth.Actor, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}

	var h *model.Household
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		if user.HouseholdID.Valid {
			return apperr.Invalid("already a member of household %d", user.HouseholdID.Int64)
		}

		if h, err = s.households.Create(ctx, name, user.ID); err != nil {
			return err
		}
		if err := s.users.SetHousehold(ctx, user.ID, null.IntFrom(h.ID)); err != nil {
			return err
		}
		for _, title := range DefaultShoppingLists {
			if _, err := s.lists.Create(ctx, model.ListKindShopping, title, "", model.HouseholdOwner(h.ID), true); err != nil {
				return fmt.Errorf("seed list %q: %w", title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for range DefaultShoppingLists {
		s.metrics.IncListCreated(string(model.ListKindShopping), string(model.OwnerHousehold))
	}
	s.logger.Info("household created", "household_id", h.ID, "creator_id", actor.UserID)
	return h, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor) (*model.Household, error) {
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.householdOf(ctx, user)
}

func (s *Service) Rename(ctx context.Context, actor auth.Actor, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	var h *model.Household
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		if _, err := s.householdOf(ctx, user); err != nil {
			return err
		}
		h, err = s.households.Rename(ctx, user.HouseholdID.Int64, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyHousehold(ctx, h.ID, "household", "updated", h.ID)
	return h, nil
}

const inviteAttempts = 3

// RegenerateInvite replaces the household's invite code. Only the creator
// may do this.
func (s *Service) RegenerateInvite(ctx context.Context, actor auth.Actor) (string, error) {
	var code string
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		h, err := s.householdOf(ctx, user)
		if err != nil {
			return err
		}
		if !h.CreatorID.Valid || h.CreatorID.Int64 != user.ID {
			return fmt.Errorf("%w: only the creator can issue invite codes", apperr.ErrForbidden)
		}
		return retry.Do(
			func() error {
				code = uuid.NewString()
				return s.households.SetInviteCode(ctx, h.ID, null.StringFrom(code))
			},
			retry.Attempts(inviteAttempts),
			retry.RetryIf(database.IsUniqueViolation),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
		)
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Join adds the actor to the household holding code. Codes are single use.
func (s *Service) Join(ctx context.Context, actor auth.Actor, code string) (*model.Household, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Invalid("invite code is required")
	}

	var h *model.Household
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		if user.HouseholdID.Valid {
			return apperr.Invalid("already a member of household %d", user.HouseholdID.Int64)
		}
		h, err = s.households.GetByInviteCode(ctx, code)
		if err != nil {
			return err
		}
		if h == nil {
			return fmt.Errorf("%w: invite code", apperr.ErrNotFound)
		}
		if err := s.users.SetHousehold(ctx, user.ID, null.IntFrom(h.ID)); err != nil {
			return err
		}
		if err := s.households.SetInviteCode(ctx, h.ID, null.String{}); err != nil {
			return err
		}
		h.InviteCode = null.String{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("household joined", "household_id", h.ID, "user_id", actor.UserID)
	s.notifyHousehold(ctx, h.ID, "member", "joined", actor.UserID)
	return h, nil
}

// Leave removes the actor from their household. Their roster entries on the
// household's lists go with them so no roster names an outsider.
func (s *Service) Leave(ctx context.Context, actor auth.Actor) error {
	var householdID int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		if !user.HouseholdID.Valid {
			return apperr.Invalid("not a member of any household")
		}
		householdID = user.HouseholdID.Int64
		removed, err := s.lists.RemoveFromHouseholdRosters(ctx, householdID, user.ID)
		if err != nil {
			return err
		}
		s.logger.Debug("roster entries removed", "user_id", user.ID, "household_id", householdID, "count", removed)
		return s.users.SetHousehold(ctx, user.ID, null.Int{})
	})
	if err != nil {
		return err
	}
	s.notifyHousehold(ctx, householdID, "member", "left", actor.UserID)
	return nil
}

func (s *Service) Members(ctx context.Context, actor auth.Actor) ([]model.User, error) {
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.householdOf(ctx, user); err != nil {
		return nil, err
	}
	return s.users.ListByHousehold(ctx, user.HouseholdID.Int64)
}

// --- helpers ---

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

// householdOf returns the user's household, failing with ErrNotFound when
// they have none.
func (s *Service) householdOf(ctx context.Context, user *model.User) (*model.Household, error) {
	if !user.HouseholdID.Valid {
		return nil, fmt.Errorf("%w: user %d has no household", apperr.ErrNotFound, user.ID)
	}
	h, err := s.households.GetByID(ctx, user.HouseholdID.Int64)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: household %d", apperr.ErrNotFound, user.HouseholdID.Int64)
	}
	return h, nil
}

// notifyHousehold tells every current member about a change. Failures to
// resolve members are logged; the change itself is already committed.
func (s *Service) notifyHousehold(ctx context.Context, householdID int64, entity, action string, id int64) {
	ids, err := s.users.MemberIDs(ctx, householdID)
	if err != nil {
		s.logger.Error("resolve household members", "household_id", householdID, "error", err)
		return
	}
	if len(ids) > 0 {
		s.notifier.Notify(entity, action, id, ids)
	}
}
