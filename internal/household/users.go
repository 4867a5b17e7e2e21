package household

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/clock"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

// CreateUser provisions a user. Emails are unique regardless of case.
func (s *Service) CreateUser(ctx context.Context, email, name, timezone string) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	timezone = strings.TrimSpace(timezone)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("invalid email %q", email)
	}
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if _, err := clock.LoadLocation(timezone, s.defaultTimezone); err != nil {
		return nil, apperr.Invalid("unknown timezone %q", timezone)
	}

	var u *model.User
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: email %s is already registered", apperr.ErrDuplicateName, email)
		}
		u, err = s.users.Create(ctx, email, name, timezone)
		return err
	})
	if database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: email %s is already registered", apperr.ErrDuplicateName, email)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Me(ctx context.Context, actor auth.Actor) (*model.User, error) {
	return s.loadActor(ctx, actor)
}

func (s *Service) UpdateProfile(ctx context.Context, actor auth.Actor, displayName, timezone string) (*model.User, error) {
	displayName = strings.TrimSpace(displayName)
	timezone = strings.TrimSpace(timezone)
	if displayName == "" {
		return nil, apperr.Invalid("display name is required")
	}
	if _, err := clock.LoadLocation(timezone, s.defaultTimezone); err != nil {
		return nil, apperr.Invalid("unknown timezone %q", timezone)
	}
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(ctx, user.ID, displayName, timezone)
}

// DeleteUser removes the actor's own account. Personal lists, roster rows,
// check-ins, mood and announcements go with it in the same transaction;
// todo assignments are cleared.
func (s *Service) DeleteUser(ctx context.Context, actor auth.Actor, userID int64) error {
	if actor.UserID != userID {
		return fmt.Errorf("%w: users can only delete their own account", apperr.ErrForbidden)
	}
	var householdID int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		householdID = user.HouseholdID.Int64
		deleted, err := s.users.Delete(ctx, user.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: user %d", apperr.ErrNotFound, userID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", userID)
	if householdID != 0 {
		s.notifyHousehold(ctx, householdID, "member", "left", userID)
	}
	return nil
}
