// Package checkin records at most one check-in per user per local calendar
// day.
package checkin

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/clock"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const (
	resultCreated   = "created"
	resultExisting  = "existing"
	resultRecovered = "recovered"
)

// MaxRecentDays bounds the window Recent accepts.
const MaxRecentDays = 366

type Ledger struct {
	checkins        *store.CheckinStore
	users           *store.UserStore
	clock           clock.Clock
	defaultTimezone string
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewLedger(db *sql.DB, c clock.Clock, defaultTimezone string, m *metrics.Metrics, logger *slog.Logger) *Ledger {
	return &Ledger{
		checkins:        store.NewCheckinStore(db),
		users:           store.NewUserStore(db),
		clock:           c,
		defaultTimezone: defaultTimezone,
		metrics:         m,
		logger:          logger,
	}
}

// CheckIn records that userID checked in on day. Repeating a check-in is not
// an error: the first record is returned unchanged and created is false.
func (l *Ledger) CheckIn(ctx context.Context, userID int64, day model.Date) (c *model.Checkin, created bool, err error) {
	if day.IsZero() {
		return nil, false, apperr.Invalid("date is required")
	}

	existing, err := l.checkins.Get(ctx, userID, day)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		l.metrics.IncCheckin(resultExisting)
		return existing, false, nil
	}

	c, err = l.checkins.Insert(ctx, userID, day)
	if err == nil {
		l.metrics.IncCheckin(resultCreated)
		return c, true, nil
	}
	if !database.IsUniqueViolation(err) {
		if database.IsForeignKeyViolation(err) {
			return nil, false, fmt.Errorf("%w: user %d", apperr.ErrNotFound, userID)
		}
		return nil, false, err
	}

	// A concurrent request inserted the same day first.
	existing, err = l.checkins.Get(ctx, userID, day)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("%w: check-in for user %d on %s vanished", apperr.ErrConstraintRace, userID, day)
	}
	l.metrics.IncConstraintRace("checkin")
	l.metrics.IncCheckin(resultRecovered)
	l.logger.Warn("check-in race recovered", "user_id", userID, "date", day.String())
	return existing, false, nil
}

// CheckInToday checks the actor in for the current day in their own
// timezone, or the default timezone when they have none.
func (l *Ledger) CheckInToday(ctx context.Context, actor auth.Actor) (*model.Checkin, bool, error) {
	today, err := l.today(ctx, actor)
	if err != nil {
		return nil, false, err
	}
	return l.CheckIn(ctx, actor.UserID, today)
}

// Recent returns the actor's check-ins for the last days local days,
// today included.
func (l *Ledger) Recent(ctx context.Context, actor auth.Actor, days int) ([]model.Checkin, error) {
	if days < 1 || days > MaxRecentDays {
		return nil, apperr.Invalid("days must be between 1 and %d", MaxRecentDays)
	}
	today, err := l.today(ctx, actor)
	if err != nil {
		return nil, err
	}
	return l.List(ctx, actor.UserID, today.AddDays(1-days), today)
}

func (l *Ledger) today(ctx context.Context, actor auth.Actor) (model.Date, error) {
	user, err := l.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return model.Date{}, err
	}
	if user == nil {
		return model.Date{}, fmt.Errorf("%w: unknown user %d", apperr.ErrForbidden, actor.UserID)
	}
	loc, err := clock.LoadLocation(user.Timezone, l.defaultTimezone)
	if err != nil {
		return model.Date{}, err
	}
	return clock.LocalDate(l.clock.Now(), loc), nil
}

// List returns the user's check-ins from from to to inclusive, in ascending
// date order. A zero bound is open.
func (l *Ledger) List(ctx context.Context, userID int64, from, to model.Date) ([]model.Checkin, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperr.Invalid("from %s is after to %s", from, to)
	}
	checkins, err := l.checkins.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if checkins == nil {
		checkins = []model.Checkin{}
	}
	return checkins, nil
}
