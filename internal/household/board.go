package household

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/guregu/null/v5"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/clock"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// --- Moods ---

func (s *Service) SetMood(ctx context.Context, actor auth.Actor, mood string) (*model.Mood, error) {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if !model.ValidMood(mood) {
		return nil, apperr.Invalid("unknown mood %q", mood)
	}
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	m, err := s.moods.Set(ctx, user.ID, mood)
	if err != nil {
		return nil, err
	}
	if user.HouseholdID.Valid {
		s.notifyHousehold(ctx, user.HouseholdID.Int64, "mood", "updated", user.ID)
	}
	return m, nil
}

func (s *Service) ClearMood(ctx context.Context, actor auth.Actor) error {
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return err
	}
	return s.moods.Clear(ctx, user.ID)
}

// Moods returns the current mood of each household member who has set one.
func (s *Service) Moods(ctx context.Context, actor auth.Actor) ([]model.Mood, error) {
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !user.HouseholdID.Valid {
		m, err := s.moods.Get(ctx, user.ID)
		if err != nil || m == nil {
			return []model.Mood{}, err
		}
		return []model.Mood{*m}, nil
	}
	moods, err := s.moods.ListByHousehold(ctx, user.HouseholdID.Int64)
	if err != nil {
		return nil, err
	}
	if moods == nil {
		moods = []model.Mood{}
	}
	return moods, nil
}

// --- Announcements ---

type AnnouncementInput struct {
	Text        string    `json:"text"`
	Pinned      bool      `json:"is_pinned"`
	PublishedAt null.Time `json:"published_at"`
	ExpiresAt   null.Time `json:"expires_at"`
}

func (in AnnouncementInput) params() (store.AnnouncementParams, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return store.AnnouncementParams{}, apperr.Invalid("text is required")
	}
	if n := utf8.RuneCountInString(text); n > model.AnnouncementMaxLen {
		return store.AnnouncementParams{}, apperr.Invalid("text is %d characters, limit is %d", n, model.AnnouncementMaxLen)
	}
	if in.PublishedAt.Valid && in.ExpiresAt.Valid && !in.ExpiresAt.Time.After(in.PublishedAt.Time) {
		return store.AnnouncementParams{}, apperr.Invalid("expires_at must be after published_at")
	}
	return store.AnnouncementParams{
		Text:        text,
		Pinned:      in.Pinned,
		PublishedAt: in.PublishedAt,
		ExpiresAt:   in.ExpiresAt,
	}, nil
}

func (s *Service) PostAnnouncement(ctx context.Context, actor auth.Actor, in AnnouncementInput) (*model.Announcement, error) {
	p, err := in.params()
	if err != nil {
		return nil, err
	}
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	h, err := s.householdOf(ctx, user)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !p.PublishedAt.Valid {
		p.PublishedAt = null.TimeFrom(now)
	}
	if (&model.Announcement{ExpiresAt: p.ExpiresAt}).Expired(now) {
		return nil, apperr.Invalid("expires_at is in the past")
	}
	a, err := s.announcements.Create(ctx, user.ID, h.ID, p)
	if err != nil {
		return nil, err
	}
	s.notifyHousehold(ctx, h.ID, "announcement", "created", a.ID)
	return a, nil
}

// Announcements lists the household's unexpired announcements, pinned first.
func (s *Service) Announcements(ctx context.Context, actor auth.Actor) ([]model.Announcement, error) {
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	h, err := s.householdOf(ctx, user)
	if err != nil {
		return nil, err
	}
	out, err := s.announcements.ListActive(ctx, h.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Announcement{}
	}
	return out, nil
}

func (s *Service) UpdateAnnouncement(ctx context.Context, actor auth.Actor, id int64, in AnnouncementInput) (*model.Announcement, error) {
	p, err := in.params()
	if err != nil {
		return nil, err
	}
	var a *model.Announcement
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, err := s.ownAnnouncement(ctx, actor, id)
		if err != nil {
			return err
		}
		if !p.PublishedAt.Valid {
			p.PublishedAt = current.PublishedAt
		}
		a, err = s.announcements.Update(ctx, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyHousehold(ctx, a.HouseholdID, "announcement", "updated", a.ID)
	return a, nil
}

func (s *Service) DeleteAnnouncement(ctx context.Context, actor auth.Actor, id int64) error {
	var householdID int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		current, err := s.ownAnnouncement(ctx, actor, id)
		if err != nil {
			return err
		}
		householdID = current.HouseholdID
		return s.announcements.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.notifyHousehold(ctx, householdID, "announcement", "deleted", id)
	return nil
}

// ownAnnouncement loads an announcement the actor wrote.
func (s *Service) ownAnnouncement(ctx context.Context, actor auth.Actor, id int64) (*model.Announcement, error) {
	a, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: announcement %d", apperr.ErrNotFound, id)
	}
	if a.UserID != actor.UserID {
		return nil, fmt.Errorf("%w: only the author can change an announcement", apperr.ErrForbidden)
	}
	return a, nil
}

// --- Events ---

type EventInput struct {
	Title    string    `json:"title"`
	StartUTC time.Time `json:"start_utc"`
	EndUTC   time.Time `json:"end_utc"`
	TZID     string    `json:"tzid"`
}

func (s *Service) CreateEvent(ctx context.Context, actor auth.Actor, in EventInput) (*model.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Invalid("title is required")
	}
	if utf8.RuneCountInString(title) > model.EventTitleMaxLen {
		return nil, apperr.Invalid("title is longer than %d characters", model.EventTitleMaxLen)
	}
	if in.StartUTC.IsZero() || in.EndUTC.IsZero() || !in.StartUTC.Before(in.EndUTC) {
		return nil, apperr.Invalid("start_utc must be before end_utc")
	}
	loc, err := clock.LoadLocation(strings.TrimSpace(in.TZID), "UTC")
	if err != nil {
		return nil, apperr.Invalid("unknown tzid %q", in.TZID)
	}

	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	h, err := s.householdOf(ctx, user)
	if err != nil {
		return nil, err
	}
	e, err := s.events.Create(ctx, h.ID, title, in.StartUTC, in.EndUTC, loc.String())
	if err != nil {
		return nil, err
	}
	s.notifyHousehold(ctx, h.ID, "event", "created", e.ID)
	return e, nil
}

// Events returns the household's events overlapping [from, to).
func (s *Service) Events(ctx context.Context, actor auth.Actor, from, to time.Time) ([]model.Event, error) {
	if !from.Before(to) {
		return nil, apperr.Invalid("from must be before to")
	}
	user, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	h, err := s.householdOf(ctx, user)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListInWindow(ctx, h.ID, from, to)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

func (s *Service) DeleteEvent(ctx context.Context, actor auth.Actor, id int64) error {
	var householdID int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadActor(ctx, actor)
		if err != nil {
			return err
		}
		e, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("%w: event %d", apperr.ErrNotFound, id)
		}
		if !user.InHousehold(e.HouseholdID) {
			return fmt.Errorf("%w: event belongs to another household", apperr.ErrForbidden)
		}
		householdID = e.HouseholdID
		return s.events.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.notifyHousehold(ctx, householdID, "event", "deleted", id)
	return nil
}
