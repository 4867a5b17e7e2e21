package household

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/clock"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/lists"
	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

type notification struct {
	entity     string
	action     string
	id         int64
	recipients []int64
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(entity, action string, id int64, recipients []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{entity, action, id, recipients})
}

func (r *recordingNotifier) last() notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type HouseholdSuite struct {
	suite.Suite
	ctx      context.Context
	db       *sql.DB
	svc      *Service
	notifier *recordingNotifier

	alice, bob *model.User
}

func TestHouseholdSuite(t *testing.T) {
	suite.Run(t, new(HouseholdSuite))
}

func (s *HouseholdSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := database.Open(":memory:")
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })
	s.db = db

	s.notifier = &recordingNotifier{}
	s.svc = NewService(db, clock.Fixed(now), "UTC", s.notifier, metrics.New(prometheus.NewRegistry()), logging.Discard())

	s.alice, err = s.svc.CreateUser(s.ctx, "alice@example.com", "Alice", "")
	s.Require().NoError(err)
	s.bob, err = s.svc.CreateUser(s.ctx, "bob@example.com", "Bob", "Europe/Paris")
	s.Require().NoError(err)
}

func actorOf(u *model.User) auth.Actor {
	return auth.Actor{UserID: u.ID}
}

// setupHome creates a household for alice and lets bob join it.
func (s *HouseholdSuite) setupHome() *model.Household {
	h, err := s.svc.Create(s.ctx, actorOf(s.alice), "Home")
	s.Require().NoError(err)
	code, err := s.svc.RegenerateInvite(s.ctx, actorOf(s.alice))
	s.Require().NoError(err)
	_, err = s.svc.Join(s.ctx, actorOf(s.bob), code)
	s.Require().NoError(err)
	return h
}

func (s *HouseholdSuite) TestCreateUserValidation() {
	_, err := s.svc.CreateUser(s.ctx, "not-an-email", "X", "")
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.svc.CreateUser(s.ctx, "x@example.com", " ", "")
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.svc.CreateUser(s.ctx, "x@example.com", "X", "Mars/Olympus")
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.svc.CreateUser(s.ctx, "ALICE@example.com", "Alice Again", "")
	s.ErrorIs(err, apperr.ErrDuplicateName)
}

func (s *HouseholdSuite) TestCreateSeedsShoppingLists() {
	h, err := s.svc.Create(s.ctx, actorOf(s.alice), "  Home  ")
	s.Require().NoError(err)
	s.Equal("Home", h.Name)
	s.Equal(s.alice.ID, h.CreatorID.Int64)

	got, err := store.NewListStore(s.db).ListVisible(s.ctx, model.ListKindShopping, s.alice.ID, null.IntFrom(h.ID))
	s.Require().NoError(err)
	s.Require().Len(got, len(DefaultShoppingLists))
	titles := make([]string, len(got))
	for i, l := range got {
		titles[i] = l.Title
		s.True(l.AllMembers)
		s.Equal(model.HouseholdOwner(h.ID), l.Owner)
	}
	s.ElementsMatch(DefaultShoppingLists, titles)

	me, err := s.svc.Me(s.ctx, actorOf(s.alice))
	s.Require().NoError(err)
	s.True(me.InHousehold(h.ID))
}

func (s *HouseholdSuite) TestCreateTwiceFails() {
	_, err := s.svc.Create(s.ctx, actorOf(s.alice), "Home")
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, actorOf(s.alice), "Cabin")
	s.ErrorIs(err, apperr.ErrInvalidInput)
}

func (s *HouseholdSuite) TestInviteIsSingleUse() {
	h, err := s.svc.Create(s.ctx, actorOf(s.alice), "Home")
	s.Require().NoError(err)

	_, err = s.svc.RegenerateInvite(s.ctx, actorOf(s.bob))
	s.ErrorIs(err, apperr.ErrNotFound, "bob has no household yet")

	code, err := s.svc.RegenerateInvite(s.ctx, actorOf(s.alice))
	s.Require().NoError(err)
	s.NotEmpty(code)

	joined, err := s.svc.Join(s.ctx, actorOf(s.bob), code)
	s.Require().NoError(err)
	s.Equal(h.ID, joined.ID)
	s.False(joined.InviteCode.Valid)

	carol, err := s.svc.CreateUser(s.ctx, "carol@example.com", "Carol", "")
	s.Require().NoError(err)
	_, err = s.svc.Join(s.ctx, actorOf(carol), code)
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.svc.RegenerateInvite(s.ctx, actorOf(s.bob))
	s.ErrorIs(err, apperr.ErrForbidden, "only the creator issues codes")

	members, err := s.svc.Members(s.ctx, actorOf(s.bob))
	s.Require().NoError(err)
	s.Len(members, 2)
}

func (s *HouseholdSuite) TestLeaveClearsRosterEntries() {
	h := s.setupHome()
	ls := lists.NewService(s.db, nil, nil, logging.Discard())
	allMembers := false
	l, err := ls.CreateList(s.ctx, actorOf(s.alice), model.ListKindTodo, lists.CreateListParams{
		Title:       "Chores",
		HouseholdID: &h.ID,
		AllMembers:  &allMembers,
		MemberIDs:   []int64{s.alice.ID, s.bob.ID},
	})
	s.Require().NoError(err)
	s.ElementsMatch([]int64{s.alice.ID, s.bob.ID}, l.Roster)

	s.Require().NoError(s.svc.Leave(s.ctx, actorOf(s.bob)))

	roster, err := store.NewListStore(s.db).RosterUserIDs(s.ctx, model.ListKindTodo, l.ID)
	s.Require().NoError(err)
	s.Equal([]int64{s.alice.ID}, roster)

	_, err = s.svc.Members(s.ctx, actorOf(s.bob))
	s.ErrorIs(err, apperr.ErrNotFound)

	n := s.notifier.last()
	s.Equal("member", n.entity)
	s.Equal("left", n.action)
	s.Equal([]int64{s.alice.ID}, n.recipients)

	s.ErrorIs(s.svc.Leave(s.ctx, actorOf(s.bob)), apperr.ErrInvalidInput)
}

func (s *HouseholdSuite) TestUnknownActorIsForbidden() {
	_, err := s.svc.Create(s.ctx, auth.Actor{UserID: 999}, "Ghost house")
	s.ErrorIs(err, apperr.ErrForbidden)
}

func (s *HouseholdSuite) TestDeleteUserSelfOnly() {
	s.setupHome()
	s.ErrorIs(s.svc.DeleteUser(s.ctx, actorOf(s.alice), s.bob.ID), apperr.ErrForbidden)

	s.Require().NoError(s.svc.DeleteUser(s.ctx, actorOf(s.bob), s.bob.ID))
	_, err := s.svc.Me(s.ctx, actorOf(s.bob))
	s.ErrorIs(err, apperr.ErrForbidden)

	members, err := s.svc.Members(s.ctx, actorOf(s.alice))
	s.Require().NoError(err)
	s.Len(members, 1)
}

func (s *HouseholdSuite) TestUpdateProfile() {
	u, err := s.svc.UpdateProfile(s.ctx, actorOf(s.alice), "Al", "Asia/Tokyo")
	s.Require().NoError(err)
	s.Equal("Al", u.DisplayName)
	s.Equal("Asia/Tokyo", u.Timezone)

	_, err = s.svc.UpdateProfile(s.ctx, actorOf(s.alice), "Al", "Nowhere/Special")
	s.ErrorIs(err, apperr.ErrInvalidInput)
}

func (s *HouseholdSuite) TestMoods() {
	s.setupHome()

	_, err := s.svc.SetMood(s.ctx, actorOf(s.alice), "grumpy")
	s.ErrorIs(err, apperr.ErrInvalidInput)

	m, err := s.svc.SetMood(s.ctx, actorOf(s.alice), " Cozy ")
	s.Require().NoError(err)
	s.Equal("cozy", m.Mood)
	_, err = s.svc.SetMood(s.ctx, actorOf(s.bob), "tired")
	s.Require().NoError(err)

	moods, err := s.svc.Moods(s.ctx, actorOf(s.bob))
	s.Require().NoError(err)
	s.Len(moods, 2)

	n := s.notifier.last()
	s.Equal("mood", n.entity)
	s.ElementsMatch([]int64{s.alice.ID, s.bob.ID}, n.recipients)

	s.Require().NoError(s.svc.ClearMood(s.ctx, actorOf(s.alice)))
	moods, err = s.svc.Moods(s.ctx, actorOf(s.alice))
	s.Require().NoError(err)
	s.Require().Len(moods, 1)
	s.Equal(s.bob.ID, moods[0].UserID)
}

func (s *HouseholdSuite) TestAnnouncements() {
	h := s.setupHome()

	_, err := s.svc.PostAnnouncement(s.ctx, actorOf(s.alice), AnnouncementInput{Text: strings.Repeat("a", model.AnnouncementMaxLen+1)})
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.svc.PostAnnouncement(s.ctx, actorOf(s.alice), AnnouncementInput{Text: "   "})
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.svc.PostAnnouncement(s.ctx, actorOf(s.alice), AnnouncementInput{
		Text:        "bad window",
		PublishedAt: null.TimeFrom(now),
		ExpiresAt:   null.TimeFrom(now.Add(-time.Hour)),
	})
	s.ErrorIs(err, apperr.ErrInvalidInput)

	plain, err := s.svc.PostAnnouncement(s.ctx, actorOf(s.alice), AnnouncementInput{Text: "Plumber at noon"})
	s.Require().NoError(err)
	s.True(plain.PublishedAt.Valid)

	pinned, err := s.svc.PostAnnouncement(s.ctx, actorOf(s.bob), AnnouncementInput{Text: "Bins out tonight", Pinned: true})
	s.Require().NoError(err)

	old := AnnouncementInput{
		Text:        "Old news",
		PublishedAt: null.TimeFrom(now.Add(-48 * time.Hour)),
		ExpiresAt:   null.TimeFrom(now.Add(-time.Hour)),
	}
	_, err = s.svc.PostAnnouncement(s.ctx, actorOf(s.bob), old)
	s.ErrorIs(err, apperr.ErrInvalidInput)

	// Posted earlier and since expired.
	p, err := old.params()
	s.Require().NoError(err)
	_, err = store.NewAnnouncementStore(s.db).Create(s.ctx, s.bob.ID, h.ID, p)
	s.Require().NoError(err)

	active, err := s.svc.Announcements(s.ctx, actorOf(s.alice))
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal(pinned.ID, active[0].ID)
	s.Equal(plain.ID, active[1].ID)

	_, err = s.svc.UpdateAnnouncement(s.ctx, actorOf(s.bob), plain.ID, AnnouncementInput{Text: "hijack"})
	s.ErrorIs(err, apperr.ErrForbidden)

	updated, err := s.svc.UpdateAnnouncement(s.ctx, actorOf(s.alice), plain.ID, AnnouncementInput{Text: "Plumber at one"})
	s.Require().NoError(err)
	s.Equal("Plumber at one", updated.Text)
	s.Equal(plain.PublishedAt.Time.Unix(), updated.PublishedAt.Time.Unix())

	s.ErrorIs(s.svc.DeleteAnnouncement(s.ctx, actorOf(s.alice), pinned.ID), apperr.ErrForbidden)
	s.Require().NoError(s.svc.DeleteAnnouncement(s.ctx, actorOf(s.bob), pinned.ID))
	s.ErrorIs(s.svc.DeleteAnnouncement(s.ctx, actorOf(s.bob), pinned.ID), apperr.ErrNotFound)
}

func (s *HouseholdSuite) TestEvents() {
	s.setupHome()

	_, err := s.svc.CreateEvent(s.ctx, actorOf(s.alice), EventInput{Title: "Backwards", StartUTC: now, EndUTC: now})
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.svc.CreateEvent(s.ctx, actorOf(s.alice), EventInput{Title: strings.Repeat("x", model.EventTitleMaxLen+1), StartUTC: now, EndUTC: now.Add(time.Hour)})
	s.ErrorIs(err, apperr.ErrInvalidInput)

	_, err = s.svc.CreateEvent(s.ctx, actorOf(s.alice), EventInput{Title: "Bad zone", StartUTC: now, EndUTC: now.Add(time.Hour), TZID: "Atlantis/Central"})
	s.ErrorIs(err, apperr.ErrInvalidInput)

	dinner, err := s.svc.CreateEvent(s.ctx, actorOf(s.alice), EventInput{
		Title:    "Dinner",
		StartUTC: now.Add(9 * time.Hour),
		EndUTC:   now.Add(11 * time.Hour),
		TZID:     "Europe/Paris",
	})
	s.Require().NoError(err)
	s.Equal("Europe/Paris", dinner.TZID)

	trip, err := s.svc.CreateEvent(s.ctx, actorOf(s.bob), EventInput{
		Title:    "Trip",
		StartUTC: now.Add(72 * time.Hour),
		EndUTC:   now.Add(96 * time.Hour),
	})
	s.Require().NoError(err)
	s.Equal("UTC", trip.TZID)

	today, err := s.svc.Events(s.ctx, actorOf(s.bob), now, now.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(today, 1)
	s.Equal(dinner.ID, today[0].ID)

	_, err = s.svc.Events(s.ctx, actorOf(s.bob), now, now)
	s.ErrorIs(err, apperr.ErrInvalidInput)

	s.Require().NoError(s.svc.DeleteEvent(s.ctx, actorOf(s.bob), dinner.ID))
	s.ErrorIs(s.svc.DeleteEvent(s.ctx, actorOf(s.bob), dinner.ID), apperr.ErrNotFound)
}

func (s *HouseholdSuite) TestEventsOfAnotherHouseholdAreHidden() {
	s.setupHome()
	e, err := s.svc.CreateEvent(s.ctx, actorOf(s.alice), EventInput{Title: "Dinner", StartUTC: now, EndUTC: now.Add(time.Hour)})
	s.Require().NoError(err)

	carol, err := s.svc.CreateUser(s.ctx, "carol@example.com", "Carol", "")
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, actorOf(carol), "Flat")
	s.Require().NoError(err)

	s.ErrorIs(s.svc.DeleteEvent(s.ctx, actorOf(carol), e.ID), apperr.ErrForbidden)
	got, err := s.svc.Events(s.ctx, actorOf(carol), now.Add(-time.Hour), now.Add(time.Hour))
	s.Require().NoError(err)
	s.Empty(got)
}
