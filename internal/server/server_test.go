package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/hearth/internal/clock"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/logging"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	header string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	now := clock.Fixed(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	srv := New(db, cfg, now, prometheus.NewRegistry(), logging.Discard())
	return &testServer{t: t, router: srv.Router(), header: cfg.ActorHeader}
}

// do sends a request as userID (0 for anonymous) and decodes the JSON
// response into out when out is non-nil.
func (ts *testServer) do(method, path string, userID int64, body any, out any) int {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		req.Header.Set(ts.header, strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type idBody struct {
	ID int64 `json:"id"`
}

type errBody struct {
	Error   string  `json:"error"`
	Code    string  `json:"code"`
	UserIDs []int64 `json:"user_ids"`
}

func (ts *testServer) createUser(email, name string) int64 {
	ts.t.Helper()
	var u idBody
	code := ts.do("POST", "/api/users", 0, map[string]string{"email": email, "name": name}, &u)
	require.Equal(ts.t, http.StatusCreated, code)
	return u.ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, ts.do("GET", "/health", 0, nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedRoutesNeedActor(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, ts.do("GET", "/api/me", 0, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, ts.do("GET", "/api/me", 4242, nil, nil))
}

func TestHouseholdListFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser("alice@example.com", "Alice")
	bob := ts.createUser("bob@example.com", "Bob")
	carol := ts.createUser("carol@example.com", "Carol")

	var home idBody
	require.Equal(t, http.StatusCreated, ts.do("POST", "/api/household", alice, map[string]string{"name": "Home"}, &home))

	var invite map[string]string
	require.Equal(t, http.StatusOK, ts.do("POST", "/api/household/invite", alice, nil, &invite))
	require.Equal(t, http.StatusOK, ts.do("POST", "/api/household/join", bob, map[string]string{"code": invite["invite_code"]}, nil))

	// Seeded shopping lists are visible to both members.
	var shopping []idBody
	require.Equal(t, http.StatusOK, ts.do("GET", "/api/shopping-lists", bob, nil, &shopping))
	assert.Len(t, shopping, 3)

	// Both owners set.
	var e errBody
	code := ts.do("POST", "/api/todo-lists", alice, map[string]any{"title": "Bad", "user_id": alice, "household_id": home.ID}, &e)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_ownership", e.Code)

	// Roster with a user outside the household.
	code = ts.do("POST", "/api/todo-lists", alice, map[string]any{
		"title": "Chores", "household_id": home.ID, "all_members": false, "member_ids": []int64{alice, carol},
	}, &e)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "foreign_member", e.Code)
	assert.Equal(t, []int64{carol}, e.UserIDs)

	var chores struct {
		ID       int64   `json:"id"`
		Audience []int64 `json:"audience"`
	}
	require.Equal(t, http.StatusCreated, ts.do("POST", "/api/todo-lists", alice, map[string]any{
		"title": "Chores", "household_id": home.ID, "all_members": false, "member_ids": []int64{alice},
	}, &chores))
	assert.Equal(t, []int64{alice}, chores.Audience)
	choresPath := "/api/todo-lists/" + strconv.FormatInt(chores.ID, 10)

	assert.Equal(t, http.StatusForbidden, ts.do("GET", choresPath, bob, nil, nil))
	assert.Equal(t, http.StatusForbidden, ts.do("GET", choresPath, carol, nil, nil))
	assert.Equal(t, http.StatusForbidden, ts.do("POST", choresPath+"/members", bob, map[string]int64{"user_id": bob}, nil))
	assert.Equal(t, http.StatusForbidden, ts.do("DELETE", choresPath, bob, nil, nil))

	code = ts.do("PATCH", choresPath, alice, map[string]any{"user_id": alice}, &e)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "immutable_ownership", e.Code)

	code = ts.do("PUT", choresPath+"/order", alice, map[string]any{"ids": []int64{}}, &e)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "empty_reorder_request", e.Code)

	var t1, t2 idBody
	require.Equal(t, http.StatusCreated, ts.do("POST", choresPath+"/todos", alice, map[string]string{"title": "Dishes"}, &t1))
	require.Equal(t, http.StatusCreated, ts.do("POST", choresPath+"/todos", alice, map[string]string{"title": "Laundry"}, &t2))
	require.Equal(t, http.StatusOK, ts.do("PUT", choresPath+"/order", alice, map[string]any{"ids": []int64{t2.ID, t1.ID}}, nil))

	var todos []idBody
	require.Equal(t, http.StatusOK, ts.do("GET", choresPath+"/todos", alice, nil, &todos))
	require.Len(t, todos, 2)
	assert.Equal(t, t2.ID, todos[0].ID)

	require.Equal(t, http.StatusOK, ts.do("POST", choresPath+"/members", alice, map[string]int64{"user_id": bob}, nil))
	assert.Equal(t, http.StatusOK, ts.do("GET", choresPath, bob, nil, nil))

	assert.Equal(t, http.StatusNoContent, ts.do("DELETE", choresPath, alice, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do("GET", choresPath, alice, nil, nil))
}

func TestCategoryNamesAreUnique(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser("alice@example.com", "Alice")

	var l idBody
	require.Equal(t, http.StatusCreated, ts.do("POST", "/api/shopping-lists", alice, map[string]any{"title": "Mine", "user_id": alice}, &l))
	base := "/api/shopping-lists/" + strconv.FormatInt(l.ID, 10)

	require.Equal(t, http.StatusCreated, ts.do("POST", base+"/categories", alice, map[string]string{"name": "Snacks"}, nil))
	var e errBody
	assert.Equal(t, http.StatusConflict, ts.do("POST", base+"/categories", alice, map[string]string{"name": " snacks "}, &e))
	assert.Equal(t, "duplicate_name", e.Code)
}

func TestCheckinIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser("alice@example.com", "Alice")

	var first, second struct {
		ID        int64  `json:"id"`
		LocalDate string `json:"local_date"`
	}
	assert.Equal(t, http.StatusCreated, ts.do("POST", "/api/checkins", alice, nil, &first))
	assert.Equal(t, http.StatusOK, ts.do("POST", "/api/checkins", alice, nil, &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2026-05-01", first.LocalDate)

	assert.Equal(t, http.StatusCreated, ts.do("POST", "/api/checkins", alice, map[string]string{"date": "2026-04-30"}, nil))

	var list []struct {
		LocalDate string `json:"local_date"`
	}
	require.Equal(t, http.StatusOK, ts.do("GET", "/api/checkins?from=2026-04-01", alice, nil, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "2026-04-30", list[0].LocalDate)

	assert.Equal(t, http.StatusBadRequest, ts.do("GET", "/api/checkins?from=yesterday", alice, nil, nil))

	require.Equal(t, http.StatusOK, ts.do("GET", "/api/checkins?days=1", alice, nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "2026-05-01", list[0].LocalDate)
	assert.Equal(t, http.StatusBadRequest, ts.do("GET", "/api/checkins?days=0", alice, nil, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do("GET", "/api/checkins?days=week", alice, nil, nil))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser("alice@example.com", "Alice")
	require.Equal(t, http.StatusCreated, ts.do("POST", "/api/todo-lists", alice, map[string]any{"title": "Mine", "user_id": alice}, nil))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hearth_lists_created_total"), rec.Body.String())
}
