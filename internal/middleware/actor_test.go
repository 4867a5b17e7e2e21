package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/store"
)

const testHeader = "X-Hearth-User"

func setupActorMiddleware(t *testing.T) (*store.UserStore, http.Handler, *auth.Actor) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	users := store.NewUserStore(db)

	var seen auth.Actor
	handler := RequireActor(users, testHeader, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("actor missing from context")
		}
		seen = a
		w.WriteHeader(http.StatusNoContent)
	}))
	return users, handler, &seen
}

func TestRequireActorRejects(t *testing.T) {
	_, handler, _ := setupActorMiddleware(t)

	tests := []struct {
		name  string
		value string
	}{
		{"missing", ""},
		{"not a number", "alice"},
		{"negative", "-4"},
		{"unknown user", "9999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.value != "" {
				req.Header.Set(testHeader, tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestRequireActorSetsContext(t *testing.T) {
	users, handler, seen := setupActorMiddleware(t)
	u, err := users.Create(context.Background(), "alice@example.com", "Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(testHeader, " "+strconv.FormatInt(u.ID, 10)+" ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if seen.UserID != u.ID {
		t.Errorf("UserID = %d, want %d", seen.UserID, u.ID)
	}
	if seen.HouseholdID.Valid {
		t.Errorf("HouseholdID = %v, want null", seen.HouseholdID)
	}
}
