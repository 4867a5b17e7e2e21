package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/store"
)

// RequireActor resolves the caller from header, which an upstream proxy sets
// to the authenticated user's id, and stores the auth.Actor on the request
// context. Missing, malformed or unknown ids get 401.
func RequireActor(users *store.UserStore, header string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				writeStatus(w, http.StatusUnauthorized, "missing "+header+" header")
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeStatus(w, http.StatusUnauthorized, "invalid "+header+" header")
				return
			}

			user, err := users.GetByID(r.Context(), id)
			if err != nil {
				logger.Error("resolve actor", "user_id", id, "error", err)
				writeStatus(w, http.StatusInternalServerError, "internal error")
				return
			}
			if user == nil {
				writeStatus(w, http.StatusUnauthorized, "unknown user")
				return
			}

			ctx := auth.WithActor(r.Context(), auth.Actor{UserID: user.ID, HouseholdID: user.HouseholdID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
