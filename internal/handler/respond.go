// Package handler exposes the household services as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/auth"
)

type errorBody struct {
	Error   string  `json:"error"`
	Code    string  `json:"code"`
	UserIDs []int64 `json:"user_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "invalid_input"})
}

// statusFor maps a service error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperr.ErrEmptyReorderRequest):
		return http.StatusBadRequest, "empty_reorder_request"
	case errors.Is(err, apperr.ErrInvalidOwnership):
		return http.StatusBadRequest, "invalid_ownership"
	case errors.Is(err, apperr.ErrForeignMember):
		return http.StatusBadRequest, "foreign_member"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrDuplicateName):
		return http.StatusConflict, "duplicate_name"
	case errors.Is(err, apperr.ErrImmutableOwnership):
		return http.StatusConflict, "immutable_ownership"
	case errors.Is(err, apperr.ErrConstraintRace):
		return http.StatusConflict, "constraint_race"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError reports err to the client. Unclassified errors are logged and
// hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	body := errorBody{Error: err.Error(), Code: code}
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Error = "internal error"
	}
	var fm *apperr.ForeignMemberError
	if errors.As(err, &fm) {
		body.UserIDs = fm.UserIDs
	}
	writeJSON(w, status, body)
}

// decodeJSON reads the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON")
		return false
	}
	return true
}

// pathID parses the named path value, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// actor returns the caller placed on the context by the actor middleware.
func actor(r *http.Request) auth.Actor {
	a, _ := auth.FromContext(r.Context())
	return a
}
