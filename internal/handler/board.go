package handler

import (
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/household"
)

func (h *HouseholdHandler) Moods(w http.ResponseWriter, r *http.Request) {
	moods, err := h.svc.Moods(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, moods)
}

func (h *HouseholdHandler) SetMood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.SetMood(r.Context(), actor(r), req.Mood)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *HouseholdHandler) ClearMood(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearMood(r.Context(), actor(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) Announcements(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Announcements(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HouseholdHandler) PostAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req household.AnnouncementInput
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.svc.PostAnnouncement(r.Context(), actor(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *HouseholdHandler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req household.AnnouncementInput
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.svc.UpdateAnnouncement(r.Context(), actor(r), id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *HouseholdHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAnnouncement(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Events lists events overlapping [from, to). Both default to a window of
// one week starting now.
func (h *HouseholdHandler) Events(w http.ResponseWriter, r *http.Request) {
	from := time.Now().UTC()
	to := from.AddDate(0, 0, 7)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(w, "invalid from, expected RFC 3339")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(w, "invalid to, expected RFC 3339")
			return
		}
		to = t
	}
	events, err := h.svc.Events(r.Context(), actor(r), from, to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *HouseholdHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req household.EventInput
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.CreateEvent(r.Context(), actor(r), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *HouseholdHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEvent(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
