package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/lists"
	"github.com/dukerupert/hearth/internal/model"
)

// ListHandler serves todo and shopping lists along with their contents.
type ListHandler struct {
	svc    *lists.Service
	logger *slog.Logger
}

func NewListHandler(svc *lists.Service, logger *slog.Logger) *ListHandler {
	return &ListHandler{svc: svc, logger: logger}
}

func (h *ListHandler) List(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.svc.ListsForActor(r.Context(), actor(r), kind)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *ListHandler) Create(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lists.CreateListParams
		if !decodeJSON(w, r, &req) {
			return
		}
		l, err := h.svc.CreateList(r.Context(), actor(r), kind, req)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func (h *ListHandler) Get(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		l, err := h.svc.GetList(r.Context(), actor(r), kind, id)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func (h *ListHandler) Update(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req lists.UpdateListParams
		if !decodeJSON(w, r, &req) {
			return
		}
		l, err := h.svc.UpdateList(r.Context(), actor(r), kind, id, req)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func (h *ListHandler) Delete(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := h.svc.DeleteList(r.Context(), actor(r), kind, id); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type audienceRequest struct {
	AllMembers bool    `json:"all_members"`
	MemberIDs  []int64 `json:"member_ids"`
}

func (h *ListHandler) SetAudience(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req audienceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		l, err := h.svc.SetAudience(r.Context(), actor(r), kind, id, req.AllMembers, req.MemberIDs)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func (h *ListHandler) AddMember(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req struct {
			UserID int64 `json:"user_id"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		l, err := h.svc.AddListMember(r.Context(), actor(r), kind, id, req.UserID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func (h *ListHandler) RemoveMember(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		userID, ok := pathID(w, r, "user_id")
		if !ok {
			return
		}
		l, err := h.svc.RemoveListMember(r.Context(), actor(r), kind, id, userID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func (h *ListHandler) Reorder(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req struct {
			IDs []int64 `json:"ids"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		n, err := h.svc.Reorder(r.Context(), actor(r), kind, id, req.IDs)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
	}
}

func (h *ListHandler) Clear(kind model.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		n, err := h.svc.Clear(r.Context(), actor(r), kind, id)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	}
}
