package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/hearth/internal/checkin"
	"github.com/dukerupert/hearth/internal/model"
)

type CheckinHandler struct {
	ledger *checkin.Ledger
	logger *slog.Logger
}

func NewCheckinHandler(ledger *checkin.Ledger, logger *slog.Logger) *CheckinHandler {
	return &CheckinHandler{ledger: ledger, logger: logger}
}

// CheckIn records the caller's check-in. An empty body means today in the
// caller's timezone. Returns 201 for a new record and 200 when the day was
// already checked in.
func (h *CheckinHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date *model.Date `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON")
		return
	}

	var (
		c       *model.Checkin
		created bool
		err     error
	)
	a := actor(r)
	if req.Date != nil {
		c, created, err = h.ledger.CheckIn(r.Context(), a.UserID, *req.Date)
	} else {
		c, created, err = h.ledger.CheckInToday(r.Context(), a)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, c)
}

// List returns the caller's check-ins between the optional from and to
// dates, inclusive, oldest first. ?days=N instead returns the last N local
// days ending today.
func (h *CheckinHandler) List(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "invalid days")
			return
		}
		out, err := h.ledger.Recent(r.Context(), actor(r), days)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	var from, to model.Date
	for name, dst := range map[string]*model.Date{"from": &from, "to": &to} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		d, err := model.ParseDate(v)
		if err != nil {
			badRequest(w, "invalid "+name+", expected YYYY-MM-DD")
			return
		}
		*dst = d
	}

	out, err := h.ledger.List(r.Context(), actor(r).UserID, from, to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
