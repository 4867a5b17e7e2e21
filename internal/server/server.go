package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/hearth/internal/checkin"
	"github.com/dukerupert/hearth/internal/clock"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/handler"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/lists"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/middleware"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
	ws "github.com/dukerupert/hearth/internal/websocket"
)

const (
	signupLimit = 10
	joinLimit   = 10
	limitWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	listH       *handler.ListHandler
	householdH  *handler.HouseholdHandler
	checkinH    *handler.CheckinHandler
	userStore   *store.UserStore
	rateLimiter *middleware.RateLimiter
	registry    *prometheus.Registry
	actorHeader string
	logger      *slog.Logger
}

func New(db *sql.DB, cfg config.Config, c clock.Clock, reg *prometheus.Registry, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New(reg)

	listSvc := lists.NewService(db, hub, m, logger.With("component", "lists"))
	householdSvc := household.NewService(db, c, cfg.DefaultTimezone, hub, m, logger.With("component", "household"))
	ledger := checkin.NewLedger(db, c, cfg.DefaultTimezone, m, logger.With("component", "checkin"))

	return &Server{
		db:          db,
		hub:         hub,
		listH:       handler.NewListHandler(listSvc, logger.With("component", "lists_handler")),
		householdH:  handler.NewHouseholdHandler(householdSvc, logger.With("component", "household_handler")),
		checkinH:    handler.NewCheckinHandler(ledger, logger.With("component", "checkin_handler")),
		userStore:   store.NewUserStore(db),
		rateLimiter: middleware.NewRateLimiter(),
		registry:    reg,
		actorHeader: cfg.ActorHeader,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no actor required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	outerMux.HandleFunc("POST /api/users", s.rateLimited(s.householdH.CreateUser, middleware.ActorKey, signupLimit))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	requireActor := middleware.RequireActor(s.userStore, s.actorHeader, s.logger.With("component", "auth"))
	outerMux.Handle("/", requireActor(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(h http.HandlerFunc, key func(*http.Request) string, limit int) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, key, limit, limitWindow)(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Users
	mux.HandleFunc("GET /api/me", s.householdH.Me)
	mux.HandleFunc("PUT /api/me", s.householdH.UpdateProfile)
	mux.HandleFunc("DELETE /api/users/{id}", s.householdH.DeleteUser)

	// Household membership
	mux.HandleFunc("POST /api/household", s.householdH.Create)
	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.HandleFunc("PUT /api/household", s.householdH.Rename)
	mux.HandleFunc("POST /api/household/invite", s.householdH.RegenerateInvite)
	mux.HandleFunc("POST /api/household/join", s.rateLimited(s.householdH.Join, middleware.ActorKey, joinLimit))
	mux.HandleFunc("POST /api/household/leave", s.householdH.Leave)
	mux.HandleFunc("GET /api/household/members", s.householdH.Members)

	// Lists, one route set per kind
	for _, kind := range []model.ListKind{model.ListKindTodo, model.ListKindShopping} {
		base := "/api/" + string(kind) + "-lists"
		mux.HandleFunc("GET "+base, s.listH.List(kind))
		mux.HandleFunc("POST "+base, s.listH.Create(kind))
		mux.HandleFunc("GET "+base+"/{id}", s.listH.Get(kind))
		mux.HandleFunc("PATCH "+base+"/{id}", s.listH.Update(kind))
		mux.HandleFunc("DELETE "+base+"/{id}", s.listH.Delete(kind))
		mux.HandleFunc("PUT "+base+"/{id}/audience", s.listH.SetAudience(kind))
		mux.HandleFunc("POST "+base+"/{id}/members", s.listH.AddMember(kind))
		mux.HandleFunc("DELETE "+base+"/{id}/members/{user_id}", s.listH.RemoveMember(kind))
		mux.HandleFunc("PUT "+base+"/{id}/order", s.listH.Reorder(kind))
		mux.HandleFunc("POST "+base+"/{id}/clear", s.listH.Clear(kind))
	}

	// Todos
	mux.HandleFunc("GET /api/todo-lists/{id}/todos", s.listH.ListTodos)
	mux.HandleFunc("POST /api/todo-lists/{id}/todos", s.listH.AddTodo)
	mux.HandleFunc("PUT /api/todos/{id}", s.listH.UpdateTodo)
	mux.HandleFunc("POST /api/todos/{id}/toggle", s.listH.ToggleTodo)
	mux.HandleFunc("DELETE /api/todos/{id}", s.listH.DeleteTodo)

	// Shopping items
	mux.HandleFunc("GET /api/shopping-lists/{id}/items", s.listH.ListItems)
	mux.HandleFunc("POST /api/shopping-lists/{id}/items", s.listH.AddItem)
	mux.HandleFunc("POST /api/shopping-lists/{id}/clear-purchased", s.listH.ClearPurchased)
	mux.HandleFunc("PUT /api/shopping-items/{id}", s.listH.UpdateItem)
	mux.HandleFunc("POST /api/shopping-items/{id}/toggle", s.listH.TogglePurchased)
	mux.HandleFunc("DELETE /api/shopping-items/{id}", s.listH.DeleteItem)

	// Shopping categories
	mux.HandleFunc("GET /api/shopping-lists/{id}/categories", s.listH.ListCategories)
	mux.HandleFunc("POST /api/shopping-lists/{id}/categories", s.listH.CreateCategory)
	mux.HandleFunc("PUT /api/shopping-categories/{id}", s.listH.RenameCategory)
	mux.HandleFunc("DELETE /api/shopping-categories/{id}", s.listH.DeleteCategory)

	// Check-ins
	mux.HandleFunc("POST /api/checkins", s.checkinH.CheckIn)
	mux.HandleFunc("GET /api/checkins", s.checkinH.List)

	// Household board
	mux.HandleFunc("GET /api/moods", s.householdH.Moods)
	mux.HandleFunc("PUT /api/mood", s.householdH.SetMood)
	mux.HandleFunc("DELETE /api/mood", s.householdH.ClearMood)
	mux.HandleFunc("GET /api/announcements", s.householdH.Announcements)
	mux.HandleFunc("POST /api/announcements", s.householdH.PostAnnouncement)
	mux.HandleFunc("PUT /api/announcements/{id}", s.householdH.UpdateAnnouncement)
	mux.HandleFunc("DELETE /api/announcements/{id}", s.householdH.DeleteAnnouncement)
	mux.HandleFunc("GET /api/events", s.householdH.Events)
	mux.HandleFunc("POST /api/events", s.householdH.CreateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.householdH.DeleteEvent)

	// Real-time change feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket_handler")))
}
