package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"roomsync/internal/config"
	"roomsync/internal/ics"
	appLog "roomsync/internal/log"
	"roomsync/internal/model"
	"roomsync/internal/schedule"
)

// Server provides the HTTP API: calendar upload, schedule access, the ICS
// download, the closest-rooms query and favorites management.
//
// The session is guarded by sessionMu because building a schedule advances
// the recurrence cursor cache; the engine itself is synchronous and the
// server serializes all access to it.
type Server struct {
	cfg     *config.Config
	cfgPath string
	mux     *http.ServeMux

	sessionMu sync.Mutex
	session   *schedule.Session

	// refresh re-fetches availability and subscribed calendars. Optional;
	// wired by cmd when a fetch pipeline exists.
	refresh func(ctx context.Context) error

	// In-memory cache for /api/schedule responses so repeated UI polling
	// does not re-run the matcher.
	scheduleMu    sync.RWMutex
	scheduleCache *scheduleCache
}

const scheduleCacheTTL = 30 * time.Second

// NewServer constructs a Server around an existing session. cfgPath is
// where favorites changes are persisted; empty disables persistence.
func NewServer(cfg *config.Config, cfgPath string, session *schedule.Session) *Server {
	s := &Server{
		cfg:     cfg,
		cfgPath: cfgPath,
		mux:     http.NewServeMux(),
		session: session,
	}
	s.registerRoutes()
	return s
}

// SetRefresh installs the refresh callback invoked by POST /api/refresh.
func (s *Server) SetRefresh(fn func(ctx context.Context) error) {
	s.refresh = fn
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// WithSession runs fn with exclusive access to the session.
func (s *Server) WithSession(fn func(session *schedule.Session)) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	fn(s.session)
}

// InvalidateSchedule drops the cached /api/schedule response. Called after
// anything that changes matcher inputs.
func (s *Server) InvalidateSchedule() {
	s.scheduleMu.Lock()
	s.scheduleCache = nil
	s.scheduleMu.Unlock()
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="roomsync", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/buildings", s.handleBuildings)
	s.mux.HandleFunc("/api/closest-rooms", s.handleClosestRooms)
	s.mux.HandleFunc("/api/favorites", s.handleFavorites)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/schedule.ics", s.handleScheduleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCalendar accepts a raw ICS document and replaces the session
// calendar. The recurrence cursor cache is rebuilt by the session.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodGet:
		s.sessionMu.Lock()
		ready := s.session.CalendarReady()
		s.sessionMu.Unlock()
		writeJSON(w, http.StatusOK, map[string]bool{"calendar_ready": ready})
		return
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST only")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	events, err := ics.ParseCalendar("upload", body)
	if err != nil {
		appLog.Error("calendar upload parse failed", err)
		writeError(w, http.StatusBadRequest, "not a parsable ICS document")
		return
	}

	s.sessionMu.Lock()
	s.session.SetCalendar(events)
	s.sessionMu.Unlock()
	s.InvalidateSchedule()

	writeJSON(w, http.StatusOK, map[string]int{"event_count": len(events)})
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	CalendarReady  bool                            `json:"calendar_ready"`
	BuildingsReady bool                            `json:"buildings_ready"`
	Timezone       string                          `json:"timezone"`
	Days           map[int64][]model.IntervalPaths `json:"days,omitempty"`
}

// scheduleCache holds a cached /api/schedule response and its timestamp.
type scheduleCache struct {
	resp      scheduleResponse
	updatedAt time.Time
}

// handleSchedule returns the day-keyed week schedule. Before both inputs
// are loaded it reports readiness flags and no days, not an error.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	now := time.Now()

	s.scheduleMu.RLock()
	sc := s.scheduleCache
	s.scheduleMu.RUnlock()
	if sc != nil && now.Sub(sc.updatedAt) < scheduleCacheTTL {
		writeJSON(w, http.StatusOK, sc.resp)
		return
	}

	s.sessionMu.Lock()
	resp := scheduleResponse{
		CalendarReady:  s.session.CalendarReady(),
		BuildingsReady: s.session.BuildingsReady(),
		Timezone:       s.session.Location().String(),
		Days:           s.session.BestRoomSchedule(now),
	}
	s.sessionMu.Unlock()

	s.scheduleMu.Lock()
	s.scheduleCache = &scheduleCache{resp: resp, updatedAt: time.Now()}
	s.scheduleMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleScheduleICS serves the schedule as a downloadable calendar document.
func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	s.sessionMu.Lock()
	doc := s.session.ScheduleICS(time.Now())
	s.sessionMu.Unlock()

	if doc == "" {
		writeError(w, http.StatusConflict, "calendar or availability data not loaded yet")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	s.sessionMu.Lock()
	buildings := s.session.Buildings()
	ready := s.session.BuildingsReady()
	s.sessionMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"buildings_ready": ready,
		"buildings":       buildings,
	})
}

// handleClosestRooms answers the ancillary "what is open right here, right
// now" query: buildings with rooms open at an exact hour, nearest first.
//
// GET /api/closest-rooms?year=2026&month=9&day=1&hour=14&lat=43.66&lng=-79.39
func (s *Server) handleClosestRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), 0)
	month := parseIntDefault(q.Get("month"), 0)
	day := parseIntDefault(q.Get("day"), 0)
	hour := parseIntDefault(q.Get("hour"), -1)
	if year == 0 || month == 0 || day == 0 || hour < 0 {
		writeError(w, http.StatusBadRequest, "year, month, day and hour are required")
		return
	}
	lat := parseFloatDefault(q.Get("lat"), 0)
	lng := parseFloatDefault(q.Get("lng"), 0)

	s.sessionMu.Lock()
	open := s.session.ClosestRooms(year, month, day, hour, lat, lng)
	s.sessionMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"buildings": open})
}

// favoritesPayload is the request/response body for /api/favorites.
type favoritesPayload struct {
	Favorites []string `json:"favorites"`
}

// handleFavorites reads or replaces the preferred building codes. Changes
// are persisted back to the config file with the usual atomic save.
func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.sessionMu.Lock()
		fav := s.session.Favorites()
		s.sessionMu.Unlock()
		writeJSON(w, http.StatusOK, favoritesPayload{Favorites: fav})

	case http.MethodPut, http.MethodPost:
		var payload favoritesPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.Favorites == nil {
			payload.Favorites = []string{}
		}

		s.sessionMu.Lock()
		s.session.SetFavorites(payload.Favorites)
		s.sessionMu.Unlock()
		s.InvalidateSchedule()

		s.cfg.Favorites = payload.Favorites
		if s.cfgPath != "" {
			if err := s.cfg.Save(s.cfgPath); err != nil {
				appLog.Error("failed to persist favorites", err, "config_path", s.cfgPath)
			}
		}

		writeJSON(w, http.StatusOK, payload)

	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or PUT only")
	}
}

// handleRefresh triggers an immediate re-fetch of availability and
// subscribed calendars, outside the cron cadence.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if s.refresh == nil {
		writeError(w, http.StatusNotImplemented, "refresh not configured")
		return
	}

	if err := s.refresh(r.Context()); err != nil {
		appLog.Error("manual refresh failed", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	s.InvalidateSchedule()
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// StartServer starts an HTTP server bound to cfg.Listen and blocks until
// ctx is cancelled or the server fails, shutting down gracefully.
func StartServer(ctx context.Context, srv *Server) error {
	httpSrv := &http.Server{
		Addr:    srv.cfg.Listen,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+srv.cfg.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
