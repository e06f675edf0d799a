package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meur/primedex/internal/collection"
	"github.com/meur/primedex/internal/models"
	"go.uber.org/zap"
)

// session is a server-held browser a client drives remotely
type session struct {
	ID        string
	CreatedAt time.Time
	browser   *collection.Browser

	mu      sync.Mutex
	lastNav *collection.NavigationRequest
}

// NavigateToDetail records the request so the client can fetch it
func (s *session) NavigateToDetail(selected models.Prime, items []models.Prime, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNav = &collection.NavigationRequest{Selected: selected, Items: items, Index: index}
}

func (s *session) lastNavigation() *collection.NavigationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastNav
}

// browserResponse is the session view returned to clients
type browserResponse struct {
	ID             string                        `json:"id"`
	PlayerID       string                        `json:"player_id"`
	CreatedAt      time.Time                     `json:"created_at"`
	LastNavigation *collection.NavigationRequest `json:"last_navigation,omitempty"`
	collection.Snapshot
}

func (s *session) response() browserResponse {
	return browserResponse{
		ID:             s.ID,
		PlayerID:       s.browser.Player().PlayerID,
		CreatedAt:      s.CreatedAt,
		LastNavigation: s.lastNavigation(),
		Snapshot:       s.browser.Snapshot(),
	}
}

// sessionRegistry holds live sessions. Sessions idle longer than ttl are
// dropped on the next add, and the least recently used one is evicted when
// max is reached.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	lastUsed map[string]time.Time
	ttl      time.Duration
	max      int
	now      func() time.Time
}

func newSessionRegistry(ttl time.Duration, maxSessions int) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
		lastUsed: make(map[string]time.Time),
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
	}
}

func (r *sessionRegistry) add(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	for r.max > 0 && len(r.sessions) >= r.max {
		r.evictOldestLocked()
	}
	r.sessions[s.ID] = s
	r.lastUsed[s.ID] = now
}

func (r *sessionRegistry) get(id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil
	}
	now := r.now()
	if r.ttl > 0 && now.Sub(r.lastUsed[id]) > r.ttl {
		r.deleteLocked(id)
		return nil
	}
	r.lastUsed[id] = now
	return sess
}

func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	r.deleteLocked(id)
	return true
}

func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *sessionRegistry) sweepLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, used := range r.lastUsed {
		if now.Sub(used) > r.ttl {
			r.deleteLocked(id)
		}
	}
}

func (r *sessionRegistry) evictOldestLocked() {
	var oldest string
	var oldestAt time.Time
	for id, used := range r.lastUsed {
		if oldest == "" || used.Before(oldestAt) {
			oldest, oldestAt = id, used
		}
	}
	r.deleteLocked(oldest)
}

func (r *sessionRegistry) deleteLocked(id string) {
	delete(r.sessions, id)
	delete(r.lastUsed, id)
}

// lookupSession writes a 404 and returns nil for an unknown session
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) *session {
	id := chi.URLParam(r, "id")
	sess := s.sessions.get(id)
	if sess == nil {
		respondError(w, http.StatusNotFound, "Browser not found")
	}
	return sess
}

type browserCreate struct {
	PlayerID string `json:"player_id"`
}

// handleCreateBrowser opens a browser session and performs the initial load
func (s *Server) handleCreateBrowser(w http.ResponseWriter, r *http.Request) {
	var req browserCreate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		respondError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if !s.playerExists(w, r, req.PlayerID) {
		return
	}

	sess := &session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	sess.browser = collection.NewBrowser(s.source, models.PlayerContext{PlayerID: req.PlayerID},
		collection.WithLogger(s.logger.With(zap.String("browser_id", sess.ID))),
		collection.WithNavigator(sess))
	sess.browser.Load(r.Context())
	s.sessions.add(sess)

	respondJSON(w, http.StatusCreated, sess.response())
}

// handleGetBrowser returns a session snapshot
func (s *Server) handleGetBrowser(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	respondJSON(w, http.StatusOK, sess.response())
}

// handleDeleteBrowser drops a session
func (s *Server) handleDeleteBrowser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.remove(id) {
		respondError(w, http.StatusNotFound, "Browser not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type searchUpdate struct {
	Text string `json:"text"`
}

// handleSetSearch updates the name search
func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	var req searchUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sess.browser.SetSearchText(req.Text)
	respondJSON(w, http.StatusOK, sess.response())
}

type filterUpdate struct {
	Field models.FilterField `json:"field"`
	Value string             `json:"value"`
}

// handleSetFilter changes one enumeration filter
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	var req filterUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := sess.browser.OnFilterChange(req.Field, req.Value); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess.response())
}

// handleResetFilters restores default criteria
func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	sess.browser.ResetFilters()
	respondJSON(w, http.StatusOK, sess.response())
}

// handleRefreshBrowser forces a reload, as a screen does on focus regain
func (s *Server) handleRefreshBrowser(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	sess.browser.Refresh(r.Context())
	respondJSON(w, http.StatusOK, sess.response())
}

type selectRequest struct {
	PrimeID string `json:"prime_id"`
}

// handleSelectPrime returns the navigation request for a prime. A prime that
// is not in the filtered list yields index -1 with status 200.
func (s *Server) handleSelectPrime(w http.ResponseWriter, r *http.Request) {
	sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PrimeID == "" {
		respondError(w, http.StatusBadRequest, "prime_id is required")
		return
	}

	selected := models.Prime{ID: req.PrimeID}
	for _, p := range sess.browser.Items() {
		if p.ID == req.PrimeID {
			selected = p
			break
		}
	}

	respondJSON(w, http.StatusOK, sess.browser.SelectItem(selected))
}
