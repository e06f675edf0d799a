package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meur/primedex/internal/collection"
	"github.com/meur/primedex/internal/models"
	"go.uber.org/zap"
)

// primesResponse is one pipeline run: the visible primes and their rows
type primesResponse struct {
	Items []models.Prime `json:"items"`
	collection.Snapshot
}

// handleGetFilters returns the selector definitions
func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.DefaultFilters())
}

// handleGetPlayers returns all players
func (s *Server) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.GetPlayers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch players")
		return
	}
	respondJSON(w, http.StatusOK, players)
}

// handleCreatePlayer creates a new player
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req models.PlayerCreate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if req.ID != "" {
		existing, err := s.store.GetPlayer(r.Context(), req.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch player")
			return
		}
		if existing != nil {
			respondError(w, http.StatusConflict, "Player already exists")
			return
		}
	}

	player, err := s.store.CreatePlayer(r.Context(), &req)
	if err != nil {
		s.logger.Error("Create player failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create player")
		return
	}
	respondJSON(w, http.StatusCreated, player)
}

// handleGetPlayer returns a single player by ID
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	player, err := s.store.GetPlayer(r.Context(), playerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch player")
		return
	}
	if player == nil {
		respondError(w, http.StatusNotFound, "Player not found")
		return
	}
	respondJSON(w, http.StatusOK, player)
}

// handleGetPrimes runs the filter pipeline once over a player's primes.
// Query: search, rarity, element.
func (s *Server) handleGetPrimes(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if !s.playerExists(w, r, playerID) {
		return
	}

	b := collection.NewBrowser(s.source, models.PlayerContext{PlayerID: playerID}, collection.WithLogger(s.logger))
	if err := applyQueryCriteria(b, r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	b.Load(r.Context())

	respondJSON(w, http.StatusOK, primesResponse{
		Items:    b.Filtered(),
		Snapshot: b.Snapshot(),
	})
}

func applyQueryCriteria(b *collection.Browser, r *http.Request) error {
	q := r.URL.Query()
	b.SetSearchText(q.Get("search"))
	for _, field := range []models.FilterField{models.FilterRarity, models.FilterElement} {
		value := q.Get(string(field))
		if value == "" {
			continue
		}
		if err := b.OnFilterChange(field, value); err != nil {
			return err
		}
	}
	return nil
}

// handleGetPrime returns one of the player's primes
func (s *Server) handleGetPrime(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if !s.playerExists(w, r, playerID) {
		return
	}

	prime, err := s.store.GetPrime(r.Context(), chi.URLParam(r, "primeID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch prime")
		return
	}
	if prime == nil || prime.PlayerID != playerID {
		respondError(w, http.StatusNotFound, "Prime not found")
		return
	}

	respondJSON(w, http.StatusOK, prime)
}

// handleDeletePrimes releases a player's whole collection. The next load
// seeds the starter set again.
func (s *Server) handleDeletePrimes(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if !s.playerExists(w, r, playerID) {
		return
	}

	if err := s.store.DeletePrimesByPlayer(r.Context(), playerID); err != nil {
		s.logger.Error("Delete primes failed", zap.String("player_id", playerID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete primes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleInitializeStarters seeds the starter set for a player with no primes
func (s *Server) handleInitializeStarters(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if !s.playerExists(w, r, playerID) {
		return
	}

	primes, err := s.source.InitializeStarterItems(r.Context(), models.PlayerContext{PlayerID: playerID})
	if err != nil {
		s.logger.Error("Initialize starters failed", zap.String("player_id", playerID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to initialize starter primes")
		return
	}

	respondJSON(w, http.StatusOK, models.PrimeList{Primes: primes, TotalCount: len(primes)})
}

// playerExists writes a 404 or 500 and reports false when the player cannot be used
func (s *Server) playerExists(w http.ResponseWriter, r *http.Request, playerID string) bool {
	player, err := s.store.GetPlayer(r.Context(), playerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch player")
		return false
	}
	if player == nil {
		respondError(w, http.StatusNotFound, "Player not found")
		return false
	}
	return true
}
