package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/meur/primedex/internal/collection"
	"github.com/meur/primedex/internal/storage"
	"go.uber.org/zap"
)

// Options configures a Server
type Options struct {
	AllowedOrigins []string
	Logger         *zap.Logger
	SessionTTL     time.Duration // Idle browser sessions older than this are dropped
	MaxSessions    int
}

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxSessions = 1000
)

// Server holds the HTTP server dependencies
type Server struct {
	store    *storage.Store
	source   collection.ItemSource
	sessions *sessionRegistry
	logger   *zap.Logger
	origins  []string
	router   chi.Router
}

// New creates a new API server
func New(store *storage.Store, source collection.ItemSource, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	maxSessions := opts.MaxSessions
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}

	s := &Server{
		store:    store,
		source:   source,
		sessions: newSessionRegistry(ttl, maxSessions),
		logger:   logger,
		origins:  origins,
		router:   chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/filters", s.handleGetFilters)

		// Players
		r.Get("/players", s.handleGetPlayers)
		r.Post("/players", s.handleCreatePlayer)
		r.Get("/players/{playerID}", s.handleGetPlayer)
		r.Get("/players/{playerID}/primes", s.handleGetPrimes)
		r.Delete("/players/{playerID}/primes", s.handleDeletePrimes)
		r.Get("/players/{playerID}/primes/{primeID}", s.handleGetPrime)
		r.Post("/players/{playerID}/primes/starter", s.handleInitializeStarters)

		// Browser sessions
		r.Post("/browsers", s.handleCreateBrowser)
		r.Route("/browsers/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetBrowser)
			r.Delete("/", s.handleDeleteBrowser)
			r.Put("/search", s.handleSetSearch)
			r.Put("/filters", s.handleSetFilter)
			r.Post("/reset", s.handleResetFilters)
			r.Post("/refresh", s.handleRefreshBrowser)
			r.Post("/select", s.handleSelectPrime)
		})
	})

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// requestLogger logs one line per request through zap
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
