// internal/httpserver/server.go
//
// HTTP server wiring for the Pitchdork backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): /game/new, /game/{id}, confirm, pointer, rating.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     routes can still run for guests, who are tracked by an anonymous cookie.

package httpserver

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/config"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/dial"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/store"
)

// DefaultGeometry matches the stock 192px wheel with an 80px center button.
var DefaultGeometry = dial.Geometry{CenterX: 96, CenterY: 96, CenterRadius: 40}

// Deps are the collaborators a Server needs.
type Deps struct {
	Store   store.Store
	DB      *sql.DB
	Albums  albums.Source   // per-game random albums (already wrapped with fallback)
	Catalog *albums.Catalog // deterministic daily selection
}

// Server bundles router, session store, album source, and DB handle.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	store   store.Store
	db      *sql.DB
	albums  albums.Source
	catalog *albums.Catalog
	daily   *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, deps Deps) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		store:   deps.Store,
		db:      deps.DB,
		albums:  deps.Albums,
		catalog: deps.Catalog,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "pitchdork-go",
			"endpoints": []string{
				"/health", "POST /game/new", "GET /game/{id}", "POST /game/{id}/confirm",
				"POST /game/{id}/pointer", "POST /game/{id}/rating", "/daily/*", "/auth/*",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":       true,
			"sessions": s.store.Len(),
			"albums":   s.catalog.Len(),
		})
	})

	// Game endpoints: guests can play
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		s.mountGame(r)
		s.mountDaily(r)
	})

	// Auth + profile/stats
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return s
}

// Handler exposes the router as an http.Handler (for http.Server and tests).
func (s *Server) Handler() http.Handler { return s.r }
