// Package api serves the map and list screens over JSON for the browser
// client.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/canvass/internal/cluster"
	"github.com/sells-group/canvass/internal/geolocate"
	"github.com/sells-group/canvass/internal/metrics"
	"github.com/sells-group/canvass/internal/store"
	"github.com/sells-group/canvass/internal/viewport"
)

// Server holds the shared state behind every session.
type Server struct {
	state    *store.State
	cache    *cluster.Cache
	sessions *sessions
	gate     Gate

	provider geolocate.Provider
	fallback geolocate.Fallback
	bounds   viewport.ZoomBounds

	rateLimit  float64
	origins    []string
	sessionTTL time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGate sets the approval gate. The default allows every request.
func WithGate(g Gate) Option {
	return func(s *Server) { s.gate = g }
}

// WithGeolocation sets the provider used to center new sessions.
func WithGeolocation(p geolocate.Provider, fb geolocate.Fallback) Option {
	return func(s *Server) {
		s.provider = p
		s.fallback = fb
	}
}

// WithZoomBounds sets the zoom limits of new sessions.
func WithZoomBounds(b viewport.ZoomBounds) Option {
	return func(s *Server) { s.bounds = b }
}

// WithRateLimit caps requests per second per client. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(s *Server) { s.rateLimit = rps }
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithSessionTTL sets how long an idle session survives. Non-positive uses
// DefaultSessionTTL.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) { s.sessionTTL = d }
}

// WithCache shares a cluster cache across sessions.
func WithCache(c *cluster.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// New creates a server over state.
func New(state *store.State, opts ...Option) *Server {
	s := &Server{
		state:    state,
		gate:     AllowAll{},
		fallback: geolocate.DefaultFallback(),
		bounds:   viewport.DefaultZoomBounds,
		origins:  []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cluster.NewCache(256, 10*time.Minute)
	}
	s.sessions = newSessions(s.sessionTTL)
	return s
}

type healthResponse struct {
	Status       string             `json:"status"`
	Sessions     int                `json:"sessions"`
	ClusterCache cluster.CacheStats `json:"cluster_cache"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Sessions:     s.sessions.count(),
		ClusterCache: s.cache.Stats(),
	})
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if s.rateLimit > 0 {
		r.Use(newClientLimiter(s.rateLimit, int(s.rateLimit)+1).middleware)
	}

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(gateMiddleware(s.gate))

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.deleteSession)
			r.Get("/frame", s.frame)
			r.Get("/scene", s.scene)
			r.Post("/events/marker", s.markerEvent)
			r.Post("/events/map", s.mapEvent)
			r.Post("/events/zoom", s.zoomEvent)
			r.Post("/events/moveend", s.moveEndEvent)
			r.Post("/events/bridge", s.bridgeEvent)
			r.Post("/view", s.viewBusiness)
			r.Post("/edit", s.editBusiness)
			r.Get("/selected", s.selected)
			r.Put("/selected", s.selectBusiness)
			r.Delete("/selected", s.clearSelection)
			r.Delete("/businesses/{businessID}", s.deleteFromMap)
			r.Get("/list", s.list)
			r.Post("/editing", s.startEdit)
			r.Patch("/editing", s.saveEdit)
			r.Delete("/editing", s.cancelEdit)
		})

		r.Get("/companies", s.listCompanies)
		r.Post("/companies", s.createCompany)
		r.Put("/companies/selected", s.selectCompany)
		r.Delete("/companies/{companyID}", s.deleteCompany)

		r.Get("/businesses", s.listBusinesses)
		r.Post("/businesses", s.createBusiness)
		r.Get("/businesses/{businessID}", s.getBusiness)
		r.Patch("/businesses/{businessID}", s.updateBusiness)
		r.Delete("/businesses/{businessID}", s.deleteBusiness)
		r.Post("/businesses/{businessID}/notes", s.addNote)
		r.Post("/businesses/{businessID}/activity", s.addActivity)
	})

	return r
}
