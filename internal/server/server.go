package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/tracker"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps JSON request bodies. Photo uploads use maxPhotoBytes.
const (
	maxBodyBytes  = 8 << 20
	maxPhotoBytes = 20 << 20
)

// Options are optional collaborators of a Server.
type Options struct {
	Metrics *metrics.Manager // nil disables /metrics and request metrics
	WhoIs   WhoIser          // nil attributes every request to the dev user
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *tracker.Service
	users   UserStore
	log     *slog.Logger
	apiKey  string
	router  chi.Router
	metrics *metrics.Manager
	whois   WhoIser
}

// New creates a new Server with all routes configured.
func New(svc *tracker.Service, users UserStore, apiKey string, log *slog.Logger, opts Options) *Server {
	s := &Server{
		svc:     svc,
		users:   users,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
		metrics: opts.Metrics,
		whois:   opts.WhoIs,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) identity() func(http.Handler) http.Handler {
	if s.whois == nil {
		return DevIdentity
	}
	return TailscaleIdentity(s.whois, s.users)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(metrics.RequestMetrics(s.metrics))
	}
	s.router.Use(CORS)

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity())

		r.Get("/me", s.handleMe)

		r.Route("/workouts", func(r chi.Router) {
			r.Get("/", s.handleListWorkouts)
			r.Post("/", s.handleCreateWorkout)
			r.Get("/export", s.handleExportWorkouts)
			r.Get("/{id}", s.handleGetWorkout)
			r.Patch("/{id}", s.handleUpdateWorkout)
			r.Delete("/{id}", s.handleDeleteWorkout)
			r.Get("/{id}/session", s.handleStartSession)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Get("/{id}/export", s.handleExportSession)
			r.Get("/{id}/report", s.handleSessionReport)
			r.Post("/{id}/photos", s.handleSessionPhoto)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/exercises", s.handleExercises)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
		r.Get("/import-logs", s.handleImportLogs)
		r.Post("/import/validate", s.handleValidateImport)
		r.Get("/export", s.handleExportBackup)

		// Writes that replace data in bulk need the API key as well.
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/import", s.handleImport)
			r.Post("/restore", s.handleRestore)
		})
	})
}

// MountMCP serves an MCP handler under /mcp behind the identity middleware,
// so tools run as the calling user.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identity()).Handle("/mcp", h)
	s.router.With(s.identity()).Handle("/mcp/*", h)
}

// SetFrontend mounts a static SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
