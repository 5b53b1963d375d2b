package server

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/dan/aero/internal/db"
	"github.com/dan/aero/internal/session"
	"github.com/dan/aero/internal/store"
	"github.com/dan/aero/web"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	db          *db.DB
	backends    *store.BackendStore
	sessions    *sessionRegistry
	render      *renderer
	router      *http.ServeMux
	http        *http.Server
	status      *statusTracker
	activity    *activityLog
	stopChecks  chan struct{} // signals the backend poller to stop
	logoutDelay time.Duration // forced-logout grace, injectable in tests
}

// New creates a new Server wired to the given database. It sets up routes
// and middleware but does not start listening.
func New(database *db.DB, addr string) (*Server, error) {
	mux := http.NewServeMux()

	rn, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	s := &Server{
		db:          database,
		backends:    store.NewBackendStore(database.Conn),
		sessions:    newSessionRegistry(),
		render:      rn,
		router:      mux,
		status:      newStatusTracker(),
		activity:    newActivityLog(200),
		stopChecks:  make(chan struct{}),
		logoutDelay: session.DefaultLogoutDelay,
		http: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.routes()
	s.staticFiles()

	// Custom 404 handler for unmatched routes.
	notFoundHandler := http.HandlerFunc(s.handleNotFound)
	handler := notFound(mux, notFoundHandler)

	// Wrap with middleware (outermost runs first).
	s.http.Handler = logging(recovery(handler))

	return s, nil
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	log.Printf("server listening on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// StartBackgroundJobs launches the backend reachability poller.
// Call this before Start().
func (s *Server) StartBackgroundJobs() {
	go s.backendPoller()
	s.activity.Logf("system", "info", "AERO started — backend reachability checks active")
}

// Shutdown gracefully shuts down the HTTP server and background jobs.
// In-flight loader fetches are abandoned with the sessions they belong to.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopChecks)
	return s.http.Shutdown(ctx)
}

// staticFiles registers the handler for serving embedded static assets.
func (s *Server) staticFiles() {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		log.Fatalf("static fs: %v", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
}
