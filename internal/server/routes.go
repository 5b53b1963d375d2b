package server

import "github.com/prometheus/client_golang/prometheus/promhttp"

// routes registers all HTTP handlers on the server's mux.
// New routes are added here as the application grows.
func (s *Server) routes() {
	// Views
	s.router.HandleFunc("GET /{$}", s.handleDashboard)
	s.router.HandleFunc("GET /readings", s.handleReadings)
	s.router.HandleFunc("GET /dashboard/state", s.handleDashboardState)

	// Session
	s.router.HandleFunc("GET /login", s.handleLoginPage)
	s.router.HandleFunc("POST /login", s.handleLogin)
	s.router.HandleFunc("POST /logout", s.handleLogout)

	// ViewState actions
	s.router.HandleFunc("POST /dashboard/sensor", s.handleSelectSensor)
	s.router.HandleFunc("POST /dashboard/range", s.handleSetRange)
	s.router.HandleFunc("POST /dashboard/page", s.handleSetPage)
	s.router.HandleFunc("POST /dashboard/toggle", s.handleSetToggles)
	s.router.HandleFunc("POST /dashboard/refresh", s.handleRefresh)

	// Backends
	s.router.HandleFunc("GET /backends", s.handleBackendList)
	s.router.HandleFunc("GET /backends/new", s.handleBackendNew)
	s.router.HandleFunc("POST /backends", s.handleBackendCreate)
	s.router.HandleFunc("GET /backends/{id}/edit", s.handleBackendEdit)
	s.router.HandleFunc("POST /backends/{id}", s.handleBackendUpdate)
	s.router.HandleFunc("POST /backends/{id}/delete", s.handleBackendDelete)
	s.router.HandleFunc("POST /backends/{id}/test", s.handleBackendTest)
	s.router.HandleFunc("POST /backends/{id}/toggle", s.handleBackendToggle)

	// Console (live activity feed)
	s.router.HandleFunc("GET /console", s.handleConsole)
	s.router.HandleFunc("GET /console/events", s.handleConsoleEvents)
	s.router.HandleFunc("GET /console/statuses", s.handleConsoleStatuses)

	// JSON API
	s.router.HandleFunc("GET /api/v1/sensors", s.apiListSensors)
	s.router.HandleFunc("GET /api/v1/readings", s.apiListReadings)
	s.router.HandleFunc("GET /api/v1/backends", s.apiListBackends)

	// Operational
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.Handler())
}
