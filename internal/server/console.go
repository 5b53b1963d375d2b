package server

import (
	"fmt"
	"net/http"
)

// ── Template data ───────────────────────────────────────────────────────

type consoleData struct {
	Nav      string
	Statuses map[string]*BackendStatus
	Events   []ActivityEvent
	Seq      int64
	Sessions int
}

// handleConsole renders the activity console: backend reachability cards
// plus the recent event feed.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	s.render.render(w, "console.html", consoleData{
		Nav:      "console",
		Statuses: s.status.All(),
		Events:   s.activity.Recent(100),
		Seq:      s.activity.Seq(),
		Sessions: s.sessions.count(),
	})
}

// handleConsoleEvents returns just the activity log rows as an HTML
// fragment for polling. It returns 204 No Content if nothing has changed.
func (s *Server) handleConsoleEvents(w http.ResponseWriter, r *http.Request) {
	lastSeq := r.URL.Query().Get("seq")
	currentSeq := s.activity.Seq()

	if lastSeq == fmt.Sprintf("%d", currentSeq) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.render.renderBlock(w, "console.html", "event-rows", struct {
		Events []ActivityEvent
		Seq    int64
	}{
		Events: s.activity.Recent(100),
		Seq:    currentSeq,
	})
}

// handleConsoleStatuses returns just the backend status cards as an HTML
// fragment for polling.
func (s *Server) handleConsoleStatuses(w http.ResponseWriter, r *http.Request) {
	s.render.renderBlock(w, "console.html", "status-cards-inner", struct {
		Statuses map[string]*BackendStatus
	}{
		Statuses: s.status.All(),
	})
}
