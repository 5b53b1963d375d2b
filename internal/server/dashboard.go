package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dan/aero/internal/dashboard"
	"github.com/dan/aero/internal/models"
)

// ── Template data ───────────────────────────────────────────────────────

type dashboardData struct {
	Nav    string
	Email  string
	View   dashboard.View
	Ranges []models.TimeRange
}

// handleDashboard renders the charts view: stats cards, line charts with
// series toggles, sensor picker and time-range picker.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	s.render.render(w, "dashboard.html", dashboardData{
		Nav:    "dashboard",
		Email:  us.email,
		View:   us.ctrl.Snapshot(),
		Ranges: models.TimeRanges(),
	})
}

// handleDashboardState serves the polled fragment for whichever view the
// browser is on. It answers 204 when the controller's change sequence is
// unchanged so the poller skips the swap.
func (s *Server) handleDashboardState(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		// The session was invalidated under the poller; tell it to bounce.
		w.Header().Set("X-Aero-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	lastSeq := r.URL.Query().Get("seq")
	view := us.ctrl.Snapshot()
	if lastSeq == fmt.Sprintf("%d", view.Seq) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch r.URL.Query().Get("view") {
	case "readings":
		s.render.renderBlock(w, "readings.html", "state", readingsStateData(us, view))
	default:
		s.render.renderBlock(w, "dashboard.html", "state", dashboardData{
			Nav:    "dashboard",
			Email:  us.email,
			View:   view,
			Ranges: models.TimeRanges(),
		})
	}
}

// ── ViewState actions ───────────────────────────────────────────────────

// handleSelectSensor switches the active sensor. Pagination reset to page 1
// is a side effect of the switch.
func (s *Server) handleSelectSensor(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(r.FormValue("sensor"))
	if err != nil {
		http.Error(w, "invalid sensor id", http.StatusBadRequest)
		return
	}
	if err := us.ctrl.SelectSensor(id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, viewTarget(r), http.StatusSeeOther)
}

// handleSetRange switches the readings window.
func (s *Server) handleSetRange(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rng, err := models.ParseTimeRange(r.FormValue("range"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	us.ctrl.SetTimeRange(rng)
	http.Redirect(w, r, viewTarget(r), http.StatusSeeOther)
}

// handleSetPage moves the readings table: dir=next|prev for the arrows, or
// an explicit page number from the strip.
func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.FormValue("dir") {
	case "next":
		us.ctrl.NextPage()
	case "prev":
		us.ctrl.PrevPage()
	default:
		n, err := strconv.Atoi(r.FormValue("page"))
		if err != nil {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		if err := us.ctrl.GoToPage(n); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	http.Redirect(w, r, viewTarget(r), http.StatusSeeOther)
}

// handleSetToggles controls which chart series are drawn.
func (s *Server) handleSetToggles(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	us.ctrl.SetToggles(r.FormValue("co2") == "on", r.FormValue("temperature") == "on")
	http.Redirect(w, r, viewTarget(r), http.StatusSeeOther)
}

// handleRefresh is the manual retry control.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	us.ctrl.Refresh()
	http.Redirect(w, r, viewTarget(r), http.StatusSeeOther)
}

// viewTarget returns the view the action form came from, restricted to the
// two dashboard pages.
func viewTarget(r *http.Request) string {
	if r.FormValue("view") == "readings" {
		return "/readings"
	}
	return "/"
}
