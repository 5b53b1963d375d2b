package server

import (
	"encoding/json"
	"net/http"
)

// ── JSON helpers ────────────────────────────────────────────────────────

// apiResponse is the standard envelope for all API responses.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiResponse{OK: true, Data: data})
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{OK: false, Error: msg})
}

// ── Dashboard state ─────────────────────────────────────────────────────

// GET /api/v1/sensors — the current session's sensor directory.
func (s *Server) apiListSensors(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		jsonError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	view := us.ctrl.Snapshot()
	jsonOK(w, map[string]any{
		"phase":    view.SensorPhase.String(),
		"error":    view.SensorError,
		"sensors":  view.Sensors,
		"selected": view.SelectedSensorID,
	})
}

// GET /api/v1/readings — the current page of the session's reading set plus
// derived stats. Pagination follows the table view's state.
func (s *Server) apiListReadings(w http.ResponseWriter, r *http.Request) {
	us := s.currentSession(r)
	if us == nil {
		jsonError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	view := us.ctrl.Snapshot()
	jsonOK(w, map[string]any{
		"phase":       view.ReadingsPhase.String(),
		"error":       view.ReadingsError,
		"range":       view.TimeRange,
		"page":        view.Page,
		"total_pages": view.TotalPages,
		"readings":    view.PageReadings,
		"stats":       view.Stats,
	})
}

// GET /api/v1/backends — configured backend profiles.
func (s *Server) apiListBackends(w http.ResponseWriter, r *http.Request) {
	backends, err := s.backends.ListAll()
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list backends")
		return
	}
	jsonOK(w, backends)
}
