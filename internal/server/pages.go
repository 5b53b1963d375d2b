package server

import "net/http"

// handleNotFound renders a styled 404 page for unmatched routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	s.render.render(w, "not_found.html", struct{ Nav string }{Nav: ""})
}
