package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dan/aero/internal/models"
)

// ── Template data ───────────────────────────────────────────────────────

type backendListData struct {
	Nav      string
	Backends []models.Backend
	Statuses map[string]*BackendStatus
}

type backendFormData struct {
	Nav     string
	Backend *models.Backend
	IsNew   bool
	Error   string
}

// ── Handlers ────────────────────────────────────────────────────────────

func (s *Server) handleBackendList(w http.ResponseWriter, r *http.Request) {
	backends, err := s.backends.ListAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.render.render(w, "backends.html", backendListData{
		Nav:      "backends",
		Backends: backends,
		Statuses: s.status.All(),
	})
}

func (s *Server) handleBackendNew(w http.ResponseWriter, r *http.Request) {
	s.render.render(w, "backend_form.html", backendFormData{
		Nav: "backends",
		Backend: &models.Backend{
			ExplorerProvider: "solana.com",
			ExplorerCluster:  "devnet",
			Enabled:          true,
		},
		IsNew: true,
	})
}

func (s *Server) handleBackendCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b := &models.Backend{
		ID:               uuid.NewString(),
		Name:             r.FormValue("name"),
		BaseURL:          r.FormValue("base_url"),
		ExplorerProvider: r.FormValue("explorer_provider"),
		ExplorerCluster:  r.FormValue("explorer_cluster"),
		Enabled:          r.FormValue("enabled") == "on",
	}

	if b.Name == "" || b.BaseURL == "" {
		s.render.render(w, "backend_form.html", backendFormData{
			Nav:     "backends",
			Backend: b,
			IsNew:   true,
			Error:   "Name and base URL are required.",
		})
		return
	}

	if err := s.backends.Create(b); err != nil {
		s.render.render(w, "backend_form.html", backendFormData{
			Nav:     "backends",
			Backend: b,
			IsNew:   true,
			Error:   err.Error(),
		})
		return
	}

	s.activity.Logf(b.Name, "info", "Backend added (%s)", b.BaseURL)
	http.Redirect(w, r, "/backends?flash=Backend+created&flash_type=success", http.StatusSeeOther)
}

func (s *Server) handleBackendEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := s.backends.GetByID(id)
	if err != nil || b == nil {
		http.Error(w, "Backend not found", http.StatusNotFound)
		return
	}

	s.render.render(w, "backend_form.html", backendFormData{
		Nav:     "backends",
		Backend: b,
		IsNew:   false,
	})
}

func (s *Server) handleBackendUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := s.backends.GetByID(id)
	if err != nil || b == nil {
		http.Error(w, "Backend not found", http.StatusNotFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.Name = r.FormValue("name")
	b.BaseURL = r.FormValue("base_url")
	b.ExplorerProvider = r.FormValue("explorer_provider")
	b.ExplorerCluster = r.FormValue("explorer_cluster")
	b.Enabled = r.FormValue("enabled") == "on"

	if b.Name == "" || b.BaseURL == "" {
		s.render.render(w, "backend_form.html", backendFormData{
			Nav:     "backends",
			Backend: b,
			IsNew:   false,
			Error:   "Name and base URL are required.",
		})
		return
	}

	if err := s.backends.Update(b); err != nil {
		s.render.render(w, "backend_form.html", backendFormData{
			Nav:     "backends",
			Backend: b,
			IsNew:   false,
			Error:   err.Error(),
		})
		return
	}

	http.Redirect(w, r, "/backends?flash=Backend+updated&flash_type=success", http.StatusSeeOther)
}

func (s *Server) handleBackendDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, _ := s.backends.GetByID(id)
	if err := s.backends.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if b != nil {
		s.status.Remove(b.Name)
	}
	http.Redirect(w, r, "/backends?flash=Backend+deleted&flash_type=success", http.StatusSeeOther)
}

// handleBackendToggle flips the enabled flag.
func (s *Server) handleBackendToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := s.backends.GetByID(id)
	if err != nil || b == nil {
		http.Error(w, "Backend not found", http.StatusNotFound)
		return
	}

	if err := s.backends.SetEnabled(id, !b.Enabled); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/backends", http.StatusSeeOther)
}

// handleBackendTest triggers an immediate reachability check for a backend
// and redirects back. POST /backends/{id}/test
func (s *Server) handleBackendTest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := s.backends.GetByID(id)
	if err != nil || b == nil {
		http.Error(w, "Backend not found", http.StatusNotFound)
		return
	}

	s.activity.Logf(b.Name, "info", "Manual reachability test…")
	s.checkBackend(*b)

	status := s.status.Get(b.Name)
	if status != nil && status.Status == "reachable" {
		http.Redirect(w, r, "/backends?flash="+b.Name+"+reachable&flash_type=success", http.StatusSeeOther)
	} else {
		errMsg := "unknown error"
		if status != nil {
			errMsg = status.Error
		}
		http.Redirect(w, r, "/backends?flash="+b.Name+": "+errMsg+"&flash_type=error", http.StatusSeeOther)
	}
}
