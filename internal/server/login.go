package server

import (
	"log"
	"net/http"
	"time"

	"github.com/dan/aero/internal/airapi"
	"github.com/dan/aero/internal/dashboard"
	"github.com/dan/aero/internal/metrics"
	"github.com/dan/aero/internal/session"
)

// ── Template data ───────────────────────────────────────────────────────

type loginData struct {
	Nav     string
	Email   string
	Error   string
	Backend string // active backend name, shown under the form
}

// ── Handlers ────────────────────────────────────────────────────────────

// handleLoginPage renders the login view. An already-authenticated browser
// is sent straight to the dashboard.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.currentSession(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := loginData{Nav: "login"}
	if b, err := s.backends.Active(); err == nil && b != nil {
		data.Backend = b.Name
	}
	s.render.render(w, "login.html", data)
}

// handleLogin exchanges credentials for a bearer token against the active
// backend and, on success, creates the session and its dashboard controller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")
	password := r.FormValue("password")

	renderErr := func(msg string) {
		data := loginData{Nav: "login", Email: email, Error: msg}
		if b, err := s.backends.Active(); err == nil && b != nil {
			data.Backend = b.Name
		}
		s.render.render(w, "login.html", data)
	}

	if email == "" || password == "" {
		renderErr("Email and password are required.")
		return
	}

	backend, err := s.backends.Active()
	if err != nil || backend == nil {
		renderErr("No sensors-API backend is configured. Add one under Backends.")
		return
	}

	api := airapi.New(backend.BaseURL)
	token, err := api.Login(r.Context(), email, password)
	if err != nil {
		s.activity.Logf("session", "error", "Login failed for %s: %s", email, err)
		renderErr(err.Error())
		return
	}

	id := newSessionID()
	sess := session.New(s.logoutDelay)
	sess.Login(token)

	ctrl := dashboard.New(api, sess)
	sess.OnInvalidate(func() {
		s.sessions.remove(id)
		metrics.SessionClosed()
		s.activity.Logf("session", "info", "Session for %s ended", email)
	})

	s.sessions.put(&userSession{
		id:        id,
		email:     email,
		sess:      sess,
		ctrl:      ctrl,
		api:       api,
		backend:   *backend,
		createdAt: time.Now().UTC(),
	})
	metrics.SessionOpened()

	// Kick off the pipeline: sensors first, readings follow automatically.
	ctrl.LoadSensors()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Printf("[session] %s logged in via %s", email, backend.Name)
	s.activity.Logf("session", "success", "%s logged in", email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout clears the session synchronously: the token is dropped, any
// scheduled forced logout is cancelled, and in-flight fetches are abandoned.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if us := s.currentSession(r); us != nil {
		us.sess.Logout()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
