package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dan/aero/internal/airapi"
	"github.com/dan/aero/internal/dashboard"
	"github.com/dan/aero/internal/models"
	"github.com/dan/aero/internal/session"
)

const sessionCookie = "aero_session"

// userSession binds one browser to its credential, its API client, and its
// dashboard state machine. Sessions live in memory only and die with the
// process or with a logout — nothing about them is persisted.
type userSession struct {
	id        string
	email     string
	sess      *session.Session
	ctrl      *dashboard.Controller
	api       *airapi.Client
	backend   models.Backend
	createdAt time.Time
}

// sessionRegistry is the in-memory map of live dashboard sessions.
type sessionRegistry struct {
	mu   sync.RWMutex
	byID map[string]*userSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byID: make(map[string]*userSession)}
}

func (sr *sessionRegistry) put(us *userSession) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.byID[us.id] = us
}

func (sr *sessionRegistry) get(id string) *userSession {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.byID[id]
}

func (sr *sessionRegistry) remove(id string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	delete(sr.byID, id)
}

func (sr *sessionRegistry) count() int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return len(sr.byID)
}

// currentSession resolves the cookie to a live session, or nil. An expired
// or forcibly logged-out session resolves to nil even while its cookie is
// still in the browser.
func (s *Server) currentSession(r *http.Request) *userSession {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	us := s.sessions.get(c.Value)
	if us == nil || !us.sess.IsAuthenticated() {
		return nil
	}
	return us
}

// newSessionID generates the random cookie value for a fresh login.
func newSessionID() string {
	return uuid.NewString()
}
