// Package session owns the bearer credential for one dashboard session.
// The session object is injected into every component that needs the token;
// nothing reads it through shared globals, and only the session itself may
// clear it.
package session

import (
	"sync"
	"time"

	"github.com/dan/aero/internal/metrics"
)

// DefaultLogoutDelay is how long an "expired" message stays readable before
// the forced logout fires.
const DefaultLogoutDelay = 2 * time.Second

// Session holds the credential state for one logged-in browser.
type Session struct {
	mu            sync.Mutex
	token         string
	authenticated bool
	onInvalidate  []func()
	logoutTimer   *time.Timer
	logoutDelay   time.Duration
}

// New returns a logged-out session. logoutDelay governs ScheduleLogout;
// pass DefaultLogoutDelay outside tests.
func New(logoutDelay time.Duration) *Session {
	if logoutDelay <= 0 {
		logoutDelay = DefaultLogoutDelay
	}
	return &Session{logoutDelay: logoutDelay}
}

// Login stores a freshly issued token and marks the session authenticated.
// Any pending scheduled logout from a previous credential is cancelled.
func (s *Session) Login(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.token = token
	s.authenticated = token != ""
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether authorized requests may be issued.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// OnInvalidate registers a callback to run when the session is cleared.
// Callbacks run in registration order, once per logout.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidate = append(s.onInvalidate, fn)
}

// Logout clears the token immediately. Idempotent: a second call is a no-op
// and invalidation callbacks fire exactly once per login. The callbacks run
// outside the lock so they may call back into the session.
func (s *Session) Logout() {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.token = ""
	s.authenticated = false
	callbacks := make([]func(), len(s.onInvalidate))
	copy(callbacks, s.onInvalidate)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// ScheduleLogout arranges a forced logout after the configured delay, giving
// the user time to read the expiry message. While one is pending, further
// calls do not reschedule, so the logout fires exactly once no matter how
// many loaders reported the expired token.
func (s *Session) ScheduleLogout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated || s.logoutTimer != nil {
		return
	}
	s.logoutTimer = time.AfterFunc(s.logoutDelay, func() {
		metrics.IncForcedLogout()
		s.Logout()
	})
}

// CancelScheduledLogout stops a pending forced logout, for view teardown or
// a fresh login racing the timer.
func (s *Session) CancelScheduledLogout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// LogoutPending reports whether a forced logout is scheduled, so views can
// keep showing the expiry message instead of a loading state.
func (s *Session) LogoutPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutTimer != nil
}

func (s *Session) stopTimerLocked() {
	if s.logoutTimer != nil {
		s.logoutTimer.Stop()
		s.logoutTimer = nil
	}
}
