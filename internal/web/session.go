package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/submission"
)

// SessionCookie is the cookie carrying the session id
const SessionCookie = "flood_session"

// DefaultSessionTTL is used when Config.SessionTTL is zero
const DefaultSessionTTL = 30 * time.Minute

// ControllerFactory creates the controller for a new session
type ControllerFactory func() *submission.Controller

// Session is one visitor's form
type Session struct {
	ID         string
	Controller *submission.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Sessions holds every live session
type Sessions struct {
	factory ControllerFactory
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*Session
}

// NewSessions creates an empty store. A zero ttl selects DefaultSessionTTL.
func NewSessions(factory ControllerFactory, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*Session),
	}
}

// TTL returns the idle timeout
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Get returns the session with id and marks it as used
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	sess.touch(s.now())
	return sess, true
}

// Create starts a new session with a fresh controller
func (s *Sessions) Create() *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: s.factory(),
		lastSeen:   s.now(),
	}

	s.mu.Lock()
	s.items[sess.ID] = sess
	s.mu.Unlock()

	logging.Debug("Session created", zap.String("session", sess.ID))
	return sess
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep closes every session idle for longer than the TTL and returns how
// many were removed.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.items {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Close()
		logging.Debug("Session expired", zap.String("session", sess.ID))
	}
	return len(expired)
}

// CloseAll closes every session
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range items {
		sess.Controller.Close()
	}
}

// FromRequest returns the session named by the request cookie. A missing
// or expired session is replaced by a new one and the cookie is set on w.
func (s *Sessions) FromRequest(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.Get(c.Value); ok {
			return sess
		}
	}

	sess := s.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return sess
}

// Lookup returns the session named by the request cookie without creating
// one.
func (s *Sessions) Lookup(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return s.Get(c.Value)
}
