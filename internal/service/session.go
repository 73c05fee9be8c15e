package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionInfo summary of a live session.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

type session struct {
	dash      *Dashboard
	createdAt time.Time
	expiresAt time.Time
}

// SessionStore maps session IDs to dashboards. Idle sessions expire after
// the TTL; every access extends it. A zero TTL never expires.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	factory  func(id string) *Dashboard
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration, factory func(id string) *Dashboard) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
	}
}

// Create starts a new session.
func (s *SessionStore) Create() (*Dashboard, SessionInfo) {
	id := uuid.NewString()
	dash := s.factory(id)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupExpiredLocked(now)
	sess := &session{dash: dash, createdAt: now, expiresAt: s.expiry(now)}
	s.sessions[id] = sess
	return dash, buildSessionInfo(id, sess)
}

// Get returns the live session with the given id and extends its expiry.
func (s *SessionStore) Get(id string) (*Dashboard, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupExpiredLocked(now)
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.expiresAt = s.expiry(now)
	return sess.dash, true
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// created reports whether a new session was started.
func (s *SessionStore) GetOrCreate(id string) (dash *Dashboard, created bool) {
	if d, ok := s.Get(id); ok {
		return d, false
	}
	d, _ := s.Create()
	return d, true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupExpiredLocked(s.now())
	return len(s.sessions)
}

func (s *SessionStore) expiry(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}

func (s *SessionStore) cleanupExpiredLocked(now time.Time) {
	for id, sess := range s.sessions {
		if !sess.expiresAt.IsZero() && now.After(sess.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

func buildSessionInfo(id string, sess *session) SessionInfo {
	return SessionInfo{SessionID: id, CreatedAt: sess.createdAt, ExpiresAt: sess.expiresAt}
}
