package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/course"
)

// DefaultSessionTTL bounds how long an untouched quiz session is kept.
const DefaultSessionTTL = 2 * time.Hour

type storedSession struct {
	sess      *Session
	expiresAt time.Time
}

// SessionStore holds in-flight quiz sessions, keyed by session id.
// Each session is owned by the user that started it; results from a deleted
// session are never applied to a newer one since ids are unique per run.
//
// Sessions expire after a sliding idle TTL so abandoned runs do not pile up;
// Start sweeps expired entries before storing a new one.
type SessionStore struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]storedSession
}

func NewSessionStore(ttl ...time.Duration) *SessionStore {
	st := &SessionStore{
		ttl:      DefaultSessionTTL,
		sessions: make(map[string]storedSession),
	}
	if len(ttl) > 0 {
		st.ttl = ttl[0]
	}
	return st
}

// Start creates and stores a new session for the quiz.
func (st *SessionStore) Start(quiz course.Quiz, courseID, userID string) *Session {
	sess := NewSession(uuid.New().String(), quiz, courseID, userID)

	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	for id, stored := range st.sessions {
		if now.After(stored.expiresAt) {
			delete(st.sessions, id)
		}
	}
	st.sessions[sess.ID] = storedSession{sess: sess, expiresAt: now.Add(st.ttl)}
	return sess
}

// Get returns the session owned by `userID`, or ErrSessionNotFound.
// Sessions are not shared between users; an expired session is gone.
// A hit refreshes the session's TTL.
func (st *SessionStore) Get(id, userID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	stored, ok := st.sessions[id]
	if !ok || stored.sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(stored.expiresAt) {
		delete(st.sessions, id)
		return nil, ErrSessionNotFound
	}
	stored.expiresAt = time.Now().Add(st.ttl)
	st.sessions[id] = stored
	return stored.sess, nil
}

// Delete discards a session.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports the number of live sessions; used by tests.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
