package usecases

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
)

// DefaultMaxTurns caps the turns kept per session.
const DefaultMaxTurns = 20

// Session is one user's conversation history.
type Session struct {
	ID        string
	Turns     []entities.Turn
	UpdatedAt time.Time
}

// SessionStore keeps conversation history in memory, per session id.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxTurns int
}

// NewSessionStore creates a store keeping at most maxTurns per session.
func NewSessionStore(maxTurns int) *SessionStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// NewID returns a fresh session id.
func (s *SessionStore) NewID() string {
	return uuid.NewString()
}

// History returns a copy of the session's turns, oldest first.
func (s *SessionStore) History(id string) []entities.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]entities.Turn, len(sess.Turns))
	copy(out, sess.Turns)
	return out
}

// Append records a turn, evicting the oldest beyond the cap.
func (s *SessionStore) Append(id string, turn entities.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id}
		s.sessions[id] = sess
	}
	sess.Turns = append(sess.Turns, turn)
	if over := len(sess.Turns) - s.maxTurns; over > 0 {
		sess.Turns = append(sess.Turns[:0:0], sess.Turns[over:]...)
	}
	sess.UpdatedAt = turn.CreatedAt
}

// Reset forgets a session's history.
func (s *SessionStore) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions with history.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
