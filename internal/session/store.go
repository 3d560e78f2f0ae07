package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

// Store owns every EvaluationSession, keyed by connection id. Insert, lookup
// and delete are safe from any goroutine; individual session fields are
// guarded by each session's own mutex so sessions never block each other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*EvaluationSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*EvaluationSession)}
}

func (s *Store) Create(connectionID string) (*EvaluationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[connectionID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, connectionID)
	}

	sess := newSession(connectionID)
	s.sessions[connectionID] = sess

	logger.Info("Session created", zap.String("session_id", connectionID))
	return sess, nil
}

func (s *Store) Get(sessionID string) (*EvaluationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// Destroy removes a session and cancels its orchestration. Idempotent.
func (s *Store) Destroy(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	sess.Cancel()
	logger.Info("Session destroyed", zap.String("session_id", sessionID))
}

// ForEach visits every live session. Used by the timeout sweep; the callback
// must not acquire other sessions' locks.
func (s *Store) ForEach(fn func(*EvaluationSession)) {
	s.mu.RLock()
	sessions := make([]*EvaluationSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		fn(sess)
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
