package session

import (
	"sync"
	"time"

	"github.com/shoptalk/backend/internal/domain"
)

// Store is the in-memory conversation session map. Sessions are created on
// first access and live for the process lifetime; there is no eviction.
// Two concurrent requests for the same session interleave last-write-wins,
// which is acceptable for conversational focus state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.SessionContext
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.SessionContext)}
}

// get returns the live session, creating it on miss. Callers hold no lock.
func (s *Store) get(id string) *domain.SessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &domain.SessionContext{ID: id}
		s.sessions[id] = sess
	}
	return sess
}

// Get returns a copy of the session context, creating it on first use.
// The copy shares product slices but callers treat those as read-only.
func (s *Store) Get(id string) domain.SessionContext {
	sess := s.get(id)

	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := *sess
	copied.History = append([]domain.Turn(nil), sess.History...)
	return copied
}

// AppendTurn adds one conversation turn to the session history.
func (s *Store) AppendTurn(id string, turn domain.Turn) {
	sess := s.get(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	sess.History = append(sess.History, turn)
}

// SetFocus records the session's current product focus. Single and multi
// focus are stored independently; consumers pick one by pronoun number.
func (s *Store) SetFocus(id string, single *domain.Product, multi []domain.Product) {
	sess := s.get(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if single != nil {
		p := *single
		sess.LastProduct = &p
	}
	if len(multi) > 0 {
		sess.LastProducts = append([]domain.Product(nil), multi...)
	}
}

// SetProblem records the problem-report flow state: the extracted product
// code (possibly empty) and whether a guide selection is pending.
func (s *Store) SetProblem(id string, code string, open bool) {
	sess := s.get(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ProblemCode = code
	sess.ProblemOpen = open
}

// Len reports the number of live sessions (for monitoring).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
