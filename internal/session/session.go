package session

import (
	"sync"

	"github.com/google/uuid"

	"coursechat/internal/domain"
)

// Store holds bounded per-conversation exchange history. Sessions are
// created implicitly on first append and never hold more than maxHistory
// exchanges; the oldest is evicted first.
type Store struct {
	mu         sync.RWMutex
	maxHistory int
	sessions   map[string][]domain.Exchange
}

func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &Store{
		maxHistory: maxHistory,
		sessions:   make(map[string][]domain.Exchange),
	}
}

// NewID mints an opaque session id.
func (s *Store) NewID() string { return uuid.NewString() }

// Get returns the session's exchanges oldest-first, empty for an unknown
// id. The returned slice is a copy.
func (s *Store) Get(id string) []domain.Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[id]
	out := make([]domain.Exchange, len(history))
	copy(out, history)
	return out
}

// Append adds an exchange at the tail, then evicts from the head while
// the history exceeds the cap.
func (s *Store) Append(id string, exchange domain.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.sessions[id], exchange)
	if over := len(history) - s.maxHistory; over > 0 {
		history = history[over:]
	}
	s.sessions[id] = history
}
