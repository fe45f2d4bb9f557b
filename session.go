package medimatch

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat turn.
type Role string

// Role constants for ChatTurn.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single entry in a session's conversation log.
// Turns are never mutated after they are appended.
type ChatTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Doctors   []Doctor  `json:"doctors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket identifies one pipeline run started with Session.Begin.
type Ticket struct {
	generation uint64
}

// Session is the ordered, append-only conversation of one user.
// A session has a single writer and may be read concurrently.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	turns      []ChatTurn
	generation uint64
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
}

// AppendTurn appends a turn to the conversation.
func (s *Session) AppendTurn(turn ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// History returns a copy of the conversation in insertion order.
func (s *Session) History() []ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.turns)
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Begin appends the user's turn and starts a new pipeline run.
// Every ticket issued earlier becomes stale.
func (s *Session) Begin(userTurn ChatTurn) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.turns = append(s.turns, userTurn)
	return Ticket{generation: s.generation}
}

// Commit appends the result of the run identified by t.
// Results of superseded runs are discarded and Commit returns false.
func (s *Session) Commit(t Ticket, turn ChatTurn) bool {
	ok, _ := s.CommitFunc(t, turn, nil)
	return ok
}

// CommitFunc is like Commit but also calls fn with the committed turn before
// the session is released. Calls to fn therefore happen in commit order and
// no later Begin can slip in between the commit and fn. fn must not call
// back into the session.
func (s *Session) CommitFunc(t Ticket, turn ChatTurn, fn func(ChatTurn) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.generation != s.generation {
		return false, nil
	}
	s.turns = append(s.turns, turn)
	// A ticket commits at most once.
	s.generation++
	if fn == nil {
		return true, nil
	}
	return true, fn(turn)
}

// Current reports whether t belongs to the most recent, uncommitted run.
func (s *Session) Current(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t.generation == s.generation
}
