package memory

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/higress-group/docqa-bot/schema"
)

// ConversationStore keeps a bounded, per-session log of answered questions.
type ConversationStore interface {
	// Read returns a copy of the session history, oldest first. Unknown sessions yield an empty slice.
	Read(ctx context.Context, sessionID string) ([]schema.ConversationTurn, error)

	// Append adds a turn at the tail and evicts from the head beyond capacity.
	Append(ctx context.Context, sessionID string, turn schema.ConversationTurn) error

	// Clear drops the session slot.
	Clear(ctx context.Context, sessionID string) error

	// Sessions reports the number of tracked sessions.
	Sessions() int
}

// =============================================================================
// InMemoryConversationStore
// =============================================================================

// sessionSlot serializes updates to one session.
type sessionSlot struct {
	mu    sync.Mutex
	turns []schema.ConversationTurn
}

// InMemoryConversationStore is a process-local store. Each session has its own lock,
// so sessions never contend with each other.
type InMemoryConversationStore struct {
	slots       sync.Map // session id -> *sessionSlot
	count       atomic.Int64
	capacity    int
	maxSessions int
}

// NewInMemoryConversationStore creates a store keeping capacity turns per session.
// maxSessions <= 0 means unbounded.
func NewInMemoryConversationStore(capacity, maxSessions int) *InMemoryConversationStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryConversationStore{
		capacity:    capacity,
		maxSessions: maxSessions,
	}
}

func (s *InMemoryConversationStore) Read(ctx context.Context, sessionID string) ([]schema.ConversationTurn, error) {
	v, ok := s.slots.Load(sessionID)
	if !ok {
		return []schema.ConversationTurn{}, nil
	}
	slot := v.(*sessionSlot)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	result := make([]schema.ConversationTurn, len(slot.turns))
	copy(result, slot.turns)
	return result, nil
}

func (s *InMemoryConversationStore) Append(ctx context.Context, sessionID string, turn schema.ConversationTurn) error {
	for {
		slot, err := s.slot(sessionID)
		if err != nil {
			return err
		}
		slot.mu.Lock()
		// a concurrent Clear or session-limit rollback may have detached the slot
		if cur, ok := s.slots.Load(sessionID); !ok || cur.(*sessionSlot) != slot {
			slot.mu.Unlock()
			continue
		}
		s.appendLocked(slot, turn)
		slot.mu.Unlock()
		return nil
	}
}

func (s *InMemoryConversationStore) appendLocked(slot *sessionSlot, turn schema.ConversationTurn) {
	turns := append(slot.turns, turn)
	if len(turns) > s.capacity {
		// copy so the evicted prefix does not pin the old backing array
		trimmed := make([]schema.ConversationTurn, s.capacity)
		copy(trimmed, turns[len(turns)-s.capacity:])
		turns = trimmed
	}
	slot.turns = turns
}

func (s *InMemoryConversationStore) slot(sessionID string) (*sessionSlot, error) {
	if v, ok := s.slots.Load(sessionID); ok {
		return v.(*sessionSlot), nil
	}
	v, loaded := s.slots.LoadOrStore(sessionID, &sessionSlot{})
	if !loaded {
		if n := s.count.Inc(); s.maxSessions > 0 && n > int64(s.maxSessions) {
			s.slots.Delete(sessionID)
			s.count.Dec()
			return nil, ErrSessionLimit
		}
	}
	return v.(*sessionSlot), nil
}

func (s *InMemoryConversationStore) Clear(ctx context.Context, sessionID string) error {
	if _, ok := s.slots.LoadAndDelete(sessionID); ok {
		s.count.Dec()
	}
	return nil
}

func (s *InMemoryConversationStore) Sessions() int {
	return int(s.count.Load())
}
