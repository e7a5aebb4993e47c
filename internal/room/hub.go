package room

import (
	"sync"

	"github.com/google/uuid"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

// Session is the in-memory state of one accepted connection. Events queued
// on it are drained by the connection's writer goroutine.
type Session struct {
	ID             string
	Principal      identity.Principal
	Name           string
	ConversationID string

	mu     sync.Mutex
	events chan any
	closed bool
}

func NewSession(p identity.Principal, name, conversationID string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 64
	}
	return &Session{
		ID:             uuid.NewString(),
		Principal:      p,
		Name:           name,
		ConversationID: conversationID,
		events:         make(chan any, buffer),
	}
}

// Events is the outbound queue the connection's writer drains. It is closed
// when the session leaves the hub or is pruned as dead.
func (s *Session) Events() <-chan any {
	return s.events
}

// Close closes the outbound queue. Safe to call more than once and safe
// against concurrent enqueues.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// enqueue reports false when the session is closed or its buffer is full.
func (s *Session) enqueue(event any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.events <- event:
		return true
	default:
		return false
	}
}

// Hub tracks which live sessions belong to which conversation's broadcast
// group and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Session]struct{}
	onPrune func(*Session)
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Session]struct{})}
}

// SetPruneHook registers a callback invoked whenever a session is pruned
// because its outbound queue saturated.
func (h *Hub) SetPruneHook(hook func(*Session)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPrune = hook
}

func (h *Hub) prune(s *Session) {
	h.mu.RLock()
	hook := h.onPrune
	h.mu.RUnlock()
	h.Leave(s)
	if hook != nil {
		hook(s)
	}
}

// Join adds the session to its conversation's group.
func (h *Hub) Join(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[s.ConversationID]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[s.ConversationID] = members
	}
	members[s] = struct{}{}
}

// Leave removes the session from its group and closes its queue. Idempotent
// and safe for sessions that never joined.
func (h *Hub) Leave(s *Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	if members, ok := h.rooms[s.ConversationID]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, s.ConversationID)
		}
	}
	h.mu.Unlock()
	s.Close()
}

// Broadcast queues event for every session in the conversation's group,
// the sender included. Delivery is fire-and-forget: a subscriber whose
// queue is saturated is treated as dead and pruned so it cannot stall the
// room.
func (h *Hub) Broadcast(conversationID string, event any) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[conversationID]))
	for s := range h.rooms[conversationID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		if !s.enqueue(event) {
			h.prune(s)
		}
	}
}

// Send queues event for a single session, pruning it when saturated.
func (h *Hub) Send(s *Session, event any) {
	if !s.enqueue(event) {
		h.prune(s)
	}
}

// ActiveCount reports the number of joined sessions across all rooms.
func (h *Hub) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, members := range h.rooms {
		count += len(members)
	}
	return count
}

// RoomSize reports the number of sessions joined to one conversation.
func (h *Hub) RoomSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}
