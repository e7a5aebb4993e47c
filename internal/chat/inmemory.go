package chat

import (
	"context"
	"sync"
	"time"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

// InMemoryStore is the process-local store used by tests and DB-less runs.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	byPair        map[string]string
	participants  map[string]map[string]identity.Principal
	messages      map[string][]Message
	nextMessageID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]Conversation),
		byPair:        make(map[string]string),
		participants:  make(map[string]map[string]identity.Principal),
		messages:      make(map[string][]Message),
	}
}

func (s *InMemoryStore) GetConversation(_ context.Context, id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	return c, nil
}

func (s *InMemoryStore) FindByPair(_ context.Context, pairKey string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pairKey]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	return s.conversations[id], nil
}

func (s *InMemoryStore) CreateConversation(_ context.Context, conv Conversation, pairKey string, participants [2]identity.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPair[pairKey]; ok {
		return ErrPairExists
	}
	s.conversations[conv.ID] = conv
	s.byPair[pairKey] = conv.ID
	members := make(map[string]identity.Principal, 2)
	for _, p := range participants {
		members[p.Key()] = p
	}
	s.participants[conv.ID] = members
	return nil
}

func (s *InMemoryStore) IsParticipant(_ context.Context, conversationID string, p identity.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.participants[conversationID]
	if !ok {
		return false, nil
	}
	_, member := members[p.Key()]
	return member, nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, conversationID string, sender identity.Principal, senderName, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return Message{}, ErrConversationNotFound
	}
	s.nextMessageID++
	m := Message{
		ID:             s.nextMessageID,
		ConversationID: conversationID,
		Sender:         sender,
		SenderName:     senderName,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], m)
	return m, nil
}

func (s *InMemoryStore) ListMessages(_ context.Context, conversationID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	if limit <= 0 {
		limit = 50
	}
	if limit > len(msgs) {
		limit = len(msgs)
	}
	out := make([]Message, limit)
	copy(out, msgs[:limit])
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
