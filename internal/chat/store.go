package chat

import (
	"context"
	"errors"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

var (
	// ErrConversationNotFound covers unknown and deleted conversation ids.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrPairExists reports that the normalized participant pair already
	// owns a conversation; CreateConversation must fail with it instead of
	// inserting a duplicate.
	ErrPairExists = errors.New("conversation already exists for pair")
)

// Store persists conversations, participants and the message log.
type Store interface {
	// GetConversation fetches a conversation by id.
	GetConversation(ctx context.Context, id string) (Conversation, error)
	// FindByPair locates the conversation owning the normalized pair key,
	// or ErrConversationNotFound.
	FindByPair(ctx context.Context, pairKey string) (Conversation, error)
	// CreateConversation inserts the conversation and both participants,
	// enforcing the pair uniqueness as one atomic step.
	CreateConversation(ctx context.Context, conv Conversation, pairKey string, participants [2]identity.Principal) error
	// IsParticipant reports membership of p in the conversation.
	IsParticipant(ctx context.Context, conversationID string, p identity.Principal) (bool, error)
	// AppendMessage persists one message and returns it with id and
	// timestamp assigned. Fails with ErrConversationNotFound when the
	// conversation is gone.
	AppendMessage(ctx context.Context, conversationID string, sender identity.Principal, senderName, content string) (Message, error)
	// ListMessages returns up to limit messages ascending by
	// (timestamp, id).
	ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	Close() error
}
