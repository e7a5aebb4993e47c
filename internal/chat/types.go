package chat

import (
	"sort"
	"strings"
	"time"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

// Conversation is a two-party messaging context. Immutable once created,
// except for the messages it owns.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant binds one principal to a conversation. Exactly two exist per
// conversation and a principal appears at most once.
type Participant struct {
	ConversationID string             `json:"conversation_id"`
	Principal      identity.Principal `json:"principal"`
}

// Message is one persisted chat line. Messages are totally ordered within
// a conversation by (CreatedAt, ID) ascending.
type Message struct {
	ID             int64              `json:"id"`
	ConversationID string             `json:"conversation_id"`
	Sender         identity.Principal `json:"sender"`
	SenderName     string             `json:"sender_name"`
	Content        string             `json:"content"`
	CreatedAt      time.Time          `json:"timestamp"`
}

// PairKey normalizes an unordered principal pair into the unique key the
// dedup constraint hangs off. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b identity.Principal) string {
	keys := []string{a.Key(), b.Key()}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}
