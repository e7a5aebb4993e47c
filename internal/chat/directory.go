package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

// ErrSamePrincipal rejects a conversation between a principal and itself.
var ErrSamePrincipal = errors.New("conversation requires two distinct principals")

// Directory finds or creates the single conversation owned by an unordered
// principal pair.
//
// The creation race is closed at two levels: a per-pair mutex serializes
// callers inside this process, and the store's pair uniqueness constraint
// (unique index in Postgres, map key in memory) rejects duplicates from
// other processes. A loser of the store-level race re-reads and returns
// the winner's conversation, so callers never see the conflict.
type Directory struct {
	store Store

	mu        sync.Mutex
	pairLocks map[string]*sync.Mutex
}

func NewDirectory(store Store) *Directory {
	return &Directory{
		store:     store,
		pairLocks: make(map[string]*sync.Mutex),
	}
}

// FindOrCreate returns the conversation for the pair {a, b}, creating it on
// first contact. The second return value reports whether this call created
// it.
func (d *Directory) FindOrCreate(ctx context.Context, a, b identity.Principal) (Conversation, bool, error) {
	if a == b {
		return Conversation{}, false, ErrSamePrincipal
	}

	key := PairKey(a, b)
	lock := d.pairLock(key)
	lock.Lock()
	defer lock.Unlock()

	conv, err := d.store.FindByPair(ctx, key)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return Conversation{}, false, fmt.Errorf("find conversation for pair: %w", err)
	}

	conv = Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	err = d.store.CreateConversation(ctx, conv, key, [2]identity.Principal{a, b})
	if errors.Is(err, ErrPairExists) {
		// Another process won the insert; adopt its conversation.
		conv, err = d.store.FindByPair(ctx, key)
		if err != nil {
			return Conversation{}, false, fmt.Errorf("refetch conversation after create conflict: %w", err)
		}
		return conv, false, nil
	}
	if err != nil {
		return Conversation{}, false, fmt.Errorf("create conversation: %w", err)
	}
	return conv, true, nil
}

func (d *Directory) pairLock(key string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.pairLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		d.pairLocks[key] = lock
	}
	return lock
}
