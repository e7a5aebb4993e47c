package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

var (
	tutor5   = identity.Principal{Kind: identity.KindTutor, ID: 5}
	student3 = identity.Principal{Kind: identity.KindStudent, ID: 3}
)

func TestFindOrCreateNewPair(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(NewInMemoryStore())

	conv, created, err := d.FindOrCreate(ctx, tutor5, student3)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if !created {
		t.Fatalf("first contact should create the conversation")
	}
	if conv.ID == "" {
		t.Fatalf("conversation id should not be empty")
	}
}

func TestFindOrCreateIsOrderInsensitive(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(NewInMemoryStore())

	first, _, err := d.FindOrCreate(ctx, tutor5, student3)
	if err != nil {
		t.Fatalf("FindOrCreate(tutor, student) error = %v", err)
	}
	second, created, err := d.FindOrCreate(ctx, student3, tutor5)
	if err != nil {
		t.Fatalf("FindOrCreate(student, tutor) error = %v", err)
	}
	if created {
		t.Fatalf("reversed pair should find the existing conversation")
	}
	if second.ID != first.ID {
		t.Fatalf("conversation id = %q, want %q", second.ID, first.ID)
	}
}

func TestFindOrCreateRejectsSelfPair(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(NewInMemoryStore())

	if _, _, err := d.FindOrCreate(ctx, tutor5, tutor5); !errors.Is(err, ErrSamePrincipal) {
		t.Fatalf("FindOrCreate(p, p) error = %v, want ErrSamePrincipal", err)
	}
}

func TestFindOrCreateDistinguishesKinds(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(NewInMemoryStore())

	// Same numeric id, different kinds: a legal pair, not a self-chat.
	a := identity.Principal{Kind: identity.KindTutor, ID: 9}
	b := identity.Principal{Kind: identity.KindStudent, ID: 9}
	if _, _, err := d.FindOrCreate(ctx, a, b); err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
}

func TestFindOrCreateConcurrentSinglePair(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	d := NewDirectory(store)

	const callers = 16
	var wg sync.WaitGroup
	ids := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := student3, tutor5
			if i%2 == 0 {
				a, b = b, a
			}
			conv, _, err := d.FindOrCreate(ctx, a, b)
			if err != nil {
				t.Errorf("FindOrCreate() error = %v", err)
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got conversation %q, caller 0 got %q", i, ids[i], ids[0])
		}
	}
	if len(store.conversations) != 1 {
		t.Fatalf("stored conversations = %d, want 1", len(store.conversations))
	}
}

func TestFindOrCreateAdoptsStoreLevelWinner(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	d := NewDirectory(store)

	// Simulate another process having inserted the pair already.
	winner := Conversation{ID: "winner"}
	key := PairKey(tutor5, student3)
	if err := store.CreateConversation(ctx, winner, key, [2]identity.Principal{tutor5, student3}); err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	conv, created, err := d.FindOrCreate(ctx, tutor5, student3)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if created {
		t.Fatalf("pair already existed, created should be false")
	}
	if conv.ID != "winner" {
		t.Fatalf("conversation id = %q, want %q", conv.ID, "winner")
	}
}

func TestPairKeyNormalizes(t *testing.T) {
	if PairKey(tutor5, student3) != PairKey(student3, tutor5) {
		t.Fatalf("PairKey should be order-insensitive")
	}
	if PairKey(tutor5, student3) == PairKey(tutor5, identity.Principal{Kind: identity.KindStudent, ID: 4}) {
		t.Fatalf("PairKey should distinguish different pairs")
	}
}
