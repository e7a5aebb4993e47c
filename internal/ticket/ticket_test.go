package ticket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

func TestIssueAndConsumeOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	issuer := NewIssuer(store, time.Minute)

	p := identity.Principal{Kind: identity.KindTutor, ID: 7}
	token, err := issuer.Issue(ctx, p)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatalf("token should not be empty")
	}

	claim, err := store.GetDel(ctx, token)
	if err != nil {
		t.Fatalf("GetDel() error = %v", err)
	}
	if claim.Kind != identity.KindTutor || claim.ID != 7 {
		t.Fatalf("claim = %+v, want tutor 7", claim)
	}

	if _, err := store.GetDel(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second GetDel() error = %v, want ErrNotFound", err)
	}
}

func TestIssueDistinctTokens(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(NewMemoryStore(), time.Minute)
	p := identity.Principal{Kind: identity.KindStudent, ID: 3}

	a, err := issuer.Issue(ctx, p)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	b, err := issuer.Issue(ctx, p)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if a == b {
		t.Fatalf("two issued tokens should differ")
	}
}

func TestExpiredTicketIsInvisible(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	claim := Claim{Kind: identity.KindStudent, ID: 3}
	if err := store.Set(ctx, "tok", claim, 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := store.GetDel(ctx, "tok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetDel() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentConsumeSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Set(ctx, "tok", Claim{Kind: identity.KindTutor, ID: 1}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.GetDel(ctx, "tok"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("winners = %d, want exactly 1", count)
	}
}

func TestJanitorReapsExpired(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewMemoryStore()
	if err := store.Set(ctx, "old", Claim{Kind: identity.KindTutor, ID: 1}, 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "fresh", Claim{Kind: identity.KindTutor, ID: 2}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	store.StartJanitor(ctx, 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	if got := store.pendingCount(); got != 1 {
		t.Fatalf("pending tickets = %d, want 1", got)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete() of missing token error = %v", err)
	}
}
