package room

import (
	"testing"
	"time"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

func newTestSession(convID string, buffer int) *Session {
	return NewSession(identity.Principal{Kind: identity.KindTutor, ID: 7}, "Alice", convID, buffer)
}

func TestBroadcastReachesAllMembersIncludingSender(t *testing.T) {
	h := NewHub()
	sender := newTestSession("conv-1", 8)
	peer := NewSession(identity.Principal{Kind: identity.KindStudent, ID: 3}, "Bob", "conv-1", 8)
	h.Join(sender)
	h.Join(peer)

	h.Broadcast("conv-1", "hello")

	for _, s := range []*Session{sender, peer} {
		select {
		case got := <-s.Events():
			if got != "hello" {
				t.Fatalf("event = %v, want %q", got, "hello")
			}
		case <-time.After(time.Second):
			t.Fatalf("session %s never received the broadcast", s.ID)
		}
	}
}

func TestBroadcastScopedToConversation(t *testing.T) {
	h := NewHub()
	inRoom := newTestSession("conv-1", 8)
	elsewhere := newTestSession("conv-2", 8)
	h.Join(inRoom)
	h.Join(elsewhere)

	h.Broadcast("conv-1", "hello")

	select {
	case <-elsewhere.Events():
		t.Fatalf("session in another conversation received the event")
	default:
	}
}

func TestLeaveIsIdempotentAndSafeForNeverJoined(t *testing.T) {
	h := NewHub()
	s := newTestSession("conv-1", 8)

	// Never joined: a rejected handshake tears down the same way.
	h.Leave(s)
	h.Leave(s)
	h.Leave(nil)

	if h.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", h.ActiveCount())
	}
}

func TestLeaveClosesEventQueue(t *testing.T) {
	h := NewHub()
	s := newTestSession("conv-1", 8)
	h.Join(s)
	h.Leave(s)

	if _, open := <-s.Events(); open {
		t.Fatalf("events channel should be closed after Leave")
	}
}

func TestBroadcastPrunesSaturatedSubscriber(t *testing.T) {
	h := NewHub()
	pruned := make(chan *Session, 1)
	h.SetPruneHook(func(s *Session) { pruned <- s })

	slow := newTestSession("conv-1", 1)
	fast := NewSession(identity.Principal{Kind: identity.KindStudent, ID: 3}, "Bob", "conv-1", 8)
	h.Join(slow)
	h.Join(fast)

	// Nobody drains slow's queue; the second event overflows it.
	h.Broadcast("conv-1", "one")
	h.Broadcast("conv-1", "two")

	select {
	case s := <-pruned:
		if s != slow {
			t.Fatalf("pruned wrong session")
		}
	case <-time.After(time.Second):
		t.Fatalf("saturated subscriber was never pruned")
	}

	if h.RoomSize("conv-1") != 1 {
		t.Fatalf("RoomSize = %d, want 1 after pruning", h.RoomSize("conv-1"))
	}

	// The fast peer still got both events; the sender was never stalled.
	for _, want := range []string{"one", "two"} {
		select {
		case got := <-fast.Events():
			if got != want {
				t.Fatalf("event = %v, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("fast peer missed event %q", want)
		}
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := newTestSession("conv-1", 8)
	s.Close()
	s.Close()

	if s.enqueue("late") {
		t.Fatalf("enqueue on closed session should report false")
	}
}

func TestActiveCountAcrossRooms(t *testing.T) {
	h := NewHub()
	h.Join(newTestSession("conv-1", 8))
	h.Join(newTestSession("conv-2", 8))
	h.Join(newTestSession("conv-2", 8))

	if got := h.ActiveCount(); got != 3 {
		t.Fatalf("ActiveCount() = %d, want 3", got)
	}
}
