package identity

import (
	"context"
	"errors"
	"fmt"
)

// Kind distinguishes the two profile variants that can take part in a chat.
type Kind string

const (
	KindTutor   Kind = "tutor"
	KindStudent Kind = "student"
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrNoProfile   = errors.New("account has no tutor or student profile")
	ErrUnknownKind = errors.New("unknown principal kind")
)

// ParseKind validates a kind taken from a URL segment or a stored claim.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTutor:
		return KindTutor, nil
	case KindStudent:
		return KindStudent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Principal identifies one chat participant. Two principals are equal iff
// both fields match; the zero value is never a valid principal.
type Principal struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

// Key renders a stable "kind:id" form used for map keys and for the
// normalized conversation pair key.
func (p Principal) Key() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}

// Profile is a resolved principal together with the display data the chat
// surface needs.
type Profile struct {
	Principal Principal
	Name      string
}

// Resolver maps identities to profiles. Implementations are read-only.
type Resolver interface {
	// Resolve looks up the profile for an explicit (kind, id) pair.
	Resolve(ctx context.Context, kind Kind, id int64) (Profile, error)
	// ResolveAccount finds the profile owned by an authenticated account,
	// trying the tutor store first and the student store second. Returns
	// ErrNoProfile when the account owns neither.
	ResolveAccount(ctx context.Context, accountID int64) (Profile, error)
}
