package ticket

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

// ErrNotFound covers both a token that was never issued and one that has
// already been consumed or expired; callers cannot tell them apart.
var ErrNotFound = errors.New("ticket not found")

// Claim is the principal a ticket was minted for.
type Claim struct {
	Kind identity.Kind `json:"kind"`
	ID   int64         `json:"id"`
}

// Store holds pending handshake tickets with per-token expiry. GetDel must
// be atomic: of two racing connections presenting the same token, at most
// one may receive the claim.
type Store interface {
	Set(ctx context.Context, token string, claim Claim, ttl time.Duration) error
	GetDel(ctx context.Context, token string) (Claim, error)
	Delete(ctx context.Context, token string) error
}

// Issuer mints single-use connection tickets bound to a principal.
type Issuer struct {
	store Store
	ttl   time.Duration
}

func NewIssuer(store Store, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Issuer{store: store, ttl: ttl}
}

// Issue generates a random token and binds it to p for the configured TTL.
func (i *Issuer) Issue(ctx context.Context, p identity.Principal) (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate ticket token: %w", err)
	}
	token := hex.EncodeToString(buf[:])

	claim := Claim{Kind: p.Kind, ID: p.ID}
	if err := i.store.Set(ctx, token, claim, i.ttl); err != nil {
		return "", fmt.Errorf("store ticket: %w", err)
	}
	return token, nil
}
