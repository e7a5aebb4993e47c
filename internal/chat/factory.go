package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

// NewStore creates a postgres-backed store and resolver when configured,
// otherwise in-memory equivalents for local/dev use. Both share one pool.
func NewStore(ctx context.Context, databaseURL string) (Store, identity.Resolver, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), identity.NewInMemoryResolver(), nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, identity.NewPostgresResolver(pool), nil
}
