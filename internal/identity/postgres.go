package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresResolver reads tutor and student profiles from PostgreSQL.
type PostgresResolver struct {
	pool *pgxpool.Pool
}

func NewPostgresResolver(pool *pgxpool.Pool) *PostgresResolver {
	return &PostgresResolver{pool: pool}
}

func (r *PostgresResolver) Resolve(ctx context.Context, kind Kind, id int64) (Profile, error) {
	var query string
	switch kind {
	case KindTutor:
		query = `SELECT id, name FROM tutors WHERE id=$1`
	case KindStudent:
		query = `SELECT id, name FROM students WHERE id=$1`
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var p Profile
	p.Principal.Kind = kind
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.Principal.ID, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("resolve %s %d: %w", kind, id, err)
	}
	return p, nil
}

func (r *PostgresResolver) ResolveAccount(ctx context.Context, accountID int64) (Profile, error) {
	var p Profile

	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM tutors WHERE account_id=$1`, accountID,
	).Scan(&p.Principal.ID, &p.Name)
	if err == nil {
		p.Principal.Kind = KindTutor
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("resolve account %d tutor: %w", accountID, err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT id, name FROM students WHERE account_id=$1`, accountID,
	).Scan(&p.Principal.ID, &p.Name)
	if err == nil {
		p.Principal.Kind = KindStudent
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("resolve account %d student: %w", accountID, err)
	}

	return Profile{}, ErrNoProfile
}
