package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/b2k4rys/TutorHub/internal/identity"
)

const pgUniqueViolation = "23505"

// PostgresStore persists conversations and messages in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tutors (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS students (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			grade INT NOT NULL DEFAULT 0,
			school_name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY,
			pair_key TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS participants (
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			principal_id BIGINT NOT NULL,
			PRIMARY KEY (conversation_id, kind, principal_id)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_id UUID NOT NULL REFERENCES conversations(id),
			sender_kind TEXT NOT NULL,
			sender_id BIGINT NOT NULL,
			sender_name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_order
			ON messages (conversation_id, created_at, id);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at FROM conversations WHERE id=$1`, id,
	).Scan(&c.ID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByPair(ctx context.Context, pairKey string) (Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at FROM conversations WHERE pair_key=$1`, pairKey,
	).Scan(&c.ID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("find conversation by pair: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv Conversation, pairKey string, participants [2]identity.Principal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create conversation: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO conversations (id, pair_key, created_at) VALUES ($1, $2, $3)`,
		conv.ID, pairKey, conv.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrPairExists
	}
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for _, p := range participants {
		_, err = tx.Exec(ctx,
			`INSERT INTO participants (conversation_id, kind, principal_id) VALUES ($1, $2, $3)`,
			conv.ID, string(p.Kind), p.ID,
		)
		if err != nil {
			return fmt.Errorf("insert participant %s: %w", p.Key(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrPairExists
		}
		return fmt.Errorf("commit create conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsParticipant(ctx context.Context, conversationID string, p identity.Principal) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM participants
			WHERE conversation_id=$1 AND kind=$2 AND principal_id=$3
		)`,
		conversationID, string(p.Kind), p.ID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, conversationID string, sender identity.Principal, senderName, content string) (Message, error) {
	m := Message{
		ConversationID: conversationID,
		Sender:         sender,
		SenderName:     senderName,
		Content:        content,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, sender_kind, sender_id, sender_name, content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		conversationID, string(sender.Kind), sender.ID, senderName, content,
	).Scan(&m.ID, &m.CreatedAt)
	if isForeignKeyViolation(err) {
		return Message{}, ErrConversationNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, sender_kind, sender_id, sender_name, content, created_at
		 FROM messages WHERE conversation_id=$1
		 ORDER BY created_at ASC, id ASC LIMIT $2`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		var kind string
		if err := rows.Scan(&m.ID, &m.ConversationID, &kind, &m.Sender.ID, &m.SenderName, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Sender.Kind = identity.Kind(kind)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return msgs, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
