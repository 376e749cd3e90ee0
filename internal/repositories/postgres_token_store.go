package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidfriends/client/internal/db"
)

// PostgresTokenStore persists the client token slot to PostgreSQL, for
// deployments where several client processes share one session.
type PostgresTokenStore struct {
	pool db.Pool
	slot string
	now  func() time.Time
}

// NewPostgresTokenStore constructs a token store backed by the client_tokens table.
func NewPostgresTokenStore(pool db.Pool, slot string) *PostgresTokenStore {
	return &PostgresTokenStore{pool: pool, slot: slotOrDefault(slot), now: time.Now}
}

// Save stores or replaces the token.
func (s *PostgresTokenStore) Save(ctx context.Context, token string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO client_tokens (slot, token, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (slot)
        DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at
    `, s.slot, token, s.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert client token: %w", err)
	}

	return nil
}

// Load returns the stored token, or an empty string when the slot is empty.
func (s *PostgresTokenStore) Load(ctx context.Context) (string, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT token
        FROM client_tokens
        WHERE slot = $1
    `, s.slot)

	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("select client token: %w", err)
	}

	return token, nil
}

// Clear removes the token. Clearing an empty slot is not an error.
func (s *PostgresTokenStore) Clear(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM client_tokens
        WHERE slot = $1
    `, s.slot); err != nil {
		return fmt.Errorf("delete client token: %w", err)
	}

	return nil
}
