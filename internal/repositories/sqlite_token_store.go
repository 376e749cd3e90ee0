package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteTokenStore keeps the token slot in a local SQLite key/value table.
type SQLiteTokenStore struct {
	db   *sql.DB
	slot string
	now  func() time.Time
}

// NewSQLiteTokenStore prepares the client_kv table and returns a store for slot.
func NewSQLiteTokenStore(ctx context.Context, db *sql.DB, slot string) (*SQLiteTokenStore, error) {
	if db == nil {
		return nil, errors.New("sqlite token store: database is required")
	}
	if _, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS client_kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )
    `); err != nil {
		return nil, fmt.Errorf("ensure client_kv table: %w", err)
	}
	return &SQLiteTokenStore{db: db, slot: slotOrDefault(slot), now: time.Now}, nil
}

// Save stores or replaces the token.
func (s *SQLiteTokenStore) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO client_kv (key, value, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (key)
        DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
    `, s.slot, token, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert client token: %w", err)
	}
	return nil
}

// Load returns the stored token, or an empty string when the slot is empty.
func (s *SQLiteTokenStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM client_kv WHERE key = ?`, s.slot).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select client token: %w", err)
	}
	return token, nil
}

// Clear removes the token. Clearing an empty slot is not an error.
func (s *SQLiteTokenStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM client_kv WHERE key = ?`, s.slot); err != nil {
		return fmt.Errorf("delete client token: %w", err)
	}
	return nil
}
