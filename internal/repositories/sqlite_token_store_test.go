package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vidfriends/client/internal/db"
)

func TestSQLiteTokenStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "client.db")

	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	store, err := NewSQLiteTokenStore(ctx, conn, "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	token, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty slot: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty slot, got %q", token)
	}

	if err := store.Save(ctx, "first"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	conn, err = db.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	store, err = NewSQLiteTokenStore(ctx, conn, "token")
	if err != nil {
		t.Fatalf("new store after reopen: %v", err)
	}

	token, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if token != "second" {
		t.Fatalf("expected latest token to survive restart, got %q", token)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}

	token, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if token != "" {
		t.Fatalf("expected cleared slot, got %q", token)
	}
}

func TestSQLiteTokenStoreRequiresDatabase(t *testing.T) {
	if _, err := NewSQLiteTokenStore(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error for nil database")
	}
}
