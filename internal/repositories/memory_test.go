package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vidfriends/client/internal/models"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user := models.User{ID: "user-1", Email: "Alice@Example.com", Name: "Alice"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Create(ctx, models.User{ID: "user-2", Email: "alice@example.com"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	found, err := repo.FindByEmail(ctx, " alice@example.com ")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != "user-1" {
		t.Fatalf("unexpected user %+v", found)
	}

	if _, err := repo.FindByID(ctx, "user-1"); err != nil {
		t.Fatalf("find by id: %v", err)
	}

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestMemoryVideoCatalogActive(t *testing.T) {
	ctx := context.Background()
	catalog := NewMemoryVideoCatalog(DefaultCatalog())

	all, err := catalog.Active(ctx, 0)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	var ids []string
	for _, v := range all {
		ids = append(ids, v.ID)
	}
	if diff := cmp.Diff([]string{"v1", "v2"}, ids); diff != "" {
		t.Fatalf("active ids mismatch (-want +got):\n%s", diff)
	}

	limited, err := catalog.Active(ctx, 1)
	if err != nil {
		t.Fatalf("active limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "v1" {
		t.Fatalf("expected only v1, got %+v", limited)
	}
}

func TestMemoryVideoCatalogFind(t *testing.T) {
	ctx := context.Background()
	catalog := NewMemoryVideoCatalog(DefaultCatalog())

	video, err := catalog.Find(ctx, "v1")
	if err != nil {
		t.Fatalf("find v1: %v", err)
	}
	if video.ProviderID != "xyz" {
		t.Fatalf("unexpected provider id %q", video.ProviderID)
	}

	if _, err := catalog.Find(ctx, "v3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected inactive video to be hidden, got %v", err)
	}
	if _, err := catalog.Find(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := catalog.Add(ctx, models.CatalogVideo{ID: "v1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate id, got %v", err)
	}
}
