package handlers

import (
	"context"

	"github.com/vidfriends/client/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TokenIssuer issues and verifies access tokens for users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// VideoCatalog lists and resolves the videos the API serves.
type VideoCatalog interface {
	Active(ctx context.Context, limit int) ([]models.CatalogVideo, error)
	Find(ctx context.Context, id string) (models.CatalogVideo, error)
}
