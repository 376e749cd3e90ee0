package repositories

import (
	"context"
	"strings"
	"sync"

	"github.com/vidfriends/client/internal/models"
)

// MemoryUserRepository keeps accounts for the simulated API in process memory.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

// NewMemoryUserRepository returns an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user. Emails are unique, compared case-insensitively.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	key := emailKey(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[key]; exists {
		return ErrConflict
	}
	if _, exists := r.byID[user.ID]; exists {
		return ErrConflict
	}
	r.byID[user.ID] = user
	r.byEmail[key] = user.ID
	return nil
}

// FindByEmail looks a user up by email address.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

// FindByID looks a user up by identifier.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultCatalog is the catalog the simulated API starts with.
func DefaultCatalog() []models.CatalogVideo {
	return []models.CatalogVideo{
		{
			ID:           "v1",
			Title:        "Intro",
			Description:  "Getting started with VidFriends",
			ThumbnailURL: "https://provider.example/thumb/xyz.jpg",
			ProviderID:   "xyz",
			Active:       true,
		},
		{
			ID:           "v2",
			Title:        "Flask Complete Tutorial",
			Description:  "Learn Flask for Python - Full Tutorial",
			ThumbnailURL: "https://provider.example/thumb/Z1RJmh_OqeA.jpg",
			ProviderID:   "Z1RJmh_OqeA",
			Active:       true,
		},
		{
			ID:           "v3",
			Title:        "Retired Episode",
			Description:  "No longer listed",
			ThumbnailURL: "https://provider.example/thumb/old.jpg",
			ProviderID:   "old",
			Active:       false,
		},
	}
}

// MemoryVideoCatalog is an ordered, read-mostly video catalog.
type MemoryVideoCatalog struct {
	mu     sync.RWMutex
	videos []models.CatalogVideo
}

// NewMemoryVideoCatalog copies videos into a new catalog, keeping their order.
func NewMemoryVideoCatalog(videos []models.CatalogVideo) *MemoryVideoCatalog {
	return &MemoryVideoCatalog{videos: append([]models.CatalogVideo(nil), videos...)}
}

// Add appends a video to the end of the catalog.
func (c *MemoryVideoCatalog) Add(_ context.Context, video models.CatalogVideo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.videos {
		if existing.ID == video.ID {
			return ErrConflict
		}
	}
	c.videos = append(c.videos, video)
	return nil
}

// Active lists active videos in catalog order. A limit of zero or less
// returns all of them.
func (c *MemoryVideoCatalog) Active(_ context.Context, limit int) ([]models.CatalogVideo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.CatalogVideo, 0, len(c.videos))
	for _, v := range c.videos {
		if !v.Active {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Find returns the active video with the given id.
func (c *MemoryVideoCatalog) Find(_ context.Context, id string) (models.CatalogVideo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, v := range c.videos {
		if v.ID == id && v.Active {
			return v, nil
		}
	}
	return models.CatalogVideo{}, ErrNotFound
}
