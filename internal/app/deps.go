package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidfriends/client/internal/auth"
	"github.com/vidfriends/client/internal/config"
	"github.com/vidfriends/client/internal/db"
	"github.com/vidfriends/client/internal/handlers"
	"github.com/vidfriends/client/internal/metrics"
	"github.com/vidfriends/client/internal/middleware"
	"github.com/vidfriends/client/internal/models"
	"github.com/vidfriends/client/internal/repositories"
	"github.com/vidfriends/client/internal/session"
)

// buildTokenStore opens the configured token store. The returned cleanup
// releases any connection the store holds and is never nil.
func buildTokenStore(ctx context.Context, cfg config.Config) (session.TokenStore, func(), error) {
	noop := func() {}

	switch cfg.TokenStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), noop, nil

	case config.StoreFile:
		store, err := session.NewFileStore(cfg.TokenDir, cfg.TokenSlot)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.StoreSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		store, err := repositories.NewSQLiteTokenStore(ctx, conn, cfg.TokenSlot)
		if err != nil {
			_ = conn.Close()
			return nil, noop, err
		}
		return store, func() { _ = conn.Close() }, nil

	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return repositories.NewPostgresTokenStore(pool, cfg.TokenSlot), pool.Close, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		store := repositories.NewRedisTokenStore(client, cfg.Redis.Prefix, cfg.TokenSlot)
		return store, func() { _ = client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// buildMockDependencies wires the in-memory implementations behind the mock API.
func buildMockDependencies(ctx context.Context, cfg config.MockServerConfig, logger *slog.Logger, reg *prometheus.Registry) (handlers.Dependencies, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return handlers.Dependencies{}, fmt.Errorf("generate signing secret: %w", err)
		}
		logger.Warn("JWT_SECRET_KEY not set, tokens will not survive a restart")
	}

	users := repositories.NewMemoryUserRepository()
	if cfg.DemoEmail != "" {
		if err := seedDemoUser(ctx, users, cfg.DemoEmail, cfg.DemoPassword); err != nil {
			return handlers.Dependencies{}, err
		}
		logger.Info("seeded demo account", "email", cfg.DemoEmail)
	}

	catalog := repositories.NewMemoryVideoCatalog(repositories.DefaultCatalog())
	for _, entry := range cfg.Catalog {
		err := catalog.Add(ctx, models.CatalogVideo{
			ID:           entry.ID,
			Title:        entry.Title,
			Description:  entry.Description,
			ThumbnailURL: entry.ThumbnailURL,
			ProviderID:   entry.ProviderID,
			Active:       !entry.Inactive,
		})
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("add catalog video %s: %w", entry.ID, err)
		}
	}

	return handlers.Dependencies{
		Users:             users,
		Tokens:            auth.NewManager(secret, cfg.TokenTTL),
		Videos:            catalog,
		Logger:            logger,
		Metrics:           metrics.NewServer(reg),
		Gatherer:          reg,
		LoginLimiter:      middleware.NewIPRateLimiter(cfg.LoginPerMinute, time.Minute, cfg.LoginBurst, 10*time.Minute),
		DashboardLimit:    cfg.DashboardLimit,
		EmbedBaseURL:      cfg.EmbedBaseURL,
		AllowedOrigins:    cfg.AllowedOrigins,
		SignupIssuesToken: cfg.SignupIssuesToken,
	}, nil
}

func seedDemoUser(ctx context.Context, users *repositories.MemoryUserRepository, email, password string) error {
	if password == "" {
		return fmt.Errorf("demo account %s needs a password", email)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	now := time.Now().UTC()
	return users.Create(ctx, models.User{
		ID:        uuid.NewString(),
		Name:      "Demo",
		Email:     email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	})
}
