package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

const userCacheTTL = 5 * time.Minute

// UserCache decorates a UserRepository with read-through caching of
// GetByID lookups. Auth middleware resolves the token subject on every
// request, so this is the hottest user query. Users are immutable after
// registration, which keeps the TTL safe.
type UserCache struct {
	repo  usecase.UserRepository
	cache usecase.Cache
}

// NewUserCache creates a caching wrapper around repo.
func NewUserCache(repo usecase.UserRepository, cache usecase.Cache) *UserCache {
	return &UserCache{repo: repo, cache: cache}
}

// Create delegates to the underlying repository.
func (c *UserCache) Create(ctx context.Context, user *domain.User) error {
	return c.repo.Create(ctx, user)
}

// GetByID returns the cached user if present, loading and caching on miss.
func (c *UserCache) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if data, err := c.cache.Get(ctx, "user:"+id); err == nil {
		var user domain.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
	}

	user, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(user); err == nil {
		// Cache failures are invisible to callers; the next lookup
		// just hits the repository again.
		_ = c.cache.Set(ctx, "user:"+id, data, userCacheTTL)
	}

	return user, nil
}

// GetByEmail delegates to the underlying repository. Login is rare
// compared to per-request subject resolution, so it is not cached.
func (c *UserCache) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return c.repo.GetByEmail(ctx, email)
}

var _ usecase.UserRepository = (*UserCache)(nil)
