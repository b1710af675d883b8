package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase/mocks"
)

func TestUserCache_GetByIDCachesLookups(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()

	var repoHits atomic.Int64
	repo := mocks.NewMockUserRepository()
	repo.GetByIDFunc = func(ctx context.Context, id string) (*domain.User, error) {
		repoHits.Add(1)
		if id != "user-1" {
			return nil, domain.ErrUserNotFound
		}
		return &domain.User{ID: "user-1", Email: "alice@example.com", Name: "Alice", CreatedAt: time.Now().UTC()}, nil
	}

	cached := NewUserCache(repo, NewCache(client))

	for range 3 {
		user, err := cached.GetByID(ctx, "user-1")
		if err != nil {
			t.Fatalf("GetByID() unexpected error: %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("email = %s", user.Email)
		}
	}

	if hits := repoHits.Load(); hits != 1 {
		t.Errorf("repository hit %d times, want 1", hits)
	}
}

func TestUserCache_GetByIDMissPropagates(t *testing.T) {
	client := newTestRedisClient(t)
	cached := NewUserCache(mocks.NewMockUserRepository(), NewCache(client))

	if _, err := cached.GetByID(context.Background(), "ghost"); err != domain.ErrUserNotFound {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}
