package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

// UserStore holds users in memory. Implements usecase.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*domain.User)}
}

// Create inserts a new user. Emails are unique, case-insensitively.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}

	copied := *user
	s.users[user.ID] = &copied

	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	copied := *user

	return &copied, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}

	return nil, domain.ErrUserNotFound
}

var _ usecase.UserRepository = (*UserStore)(nil)
