package db

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/smarttracker/backend/internal/model"
)

// Memory is an in-process user store with the same behavior as Postgres,
// including case-insensitive uniqueness on insert. It backs local
// development when no database is configured, and the test suites.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*model.User
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, users: make(map[int64]*model.User)}
}

func (m *Memory) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ExistsByUsernameCI(ctx context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ExistsByEmailCI(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Save(ctx context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, user.Username) {
			return nil, ErrDuplicateUsername
		}
		if strings.EqualFold(u.Email, user.Email) {
			return nil, ErrDuplicateEmail
		}
	}

	saved := *user
	saved.ID = m.nextID
	saved.CreatedAt = time.Now().UTC()
	m.nextID++
	m.users[saved.ID] = &saved

	clone := saved
	return &clone, nil
}

func (m *Memory) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	return nil
}
