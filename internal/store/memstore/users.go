package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/petermazzocco/recipe-api/internal/users"
	"github.com/petermazzocco/recipe-api/models"
)

// UserRepo implements users.Repository.
type UserRepo struct {
	mu     sync.RWMutex
	lastID uint
	users  map[uint]models.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uint]models.User)}
}

func (m *UserRepo) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, 0) {
		return users.ErrEmailTaken
	}
	m.lastID++
	now := time.Now()
	u.ID = m.lastID
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = *u
	return nil
}

func (m *UserRepo) Get(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (m *UserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (m *UserRepo) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return users.ErrNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return users.ErrEmailTaken
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *UserRepo) emailTaken(email string, except uint) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}
