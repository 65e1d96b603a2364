package memstore

import (
	"context"
	"sync"

	"github.com/petermazzocco/recipe-api/internal/auth"
)

// TokenStore implements auth.TokenStore.
type TokenStore struct {
	mu     sync.Mutex
	byKey  map[string]uint
	byUser map[uint]string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{byKey: make(map[string]uint), byUser: make(map[uint]string)}
}

func (s *TokenStore) Issue(_ context.Context, userID uint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.byUser[userID]; ok {
		return key, nil
	}
	key, err := auth.NewKey()
	if err != nil {
		return "", err
	}
	s.byUser[userID] = key
	s.byKey[key] = userID
	return key, nil
}

func (s *TokenStore) Lookup(_ context.Context, key string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[key]
	if !ok {
		return 0, auth.ErrInvalidToken
	}
	return id, nil
}

func (s *TokenStore) Revoke(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.byUser[userID]; ok {
		delete(s.byKey, key)
		delete(s.byUser, userID)
	}
	return nil
}
