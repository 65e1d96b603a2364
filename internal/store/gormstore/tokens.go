package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/petermazzocco/recipe-api/internal/auth"
	"github.com/petermazzocco/recipe-api/models"
)

// TokenStore implements auth.TokenStore with the auth_tokens table.
type TokenStore struct{ db *gorm.DB }

func NewTokenStore(db *gorm.DB) *TokenStore { return &TokenStore{db: db} }

func (s *TokenStore) Issue(ctx context.Context, userID uint) (string, error) {
	var tok models.AuthToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&tok).Error
	if err == nil {
		return tok.Key, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("get token: %w", err)
	}

	key, err := auth.NewKey()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	tok = models.AuthToken{Key: key, UserID: userID}
	err = s.db.WithContext(ctx).Create(&tok).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another login for the same user won the race
		if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&tok).Error; err != nil {
			return "", fmt.Errorf("get token: %w", err)
		}
		return tok.Key, nil
	}
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}
	return tok.Key, nil
}

func (s *TokenStore) Lookup(ctx context.Context, key string) (uint, error) {
	if key == "" {
		return 0, auth.ErrInvalidToken
	}
	var tok models.AuthToken
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, auth.ErrInvalidToken
	}
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	return tok.UserID, nil
}

func (s *TokenStore) Revoke(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
