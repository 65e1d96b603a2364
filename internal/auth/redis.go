package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps tokens in redis under two keys per user:
// "token:<key>" holds the user id and "user-token:<id>" holds the key.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(key string) string { return "token:" + key }

func userKey(userID uint) string { return "user-token:" + strconv.FormatUint(uint64(userID), 10) }

// errTokenRevoked means the token that won a concurrent Issue was revoked
// before it could be read back.
var errTokenRevoked = errors.New("token revoked while issuing")

const issueAttempts = 3

func (s *RedisTokenStore) Issue(ctx context.Context, userID uint) (string, error) {
	var err error
	for i := 0; i < issueAttempts; i++ {
		var key string
		key, err = s.issue(ctx, userID)
		if !errors.Is(err, errTokenRevoked) {
			return key, err
		}
	}
	return "", fmt.Errorf("issue token: %w", err)
}

func (s *RedisTokenStore) issue(ctx context.Context, userID uint) (string, error) {
	existing, err := s.client.Get(ctx, userKey(userID)).Result()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read user token: %w", err)
	}

	key, err := NewKey()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	id := strconv.FormatUint(uint64(userID), 10)
	if err := s.client.Set(ctx, tokenKey(key), id, 0).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	// SETNX on the user key keeps concurrent logins on one token.
	ok, err := s.client.SetNX(ctx, userKey(userID), key, 0).Result()
	if err != nil {
		return "", fmt.Errorf("store user token: %w", err)
	}
	if ok {
		return key, nil
	}

	if err := s.client.Del(ctx, tokenKey(key)).Err(); err != nil {
		return "", fmt.Errorf("discard token: %w", err)
	}
	winner, err := s.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errTokenRevoked
	}
	if err != nil {
		return "", fmt.Errorf("read user token: %w", err)
	}
	return winner, nil
}

func (s *RedisTokenStore) Lookup(ctx context.Context, key string) (uint, error) {
	if key == "" {
		return 0, ErrInvalidToken
	}
	v, err := s.client.Get(ctx, tokenKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, userID uint) error {
	key, err := s.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read user token: %w", err)
	}
	return s.client.Del(ctx, userKey(userID), tokenKey(key)).Err()
}
