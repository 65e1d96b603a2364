package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTokenStore(client), mr
}

func TestRedisTokenStoreIssueReusesToken(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, 42)
	require.NoError(t, err)
	second, err := store.Issue(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, KeyLength)

	stored, err := mr.Get("token:" + first)
	require.NoError(t, err)
	assert.Equal(t, "42", stored)
}

func TestRedisTokenStoreLookup(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	key, err := store.Issue(ctx, 7)
	require.NoError(t, err)

	id, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	_, err = store.Lookup(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = store.Lookup(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedisTokenStoreRevoke(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	key, err := store.Issue(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, 3))

	_, err = store.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrInvalidToken)

	fresh, err := store.Issue(ctx, 3)
	require.NoError(t, err)
	assert.NotEqual(t, key, fresh)

	assert.NoError(t, store.Revoke(ctx, 99))
}

// beforeHook runs fn ahead of every command the client sends.
type beforeHook struct{ fn func(cmd redis.Cmder) }

func (h beforeHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h beforeHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.fn(cmd)
		return next(ctx, cmd)
	}
}

func (h beforeHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// concurrentLogin lets another login win the next `races` SETNX calls. With
// revoke set, the winner's token is revoked just before the loser reads it.
func concurrentLogin(mr *miniredis.Miniredis, races int, revoke bool) beforeHook {
	lost := false
	return beforeHook{fn: func(cmd redis.Cmder) {
		switch cmd.Name() {
		case "setnx":
			if races > 0 {
				races--
				mr.Set("user-token:42", "winner")
				lost = true
			}
		case "get":
			if lost {
				lost = false
				if revoke {
					mr.Del("user-token:42")
				}
			}
		}
	}}
}

func TestRedisTokenStoreIssueLosesRace(t *testing.T) {
	store, mr := newRedisStore(t)
	store.client.AddHook(concurrentLogin(mr, 1, false))

	key, err := store.Issue(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "winner", key)
	assert.Equal(t, []string{"user-token:42"}, mr.Keys())
}

func TestRedisTokenStoreIssueRetriesWhenWinnerRevoked(t *testing.T) {
	store, mr := newRedisStore(t)
	store.client.AddHook(concurrentLogin(mr, 1, true))
	ctx := context.Background()

	key, err := store.Issue(ctx, 42)

	require.NoError(t, err)
	assert.Len(t, key, KeyLength)
	id, err := store.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestRedisTokenStoreIssueGivesUpAfterRepeatedRevokes(t *testing.T) {
	store, mr := newRedisStore(t)
	store.client.AddHook(concurrentLogin(mr, issueAttempts, true))

	_, err := store.Issue(context.Background(), 42)

	assert.ErrorIs(t, err, errTokenRevoked)
	assert.NotErrorIs(t, err, redis.Nil)
}
