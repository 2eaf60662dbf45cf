// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/quill/internal/platform/constants"
)

// RedisSessionStore keeps each identity's refresh tokens in a Redis set.
//
// A set holds each token once. Tokens carry a unique jti, so no two live
// tokens are ever equal and set semantics match list semantics in practice.
// The key expires one refresh lifetime after the most recent Append.
type RedisSessionStore struct {
	client redis.UniversalClient
	users  UserLookup
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed [SessionStore]. users is
// consulted on Append so tokens are never recorded for unknown identities.
func NewRedisSessionStore(client redis.UniversalClient, users UserLookup, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, users: users, ttl: ttl}
}

func sessionKey(userID string) string {
	return constants.RedisPrefixSession + userID
}

/*
Append adds token to the identity's set and extends the key lifetime.

Parameters:
  - context: context.Context
  - userID: string
  - token: string

Returns:
  - error: ErrIdentityNotFound or connectivity errors
*/
func (store *RedisSessionStore) Append(context context.Context, userID, token string) error {
	if _, err := store.users.FindByID(context, userID); err != nil {
		return err
	}

	key := sessionKey(userID)
	_, err := store.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.SAdd(context, key, token)
		pipe.Expire(context, key, store.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_append_failed: %w", err)
	}

	return nil
}

// Remove drops token from the identity's set.
func (store *RedisSessionStore) Remove(context context.Context, userID, token string) (bool, error) {
	removed, err := store.client.SRem(context, sessionKey(userID), token).Result()
	if err != nil {
		return false, fmt.Errorf("redis_session_remove_failed: %w", err)
	}
	return removed > 0, nil
}

// Contains reports whether token is in the identity's set.
func (store *RedisSessionStore) Contains(context context.Context, userID, token string) (bool, error) {
	found, err := store.client.SIsMember(context, sessionKey(userID), token).Result()
	if err != nil {
		return false, fmt.Errorf("redis_session_contains_failed: %w", err)
	}
	return found, nil
}

// RemoveAll deletes the identity's set.
func (store *RedisSessionStore) RemoveAll(context context.Context, userID string) error {
	if err := store.client.Del(context, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis_session_remove_all_failed: %w", err)
	}
	return nil
}
