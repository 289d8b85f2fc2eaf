// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/hafiz/internal/platform/constants"
)

// RedisRevocationStore implements [RevocationStore] with one expiring key per
// revoked credential.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore creates a Redis-backed revocation set.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

/*
Revoke stores the credential id until its expiry.

Parameters:
  - context: context.Context
  - id: string (credential jti)
  - until: time.Time (credential expiry)

Returns:
  - error: Execution errors
*/
func (store *RedisRevocationStore) Revoke(context context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if err := store.client.Set(context, revocationKey(id), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_revoke_failed: %w", err)
	}
	return nil
}

// IsRevoked implements [RevocationStore].
func (store *RedisRevocationStore) IsRevoked(context context.Context, id string) (bool, error) {
	count, err := store.client.Exists(context, revocationKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_session_is_revoked_failed: %w", err)
	}
	return count > 0, nil
}

func revocationKey(id string) string {
	return constants.RedisPrefixRevokedSession + id
}
