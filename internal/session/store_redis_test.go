// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRevocationKey(t *testing.T) {
	assert.Equal(t, "auth:revoked_session:abc", revocationKey("abc"))
}

/*
TestRedisRevocationStore_ExpiredIsNoop verifies that an already-expired credential is not stored.
*/
func TestRedisRevocationStore_ExpiredIsNoop(t *testing.T) {
	store := NewRedisRevocationStore(unreachableClient(t))
	assert.NoError(t, store.Revoke(context.Background(), "jti", time.Now().Add(-time.Minute)))
}

/*
TestRedisRevocationStore_SurfacesErrors verifies that connectivity failures are reported, so
that resolution can fail closed.
*/
func TestRedisRevocationStore_SurfacesErrors(t *testing.T) {
	store := NewRedisRevocationStore(unreachableClient(t))

	_, err := store.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)

	assert.Error(t, store.Revoke(context.Background(), "jti", time.Now().Add(time.Hour)))
}
