// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	stdctx "context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/cmsrest/internal/platform/constants"
)

// TagCache stores modification tags under a namespaced key with a TTL.
//
// It satisfies lifecycle.TagCache. Entries expire so that a missed
// invalidation can only serve a stale 304 for a bounded time.
type TagCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewTagCache builds a [TagCache] on top of client.
func NewTagCache(client redis.Cmdable, ttl time.Duration) *TagCache {
	return &TagCache{client: client, ttl: ttl}
}

// Get returns the cached tag for key. A missing key is not an error.
func (cache *TagCache) Get(context stdctx.Context, key string) (string, bool, error) {
	tag, err := cache.client.Get(context, constants.RedisPrefixTag+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tag, true, nil
}

// Set stores tag for key.
func (cache *TagCache) Set(context stdctx.Context, key, tag string) error {
	return cache.client.Set(context, constants.RedisPrefixTag+key, tag, cache.ttl).Err()
}

// Delete removes the given keys.
func (cache *TagCache) Delete(context stdctx.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for index, key := range keys {
		prefixed[index] = constants.RedisPrefixTag + key
	}
	return cache.client.Del(context, prefixed...).Err()
}
