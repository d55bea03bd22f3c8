// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/apperr"
)

type mapCache struct {
	tags map[string]string
	err  error
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.err != nil {
		return "", false, c.err
	}
	tag, ok := c.tags[key]
	return tag, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, tag string) error {
	if c.err != nil {
		return c.err
	}
	c.tags[key] = tag
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.tags, key)
	}
	return c.err
}

/*
TestMediator_Precondition covers If-Match semantics.
*/
func TestMediator_Precondition(t *testing.T) {
	mediator := lifecycle.NewMediator(nil)

	tests := []struct {
		name     string
		expected string
		current  string
		ok       bool
	}{
		{"absent", "", "abc", true},
		{"wildcard", "*", "abc", true},
		{"exact", "abc", "abc", true},
		{"quoted", `"abc"`, "abc", true},
		{"weak", `W/"abc"`, "abc", true},
		{"list", `"zzz", "abc"`, "abc", true},
		{"stale", `"old"`, "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mediator.Precondition(tt.expected, tt.current)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.HasCode(err, apperr.CodePreconditionFailed))
			assert.Equal(t, lifecycle.KindPreconditionFailed, lifecycle.KindOf(err))
		})
	}
}

/*
TestMediator_Fresh verifies the cache-validation fast path.
*/
func TestMediator_Fresh(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{tags: map[string]string{}}
	mediator := lifecycle.NewMediator(cache)

	_, fresh := mediator.Fresh(ctx, "role:7", `"t1"`)
	assert.False(t, fresh)

	mediator.Remember(ctx, "role:7", "t1")
	tag, fresh := mediator.Fresh(ctx, "role:7", `"t1"`)
	assert.True(t, fresh)
	assert.Equal(t, "t1", tag)

	_, fresh = mediator.Fresh(ctx, "role:7", `"t0"`)
	assert.False(t, fresh)
	_, fresh = mediator.Fresh(ctx, "role:7", "")
	assert.False(t, fresh)

	mediator.Forget(ctx, "role:7")
	_, fresh = mediator.Fresh(ctx, "role:7", `"t1"`)
	assert.False(t, fresh)
}

/*
TestMediator_Validate verifies a loaded tag is cached and matched.
*/
func TestMediator_Validate(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{tags: map[string]string{}}
	mediator := lifecycle.NewMediator(cache)

	assert.NoError(t, mediator.Validate(ctx, "content_type:3", "", "t9"))
	assert.Equal(t, "t9", cache.tags["content_type:3"])

	err := mediator.Validate(ctx, "content_type:3", `W/"t9"`, "t9")
	require.Error(t, err)
	assert.ErrorIs(t, err, lifecycle.ErrNotModified)

	var notModified *lifecycle.NotModified
	require.ErrorAs(t, err, &notModified)
	assert.Equal(t, "t9", notModified.Tag)
	assert.Equal(t, lifecycle.KindNotModified, lifecycle.KindOf(err))
}

/*
TestMediator_CacheFailureIsNotFatal verifies cache errors degrade to a Store read.
*/
func TestMediator_CacheFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mediator := lifecycle.NewMediator(&mapCache{tags: map[string]string{}, err: errors.New("redis down")})

	mediator.Remember(ctx, "k", "t")
	mediator.Forget(ctx, "k")
	_, fresh := mediator.Fresh(ctx, "k", "t")
	assert.False(t, fresh)

	// A nil cache behaves the same way.
	_, fresh = lifecycle.NewMediator(nil).Fresh(ctx, "k", "t")
	assert.False(t, fresh)
}

/*
TestNewTag verifies tags are unique per mutation.
*/
func TestNewTag(t *testing.T) {
	first, second := lifecycle.NewTag(), lifecycle.NewTag()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

/*
TestKindOf covers the outcome taxonomy.
*/
func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind lifecycle.Kind
	}{
		{nil, lifecycle.KindOK},
		{lifecycle.ErrNotModified, lifecycle.KindNotModified},
		{fmt.Errorf("wrapped: %w", lifecycle.ErrNotModified), lifecycle.KindNotModified},
		{apperr.Denied("x"), lifecycle.KindDenied},
		{apperr.NotFound("Role"), lifecycle.KindNotFound},
		{apperr.Conflict("x"), lifecycle.KindConflict},
		{apperr.PreconditionFailed("x"), lifecycle.KindPreconditionFailed},
		{apperr.ValidationError("x"), lifecycle.KindValidationFailed},
		{apperr.NotAcceptable("x"), lifecycle.KindValidationFailed},
		{apperr.Internal(errors.New("x")), lifecycle.KindStoreFailure},
		{errors.New("raw"), lifecycle.KindStoreFailure},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, lifecycle.KindOf(tt.err))
	}
}
