// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package lifecycle

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/ctxutil"
	"github.com/taibuivan/cmsrest/pkg/uuid"
)

// MessageStaleTag is returned when the caller's expected tag is out of date.
const MessageStaleTag = "the resource was modified since it was loaded"

// NewTag generates a fresh modification tag.
func NewTag() string {
	return uuid.New()
}

// # Tag Cache

// TagCache remembers the last known modification tag per entity key.
//
// It is a best-effort accelerator for cache-validation reads; the Store stays
// the source of truth.
type TagCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, tag string) error
	Delete(ctx context.Context, keys ...string) error
}

// # Mediator

// Mediator implements optimistic concurrency on read/update paths.
type Mediator struct {
	cache TagCache
}

// NewMediator constructs a [Mediator]. cache may be nil.
func NewMediator(cache TagCache) *Mediator {
	return &Mediator{cache: cache}
}

/*
Precondition compares a caller-supplied tag with the entity's current tag.

Description: An empty expected tag (no If-Match) or the wildcard "*" always
passes. Weak validators and surrounding quotes are ignored.

Parameters:
  - expected: string (caller tag, may be empty)
  - current: string (tag of the loaded entity)

Returns:
  - error: apperr.PreconditionFailed on mismatch
*/
func (mediator *Mediator) Precondition(expected, current string) error {
	if !Satisfies(expected, current) {
		return apperr.PreconditionFailed(MessageStaleTag)
	}
	return nil
}

// Fresh reports whether the cached tag for key matches ifNoneMatch, meaning
// the caller's copy is current without consulting the Store. The cached tag
// is returned alongside.
func (mediator *Mediator) Fresh(ctx context.Context, key, ifNoneMatch string) (string, bool) {
	if mediator.cache == nil || ifNoneMatch == "" {
		return "", false
	}

	tag, found, err := mediator.cache.Get(ctx, key)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "tag_cache_get_failed", slog.String("key", key), slog.Any("error", err))
		return "", false
	}

	if !found || !Matches(ifNoneMatch, tag) {
		return "", false
	}
	return tag, true
}

// Validate remembers the tag of a freshly loaded entity and returns a
// [NotModified] error when ifNoneMatch already names it.
func (mediator *Mediator) Validate(ctx context.Context, key, ifNoneMatch, current string) error {
	mediator.Remember(ctx, key, current)
	if ifNoneMatch != "" && Matches(ifNoneMatch, current) {
		return &NotModified{Tag: current}
	}
	return nil
}

// Remember stores the current tag for key.
func (mediator *Mediator) Remember(ctx context.Context, key, tag string) {
	if mediator.cache == nil || tag == "" {
		return
	}
	if err := mediator.cache.Set(ctx, key, tag); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "tag_cache_set_failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Forget drops cached tags, typically after a deletion.
func (mediator *Mediator) Forget(ctx context.Context, keys ...string) {
	if mediator.cache == nil || len(keys) == 0 {
		return
	}
	if err := mediator.cache.Delete(ctx, keys...); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "tag_cache_delete_failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// # Tag Comparison

// Satisfies reports whether an If-Match style expectation holds for current.
func Satisfies(expected, current string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" || expected == "*" {
		return true
	}
	return Matches(expected, current)
}

// Matches reports whether any tag in a comma separated header value equals
// current.
func Matches(header, current string) bool {
	if current == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = Normalize(candidate)
		if candidate == "*" || candidate == current {
			return true
		}
	}
	return false
}

// Normalize strips the weak prefix and quotes from an entity tag.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`)
}
