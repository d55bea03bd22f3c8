// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cmsrest/internal/platform/ctxutil"
	"github.com/taibuivan/cmsrest/internal/platform/sec"
)

func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "0192f1c4-7a1e-7c3e-9b1a-2f0d9c6a1e55")
	assert.Equal(t, "0192f1c4-7a1e-7c3e-9b1a-2f0d9c6a1e55", ctxutil.GetRequestID(ctx))
}

func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	requestLogger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	assert.Same(t, slog.Default(), ctxutil.GetLogger(ctx))
	assert.Same(t, fallback, ctxutil.GetLoggerOr(ctx, fallback))

	ctx = ctxutil.WithLogger(ctx, requestLogger)
	assert.Same(t, requestLogger, ctxutil.GetLogger(ctx))
	assert.Same(t, requestLogger, ctxutil.GetLoggerOr(ctx, fallback))

	// A nil logger bound by mistake does not leak out.
	ctx = ctxutil.WithLogger(context.Background(), nil)
	assert.Same(t, fallback, ctxutil.GetLoggerOr(ctx, fallback))
}

func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	ctx = ctxutil.WithAuthUser(ctx, &sec.AuthClaims{UserID: "editor-42", Role: string(sec.RoleEditor)})

	claims := ctxutil.GetAuthUser(ctx)
	require.NotNil(t, claims)
	assert.Equal(t, "editor-42", claims.UserID)
	assert.True(t, sec.UserRole(claims.Role).AtLeast(sec.RoleContributor))
}
