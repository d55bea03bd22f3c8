// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey holds the typed keys under which middleware stores
// per-request values. Read them through ctxutil rather than directly.
package ctxkey

// key is unexported so values set here cannot be read or overwritten by
// string keys from other packages.
type key string

const (
	// KeyRequestID carries the X-Request-ID correlation value.
	KeyRequestID key = "cms.request_id"

	// KeyUser carries the verified [sec.AuthClaims] of the caller, if any.
	KeyUser key = "cms.auth_user"

	// KeyLogger carries the request-scoped [*log/slog.Logger].
	KeyLogger key = "cms.logger"
)
