// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants gathers the fixed values shared across layers: server
// timing, rate limits, header names, response field names and cache key
// prefixes. Anything an operator may tune belongs in config instead.
package constants

import "time"

// # Metadata

const (
	AppName    = "cmsrest-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	DefaultReadTimeout       = 5 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 120 * time.Second

	// GlobalRequestTimeout bounds a whole request, including the publish and
	// translation cascade transactions. Postgres statement_timeout uses it too.
	GlobalRequestTimeout = 30 * time.Second

	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	DefaultRateLimitRPS   = 100.0
	DefaultRateLimitBurst = 150

	RateLimitCleanupInterval = time.Minute
	// RateLimitClientTTL is the idle time after which an IP bucket is dropped.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the required "iss" claim of access tokens.
	AuthIssuer = "cmsrest.app"

	// AllowedOriginSuffix admits production browser origins for CORS.
	AllowedOriginSuffix = "cmsrest.app"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderETag          = "ETag"
	HeaderIfMatch       = "If-Match"
	HeaderIfNoneMatch   = "If-None-Match"
)

// # Probe Fields

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Cache Keys

// RedisPrefixTag namespaces modification tags, e.g. "lifecycle:tag:role:7".
const RedisPrefixTag = "lifecycle:tag:"
