// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Cookie names, paths and lifetimes.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "quill-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/v1/auth"

	// ResetTokenCookieName carries a validated reset token to the change form.
	ResetTokenCookieName = "reset_token"

	// ResetTokenCookiePath scopes the reset cookie to the reset endpoints.
	ResetTokenCookiePath = "/api/v1/auth/reset-password"

	// FederatedStateCookieName holds the OAuth state between the consent
	// redirect and the provider callback.
	FederatedStateCookieName = "oauth_state"

	// FederatedStateCookiePath scopes the state cookie to the provider sign-in endpoints.
	FederatedStateCookiePath = "/api/v1/auth/sign-in"

	// FederatedStateTTL bounds how long a user may sit on the consent page.
	FederatedStateTTL = 5 * time.Minute

	// FacebookRedirectPath is the callback registered with Facebook, relative to API_URL.
	FacebookRedirectPath = "/api/v1/auth/sign-in/facebook/redirect"

	// ClientLoginPath and ClientResetPath are the front-end pages the reset flow redirects to.
	ClientLoginPath = "/auth/login"
	ClientResetPath = "/auth/reset-password"
)

// # Avatars

const (
	// MaxAvatarBytes bounds avatar uploads.
	MaxAvatarBytes = 5 << 20

	// AvatarKeyPrefix namespaces avatar objects inside the bucket.
	AvatarKeyPrefix = "avatars/"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldStatus  = "status"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession = "auth:session:"
)
