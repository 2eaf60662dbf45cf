// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// Using a private, unexported type for keys prevents collisions with third-party
// packages that might also use context for storage.
package ctxkey

type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyUser is the context key for verified access token claims ([sec.AuthClaims]).
	KeyUser key = "user"

	// KeyAuthRejection is the context key for the reason a presented access
	// token was not accepted.
	KeyAuthRejection key = "auth_rejection"

	// KeyRefresh is the context key for verified refresh token claims.
	KeyRefresh key = "refresh"

	// KeyRefreshToken is the context key for the raw refresh token string.
	KeyRefreshToken key = "refresh_token"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
