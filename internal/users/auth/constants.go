// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Token Lifetimes

const (
	// DefaultAccessTokenTTL keeps a leaked access token useful for minutes only.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL bounds a session without activity.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultResetTokenTTL is the window in which an emailed reset link works.
	DefaultResetTokenTTL = 3 * time.Minute
)

// # Reset Token Format

// A reset token is "<uuid>|<expiry unix millis>".
const resetTokenSeparator = "|"

const tokenTypeBearer = "Bearer"
