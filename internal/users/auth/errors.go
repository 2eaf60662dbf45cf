// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/quill/internal/platform/apperr"
	"github.com/taibuivan/quill/internal/platform/middleware"
)

// # Domain Errors
//
// Compare with errors.Is; matching is by code, so messages may vary.

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// password-less identities alike.
	ErrInvalidCredentials = apperr.New("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)

	// ErrTokenInvalid is returned for tokens that fail verification.
	ErrTokenInvalid = middleware.ErrTokenInvalid

	// ErrInvalidRefreshToken is returned when a verified refresh token is no
	// longer in the identity's session list.
	ErrInvalidRefreshToken = apperr.New("INVALID_REFRESH_TOKEN", "Invalid refresh token", http.StatusUnauthorized)

	// ErrIdentityNotFound is returned when an id, email or reset token matches no identity.
	ErrIdentityNotFound = apperr.New("IDENTITY_NOT_FOUND", "Account not found", http.StatusNotFound)

	// ErrResetTokenMalformed is returned for reset tokens without a numeric expiry.
	ErrResetTokenMalformed = apperr.New("RESET_TOKEN_MALFORMED", "Malformed reset password token", http.StatusBadRequest)

	// ErrResetTokenExpired is returned once a reset token's window has passed.
	ErrResetTokenExpired = apperr.New("RESET_TOKEN_EXPIRED", "Reset password token expired", http.StatusBadRequest)

	// ErrFederationDisabled is returned when no provider credentials are configured.
	ErrFederationDisabled = apperr.ServiceUnavailable("Federated sign-in is not configured")

	// ErrFederatedStateInvalid is returned when the callback state does not
	// match the one issued with the consent redirect.
	ErrFederatedStateInvalid = apperr.New("FEDERATED_STATE_INVALID", "Invalid or expired sign-in state", http.StatusBadRequest)

	// ErrFederatedSignInFailed is returned when the provider refuses the code
	// or withholds the email.
	ErrFederatedSignInFailed = apperr.New("FEDERATED_SIGN_IN_FAILED", "Provider sign-in failed", http.StatusUnauthorized)

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = apperr.New("DUPLICATE_EMAIL", "Email is already registered", http.StatusConflict)
)
