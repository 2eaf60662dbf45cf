// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/taibuivan/quill/internal/platform/sec"
)

// TokenPair is what a successful sign-in or refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int
	// RefreshMaxAge is the refresh token lifetime in seconds.
	RefreshMaxAge int
}

// Lifecycle drives sign-in, refresh rotation and sign-out.
//
// Each refresh token is single use. Rotation appends the new token before
// removing the old one, so a crash between the two leaves the identity with
// an extra live token rather than with none.
type Lifecycle struct {
	issuer   *Issuer
	sessions SessionStore
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(issuer *Issuer, sessions SessionStore) *Lifecycle {
	return &Lifecycle{issuer: issuer, sessions: sessions}
}

// SignIn issues a fresh pair for an identity whose credentials were verified.
// Existing sessions are left untouched.
func (lifecycle *Lifecycle) SignIn(context context.Context, user *User) (*TokenPair, error) {
	payload := sec.Payload{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  user.roleSnapshot(),
	}
	return lifecycle.issuePair(context, payload)
}

/*
Refresh exchanges a live refresh token for a new pair.

Description: The presented token must still be in the identity's session
list. The new pair carries the role snapshot of the presented token. When
two refreshes race on the same token only the one whose removal of it
succeeds keeps its pair.

Parameters:
  - context: context.Context
  - presented: string (raw refresh token)
  - claims: *sec.AuthClaims (verified claims of presented)

Returns:
  - *TokenPair: The rotated pair
  - error: ErrTokenInvalid, ErrInvalidRefreshToken, or store failures
*/
func (lifecycle *Lifecycle) Refresh(context context.Context, presented string, claims *sec.AuthClaims) (*TokenPair, error) {
	if claims == nil || claims.Kind != sec.KindRefresh || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	live, err := lifecycle.sessions.Contains(context, claims.UserID, presented)
	if err != nil {
		return nil, fmt.Errorf("auth_lifecycle_refresh_lookup_failed: %w", err)
	}

	if !live {
		return nil, ErrInvalidRefreshToken
	}

	pair, err := lifecycle.issuePair(context, sec.PayloadFrom(claims))
	if err != nil {
		return nil, err
	}

	removed, err := lifecycle.sessions.Remove(context, claims.UserID, presented)
	if err != nil {
		return nil, fmt.Errorf("auth_lifecycle_refresh_revoke_failed: %w", err)
	}

	// Another refresh consumed presented first. Its replacement wins and ours is withdrawn.
	if !removed {
		if _, err := lifecycle.sessions.Remove(context, claims.UserID, pair.RefreshToken); err != nil {
			return nil, fmt.Errorf("auth_lifecycle_refresh_rollback_failed: %w", err)
		}
		return nil, ErrInvalidRefreshToken
	}

	return pair, nil
}

// SignOut removes one refresh token and returns it. Unknown tokens are a no-op.
func (lifecycle *Lifecycle) SignOut(context context.Context, userID, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	if _, err := lifecycle.sessions.Remove(context, userID, token); err != nil {
		return "", fmt.Errorf("auth_lifecycle_sign_out_failed: %w", err)
	}

	return token, nil
}

// RevokeAll ends every session of the identity. Access tokens already
// issued stay valid until they expire.
func (lifecycle *Lifecycle) RevokeAll(context context.Context, userID string) error {
	if err := lifecycle.sessions.RemoveAll(context, userID); err != nil {
		return fmt.Errorf("auth_lifecycle_revoke_all_failed: %w", err)
	}
	return nil
}

// issuePair signs the access token first so a signing failure leaves no
// session behind.
func (lifecycle *Lifecycle) issuePair(context context.Context, payload sec.Payload) (*TokenPair, error) {
	accessToken, err := lifecycle.issuer.IssueAccess(payload)
	if err != nil {
		return nil, err
	}

	refreshToken, err := lifecycle.issuer.IssueRefresh(context, payload)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		TokenType:     tokenTypeBearer,
		ExpiresIn:     int(lifecycle.issuer.AccessTTL().Seconds()),
		RefreshMaxAge: int(lifecycle.issuer.RefreshTTL().Seconds()),
	}, nil
}
