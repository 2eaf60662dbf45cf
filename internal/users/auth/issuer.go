// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/quill/internal/platform/sec"
)

// TokenSigner signs one kind of session token.
type TokenSigner interface {
	Sign(payload sec.Payload, timeToLive time.Duration) (string, error)
}

// Issuer signs access and refresh tokens. Refresh tokens are recorded in the
// session store before they are handed out.
type Issuer struct {
	access     TokenSigner
	refresh    TokenSigner
	sessions   SessionStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer creates an Issuer. The two signers must use distinct secrets.
func NewIssuer(access, refresh TokenSigner, sessions SessionStore, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		access:     access,
		refresh:    refresh,
		sessions:   sessions,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess signs an access token. No state is recorded.
func (issuer *Issuer) IssueAccess(payload sec.Payload) (string, error) {
	token, err := issuer.access.Sign(payload, issuer.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth_issuer_access_failed: %w", err)
	}
	return token, nil
}

// IssueRefresh signs a refresh token and appends it to the identity's sessions.
// Nothing is returned unless the append succeeded.
func (issuer *Issuer) IssueRefresh(context context.Context, payload sec.Payload) (string, error) {
	token, err := issuer.refresh.Sign(payload, issuer.refreshTTL)
	if err != nil {
		return "", fmt.Errorf("auth_issuer_refresh_failed: %w", err)
	}

	if err := issuer.sessions.Append(context, payload.UserID, token); err != nil {
		return "", fmt.Errorf("auth_issuer_refresh_persist_failed: %w", err)
	}

	return token, nil
}

// AccessTTL reports the access token lifetime.
func (issuer *Issuer) AccessTTL() time.Duration { return issuer.accessTTL }

// RefreshTTL reports the refresh token lifetime.
func (issuer *Issuer) RefreshTTL() time.Duration { return issuer.refreshTTL }
