// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements identity, credential and session-token lifecycle.

It defines the Identity entity and the flows that operate on it: sign-up,
credential validation, refresh-token rotation, sign-out and password reset.

# Architecture

  - Service: sign-up and credential checks.
  - Issuer / Lifecycle: signs token pairs and rotates refresh tokens.
  - ResetFlow: time-boxed password reset via an emailed link.
  - SessionStore: per-identity list of live refresh tokens, with Postgres,
    Redis and in-memory backends.
*/
package auth

import "time"

// # Domain Entities

// User is a registered identity.
//
// PasswordHash is empty for identities created through a federated provider.
// Roles holds role ids, never names.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	RefreshTokens []string  `json:"-"`
	Roles         []string  `json:"roles"`
	AvatarKey     string    `json:"avatar_key,omitempty"`
	ResetToken    string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasPassword reports whether the identity can sign in with a password.
func (user *User) HasPassword() bool {
	return user.PasswordHash != ""
}

// roleSnapshot copies the role ids so a signed payload never aliases the entity.
func (user *User) roleSnapshot() []string {
	roles := make([]string, len(user.Roles))
	copy(roles, user.Roles)
	return roles
}

// # Field Identifiers

const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldToken        = "token"
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldUser         = "user"
	FieldMessage      = "message"
	FieldSuccess      = "success"
	FieldCode         = "code"
	FieldState        = "state"
	FieldProviderID   = "provider_user_id"
)
