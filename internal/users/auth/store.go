// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # User Data Access

// UserLookup is the read side needed by session stores that live outside
// the account table.
type UserLookup interface {
	FindByID(context context.Context, id string) (*User, error)
}

// UserRepository defines the data access contract for identities.
type UserRepository interface {
	UserLookup

	/*
		FindByEmail returns the identity registered under a normalized email.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrIdentityNotFound or retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByResetToken returns the identity holding the given reset token.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrIdentityNotFound or retrieval failures
	*/
	FindByResetToken(context context.Context, token string) (*User, error)

	/*
		Create persists a new identity.

		Returns:
		  - error: ErrDuplicateEmail when the email is taken, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		SetResetToken stores token on the identity, replacing any previous one.

		Returns:
		  - error: ErrIdentityNotFound or persistence failures
	*/
	SetResetToken(context context.Context, userID, token string) error

	/*
		CompletePasswordReset writes passwordHash and clears the reset token in
		one step, provided the identity still holds token.

		Returns:
		  - error: ErrIdentityNotFound when the token was consumed or replaced meanwhile
	*/
	CompletePasswordReset(context context.Context, userID, token, passwordHash string) error
}

// # Session Data Access

// SessionStore holds each identity's live refresh tokens.
//
// Every operation is atomic per identity: concurrent appends and removals
// for the same identity never lose one another's effect.
type SessionStore interface {

	/*
		Append adds token to the identity's list.

		Returns:
		  - error: ErrIdentityNotFound when the identity does not exist
	*/
	Append(context context.Context, userID, token string) error

	// Remove drops the first occurrence of token and reports whether it was
	// there. Absent tokens are a no-op.
	Remove(context context.Context, userID, token string) (bool, error)

	// Contains reports whether token is in the identity's list.
	Contains(context context.Context, userID, token string) (bool, error)

	// RemoveAll drops every token of the identity.
	RemoveAll(context context.Context, userID string) error
}
