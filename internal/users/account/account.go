// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages registered identities after sign-up.

It serves the caller's own profile, the administrator's user list, email
changes and avatar images.

# Architecture

  - Entities: auth.User is reused; this package owns no table.
  - Ownership: users may only change their own email and avatar.
  - Avatars: bytes go to object storage, the identity keeps only the key.
*/
package account

import (
	"context"
	"net/http"

	"github.com/taibuivan/quill/internal/platform/apperr"
	"github.com/taibuivan/quill/internal/users/auth"
)

// # Repository Contracts

// Repository is the identity storage the account service needs.
// [auth.PostgresUserRepository] implements it.
type Repository interface {
	FindByID(context context.Context, id string) (*auth.User, error)
	List(context context.Context, limit, offset int) ([]*auth.User, error)
	Count(context context.Context) (int, error)

	// UpdateEmail returns auth.ErrDuplicateEmail when the address is taken.
	UpdateEmail(context context.Context, userID, email string) (*auth.User, error)

	// SetAvatar stores the object key; an empty key clears it.
	SetAvatar(context context.Context, userID, key string) (*auth.User, error)

	Delete(context context.Context, userID string) error
}

// Registrar enrolls new identities. [auth.Service] implements it.
type Registrar interface {
	SignUp(context context.Context, input auth.SignUpInput) (*auth.User, error)
}

// SessionRevoker ends every session of an identity.
type SessionRevoker interface {
	RevokeAll(context context.Context, userID string) error
}

// # Domain Errors

var (
	ErrNotOwner = apperr.New("FORBIDDEN", "You do not have permission to update user", http.StatusForbidden)

	ErrAvatarMissing     = apperr.New("AVATAR_MISSING", "You do not attach the photo", http.StatusBadRequest)
	ErrAvatarNotFound    = apperr.New("AVATAR_NOT_FOUND", "User has no avatar", http.StatusNotFound)
	ErrAvatarTooLarge    = apperr.New("AVATAR_TOO_LARGE", "Avatar exceeds the size limit", http.StatusRequestEntityTooLarge)
	ErrAvatarUnsupported = apperr.New("AVATAR_UNSUPPORTED", "Avatar must be a JPEG, PNG or WebP image", http.StatusUnsupportedMediaType)

	ErrStorageDisabled = apperr.ServiceUnavailable("Avatar storage is not configured")
)

// # Field Identifiers

const (
	FieldID    = "id"
	FieldEmail = "email"
	FieldFile  = "file"
)
