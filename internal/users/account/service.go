// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taibuivan/quill/internal/platform/constants"
	"github.com/taibuivan/quill/internal/platform/storage"
	"github.com/taibuivan/quill/internal/platform/validate"
	"github.com/taibuivan/quill/internal/users/auth"
	"github.com/taibuivan/quill/pkg/pagination"
	"github.com/taibuivan/quill/pkg/uuid"
)

// avatarExtensions maps accepted sniffed content types to object key suffixes.
var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// # Service Layer

// Service implements profile, administration and avatar operations.
type Service struct {
	users     Repository
	registrar Registrar
	sessions  SessionRevoker
	avatars   storage.ObjectStorage
	logger    *slog.Logger
}

// NewService constructs a new [Service]. A nil avatars store disables the
// avatar endpoints.
func NewService(
	users Repository,
	registrar Registrar,
	sessions SessionRevoker,
	avatars storage.ObjectStorage,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:     users,
		registrar: registrar,
		sessions:  sessions,
		avatars:   avatars,
		logger:    logger,
	}
}

// # Profile

// GetProfile returns the identity with the given id.
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	return service.users.FindByID(context, userID)
}

/*
UpdateEmail changes the caller's own email address.

Returns:
  - *auth.User: The updated identity
  - error: ErrNotOwner, auth.ErrDuplicateEmail or auth.ErrIdentityNotFound
*/
func (service *Service) UpdateEmail(context context.Context, callerID, userID, email string) (*auth.User, error) {
	if callerID != userID {
		return nil, ErrNotOwner
	}

	user, err := service.users.UpdateEmail(context, userID, validate.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_email_updated", slog.String("user_id", userID))
	return user, nil
}

// # Administration

// ListUsers returns one page of identities with its pagination metadata.
func (service *Service) ListUsers(context context.Context, params pagination.Params) ([]*auth.User, pagination.Meta, error) {
	users, err := service.users.List(context, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	total, err := service.users.Count(context)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_count_failed: %w", err)
	}

	return users, params.Meta(total), nil
}

// CreateUser enrolls an identity on behalf of an administrator. It follows
// the sign-up path, so the new identity holds the default role.
func (service *Service) CreateUser(context context.Context, input auth.SignUpInput) (*auth.User, error) {
	user, err := service.registrar.SignUp(context, input)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_created_by_admin", slog.String("user_id", user.ID))
	return user, nil
}

/*
DeleteUser removes an identity, its sessions and its avatar.

Description: Avatar removal is best effort; a storage failure is logged and
does not keep the identity alive.
*/
func (service *Service) DeleteUser(context context.Context, userID string) error {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return err
	}

	if err := service.sessions.RevokeAll(context, userID); err != nil {
		return fmt.Errorf("account_service_revoke_failed: %w", err)
	}

	if err := service.users.Delete(context, userID); err != nil {
		return err
	}

	if user.AvatarKey != "" && service.avatars != nil {
		service.dropObject(context, user.AvatarKey)
	}

	service.logger.WarnContext(context, "user_deleted", slog.String("user_id", userID))
	return nil
}

// # Avatars

/*
UploadAvatar stores image as the caller's avatar, replacing any previous one.

Description: The content type is sniffed from the bytes; the client's
declared type and file name are ignored.

Returns:
  - *auth.User: The identity with its new avatar key
  - error: ErrNotOwner, ErrStorageDisabled, ErrAvatarMissing,
    ErrAvatarTooLarge or ErrAvatarUnsupported
*/
func (service *Service) UploadAvatar(context context.Context, callerID, userID string, image []byte) (*auth.User, error) {
	if callerID != userID {
		return nil, ErrNotOwner
	}
	if service.avatars == nil {
		return nil, ErrStorageDisabled
	}

	switch {
	case len(image) == 0:
		return nil, ErrAvatarMissing
	case len(image) > constants.MaxAvatarBytes:
		return nil, ErrAvatarTooLarge
	}

	contentType := http.DetectContentType(image)
	extension, ok := avatarExtensions[contentType]
	if !ok {
		return nil, ErrAvatarUnsupported
	}

	previous, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	key := constants.AvatarKeyPrefix + userID + "/" + uuid.New() + extension
	if err := service.avatars.Put(context, key, bytes.NewReader(image), int64(len(image)), contentType); err != nil {
		return nil, fmt.Errorf("account_service_avatar_put_failed: %w", err)
	}

	user, err := service.users.SetAvatar(context, userID, key)
	if err != nil {
		service.dropObject(context, key)
		return nil, err
	}

	if previous.AvatarKey != "" {
		service.dropObject(context, previous.AvatarKey)
	}

	service.logger.InfoContext(context, "user_avatar_uploaded",
		slog.String("user_id", userID),
		slog.String("key", key),
	)
	return user, nil
}

// DeleteAvatar clears the caller's avatar and removes the stored object.
func (service *Service) DeleteAvatar(context context.Context, callerID, userID string) (*auth.User, error) {
	if callerID != userID {
		return nil, ErrNotOwner
	}
	if service.avatars == nil {
		return nil, ErrStorageDisabled
	}

	current, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	if current.AvatarKey == "" {
		return nil, ErrAvatarNotFound
	}

	user, err := service.users.SetAvatar(context, userID, "")
	if err != nil {
		return nil, err
	}

	service.dropObject(context, current.AvatarKey)
	return user, nil
}

func (service *Service) dropObject(context context.Context, key string) {
	if err := service.avatars.Delete(context, key); err != nil {
		service.logger.WarnContext(context, "avatar_delete_failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}
