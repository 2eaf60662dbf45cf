// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/quill/pkg/slice"
	"github.com/taibuivan/quill/pkg/uuid"
)

// Directory is the role catalog service.
type Directory struct {
	repository Repository
	users      UserRoles
	sessions   SessionRevoker
	logger     *slog.Logger
}

// NewDirectory constructs a new [Directory].
func NewDirectory(repository Repository, users UserRoles, sessions SessionRevoker, logger *slog.Logger) *Directory {
	return &Directory{
		repository: repository,
		users:      users,
		sessions:   sessions,
		logger:     logger,
	}
}

// # Name Resolution

/*
ResolveNames maps role ids to their current names, keeping the order of ids.

Description: Ids without a matching role are dropped. An empty input
resolves to no names without touching storage.
*/
func (directory *Directory) ResolveNames(context context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	roles, err := directory.repository.FindByIDs(context, ids)
	if err != nil {
		return nil, fmt.Errorf("role_directory_resolve_failed: %w", err)
	}

	byID := slice.IndexBy(roles, func(role *Role) string { return role.ID })
	known := slice.Filter(ids, func(id string) bool {
		_, ok := byID[id]
		return ok
	})

	return slice.Map(known, func(id string) string { return byID[id].Name }), nil
}

// IDByName returns the id of the named role.
func (directory *Directory) IDByName(context context.Context, name string) (string, error) {
	role, err := directory.repository.FindByName(context, name)
	if err != nil {
		return "", err
	}
	return role.ID, nil
}

// FindByName returns the named role or ErrRoleNotFound.
func (directory *Directory) FindByName(context context.Context, name string) (*Role, error) {
	return directory.repository.FindByName(context, strings.TrimSpace(name))
}

// # Catalog Management

// List returns every role.
func (directory *Directory) List(context context.Context) ([]*Role, error) {
	roles, err := directory.repository.List(context)
	if err != nil {
		return nil, fmt.Errorf("role_directory_list_failed: %w", err)
	}

	if roles == nil {
		roles = []*Role{}
	}
	return roles, nil
}

// Create adds a role to the catalog.
func (directory *Directory) Create(context context.Context, name string) (*Role, error) {
	role := &Role{ID: uuid.New(), Name: strings.TrimSpace(name)}

	if err := directory.repository.Create(context, role); err != nil {
		return nil, err
	}

	directory.logger.InfoContext(context, "role_created",
		slog.String("role_id", role.ID),
		slog.String("name", role.Name),
	)
	return role, nil
}

// Rename changes a role's name. Tokens already issued pick up the new name
// on their next authorization check.
func (directory *Directory) Rename(context context.Context, id, name string) (*Role, error) {
	return directory.repository.Rename(context, id, strings.TrimSpace(name))
}

// Delete removes a role from the catalog.
func (directory *Directory) Delete(context context.Context, id string) error {
	if err := directory.repository.Delete(context, id); err != nil {
		return err
	}

	directory.logger.InfoContext(context, "role_deleted", slog.String("role_id", id))
	return nil
}

// Seed makes sure every name in names exists.
func (directory *Directory) Seed(context context.Context, names ...string) error {
	if err := directory.repository.EnsureNames(context, names); err != nil {
		return fmt.Errorf("role_directory_seed_failed: %w", err)
	}
	return nil
}

// # Membership

/*
AssignToUser grants the role to an identity.

Description: Existing tokens keep their role snapshot. The grant shows up
after the identity's next sign-in.

Returns:
  - error: ErrRoleNotFound, ErrIdentityNotFound (from UserRoles), or ErrRoleAlreadyAssigned
*/
func (directory *Directory) AssignToUser(context context.Context, roleID, userID string) error {
	role, err := directory.repository.FindByID(context, roleID)
	if err != nil {
		return err
	}

	added, err := directory.users.AddRole(context, userID, role.ID)
	if err != nil {
		return err
	}

	if !added {
		return ErrRoleAlreadyAssigned.WithCause(fmt.Errorf("user %s already has the %s role", userID, role.Name))
	}

	directory.logger.InfoContext(context, "role_assigned",
		slog.String("role_id", role.ID),
		slog.String("user_id", userID),
	)
	return nil
}

/*
RevokeFromUser removes the role from an identity and ends its sessions, so
no refresh token can carry the revoked role forward.
*/
func (directory *Directory) RevokeFromUser(context context.Context, roleID, userID string) error {
	role, err := directory.repository.FindByID(context, roleID)
	if err != nil {
		return err
	}

	if err := directory.users.RemoveRole(context, userID, role.ID); err != nil {
		return err
	}

	if err := directory.sessions.RevokeAll(context, userID); err != nil {
		return fmt.Errorf("role_directory_revoke_sessions_failed: %w", err)
	}

	directory.logger.InfoContext(context, "role_revoked",
		slog.String("role_id", role.ID),
		slog.String("user_id", userID),
	)
	return nil
}
