// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import "context"

// Repository defines the data access contract for the role catalog.
type Repository interface {
	FindByID(context context.Context, id string) (*Role, error)
	FindByName(context context.Context, name string) (*Role, error)

	// FindByIDs returns the roles among ids that exist, in no particular order.
	FindByIDs(context context.Context, ids []string) ([]*Role, error)

	List(context context.Context) ([]*Role, error)

	/*
		Create persists a new role.

		Returns:
		  - error: ErrDuplicateRole when the name is taken
	*/
	Create(context context.Context, role *Role) error

	// Rename changes a role's name and returns the updated role.
	Rename(context context.Context, id, name string) (*Role, error)

	Delete(context context.Context, id string) error

	// EnsureNames inserts every missing name and leaves existing ones untouched.
	EnsureNames(context context.Context, names []string) error
}

// # Collaborators

// UserRoles edits the role ids held by an identity.
type UserRoles interface {
	// AddRole reports false when the identity already held the role.
	AddRole(context context.Context, userID, roleID string) (bool, error)
	RemoveRole(context context.Context, userID, roleID string) error
}

// SessionRevoker ends every session of an identity.
type SessionRevoker interface {
	RevokeAll(context context.Context, userID string) error
}
