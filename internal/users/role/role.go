// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package role manages the role catalog and role membership of identities.

Identities and tokens reference roles by id. Authorization compares names,
so every check goes through [Directory.ResolveNames], which maps ids to the
current names and drops ids whose role was deleted.
*/
package role

import (
	"net/http"
	"time"

	"github.com/taibuivan/quill/internal/platform/apperr"
)

// Role is one entry of the catalog.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// # Domain Errors

var (
	// ErrRoleNotFound is returned when an id or name matches no role.
	ErrRoleNotFound = apperr.New("ROLE_NOT_FOUND", "Role not found", http.StatusNotFound)

	// ErrDuplicateRole is returned when a role name is already taken.
	ErrDuplicateRole = apperr.New("DUPLICATE_ROLE", "Role already exists", http.StatusConflict)

	// ErrRoleAlreadyAssigned is returned when the identity already holds the role.
	ErrRoleAlreadyAssigned = apperr.New("ROLE_ALREADY_ASSIGNED", "Role already assigned", http.StatusBadRequest)
)

// # Field Identifiers

const (
	FieldName   = "name"
	FieldID     = "id"
	FieldRoleID = "roleID"
)

// MaxNameLen bounds role names.
const MaxNameLen = 64
