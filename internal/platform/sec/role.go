// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Built-in Roles

const (
	// Full access to the administration endpoints
	RoleAdmin = "admin"

	// Granted to every account at sign-up
	RoleUser = "user"
)

// DefaultRoles lists the roles seeded into the catalog at startup.
var DefaultRoles = []string{RoleUser, RoleAdmin}
