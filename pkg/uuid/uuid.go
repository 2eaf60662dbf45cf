// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers for the platform.

It wraps the standard UUID library to generate Version 7 values. They are used
for account and role primary keys as well as for the jti claim of every
session token.

Advantages:

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Friendly: Keeps B-tree indexes in PostgreSQL append-mostly.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// entropy failure is an unrecoverable system-level error
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// NewRandom generates a UUIDv4 string. Used where ordering would leak
// information, such as password reset tokens.
func NewRandom() string {
	return uuid.NewString()
}

// Valid reports whether s parses as a UUID of any version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
