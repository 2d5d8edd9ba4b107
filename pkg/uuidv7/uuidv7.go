// Copyright (c) 2026 Comiket Bot. All rights reserved.

// Package uuidv7 wraps google/uuid to generate time-ordered UUIDv7 values.
//
// # Why UUIDv7?
//
// Items and participants are keyed by it. Because it is time-sortable, newer
// records cluster together in the PostgreSQL index, and the generated order
// roughly matches insertion order when eyeballing exports.
package uuidv7

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// # Safety
//
// It panics only if the OS random source is unavailable (extremely rare).
// This is acceptable as OS entropy failure is an unrecoverable system-level error.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// IsValid reports whether s parses as any UUID. Used to pre-screen ids
// arriving from chat before they reach a query.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
