// Package id provides the UUID type used for primary keys and request IDs.
package id

import (
	"github.com/google/uuid"
)

// ID is the primary key type of the demo entities.
type ID = uuid.UUID

// New returns a time-ordered UUIDv7, falling back to a random v4.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// MustParse converts s to an ID and panics on malformed input.
// Use only for fixtures and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}
