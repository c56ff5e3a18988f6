// Package idgen generates globally unique identifiers. It is a thin wrapper
// over uuid so tests can stub it.
package idgen

import "github.com/google/uuid"

// NewFunc produces a new identifier. Override in tests for determinism.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// Short returns the first 8 characters of a new identifier.
func Short() string {
	id := New()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
