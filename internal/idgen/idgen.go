// Package idgen mints the opaque identifiers given to kernel threads.
// Callers must not parse them; tests replace NewFunc for stable ids.
package idgen

import "github.com/google/uuid"

// NewFunc is the active identifier generator.
var NewFunc = func() string {
	return uuid.New().String()
}

// New returns a fresh identifier from the active generator.
func New() string {
	return NewFunc()
}
