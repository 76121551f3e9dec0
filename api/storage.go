// File: api/storage.go
// Package api defines the persistence contract for guarded state.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Backend loads and saves one state value as an opaque blob.
// Implementations must satisfy Load after Save returning an equal value.
type Backend[S any] interface {
	// Load reads the stored state. ErrStateNotFound means nothing was saved yet.
	Load() (S, error)
	// Save replaces the stored state with *state.
	Save(state *S) error
	// Close releases handles held by the backend.
	Close() error
}
