// Package storage
// Author: momentics <momentics@gmail.com>
//
// Persistence backends for guarded state. Each backend stores the state as a
// single JSON blob and reports api.ErrStateNotFound when nothing was saved yet.
//
// Three backends are provided: a plain file written atomically next to the
// executable, a Badger key, and a SQLite row.
package storage
