// File: internal/autosave/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package autosave guards one mutable state value behind a read-write lock
// and writes it to a storage backend at most once per interval.
//
// Persistence is activity-coalesced: the deadline is only checked by
// WithWrite, after the mutation has been applied. Nothing runs on a
// background goroutine and reads never persist. An idle period longer than
// the interval therefore defers the save until the next write arrives; owners
// that need the latest state on disk at exit call Store.Save explicitly.
// A strict wall-clock guarantee would need a separate flusher goroutine,
// which this package deliberately does not start.
package autosave
