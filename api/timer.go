// File: api/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// Clock abstracts wall time so deadline logic can be tested.
type Clock interface {
	Now() time.Time
}

// Timer is a polled deadline. It never fires on its own.
type Timer interface {
	// Elapsed reports whether the armed deadline has been reached.
	Elapsed() bool
	// Rearm sets the deadline one interval after now.
	Rearm()
}
