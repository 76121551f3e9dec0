// File: api/telemetry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Counter is an increment-only named counter.
type Counter interface {
	Inc()
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func()

// Inc calls f.
func (f CounterFunc) Inc() { f() }

// NopCounter discards increments.
var NopCounter Counter = CounterFunc(func() {})
