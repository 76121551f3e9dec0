// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named probes reporting live values of the bot. The registry installs
// runtime.cpus and runtime.goroutines; facade.Bot adds relay.buffered
// (posts parked in the outbox), relay.attached (chat sink present) and
// state.owner (stored owner id). Bot.Stats and /debug/stats publish them
// under the "debug." prefix.

package control

import (
	"runtime"
	"sync"
)

// DebugProbes maps probe names to functions sampled on every dump.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry with the runtime probes installed.
func NewDebugProbes() *DebugProbes {
	dp := &DebugProbes{
		probes: make(map[string]func() any),
	}
	dp.RegisterProbe("runtime.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("runtime.goroutines", func() any { return runtime.NumGoroutine() })
	return dp
}

// RegisterProbe inserts a named debug hook, replacing any previous one.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState samples every probe. Probes run under the registry read lock
// and must not register probes themselves.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}
