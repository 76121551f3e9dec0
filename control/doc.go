// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime settings, process counters and debug introspection for relaybot.
//
// Nothing here is a package-level singleton: Settings, Telemetry and
// DebugProbes are built once in main (or by the facade) and passed down.
package control
