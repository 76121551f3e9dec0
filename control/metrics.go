// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Process counters for the bot, backed by a private Prometheus registry.
// Constructed once at startup and handed to the components that count.

package control

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momentics/relaybot/api"
)

// Counter names.
const (
	DiscordConnected          = "discord_connected"
	DiscordReconnected        = "discord_reconnected"
	DiscordBrokenPipe         = "discord_broken_pipe"
	DiscordBrokenConfigUpdate = "discord_broken_config_update"
	DiscordConfigSaved        = "discord_config_saved"
	DiscordNoAppInfo          = "discord_no_app_info"
	DiscordMsgReject          = "discord_msg_reject"
	DiscordMsgFail            = "discord_msg_fail"
	DiscordShutdown           = "discord_shutdown"
	DiscordFailure            = "discord_failure"
	DiscordCmdCount           = "discord_cmd_count"
	DiscordNewMember          = "discord_new_member"
	DiscordLossMember         = "discord_loss_member"
	TwitterStartStream        = "twitter_start_stream"
	TwitterRetweet            = "twitter_retweet"
	RelayBuffered             = "relay_buffered"
	RelayDropped              = "relay_dropped"
	RelayDrained              = "relay_drained"
)

var counterHelp = map[string]string{
	DiscordConnected:          "Chat gateway connections established.",
	DiscordReconnected:        "Chat gateway sessions resumed.",
	DiscordBrokenPipe:         "Broken pipes between the gateway and the bot.",
	DiscordBrokenConfigUpdate: "Failed attempts to persist the bot configuration.",
	DiscordConfigSaved:        "Successful saves of the bot configuration.",
	DiscordNoAppInfo:          "Failures to fetch application info.",
	DiscordMsgReject:          "Messages rejected by the chat service.",
	DiscordMsgFail:            "Messages that failed to send.",
	DiscordShutdown:           "Graceful shutdowns.",
	DiscordFailure:            "Gateway runs aborted with an error.",
	DiscordCmdCount:           "Commands handled.",
	DiscordNewMember:          "Members joined.",
	DiscordLossMember:         "Members left.",
	TwitterStartStream:        "Social stream (re)starts.",
	TwitterRetweet:            "Relay attempts to chat channels.",
	RelayBuffered:             "Posts buffered while the chat connection was down.",
	RelayDropped:              "Posts dropped because the buffer was full.",
	RelayDrained:              "Buffered posts delivered after reconnect.",
}

// Telemetry holds the named counters of one process.
type Telemetry struct {
	registry *prometheus.Registry

	mu       sync.RWMutex
	counters map[string]prometheus.Counter
}

// NewTelemetry registers every known counter on a fresh registry.
func NewTelemetry() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter, len(counterHelp)),
	}
	for name, help := range counterHelp {
		t.register(name, help)
	}
	return t
}

func (t *Telemetry) register(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relaybot",
		Name:      name + "_total",
		Help:      help,
	})
	t.registry.MustRegister(c)
	t.counters[name] = c
	return c
}

// Counter returns the counter called name, registering it on first use.
func (t *Telemetry) Counter(name string) api.Counter {
	t.mu.RLock()
	c, ok := t.counters[name]
	t.mu.RUnlock()
	if ok {
		return c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.counters[name]; ok {
		return c
	}
	return t.register(name, name)
}

// Inc increments the counter called name.
func (t *Telemetry) Inc(name string) {
	t.Counter(name).Inc()
}

// Value returns the current value of the counter called name.
func (t *Telemetry) Value(name string) uint64 {
	snap := t.Snapshot()
	return snap[name]
}

// Snapshot returns the value of every counter.
func (t *Telemetry) Snapshot() map[string]uint64 {
	families, err := t.registry.Gather()
	out := make(map[string]uint64)
	if err != nil {
		return out
	}
	t.mu.RLock()
	names := make(map[string]string, len(t.counters))
	for name := range t.counters {
		names["relaybot_"+name+"_total"] = name
	}
	t.mu.RUnlock()
	for _, mf := range families {
		name, ok := names[mf.GetName()]
		if !ok {
			continue
		}
		for _, m := range mf.GetMetric() {
			out[name] += uint64(m.GetCounter().GetValue())
		}
	}
	return out
}

// Registry exposes the underlying Prometheus registry so the command can add
// runtime collectors next to the bot counters.
func (t *Telemetry) Registry() *prometheus.Registry {
	return t.registry
}

// Handler serves the registry in the Prometheus text format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
