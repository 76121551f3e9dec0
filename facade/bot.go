// File: facade/bot.go
// Unified facade layer for relaybot.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bot aggregates the services of one process: settings, logger, counters,
// debug probes, the autosaved bot configuration and the relay outbox. The
// chat and social clients sit outside and talk to the bot through the
// connection hooks and the outbox.

package facade

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/momentics/relaybot/api"
	"github.com/momentics/relaybot/control"
	"github.com/momentics/relaybot/internal/autosave"
	"github.com/momentics/relaybot/internal/botstate"
	"github.com/momentics/relaybot/internal/logging"
	"github.com/momentics/relaybot/internal/relay"
	"github.com/momentics/relaybot/internal/storage"
)

// Option customizes construction, mostly for tests.
type Option func(*buildOptions)

type buildOptions struct {
	backend   api.Backend[botstate.Config]
	clock     api.Clock
	telemetry *control.Telemetry
}

// WithBackend bypasses the backend selected by Settings.Storage.
func WithBackend(b api.Backend[botstate.Config]) Option {
	return func(o *buildOptions) { o.backend = b }
}

// WithClock sets the clock driving the autosave deadline.
func WithClock(c api.Clock) Option {
	return func(o *buildOptions) { o.clock = c }
}

// WithTelemetry shares an existing counter set.
func WithTelemetry(t *control.Telemetry) Option {
	return func(o *buildOptions) { o.telemetry = t }
}

// Bot is the main facade type.
// It implements api.GracefulShutdown.
type Bot struct {
	settings *control.Settings
	log      *zap.Logger
	tel      *control.Telemetry
	debug    *control.DebugProbes
	store    *autosave.Store[botstate.Config]
	outbox   *relay.Outbox

	mu      sync.Mutex
	started bool
	closed  bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*Bot)(nil)

// New loads the stored configuration (falling back to an empty one) and
// wires the services together.
func New(settings *control.Settings, logger *zap.Logger, opts ...Option) (*Bot, error) {
	if settings == nil {
		settings = control.DefaultSettings()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.telemetry == nil {
		o.telemetry = control.NewTelemetry()
	}

	backend := o.backend
	if backend == nil {
		path, err := settings.StatePath()
		if err != nil {
			return nil, fmt.Errorf("state path: %w", err)
		}
		backend, err = storage.Open[botstate.Config](settings.Storage, path, settings.StateName)
		if err != nil {
			return nil, fmt.Errorf("storage init failure: %w", err)
		}
		logger.Info("state backend ready",
			zap.String("storage", string(settings.Storage)), zap.String("path", path))
	}

	b := &Bot{
		settings: settings,
		log:      logger,
		tel:      o.telemetry,
		debug:    control.NewDebugProbes(),
	}
	b.store = autosave.New(backend, botstate.Default,
		autosave.WithInterval(settings.AutosaveInterval),
		autosave.WithClock(o.clock),
		autosave.WithLogger(logging.Component(logger, "autosave")),
		autosave.WithFailureCounter(b.tel.Counter(control.DiscordBrokenConfigUpdate)),
		autosave.WithSuccessCounter(b.tel.Counter(control.DiscordConfigSaved)),
	)
	b.outbox = relay.NewOutbox(b.store, b.tel, logging.Component(logger, "relay"))

	b.debug.RegisterProbe("relay.buffered", func() any { return b.outbox.Buffered() })
	b.debug.RegisterProbe("relay.attached", func() any { return b.outbox.Attached() })
	b.debug.RegisterProbe("state.owner", func() any {
		return autosave.Read(b.store, func(c *botstate.Config) uint64 { return c.Owner })
	})
	return b, nil
}

// Start normalizes the loaded configuration and records the configured owner
// if none is stored. Subsequent calls have no effect.
func (b *Bot) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return api.ErrClosed
	}
	if b.started {
		return nil
	}
	owner := b.settings.OwnerID
	set := autosave.Write(b.store, func(c *botstate.Config) bool {
		c.Normalize()
		return c.SetOwnerIfUnset(owner)
	})
	if set {
		b.log.Info("setting new owner", zap.Uint64("owner", owner))
	}
	b.started = true
	return nil
}

// Shutdown detaches the outbox, writes the configuration one last time and
// closes the backend. Calling it again is a no-op. Afterwards Relay and the
// connection hooks return api.ErrClosed and store writes no longer persist.
func (b *Bot) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.started = false

	b.outbox.Detach()
	if n := b.outbox.Buffered(); n > 0 {
		b.log.Warn("shutting down with buffered posts", zap.Int("count", n))
	}

	saveErr := b.store.Save()
	if saveErr == nil {
		b.log.Info("configuration saved")
	}
	b.tel.Inc(control.DiscordShutdown)
	if err := b.store.Close(); err != nil && saveErr == nil {
		return fmt.Errorf("close state backend: %w", err)
	}
	return saveErr
}

// OnConnected is called when the chat gateway becomes ready. It drains the
// outbox into sink and returns the number of drained posts.
func (b *Bot) OnConnected(ctx context.Context, sink relay.Sink) (int, error) {
	if b.isClosed() {
		return 0, api.ErrClosed
	}
	b.tel.Inc(control.DiscordConnected)
	return b.outbox.Attach(ctx, sink), nil
}

// OnResumed is called when a dropped gateway session is resumed.
func (b *Bot) OnResumed(ctx context.Context, sink relay.Sink) (int, error) {
	if b.isClosed() {
		return 0, api.ErrClosed
	}
	b.tel.Inc(control.DiscordReconnected)
	return b.outbox.Attach(ctx, sink), nil
}

// OnDisconnected is called when the gateway connection is lost.
func (b *Bot) OnDisconnected(err error) {
	b.outbox.Detach()
	if err != nil {
		b.tel.Inc(control.DiscordFailure)
		b.log.Warn("chat gateway stopped with error", zap.Error(err))
	}
}

// Relay places a post in the outbox. After Shutdown it returns api.ErrClosed.
func (b *Bot) Relay(ctx context.Context, post relay.Post) error {
	if b.isClosed() {
		return api.ErrClosed
	}
	return b.outbox.Place(ctx, post)
}

func (b *Bot) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Stats merges counters and debug probes.
func (b *Bot) Stats() map[string]any {
	combined := make(map[string]any)
	for k, v := range b.tel.Snapshot() {
		combined[k] = v
	}
	for k, v := range b.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

// Settings returns the immutable settings.
func (b *Bot) Settings() *control.Settings { return b.settings }

// Store returns the autosaved configuration.
func (b *Bot) Store() *autosave.Store[botstate.Config] { return b.store }

// Outbox returns the relay outbox.
func (b *Bot) Outbox() *relay.Outbox { return b.outbox }

// Telemetry returns the process counters.
func (b *Bot) Telemetry() *control.Telemetry { return b.tel }

// Debug returns the probe registry.
func (b *Bot) Debug() *control.DebugProbes { return b.debug }
