// Package relay
// Author: momentics <momentics@gmail.com>
//
// Outbox forwards social posts to every subscribed chat channel. While no
// chat connection is attached, posts are parked in a lock-free ring queue
// and drained in order when a connection is attached again.

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/momentics/relaybot/control"
	"github.com/momentics/relaybot/internal/autosave"
	"github.com/momentics/relaybot/internal/botstate"
	"github.com/momentics/relaybot/internal/concurrency"
)

// ErrRejected marks a send refused by the chat service itself, as opposed to
// a transport failure. Sinks wrap it.
var ErrRejected = errors.New("message rejected")

// Post is one relayed social post.
type Post struct {
	ID     uint64
	Author string
	Kind   botstate.Kind
}

// URL is the public link posted to chat.
func (p Post) URL() string {
	return fmt.Sprintf("https://twitter.com/%s/status/%d", p.Author, p.ID)
}

// Sink delivers text to a chat channel.
type Sink interface {
	Send(ctx context.Context, channel uint64, text string) error
}

type sinkRef struct{ Sink }

// Outbox is safe for concurrent use by any number of producers.
type Outbox struct {
	queue *concurrency.RingQueue[Post]
	store *autosave.Store[botstate.Config]
	tel   *control.Telemetry
	log   *zap.Logger

	sink atomic.Pointer[sinkRef]

	// drainMu orders the buffered backlog ahead of live posts.
	drainMu sync.Mutex
}

// NewOutbox builds a detached outbox reading subscriptions from store.
func NewOutbox(store *autosave.Store[botstate.Config], tel *control.Telemetry, logger *zap.Logger) *Outbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tel == nil {
		tel = control.NewTelemetry()
	}
	return &Outbox{
		queue: concurrency.NewRingQueue[Post](),
		store: store,
		tel:   tel,
		log:   logger,
	}
}

// Place delivers post now, or buffers it when no sink is attached. A post
// that finds the buffer full is dropped and concurrency.ErrQueueFull is
// returned. Live delivery waits for any drain in progress, so a post never
// overtakes the backlog. Sinks must not call Place from Send.
func (o *Outbox) Place(ctx context.Context, post Post) error {
	if o.sink.Load() != nil {
		if live, err := o.placeLive(ctx, post); live {
			return err
		}
	}

	if err := o.queue.Push(post); err != nil {
		o.tel.Inc(control.RelayDropped)
		o.log.Warn("relay buffer full, dropping post",
			zap.Uint64("id", post.ID), zap.Stringer("kind", post.Kind))
		return err
	}
	o.tel.Inc(control.RelayBuffered)

	// a sink attached between the check and the enqueue would miss this post
	if o.sink.Load() != nil {
		o.Flush(ctx)
	}
	return nil
}

// placeLive drains the backlog and then delivers post, all under drainMu.
// live is false when the sink went away meanwhile and post must be buffered.
func (o *Outbox) placeLive(ctx context.Context, post Post) (live bool, err error) {
	o.drainMu.Lock()
	defer o.drainMu.Unlock()
	o.flushLocked(ctx)
	if o.Buffered() > 0 {
		return false, nil
	}
	ref := o.sink.Load()
	if ref == nil {
		return false, nil
	}
	return true, o.deliver(ctx, ref.Sink, post)
}

// Attach installs sink and drains everything buffered so far. Returns the
// number of drained posts. Posts placed during the drain are delivered after
// it.
func (o *Outbox) Attach(ctx context.Context, sink Sink) int {
	o.drainMu.Lock()
	defer o.drainMu.Unlock()
	o.sink.Store(&sinkRef{sink})
	n := o.flushLocked(ctx)
	if n > 0 {
		o.log.Info("drained buffered posts", zap.Int("count", n))
	}
	return n
}

// Detach removes the sink; later posts are buffered.
func (o *Outbox) Detach() {
	o.sink.Store(nil)
}

// Attached reports whether a sink is installed.
func (o *Outbox) Attached() bool {
	return o.sink.Load() != nil
}

// Flush delivers buffered posts to the current sink in queue order and
// returns how many were taken from the buffer. Stops early if the sink is
// detached or ctx is done.
func (o *Outbox) Flush(ctx context.Context) int {
	o.drainMu.Lock()
	defer o.drainMu.Unlock()
	return o.flushLocked(ctx)
}

func (o *Outbox) flushLocked(ctx context.Context) int {
	n := 0
	for ctx.Err() == nil {
		ref := o.sink.Load()
		if ref == nil {
			break
		}
		post, err := o.queue.Pop()
		if err != nil {
			break
		}
		_ = o.deliver(ctx, ref.Sink, post)
		o.tel.Inc(control.RelayDrained)
		n++
	}
	return n
}

// Buffered returns the number of parked posts.
func (o *Outbox) Buffered() int {
	return o.queue.Len()
}

// deliver sends post to every subscribed channel. Subscriptions are copied
// under the read lock; sends happen outside it.
func (o *Outbox) deliver(ctx context.Context, sink Sink, post Post) error {
	channels := autosave.Read(o.store, func(c *botstate.Config) []uint64 {
		return c.Subscribers(post.Kind)
	})

	var errs []error
	text := post.URL()
	for _, ch := range channels {
		if err := o.send(ctx, sink, ch, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *Outbox) send(ctx context.Context, sink Sink, channel uint64, text string) error {
	scope := o.tel.Begin(control.TwitterRetweet)
	defer scope.Done()

	if err := ctx.Err(); err != nil {
		scope.Cancel()
		return err
	}
	err := sink.Send(ctx, channel, text)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRejected) {
		o.tel.Inc(control.DiscordMsgReject)
	} else {
		o.tel.Inc(control.DiscordMsgFail)
		o.log.Warn("relay failed", zap.Uint64("channel", channel), zap.Error(err))
	}
	return fmt.Errorf("channel %d: %w", channel, err)
}
