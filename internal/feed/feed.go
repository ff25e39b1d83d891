// Package feed carries sightings from whatever observes them to the
// collaboration worker.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/scout-helper/tracker/internal/channel"
	"github.com/scout-helper/tracker/pkg/core"
)

// ErrQueueFull is returned by Publish on a non-blocking feed whose queue is full.
var ErrQueueFull = errors.New("sighting queue full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("feed closed")

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// HandlerFunc processes one sighting.
type HandlerFunc func(context.Context, core.Sighting) error

// Option configures a Feed.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
	source     string
}

// Buffered sets the queue size. The default is 64.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes Publish wait for room instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging around every handled sighting.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Source names the producer in metrics.
func Source(name string) Option {
	return func(c *config) {
		c.source = name
	}
}

// Feed is a queue of sightings with a single consumer.
type Feed struct {
	cfg    config
	ch     channel.Channel[core.Sighting]
	logger Logger

	queueSize metric.Int64ObservableGauge
	published metric.Int64Counter
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	attrs     metric.MeasurementOption

	mu     sync.RWMutex
	closed bool
	// closing is canceled by Close to release blocked publishers.
	closing context.Context
	stop    context.CancelFunc
	sending sync.WaitGroup
}

// New creates a Feed. Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, opts ...Option) (*Feed, error) {
	cfg := config{bufferSize: 64, source: "default"}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Feed{
		cfg:    cfg,
		ch:     channel.New[core.Sighting](cfg.bufferSize),
		logger: logger,
		attrs:  metric.WithAttributes(attribute.String("source", cfg.source)),
	}
	f.closing, f.stop = context.WithCancel(context.Background())

	m := meter()
	var err error

	f.queueSize, err = m.Int64ObservableGauge(
		"feed.queue.size",
		metric.WithDescription("Current number of sightings waiting to be handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(f.queueSize, int64(f.ch.Len()), metric.WithAttributes(attribute.String("source", cfg.source)))
			return nil
		},
		f.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	if f.published, err = m.Int64Counter("feed.sightings.published", metric.WithDescription("Total sightings published")); err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}
	if f.processed, err = m.Int64Counter("feed.sightings.processed", metric.WithDescription("Total sightings handled")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if f.dropped, err = m.Int64Counter("feed.sightings.dropped", metric.WithDescription("Total sightings dropped due to full queue")); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return f, nil
}

// Publish queues a sighting. A blocking Publish waiting for room returns
// ErrClosed once the feed is closed.
func (f *Feed) Publish(ctx context.Context, s core.Sighting) error {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		return ErrClosed
	}
	f.sending.Add(1)
	f.mu.RUnlock()
	defer f.sending.Done()

	if f.cfg.blocking {
		sendCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		defer context.AfterFunc(f.closing, cancel)()
		if err := f.ch.Send(sendCtx, s); err != nil {
			if f.closing.Err() != nil && ctx.Err() == nil {
				return ErrClosed
			}
			return err
		}
	} else if !f.ch.TrySend(s) {
		f.dropped.Add(ctx, 1, f.attrs)
		return ErrQueueFull
	}
	f.published.Add(ctx, 1, f.attrs)
	return nil
}

// Len returns the number of queued sightings.
func (f *Feed) Len() int {
	return f.ch.Len()
}

// Close stops accepting sightings and releases blocked publishers. Consume
// drains what is queued and returns.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.stop()
	f.sending.Wait()
	f.ch.Close()
}

// Consume calls h for every sighting until the feed is closed or ctx is done.
// Handler errors are logged and do not stop the loop.
func (f *Feed) Consume(ctx context.Context, h HandlerFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-f.ch.Receive():
			if !ok {
				return
			}
			f.handle(ctx, h, s)
		}
	}
}

func (f *Feed) handle(ctx context.Context, h HandlerFunc, s core.Sighting) {
	start := time.Now()
	if f.cfg.logged {
		f.logger.Debug("handling sighting", "mob", s.Name, "mobId", s.MobID, "instance", s.Instance)
	}

	err := h(ctx, s)
	f.processed.Add(ctx, 1, f.attrs)

	if err != nil {
		f.logger.Error("sighting failed", "mob", s.Name, "mobId", s.MobID, "duration", time.Since(start), "error", err)
	} else if f.cfg.logged {
		f.logger.Debug("sighting complete", "mob", s.Name, "duration", time.Since(start))
	}
}
