// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/danielhkuo/olympiad/metrics"
)

// Sink delivers one event to an outside consumer.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher queues events and hands them to sinks from a single worker.
type Dispatcher struct {
	queue *Queue
	sinks []Sink
	log   *slog.Logger

	startOnce sync.Once
	started   atomic.Bool
	done      chan struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize bounds the number of undelivered events.
func WithQueueSize(size int) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = NewQueue(size)
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDispatcher creates a dispatcher delivering to sinks in order.
func NewDispatcher(sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sinks: sinks,
		log:   slog.Default(),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.queue == nil {
		d.queue = NewQueue(defaultQueueCapacity)
	}
	d.log = d.log.With("component", "events")
	return d
}

// Emit enqueues e. A full or closed queue drops the event.
func (d *Dispatcher) Emit(_ context.Context, e Event) {
	if d.queue.Enqueue(e) {
		return
	}
	metrics.RecordEventDropped()
	d.log.Warn("event dropped", "kind", e.Kind, "area_id", e.AreaID, "event_id", e.ID)
}

// Start launches the delivery worker. Later calls are no-ops.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.started.Store(true)
		go d.run(ctx)
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	for e := range d.queue.Events() {
		metrics.UpdateEventQueueSize(d.queue.Len())
		d.deliver(ctx, e)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, e); err != nil {
			metrics.RecordEventDelivery(sink.Name(), "fail")
			d.log.Error("failed to deliver event",
				"sink", sink.Name(), "kind", e.Kind, "event_id", e.ID, "error", err)
			continue
		}
		metrics.RecordEventDelivery(sink.Name(), "ok")
	}
}

// Shutdown closes the queue and waits for buffered events to drain.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.queue.Close()
	if !d.started.Load() {
		return nil
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.log.Warn("event shutdown timed out", "pending", d.queue.Len())
		return fmt.Errorf("event shutdown timed out: %w", ctx.Err())
	}
}
