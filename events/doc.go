// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events carries workflow notifications out of the engine after the
producing transaction commits.

Components depend only on Emitter. In production it is a Dispatcher: a
bounded Queue drained by one worker goroutine that hands each event to the
configured sinks in order.

	d := events.NewDispatcher([]events.Sink{kafkaSink, events.NewLogSink(nil)},
		events.WithQueueSize(settings.EventQueueSize))
	d.Start(ctx)
	defer d.Shutdown(shutdownCtx)

Delivery is best effort. A full queue drops the event and a failing sink is
logged and counted; neither reaches the caller that emitted.

# Kafka

KafkaSink writes JSON-encoded events with the area id as message key and
the event kind as a header. Report and notification services consume the
topic.
*/
package events
