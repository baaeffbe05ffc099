package livechat

import (
	"context"
)

// Broadcaster pushes events to every subscriber of a destination.
//
// The core persists first and broadcasts second. Delivery is best effort:
// a Broadcaster is not expected to queue or retry.
type Broadcaster interface {
	// Broadcast sends event to all current subscribers of destination.
	Broadcast(ctx context.Context, destination string, event Event) error
}

// NoOpBroadcaster is a no-op implementation of Broadcaster.
// Use this when no transport is attached, e.g. for the HTTP surface in tests.
type NoOpBroadcaster struct{}

// Broadcast does nothing.
func (b *NoOpBroadcaster) Broadcast(_ context.Context, _ string, _ Event) error {
	return nil
}

// LoggingBroadcaster decorates a Broadcaster with per-event logging.
type LoggingBroadcaster struct {
	next   Broadcaster
	logger Logger
}

// NewLoggingBroadcaster wraps next. A nil next logs only.
func NewLoggingBroadcaster(next Broadcaster, logger Logger) *LoggingBroadcaster {
	if next == nil {
		next = &NoOpBroadcaster{}
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	return &LoggingBroadcaster{next: next, logger: logger}
}

// Broadcast logs the event and forwards it.
func (b *LoggingBroadcaster) Broadcast(ctx context.Context, destination string, event Event) error {
	b.logger.Debugf("Broadcasting %s to %s", event.EventName(), destination)
	if err := b.next.Broadcast(ctx, destination, event); err != nil {
		b.logger.Warnf("Broadcast of %s to %s failed: %v", event.EventName(), destination, err)
		return err
	}
	return nil
}
