package realtime

import (
	"context"
	"sync"

	"github.com/coregx/livechat"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
)

type subscriptionKey struct {
	sessionID      string
	subscriptionID string
}

// Broker fans events out to subscribed sessions.
//
// Thread safety: Safe for concurrent use.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[subscriptionKey]*Session
	logger livechat.Logger
}

// NewBroker creates an empty broker. A nil logger discards output.
func NewBroker(logger livechat.Logger) *Broker {
	if logger == nil {
		logger = &livechat.NoopLogger{}
	}
	return &Broker{
		topics: make(map[string]map[subscriptionKey]*Session),
		logger: logger,
	}
}

// Subscribe registers s for destination under the client's subscription id.
func (b *Broker) Subscribe(s *Session, subscriptionID, destination string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[destination]
	if !ok {
		subs = make(map[subscriptionKey]*Session)
		b.topics[destination] = subs
	}
	subs[subscriptionKey{sessionID: s.ID, subscriptionID: subscriptionID}] = s
}

// Unsubscribe removes one subscription.
func (b *Broker) Unsubscribe(s *Session, subscriptionID, destination string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(destination, subscriptionKey{sessionID: s.ID, subscriptionID: subscriptionID})
}

// Remove drops every subscription held by s.
func (b *Broker) Remove(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, destination := range s.subscriptions {
		b.removeLocked(destination, subscriptionKey{sessionID: s.ID, subscriptionID: id})
	}
}

func (b *Broker) removeLocked(destination string, key subscriptionKey) {
	subs, ok := b.topics[destination]
	if !ok {
		return
	}
	delete(subs, key)
	if len(subs) == 0 {
		delete(b.topics, destination)
	}
}

// Subscribers returns the number of live subscriptions on destination.
func (b *Broker) Subscribers(destination string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[destination])
}

// Broadcast implements livechat.Broadcaster.
//
// The event is encoded once and queued on every subscriber. A subscriber
// whose queue is full is dropped without failing the broadcast.
func (b *Broker) Broadcast(_ context.Context, destination string, event livechat.Event) error {
	body, err := livechat.EncodeEvent(event)
	if err != nil {
		return livechat.NewErrorWithCause(livechat.ErrCodeDelivery, "failed to encode event", err)
	}

	b.mu.RLock()
	targets := make(map[subscriptionKey]*Session, len(b.topics[destination]))
	for key, s := range b.topics[destination] {
		targets[key] = s
	}
	b.mu.RUnlock()

	for key, s := range targets {
		f := frame.New(frame.MESSAGE,
			frame.Destination, destination,
			frame.Subscription, key.subscriptionID,
			frame.MessageId, uuid.NewString(),
			frame.ContentType, jsonContentType,
		)
		f.Body = body
		if err := s.Send(f); err != nil {
			b.logger.Warnf("Dropping %s for session %s: %v", event.EventName(), s.ID, err)
		}
	}
	return nil
}
