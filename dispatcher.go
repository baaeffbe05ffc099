package livechat

import (
	"context"

	"github.com/coregx/livechat/model"
)

// MessageDispatcher validates chat messages, persists them and broadcasts
// them to the room's subscribers.
//
// Thread safety: Safe for concurrent use.
type MessageDispatcher struct {
	deps *dependencies
}

// NewMessageDispatcher creates a new MessageDispatcher with the provided options.
//
// Required options:
//   - WithRoomRepository
//   - WithMessageRepository
//   - WithUserRepository
//   - WithParticipantDirectory
//
// Optional: WithBroadcaster, WithLogger, WithClock, WithMetrics.
func NewMessageDispatcher(opts ...Option) (*MessageDispatcher, error) {
	d, err := newDependencies(opts)
	if err != nil {
		return nil, err
	}
	for _, check := range []error{
		requireDependency(d.rooms != nil, "RoomRepository", "WithRoomRepository"),
		requireDependency(d.messages != nil, "MessageRepository", "WithMessageRepository"),
		requireDependency(d.users != nil, "UserRepository", "WithUserRepository"),
		requireDependency(d.directory != nil, "ParticipantDirectory", "WithParticipantDirectory"),
	} {
		if check != nil {
			return nil, check
		}
	}
	return &MessageDispatcher{deps: d}, nil
}

// SendMessageRequest represents a request to send a chat message.
type SendMessageRequest struct {
	RoomID   int64  `json:"roomId"`  // Target room
	WriterID int64  `json:"-"`       // Taken from the connection identity, never from the payload
	Type     string `json:"type"`    // TEXT or IMAGE
	Content  string `json:"content"` // Message body
}

// SendMessage persists a message and broadcasts it to the room channel.
//
// The checks run in this order:
//  1. Room exists (ErrCodeChatRoomNotFound)
//  2. Room is open (ErrCodeForbidden)
//  3. Writer is a participant (ErrCodeForbidden)
//  4. Content is not blank (ErrCodeInvalidMessage)
//  5. Type is TEXT or IMAGE (ErrCodeInvalidMessage)
//  6. Writer account exists (ErrCodeAuthFailed)
//
// The message gets a server id and server time. A broadcast failure after a
// successful write is returned as ErrCodeDelivery; the message stays persisted.
func (s *MessageDispatcher) SendMessage(ctx context.Context, req SendMessageRequest) (model.Message, error) {
	d := s.deps

	room, err := d.loadRoom(ctx, req.RoomID)
	if err != nil {
		return model.Message{}, err
	}
	if !room.IsOpen() {
		return model.Message{}, NewError(ErrCodeForbidden, "chat room is closed")
	}
	if err := d.requireParticipant(ctx, room.ID, req.WriterID, ErrCodeForbidden); err != nil {
		return model.Message{}, err
	}
	if err := requireContent(req.Content, ErrCodeInvalidMessage); err != nil {
		return model.Message{}, err
	}
	messageType, err := parseMessageType(req.Type)
	if err != nil {
		return model.Message{}, err
	}
	if _, err := d.loadUser(ctx, req.WriterID, ErrCodeAuthFailed); err != nil {
		return model.Message{}, err
	}

	message := model.NewMessage(room.ID, req.WriterID, messageType, req.Content, d.now())
	message, err = d.messages.Save(ctx, message)
	if err != nil {
		return model.Message{}, NewErrorWithCause(ErrCodeDatabase, "failed to save message", err)
	}

	if err := d.rooms.TouchLastMessage(ctx, room.ID, message.SentAt); err != nil {
		d.logger.Warnf("Failed to stamp last message time: room=%d, message=%d: %v", room.ID, message.ID, err)
	}

	d.logger.Debugf("Message saved: id=%d, room=%d, writer=%d", message.ID, room.ID, req.WriterID)
	d.metrics.MessageSent(ctx, string(messageType))

	if err := d.broadcaster.Broadcast(ctx, RoomChannel(room.ID), NewMessageEvent(message)); err != nil {
		d.logger.Errorf("Message %d persisted but broadcast failed: %v", message.ID, err)
		return model.Message{}, NewErrorWithCause(ErrCodeDelivery, "failed to broadcast message", err)
	}

	return message, nil
}
