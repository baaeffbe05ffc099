package livechat

import (
	"context"

	"github.com/coregx/livechat/model"
)

// ReadReceiptTracker marks every message up to a watermark as read by a user.
type ReadReceiptTracker struct {
	deps *dependencies
}

// NewReadReceiptTracker creates a new ReadReceiptTracker with the provided options.
//
// Required options:
//   - WithRoomRepository
//   - WithMessageRepository
//   - WithMessageReadRepository
//   - WithUserRepository
//   - WithParticipantDirectory
func NewReadReceiptTracker(opts ...Option) (*ReadReceiptTracker, error) {
	d, err := newDependencies(opts)
	if err != nil {
		return nil, err
	}
	for _, check := range []error{
		requireDependency(d.rooms != nil, "RoomRepository", "WithRoomRepository"),
		requireDependency(d.messages != nil, "MessageRepository", "WithMessageRepository"),
		requireDependency(d.reads != nil, "MessageReadRepository", "WithMessageReadRepository"),
		requireDependency(d.users != nil, "UserRepository", "WithUserRepository"),
		requireDependency(d.directory != nil, "ParticipantDirectory", "WithParticipantDirectory"),
	} {
		if check != nil {
			return nil, check
		}
	}
	return &ReadReceiptTracker{deps: d}, nil
}

// MarkReadRequest reports the newest message a reader has seen.
type MarkReadRequest struct {
	RoomID            int64 `json:"roomId"`
	ReaderID          int64 `json:"-"`
	LastReadMessageID int64 `json:"lastReadMessageId"`
}

// ReadResult represents the result of a MarkRead call.
type ReadResult struct {
	Event   ReadEvent // Broadcast READ event
	Created int       // Receipts newly created by this call
}

// MarkRead records a receipt for every message of the room with
// id <= LastReadMessageID and broadcasts one READ event.
//
// Calling it again with the same arguments creates no new receipts.
func (t *ReadReceiptTracker) MarkRead(ctx context.Context, req MarkReadRequest) (*ReadResult, error) {
	d := t.deps

	room, err := d.loadRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if err := d.requireParticipant(ctx, room.ID, req.ReaderID, ErrCodeForbidden); err != nil {
		return nil, err
	}
	if err := t.requireWatermark(ctx, room.ID, req.LastReadMessageID); err != nil {
		return nil, err
	}
	if _, err := d.loadUser(ctx, req.ReaderID, ErrCodeAuthFailed); err != nil {
		return nil, err
	}

	messages, err := d.messages.FindUpTo(ctx, room.ID, req.LastReadMessageID)
	if err != nil && !IsNoData(err) {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load messages", err)
	}

	now := d.now()
	created := 0
	for _, m := range messages {
		ok, err := d.reads.SaveIfAbsent(ctx, model.NewMessageRead(m.ID, req.ReaderID, now))
		if err != nil {
			return nil, NewErrorWithCause(ErrCodeDatabase, "failed to save read receipt", err)
		}
		if ok {
			created++
		}
	}

	d.logger.Debugf("Read receipts: room=%d, reader=%d, upTo=%d, created=%d",
		room.ID, req.ReaderID, req.LastReadMessageID, created)
	d.metrics.ReadReceipts(ctx, created)

	event := ReadEvent{
		Event:             EventRead,
		RoomID:            room.ID,
		ReaderID:          req.ReaderID,
		LastReadMessageID: req.LastReadMessageID,
		ReadAt:            now,
	}
	if err := d.broadcaster.Broadcast(ctx, RoomChannel(room.ID), event); err != nil {
		return nil, NewErrorWithCause(ErrCodeDelivery, "failed to broadcast read event", err)
	}

	return &ReadResult{Event: event, Created: created}, nil
}

func (t *ReadReceiptTracker) requireWatermark(ctx context.Context, roomID, messageID int64) error {
	if messageID <= 0 {
		return NewError(ErrCodeInvalidMessage, "last read message id is required")
	}
	m, err := t.deps.messages.Load(ctx, messageID)
	if err != nil {
		if IsNoData(err) {
			return NewError(ErrCodeInvalidMessage, "last read message does not exist")
		}
		return NewErrorWithCause(ErrCodeDatabase, "failed to load message", err)
	}
	if m.RoomID != roomID {
		return NewError(ErrCodeInvalidMessage, "last read message belongs to another room")
	}
	return nil
}
