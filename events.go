package livechat

import (
	"encoding/json"
	"time"

	"github.com/coregx/livechat/model"
)

// Event names carried in the "event" field of every envelope.
const (
	EventMessage    = "MESSAGE"
	EventRead       = "READ"
	EventRoomClosed = "ROOM_CLOSED"
	EventError      = "ERROR"
)

// CloseReasonTradeDone is the reason tag of a room closed by a participant.
const CloseReasonTradeDone = "TRADE_DONE"

// Event is a payload that can be broadcast to a channel.
type Event interface {
	// EventName returns the value of the envelope's "event" field.
	EventName() string
}

// MessageEvent announces a new chat message on a room's message channel.
type MessageEvent struct {
	Event   string         `json:"event"`
	Message MessagePayload `json:"message"`
}

// MessagePayload is the message body of a MessageEvent.
type MessagePayload struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"roomId"`
	WriterID  int64     `json:"writerId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
	ReadCount int       `json:"readCount"`
}

// NewMessageEvent builds the MESSAGE envelope of a persisted message.
// The writer counts as the first reader.
func NewMessageEvent(m model.Message) MessageEvent {
	return MessageEvent{
		Event: EventMessage,
		Message: MessagePayload{
			ID:        m.ID,
			RoomID:    m.RoomID,
			WriterID:  m.WriterID,
			Type:      string(m.Type),
			Content:   m.Content,
			SentAt:    m.SentAt,
			ReadCount: 1,
		},
	}
}

// EventName implements Event.
func (e MessageEvent) EventName() string { return e.Event }

// ReadEvent announces that a reader has read up to a watermark.
type ReadEvent struct {
	Event             string    `json:"event"`
	RoomID            int64     `json:"roomId"`
	ReaderID          int64     `json:"readerId"`
	LastReadMessageID int64     `json:"lastReadMessageId"`
	ReadAt            time.Time `json:"readAt"`
}

// EventName implements Event.
func (e ReadEvent) EventName() string { return e.Event }

// RoomClosedEvent announces a room's transition to CLOSED on its system channel.
type RoomClosedEvent struct {
	Event    string    `json:"event"`
	RoomID   int64     `json:"roomId"`
	ClosedBy int64     `json:"closedBy"`
	Reason   string    `json:"reason"`
	ClosedAt time.Time `json:"closedAt"`
}

// EventName implements Event.
func (e RoomClosedEvent) EventName() string { return e.Event }

// ErrorEvent is sent to the offending connection only. It is never broadcast.
type ErrorEvent struct {
	Event   string       `json:"event"`
	Message ErrorPayload `json:"message"`
}

// ErrorPayload is the body of an ErrorEvent.
type ErrorPayload struct {
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// EventName implements Event.
func (e ErrorEvent) EventName() string { return e.Event }

// NewErrorEvent projects err onto the protocol taxonomy.
func NewErrorEvent(err error, now time.Time) ErrorEvent {
	p := ToProtocol(err)
	return ErrorEvent{
		Event: EventError,
		Message: ErrorPayload{
			Status:    p.Status,
			Code:      p.Code,
			Message:   p.Message,
			Timestamp: now,
		},
	}
}

// fallbackErrorPayload is sent when the error envelope itself cannot be encoded.
var fallbackErrorPayload = []byte(`{"event":"ERROR","message":{"status":4005,"code":"WS_INTERNAL_ERROR","message":"internal server error"}}`)

// marshalEvent is replaceable in tests.
var marshalEvent = json.Marshal

// EncodeErrorEvent returns the JSON body of the ERROR frame for err.
// It never fails: an encoding failure yields a fixed WS_INTERNAL_ERROR document.
func EncodeErrorEvent(err error, now time.Time) []byte {
	data, mErr := marshalEvent(NewErrorEvent(err, now))
	if mErr != nil {
		return fallbackErrorPayload
	}
	return data
}

// EncodeEvent returns the JSON body of e.
func EncodeEvent(e Event) ([]byte, error) {
	data, err := marshalEvent(e)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeInternal, "failed to encode "+e.EventName()+" event", err)
	}
	return data, nil
}
