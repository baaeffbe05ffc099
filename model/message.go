package model

import (
	"strings"
	"time"
)

// MessageType distinguishes how a message is rendered.
type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
)

// MessageTypes lists every known message type.
var MessageTypes = []MessageType{MessageTypeText, MessageTypeImage}

// ParseMessageType parses s into a MessageType. Matching is exact, as the
// wire protocol sends enum names.
func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(strings.TrimSpace(s)) {
	case MessageTypeText:
		return MessageTypeText, nil
	case MessageTypeImage:
		return MessageTypeImage, nil
	default:
		return "", ErrUnknownMessageType
	}
}

// Message represents a chat message written by a room participant.
// Messages are immutable once created. IDs are assigned by the database in
// insertion order and are the canonical ordering key within a room.
type Message struct {
	ID       int64       `json:"id" db:"id"`
	RoomID   int64       `json:"roomId" db:"room_id"`
	WriterID int64       `json:"writerId" db:"writer_id"`
	Type     MessageType `json:"type" db:"type"`
	Content  string      `json:"content" db:"content"`
	SentAt   time.Time   `json:"sentAt" db:"sent_at"`
}

// TableName returns the database table name for Message.
func (m Message) TableName() string {
	return tablePrefix + "message"
}

// NewMessage creates a new message. sentAt is always server time.
//
// Parameters:
//   - roomID: The room the message belongs to (zero if the room is not persisted yet)
//   - writerID: The authoring user
//   - messageType: TEXT or IMAGE
//   - content: Message body (text, or an image URL for IMAGE)
//   - sentAt: Server timestamp
func NewMessage(roomID, writerID int64, messageType MessageType, content string, sentAt time.Time) Message {
	return Message{
		ID:       0,
		RoomID:   roomID,
		WriterID: writerID,
		Type:     messageType,
		Content:  content,
		SentAt:   sentAt,
	}
}
