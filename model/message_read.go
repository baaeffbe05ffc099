package model

import "time"

// MessageRead records that a user has read a message. Unique per
// (message, user); re-marking is a no-op.
type MessageRead struct {
	ID        int64     `json:"id" db:"id"`
	MessageID int64     `json:"messageId" db:"message_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ReadAt    time.Time `json:"readAt" db:"read_at"`
}

// TableName returns the database table name for MessageRead.
func (m MessageRead) TableName() string {
	return tablePrefix + "message_read"
}

// NewMessageRead creates a read receipt.
func NewMessageRead(messageID, userID int64, readAt time.Time) MessageRead {
	return MessageRead{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    readAt,
	}
}
