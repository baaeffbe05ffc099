package model

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RoomStatus is the lifecycle state of a chat room.
type RoomStatus string

const (
	// RoomStatusOpen is the only initial state.
	RoomStatusOpen RoomStatus = "OPEN"

	// RoomStatusClosed is terminal; a closed room never reopens.
	RoomStatusClosed RoomStatus = "CLOSED"
)

// ParseRoomStatus parses s (case-insensitive) into a RoomStatus.
func ParseRoomStatus(s string) (RoomStatus, error) {
	switch RoomStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case RoomStatusOpen:
		return RoomStatusOpen, nil
	case RoomStatusClosed:
		return RoomStatusClosed, nil
	default:
		return "", ErrUnknownRoomStatus
	}
}

// Room is a one-to-one support conversation between a buyer and the seller
// of a product.
//
// At most one OPEN room exists per (product, buyer). The database enforces
// this through OpenGuard: a unique column holding "productID:buyerID" while the
// room is open and NULL once it is closed.
type Room struct {
	ID                int64          `json:"id" db:"id"`
	ProductID         int64          `json:"productId" db:"product_id"`
	Status            RoomStatus     `json:"status" db:"status"`
	OpenedAt          time.Time      `json:"openedAt" db:"opened_at"`
	ClosedAt          sql.NullTime   `json:"closedAt" db:"closed_at"`
	LastMessageSentAt sql.NullTime   `json:"lastMessageSentAt" db:"last_message_sent_at"`
	OpenGuard         sql.NullString `json:"-" db:"open_guard"`
}

// TableName returns the database table name for Room.
func (r Room) TableName() string {
	return tablePrefix + "room"
}

// NewRoom creates an OPEN room for the given product and buyer.
func NewRoom(productID, buyerID int64, openedAt time.Time) Room {
	return Room{
		ID:        0,
		ProductID: productID,
		Status:    RoomStatusOpen,
		OpenedAt:  openedAt,
		OpenGuard: sql.NullString{String: OpenGuardKey(productID, buyerID), Valid: true},
	}
}

// OpenGuardKey returns the uniqueness key of an open room.
func OpenGuardKey(productID, buyerID int64) string {
	return fmt.Sprintf("%d:%d", productID, buyerID)
}

// IsOpen reports whether the room still accepts messages.
func (r *Room) IsOpen() bool {
	return r.Status == RoomStatusOpen
}

// Close moves the room to CLOSED and releases its open guard.
// Returns ErrRoomAlreadyClosed if the room is already closed.
func (r *Room) Close(closedAt time.Time) error {
	if r.Status == RoomStatusClosed {
		return ErrRoomAlreadyClosed
	}
	r.Status = RoomStatusClosed
	r.ClosedAt = sql.NullTime{Time: closedAt, Valid: true}
	r.OpenGuard = sql.NullString{}
	return nil
}

// TouchLastMessage records the send time of the newest message.
// Older timestamps never move the marker backwards.
func (r *Room) TouchLastMessage(sentAt time.Time) {
	if r.LastMessageSentAt.Valid && r.LastMessageSentAt.Time.After(sentAt) {
		return
	}
	r.LastMessageSentAt = sql.NullTime{Time: sentAt, Valid: true}
}
