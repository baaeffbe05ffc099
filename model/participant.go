package model

import "time"

// RoleInRoom is a participant's role within one room.
type RoleInRoom string

const (
	RoleInRoomBuyer  RoleInRoom = "BUYER"
	RoleInRoomSeller RoleInRoom = "SELLER"
)

// Participant links a user to a room. Unique per (room, user); created with
// the room and never removed while the room exists.
type Participant struct {
	ID       int64      `json:"id" db:"id"`
	RoomID   int64      `json:"roomId" db:"room_id"`
	UserID   int64      `json:"userId" db:"user_id"`
	Role     RoleInRoom `json:"roleInRoom" db:"role_in_room"`
	JoinedAt time.Time  `json:"joinedAt" db:"joined_at"`
}

// TableName returns the database table name for Participant.
func (p Participant) TableName() string {
	return tablePrefix + "participant"
}

// NewParticipant creates a participant of roomID. roomID may be zero when the
// room has not been persisted yet.
func NewParticipant(roomID, userID int64, role RoleInRoom, joinedAt time.Time) Participant {
	return Participant{
		RoomID:   roomID,
		UserID:   userID,
		Role:     role,
		JoinedAt: joinedAt,
	}
}
