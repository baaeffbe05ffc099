package livechat

import (
	"context"
	"time"

	"github.com/coregx/livechat/model"
)

// RoomRepository defines the persistence interface for chat rooms.
//
// Implementations must be safe for concurrent use.
type RoomRepository interface {
	// Load retrieves a room by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Room, error)

	// ExistsOpen reports whether an OPEN room exists for (productID, buyerID).
	ExistsOpen(ctx context.Context, productID, buyerID int64) (bool, error)

	// MarkClosed transitions the room from OPEN to CLOSED in one conditional
	// write. Returns false if the room was not OPEN at write time.
	MarkClosed(ctx context.Context, id int64, closedAt time.Time) (bool, error)

	// TouchLastMessage stamps last_message_sent_at.
	TouchLastMessage(ctx context.Context, id int64, sentAt time.Time) error
}

// ParticipantRepository defines the persistence interface for room participants.
type ParticipantRepository interface {
	// Exists reports whether userID is a persisted participant of roomID.
	Exists(ctx context.Context, roomID, userID int64) (bool, error)
}

// MessageRepository defines the persistence interface for chat messages.
// Messages are immutable once created; IDs grow in insertion order.
type MessageRepository interface {
	// Load retrieves a message by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Message, error)

	// Save creates a new message and returns it with populated ID.
	Save(ctx context.Context, m model.Message) (model.Message, error)

	// FindUpTo returns every message of roomID with id <= lastID,
	// ordered by id ascending.
	FindUpTo(ctx context.Context, roomID, lastID int64) ([]model.Message, error)

	// FindPage returns up to limit messages of roomID ordered by id descending.
	// A non-nil cursor restricts the result to ids strictly below it.
	FindPage(ctx context.Context, roomID int64, cursor *int64, limit int) ([]model.Message, error)
}

// MessageReadRepository defines the persistence interface for read receipts.
type MessageReadRepository interface {
	// SaveIfAbsent stores the receipt unless one already exists for
	// (message, user). Returns true if a row was created. A concurrent
	// duplicate insert is reported as (false, nil), never as an error.
	SaveIfAbsent(ctx context.Context, r model.MessageRead) (bool, error)
}

// UserRepository provides read access to user accounts.
type UserRepository interface {
	// Load retrieves a user by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.User, error)
}

// ProductRepository provides read access to product listings.
type ProductRepository interface {
	// Load retrieves a product by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Product, error)
}

// RoomStore persists a new room as one atomic unit.
type RoomStore interface {
	// Create inserts the room, its participants and the first message in one
	// transaction and stamps the room's last_message_sent_at with the message
	// time. IDs are populated on the returned values. A concurrent OPEN room
	// for the same (product, buyer) yields ErrCodeAlreadyExists.
	Create(ctx context.Context, room model.Room, participants []model.Participant, first model.Message) (*RoomSnapshot, error)
}

// RoomSnapshot is the persisted state of a freshly created room.
type RoomSnapshot struct {
	Room         model.Room
	Participants []model.Participant
	FirstMessage model.Message
}
