package relica

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/model"
	"github.com/coregx/relica"
)

// RoomRepository implements livechat.RoomRepository using Relica.
type RoomRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewRoomRepository creates a new RoomRepository with default table prefix.
func NewRoomRepository(sqlDB *sql.DB, driverName string) *RoomRepository {
	return NewRoomRepositoryWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewRoomRepositoryWithPrefix creates a new RoomRepository with custom table prefix.
func NewRoomRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *RoomRepository {
	return &RoomRepository{
		db:          relica.WrapDB(sqlDB, driverName),
		tablePrefix: prefix,
	}
}

func (r *RoomRepository) tableName() string {
	return r.tablePrefix + "room"
}

// Load retrieves a room by ID.
func (r *RoomRepository) Load(ctx context.Context, id int64) (model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&room)
	if errors.Is(err, sql.ErrNoRows) {
		return room, livechat.ErrNoData
	}
	if err != nil {
		return room, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to load room", err)
	}
	return room, nil
}

// ExistsOpen reports whether an OPEN room exists for (productID, buyerID).
// The open guard column holds the pair while the room is open.
func (r *RoomRepository) ExistsOpen(ctx context.Context, productID, buyerID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Select("COUNT(*)").
		From(r.tableName()).
		Where("open_guard = ? AND status = ?", model.OpenGuardKey(productID, buyerID), model.RoomStatusOpen).
		One(&count)
	if err != nil {
		return false, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to check open room", err)
	}
	return count > 0, nil
}

// MarkClosed closes the room only if it is still OPEN.
func (r *RoomRepository) MarkClosed(ctx context.Context, id int64, closedAt time.Time) (bool, error) {
	result, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"status":     model.RoomStatusClosed,
			"closed_at":  closedAt,
			"open_guard": nil,
		}).
		Where("id = ? AND status = ?", id, model.RoomStatusOpen).
		Execute()
	if err != nil {
		return false, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to close room", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to read affected rows", err)
	}
	return affected == 1, nil
}

// TouchLastMessage stamps last_message_sent_at.
func (r *RoomRepository) TouchLastMessage(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"last_message_sent_at": sentAt,
		}).
		Where("id = ?", id).
		Execute()
	if err != nil {
		return livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to stamp last message time", err)
	}
	return nil
}
