package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/model"
	"github.com/coregx/relica"
)

// MessageRepository implements livechat.MessageRepository using Relica.
type MessageRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewMessageRepository creates a new MessageRepository with default table prefix.
func NewMessageRepository(sqlDB *sql.DB, driverName string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: DefaultTablePrefix}
}

// NewMessageRepositoryWithPrefix creates a new MessageRepository with custom table prefix.
func NewMessageRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *MessageRepository) tableName() string {
	return r.tablePrefix + "message"
}

// Load retrieves a message by ID.
func (r *MessageRepository) Load(ctx context.Context, id int64) (model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return msg, livechat.ErrNoData
	}
	if err != nil {
		return msg, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to load message", err)
	}
	return msg, nil
}

// Save inserts a new message. Messages are immutable, so a message with an ID is rejected.
func (r *MessageRepository) Save(ctx context.Context, m model.Message) (model.Message, error) {
	if m.ID != 0 {
		return m, livechat.NewError(livechat.ErrCodeValidation, "messages are immutable")
	}
	// m.ID is auto-populated by Model().Insert()
	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
	if err != nil {
		return m, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to insert message", err)
	}
	return m, nil
}

// FindUpTo returns the room's messages with id <= lastID in ascending order.
func (r *MessageRepository) FindUpTo(ctx context.Context, roomID, lastID int64) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("room_id = ? AND id <= ?", roomID, lastID).
		OrderBy("id ASC").
		All(&messages)
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to find messages", err)
	}
	return messages, nil
}

// FindPage returns up to limit messages in descending id order, optionally
// restricted to ids below cursor.
func (r *MessageRepository) FindPage(ctx context.Context, roomID int64, cursor *int64, limit int) ([]model.Message, error) {
	var messages []model.Message

	query := r.db.WithContext(ctx).Select("*").From(r.tableName())
	if cursor != nil {
		query = query.Where("room_id = ? AND id < ?", roomID, *cursor)
	} else {
		query = query.Where("room_id = ?", roomID)
	}

	err := query.OrderBy("id DESC").Limit(int64(limit)).All(&messages)
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to page messages", err)
	}
	return messages, nil
}
