package relica

import (
	"context"
	"database/sql"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/model"
	"github.com/coregx/relica"
)

// MessageReadRepository implements livechat.MessageReadRepository using Relica.
type MessageReadRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewMessageReadRepository creates a new MessageReadRepository with default table prefix.
func NewMessageReadRepository(sqlDB *sql.DB, driverName string) *MessageReadRepository {
	return NewMessageReadRepositoryWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewMessageReadRepositoryWithPrefix creates a new MessageReadRepository with custom table prefix.
func NewMessageReadRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *MessageReadRepository {
	return &MessageReadRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *MessageReadRepository) tableName() string {
	return r.tablePrefix + "message_read"
}

// SaveIfAbsent stores the receipt unless (message_id, user_id) is already recorded.
// Losing a race against a concurrent insert of the same pair is not an error.
func (r *MessageReadRepository) SaveIfAbsent(ctx context.Context, read model.MessageRead) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Select("COUNT(*)").
		From(r.tableName()).
		Where("message_id = ? AND user_id = ?", read.MessageID, read.UserID).
		One(&count)
	if err != nil {
		return false, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to check read receipt", err)
	}
	if count > 0 {
		return false, nil
	}

	read.ID = 0
	err = r.db.WithContext(ctx).Model(&read).Table(r.tableName()).Insert()
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to insert read receipt", err)
	}
	return true, nil
}
