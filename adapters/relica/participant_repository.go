package relica

import (
	"context"
	"database/sql"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/model"
	"github.com/coregx/relica"
)

// ParticipantRepository implements livechat.ParticipantRepository using Relica.
type ParticipantRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewParticipantRepository creates a new ParticipantRepository with default table prefix.
func NewParticipantRepository(sqlDB *sql.DB, driverName string) *ParticipantRepository {
	return NewParticipantRepositoryWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewParticipantRepositoryWithPrefix creates a new ParticipantRepository with custom table prefix.
func NewParticipantRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *ParticipantRepository {
	return &ParticipantRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *ParticipantRepository) tableName() string {
	return r.tablePrefix + "participant"
}

// Exists reports whether userID participates in roomID.
func (r *ParticipantRepository) Exists(ctx context.Context, roomID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Select("COUNT(*)").
		From(r.tableName()).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		One(&count)
	if err != nil {
		return false, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to check participant", err)
	}
	return count > 0, nil
}
