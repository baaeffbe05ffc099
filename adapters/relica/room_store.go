package relica

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/model"
)

// RoomStore implements livechat.RoomStore.
//
// Creation spans three tables and must commit or roll back as a whole,
// so it runs on a database/sql transaction directly.
type RoomStore struct {
	db          *sql.DB
	driverName  string
	tablePrefix string
}

// NewRoomStore creates a new RoomStore with default table prefix.
func NewRoomStore(db *sql.DB, driverName string) *RoomStore {
	return NewRoomStoreWithPrefix(db, driverName, DefaultTablePrefix)
}

// NewRoomStoreWithPrefix creates a new RoomStore with custom table prefix.
func NewRoomStoreWithPrefix(db *sql.DB, driverName, prefix string) *RoomStore {
	return &RoomStore{db: db, driverName: driverName, tablePrefix: prefix}
}

// Create inserts the room, its participants and the first message atomically.
func (s *RoomStore) Create(ctx context.Context, room model.Room, participants []model.Participant, first model.Message) (*livechat.RoomSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room.TouchLastMessage(first.SentAt)
	room.ID, err = s.insert(ctx, tx, s.tablePrefix+"room",
		[]string{"product_id", "status", "opened_at", "closed_at", "last_message_sent_at", "open_guard"},
		room.ProductID, room.Status, room.OpenedAt, room.ClosedAt, room.LastMessageSentAt, room.OpenGuard)
	if isUniqueViolation(err) {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeAlreadyExists, "an open chat room already exists for this product", err)
	}
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to insert room", err)
	}

	saved := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		p.RoomID = room.ID
		p.ID, err = s.insert(ctx, tx, s.tablePrefix+"participant",
			[]string{"room_id", "user_id", "role_in_room", "joined_at"},
			p.RoomID, p.UserID, p.Role, p.JoinedAt)
		if err != nil {
			return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to insert participant", err)
		}
		saved = append(saved, p)
	}

	first.RoomID = room.ID
	first.ID, err = s.insert(ctx, tx, s.tablePrefix+"message",
		[]string{"room_id", "writer_id", "type", "content", "sent_at"},
		first.RoomID, first.WriterID, first.Type, first.Content, first.SentAt)
	if err != nil {
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to insert first message", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, livechat.NewErrorWithCause(livechat.ErrCodeAlreadyExists, "an open chat room already exists for this product", err)
		}
		return nil, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to commit room", err)
	}
	committed = true

	return &livechat.RoomSnapshot{Room: room, Participants: saved, FirstMessage: first}, nil
}

// insert adds one row and returns its generated id.
func (s *RoomStore) insert(ctx context.Context, tx *sql.Tx, table string, columns []string, args ...any) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)

	if s.driverName == driverPostgres {
		var id int64
		err := tx.QueryRowContext(ctx, rebind(s.driverName, query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
