package livechat

import (
	"context"
	"slices"

	"github.com/coregx/livechat/model"
)

// HistoryReader pages backwards through a room's messages.
type HistoryReader struct {
	deps *dependencies
}

// NewHistoryReader creates a new HistoryReader with the provided options.
//
// Required options:
//   - WithRoomRepository
//   - WithMessageRepository
//   - WithParticipantDirectory
//
// Optional: WithMaxPageSize (default MaxPageSize).
func NewHistoryReader(opts ...Option) (*HistoryReader, error) {
	d, err := newDependencies(opts)
	if err != nil {
		return nil, err
	}
	for _, check := range []error{
		requireDependency(d.rooms != nil, "RoomRepository", "WithRoomRepository"),
		requireDependency(d.messages != nil, "MessageRepository", "WithMessageRepository"),
		requireDependency(d.directory != nil, "ParticipantDirectory", "WithParticipantDirectory"),
	} {
		if check != nil {
			return nil, check
		}
	}
	return &HistoryReader{deps: d}, nil
}

// ListMessagesRequest represents a request for one page of history.
type ListMessagesRequest struct {
	RoomID      int64
	Cursor      *int64 // Return messages with id < Cursor; nil for the newest page
	Size        *int   // Page size; nil for the default
	RequesterID int64
}

// MessagePage is one page of history in ascending id order.
type MessagePage struct {
	RoomID     int64
	Size       int // Page size used for the query
	HasNext    bool
	NextCursor *int64 // Oldest id of the page when HasNext
	Messages   []model.Message
}

// ListMessages returns up to Size messages older than Cursor.
//
// The checks run in this order:
//  1. Room id is positive (ErrCodeChatRoomInvalidInput)
//  2. Room exists (ErrCodeChatRoomNotFound)
//  3. Requester is a participant (ErrCodeAccessDenied)
//  4. Cursor and size are positive (ErrCodeBadPagination); a larger size
//     than the limit is clamped to it
func (h *HistoryReader) ListMessages(ctx context.Context, req ListMessagesRequest) (*MessagePage, error) {
	d := h.deps

	if req.RoomID <= 0 {
		return nil, NewError(ErrCodeChatRoomInvalidInput, "chat room id must be positive")
	}
	room, err := d.loadRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if err := d.requireParticipant(ctx, room.ID, req.RequesterID, ErrCodeAccessDenied); err != nil {
		return nil, err
	}
	size, err := h.pageSize(req)
	if err != nil {
		return nil, err
	}

	rows, err := d.messages.FindPage(ctx, room.ID, req.Cursor, size+1)
	if err != nil && !IsNoData(err) {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load messages", err)
	}

	hasNext := len(rows) > size
	if hasNext {
		rows = rows[:size]
	}
	slices.Reverse(rows)

	page := &MessagePage{
		RoomID:   room.ID,
		Size:     size,
		HasNext:  hasNext,
		Messages: rows,
	}
	if page.Messages == nil {
		page.Messages = []model.Message{}
	}
	if hasNext && len(rows) > 0 {
		oldest := rows[0].ID
		page.NextCursor = &oldest
	}
	return page, nil
}

func (h *HistoryReader) pageSize(req ListMessagesRequest) (int, error) {
	if req.Cursor != nil && *req.Cursor <= 0 {
		return 0, NewError(ErrCodeBadPagination, "cursor must be positive")
	}
	limit := h.deps.maxPageSize
	if req.Size == nil {
		return min(DefaultPageSize, limit), nil
	}
	if *req.Size <= 0 {
		return 0, NewError(ErrCodeBadPagination, "size must be positive")
	}
	return min(*req.Size, limit), nil
}
