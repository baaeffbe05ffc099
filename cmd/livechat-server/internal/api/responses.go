package api

import (
	"time"

	"github.com/coregx/livechat"
)

// CreateRoomRequest is the body of POST /api/products/:productId/chat-rooms.
type CreateRoomRequest struct {
	Content string `json:"content"`
}

// UpdateStatusRequest is the body of PATCH /api/chat/rooms/:roomId/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantResponse is one member of a created room.
type ParticipantResponse struct {
	UserID     int64  `json:"userId"`
	UserName   string `json:"userName"`
	RoleInRoom string `json:"roleInRoom"`
}

// FirstMessageResponse is the message that opened a room.
type FirstMessageResponse struct {
	MessageID  int64     `json:"messageId"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	SentAt     time.Time `json:"sentAt"`
	WriterID   int64     `json:"writerId"`
	WriterName string    `json:"writerName"`
}

// CreateRoomResponse is returned with 201 Created.
type CreateRoomResponse struct {
	ChatRoomID   int64                 `json:"chatRoomId"`
	Status       string                `json:"status"`
	ProductName  string                `json:"productName"`
	Participants []ParticipantResponse `json:"participants"`
	FirstMessage FirstMessageResponse  `json:"firstMessage"`
}

// MessageResponse is one entry of a history page.
type MessageResponse struct {
	MessageID   int64     `json:"messageId"`
	WriterID    int64     `json:"writerId"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	SentAt      time.Time `json:"sentAt"`
}

// HistoryResponse is one page of message history.
type HistoryResponse struct {
	ChatRoomID  int64             `json:"chatRoomId"`
	Size        int               `json:"size"`
	HasNext     bool              `json:"hasNext"`
	NextCursor  *int64            `json:"nextCursor"`
	MessageList []MessageResponse `json:"messageList"`
}

func newCreateRoomResponse(created *livechat.CreatedRoom) CreateRoomResponse {
	participants := make([]ParticipantResponse, 0, len(created.Members))
	for _, m := range created.Members {
		participants = append(participants, ParticipantResponse{
			UserID:     m.User.ID,
			UserName:   m.User.Name,
			RoleInRoom: string(m.Participant.Role),
		})
	}

	return CreateRoomResponse{
		ChatRoomID:   created.Room.ID,
		Status:       string(created.Room.Status),
		ProductName:  created.ProductName,
		Participants: participants,
		FirstMessage: FirstMessageResponse{
			MessageID:  created.FirstMessage.ID,
			Content:    created.FirstMessage.Content,
			Type:       string(created.FirstMessage.Type),
			SentAt:     created.FirstMessage.SentAt,
			WriterID:   created.Writer.ID,
			WriterName: created.Writer.Name,
		},
	}
}

func newHistoryResponse(page *livechat.MessagePage) HistoryResponse {
	messages := make([]MessageResponse, 0, len(page.Messages))
	for _, m := range page.Messages {
		messages = append(messages, MessageResponse{
			MessageID:   m.ID,
			WriterID:    m.WriterID,
			Content:     m.Content,
			MessageType: string(m.Type),
			SentAt:      m.SentAt,
		})
	}

	return HistoryResponse{
		ChatRoomID:  page.RoomID,
		Size:        page.Size,
		HasNext:     page.HasNext,
		NextCursor:  page.NextCursor,
		MessageList: messages,
	}
}
