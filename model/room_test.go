package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoom(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	room := NewRoom(7, 42, now)

	assert.Equal(t, int64(0), room.ID)
	assert.Equal(t, int64(7), room.ProductID)
	assert.Equal(t, RoomStatusOpen, room.Status)
	assert.True(t, room.IsOpen())
	assert.Equal(t, now, room.OpenedAt)
	assert.False(t, room.ClosedAt.Valid)
	assert.True(t, room.OpenGuard.Valid)
	assert.Equal(t, "7:42", room.OpenGuard.String)
	assert.Equal(t, "chat_room", room.TableName())
}

func TestRoom_Close(t *testing.T) {
	opened := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	closed := opened.Add(time.Hour)

	room := NewRoom(1, 2, opened)
	require.NoError(t, room.Close(closed))

	assert.Equal(t, RoomStatusClosed, room.Status)
	assert.False(t, room.IsOpen())
	assert.True(t, room.ClosedAt.Valid)
	assert.Equal(t, closed, room.ClosedAt.Time)
	assert.False(t, room.OpenGuard.Valid, "closing releases the open guard")

	err := room.Close(closed.Add(time.Minute))
	assert.ErrorIs(t, err, ErrRoomAlreadyClosed)
	assert.Equal(t, closed, room.ClosedAt.Time, "second close must not restamp")
}

func TestRoom_TouchLastMessage(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	room := NewRoom(1, 2, base)

	room.TouchLastMessage(base.Add(time.Minute))
	assert.Equal(t, base.Add(time.Minute), room.LastMessageSentAt.Time)

	room.TouchLastMessage(base)
	assert.Equal(t, base.Add(time.Minute), room.LastMessageSentAt.Time, "marker never moves backwards")
}

func TestParseRoomStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    RoomStatus
		wantErr bool
	}{
		{"OPEN", RoomStatusOpen, false},
		{"closed", RoomStatusClosed, false},
		{" CLOSED ", RoomStatusClosed, false},
		{"ARCHIVED", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRoomStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownRoomStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMessageType(t *testing.T) {
	tests := []struct {
		in      string
		want    MessageType
		wantErr bool
	}{
		{"TEXT", MessageTypeText, false},
		{"IMAGE", MessageTypeImage, false},
		{"VIDEO", "", true},
		{"text", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMessageType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMessageType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMessage(t *testing.T) {
	now := time.Now()
	msg := NewMessage(3, 9, MessageTypeText, "hi", now)

	assert.Equal(t, int64(0), msg.ID)
	assert.Equal(t, int64(3), msg.RoomID)
	assert.Equal(t, int64(9), msg.WriterID)
	assert.Equal(t, MessageTypeText, msg.Type)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, now, msg.SentAt)
	assert.Equal(t, "chat_message", msg.TableName())
}

func TestProduct_AvailableForChat(t *testing.T) {
	onSale := Product{ID: 1, SellerID: 2, Status: ProductStatusOnSale}
	soldOut := Product{ID: 1, SellerID: 2, Status: ProductStatusSoldOut}
	orphan := Product{ID: 1, Status: ProductStatusOnSale}

	assert.True(t, onSale.AvailableForChat())
	assert.False(t, soldOut.AvailableForChat())
	assert.True(t, onSale.HasSeller())
	assert.False(t, orphan.HasSeller())
}

func TestUser_IsBuyer(t *testing.T) {
	assert.True(t, (&User{Role: RoleBuyer}).IsBuyer())
	assert.False(t, (&User{Role: RoleSeller}).IsBuyer())
	assert.False(t, (&User{Role: RoleAdmin}).IsBuyer())
}
