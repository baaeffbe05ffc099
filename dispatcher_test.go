package livechat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/livechat/model"
)

func TestNewMessageDispatcher_RequiredOptions(t *testing.T) {
	_, err := NewMessageDispatcher()
	require.Error(t, err)
	assert.Equal(t, ErrCodeConfiguration, CodeOf(err))
	assert.Contains(t, err.Error(), "WithRoomRepository")

	_, err = NewMessageDispatcher(WithLogger(nil))
	require.Error(t, err)
	assert.Equal(t, ErrCodeConfiguration, CodeOf(err))
}

func TestMessageDispatcher_SendMessage(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)

	msg, err := f.dispatcher().SendMessage(context.Background(), SendMessageRequest{
		RoomID:   roomID,
		WriterID: f.buyer.ID,
		Type:     "TEXT",
		Content:  "is this still available?",
	})
	require.NoError(t, err)

	assert.NotZero(t, msg.ID)
	assert.Equal(t, roomID, msg.RoomID)
	assert.Equal(t, f.buyer.ID, msg.WriterID)
	assert.Equal(t, fixedNow, msg.SentAt, "sent-at is server time")

	events := f.broadcaster.events()
	require.Len(t, events, 1)
	assert.Equal(t, RoomChannel(roomID), events[0].Destination)

	event, ok := events[0].Event.(MessageEvent)
	require.True(t, ok)
	assert.Equal(t, EventMessage, event.Event)
	assert.Equal(t, msg.ID, event.Message.ID)
	assert.Equal(t, "TEXT", event.Message.Type)
	assert.Equal(t, 1, event.Message.ReadCount)

	room, err := memRooms{f.store}.Load(context.Background(), roomID)
	require.NoError(t, err)
	assert.True(t, room.LastMessageSentAt.Valid)
	assert.Equal(t, fixedNow, room.LastMessageSentAt.Time)
}

func TestMessageDispatcher_Failures(t *testing.T) {
	f := newFixture()
	openRoom := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	closedRoom := f.store.seedRoom(f.product.ID+1, f.buyer.ID, f.seller.ID)
	_, err := f.rooms().CloseRoom(context.Background(), closedRoom, f.seller.ID)
	require.NoError(t, err)

	ghost := int64(9999)
	memParticipants{f.store}.add(openRoom, ghost, model.RoleInRoomBuyer)

	tests := []struct {
		name     string
		req      SendMessageRequest
		wantCode string
		protocol ProtocolError
	}{
		{
			name:     "room not found",
			req:      SendMessageRequest{RoomID: 777, WriterID: f.buyer.ID, Type: "TEXT", Content: "hi"},
			wantCode: ErrCodeChatRoomNotFound,
			protocol: ProtocolNotFound,
		},
		{
			name:     "closed room",
			req:      SendMessageRequest{RoomID: closedRoom, WriterID: f.buyer.ID, Type: "TEXT", Content: "hi"},
			wantCode: ErrCodeForbidden,
			protocol: ProtocolForbidden,
		},
		{
			name:     "non-participant",
			req:      SendMessageRequest{RoomID: openRoom, WriterID: f.other.ID, Type: "TEXT", Content: "hi"},
			wantCode: ErrCodeForbidden,
			protocol: ProtocolForbidden,
		},
		{
			name:     "blank content",
			req:      SendMessageRequest{RoomID: openRoom, WriterID: f.buyer.ID, Type: "TEXT", Content: "  \t "},
			wantCode: ErrCodeInvalidMessage,
			protocol: ProtocolInvalid,
		},
		{
			name:     "unknown type",
			req:      SendMessageRequest{RoomID: openRoom, WriterID: f.buyer.ID, Type: "VIDEO", Content: "hi"},
			wantCode: ErrCodeInvalidMessage,
			protocol: ProtocolInvalid,
		},
		{
			name:     "writer account missing",
			req:      SendMessageRequest{RoomID: openRoom, WriterID: ghost, Type: "TEXT", Content: "hi"},
			wantCode: ErrCodeAuthFailed,
			protocol: ProtocolAuthFailed,
		},
		{
			name:     "closed check precedes blank content",
			req:      SendMessageRequest{RoomID: closedRoom, WriterID: f.buyer.ID, Type: "VIDEO", Content: ""},
			wantCode: ErrCodeForbidden,
			protocol: ProtocolForbidden,
		},
	}

	dispatcher := f.dispatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f.broadcaster.events())
			_, err := dispatcher.SendMessage(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, CodeOf(err))
			assert.Equal(t, tt.protocol, ToProtocol(err))
			assert.Len(t, f.broadcaster.events(), before, "failed send must not broadcast")
		})
	}

	assert.Zero(t, f.store.countMessages(closedRoom), "closed room never persists a message")
	assert.Zero(t, f.store.countMessages(openRoom))
}

func TestMessageDispatcher_PersistenceFailure(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	f.store.failSave = errStorage

	_, err := f.dispatcher().SendMessage(context.Background(), SendMessageRequest{
		RoomID: roomID, WriterID: f.buyer.ID, Type: "TEXT", Content: "hi",
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeDatabase, CodeOf(err))
	assert.Equal(t, ProtocolInternal, ToProtocol(err))
	assert.Empty(t, f.broadcaster.events())
}

func TestMessageDispatcher_BroadcastFailureKeepsMessage(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	f.broadcaster.failOn = errStorage

	_, err := f.dispatcher().SendMessage(context.Background(), SendMessageRequest{
		RoomID: roomID, WriterID: f.buyer.ID, Type: "IMAGE", Content: "https://cdn.example.com/a.png",
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeDelivery, CodeOf(err))
	assert.Equal(t, ProtocolInternal, ToProtocol(err))
	assert.Equal(t, 1, f.store.countMessages(roomID))
}
