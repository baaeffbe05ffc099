package livechat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/livechat/model"
)

func TestRoomLifecycleManager_CreateRoom(t *testing.T) {
	f := newFixture()
	manager := f.rooms()
	ctx := context.Background()

	created, err := manager.CreateRoom(ctx, CreateRoomRequest{
		ProductID: f.product.ID, BuyerID: f.buyer.ID, Content: "hi",
	})
	require.NoError(t, err)

	assert.NotZero(t, created.Room.ID)
	assert.Equal(t, model.RoomStatusOpen, created.Room.Status)
	assert.Equal(t, "bike", created.ProductName)
	assert.True(t, created.Room.LastMessageSentAt.Valid)

	require.Len(t, created.Members, 2)
	roles := map[int64]model.RoleInRoom{}
	for _, m := range created.Members {
		roles[m.Participant.UserID] = m.Participant.Role
		assert.Equal(t, m.Participant.UserID, m.User.ID)
	}
	assert.Equal(t, map[int64]model.RoleInRoom{
		f.buyer.ID:  model.RoleInRoomBuyer,
		f.seller.ID: model.RoleInRoomSeller,
	}, roles)

	assert.Equal(t, f.buyer.ID, created.FirstMessage.WriterID)
	assert.Equal(t, "hi", created.FirstMessage.Content)
	assert.Equal(t, model.MessageTypeText, created.FirstMessage.Type)
	assert.Equal(t, 1, f.store.countMessages(created.Room.ID))

	// Both parties are registered, so no storage lookup is needed.
	calls := memParticipants{f.store}.calls()
	for _, userID := range []int64{f.buyer.ID, f.seller.ID} {
		ok, err := f.registry.IsParticipant(ctx, created.Room.ID, userID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, calls, memParticipants{f.store}.calls())
}

func TestRoomLifecycleManager_CreateRoomFailures(t *testing.T) {
	f := newFixture()
	soldOut := f.store.addProduct(model.Product{ID: 501, SellerID: f.seller.ID, Name: "lamp", Status: model.ProductStatusSoldOut})
	orphan := f.store.addProduct(model.Product{ID: 502, Name: "desk", Status: model.ProductStatusOnSale})
	ghostSeller := f.store.addProduct(model.Product{ID: 503, SellerID: 4040, Name: "chair", Status: model.ProductStatusOnSale})
	f.store.seedRoom(orphan.ID, f.other.ID, 0)
	f.store.seedRoom(ghostSeller.ID, f.other.ID, ghostSeller.SellerID)
	manager := f.rooms()

	_, err := manager.CreateRoom(context.Background(), CreateRoomRequest{ProductID: f.product.ID, BuyerID: f.other.ID, Content: "first"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		req      CreateRoomRequest
		wantCode string
		status   int
	}{
		{"unknown buyer", CreateRoomRequest{ProductID: f.product.ID, BuyerID: 31337, Content: "hi"}, ErrCodeAuthUserNotFound, 401},
		{"seller cannot open", CreateRoomRequest{ProductID: f.product.ID, BuyerID: f.seller.ID, Content: "hi"}, ErrCodeCreateAccessDenied, 403},
		{"blank content", CreateRoomRequest{ProductID: f.product.ID, BuyerID: f.buyer.ID, Content: " "}, ErrCodeValidation, 400},
		{"unknown product", CreateRoomRequest{ProductID: 1, BuyerID: f.buyer.ID, Content: "hi"}, ErrCodeProductNotFound, 404},
		{"sold out", CreateRoomRequest{ProductID: soldOut.ID, BuyerID: f.buyer.ID, Content: "hi"}, ErrCodeProductNotAvailable, 409},
		{"no seller", CreateRoomRequest{ProductID: orphan.ID, BuyerID: f.buyer.ID, Content: "hi"}, ErrCodeProductSellerMissing, 404},
		{"seller account missing", CreateRoomRequest{ProductID: ghostSeller.ID, BuyerID: f.buyer.ID, Content: "hi"}, ErrCodeProductSellerMissing, 404},
		{"open room exists", CreateRoomRequest{ProductID: f.product.ID, BuyerID: f.other.ID, Content: "again"}, ErrCodeAlreadyExists, 409},
		{"open room reported before missing seller", CreateRoomRequest{ProductID: orphan.ID, BuyerID: f.other.ID, Content: "again"}, ErrCodeAlreadyExists, 409},
		{"open room reported before missing seller account", CreateRoomRequest{ProductID: ghostSeller.ID, BuyerID: f.other.ID, Content: "again"}, ErrCodeAlreadyExists, 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.CreateRoom(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, CodeOf(err))
			assert.Equal(t, tt.status, ToHTTP(err).Status)
		})
	}
}

func TestRoomLifecycleManager_ReopenAfterClose(t *testing.T) {
	f := newFixture()
	manager := f.rooms()
	ctx := context.Background()

	first, err := manager.CreateRoom(ctx, CreateRoomRequest{ProductID: f.product.ID, BuyerID: f.buyer.ID, Content: "hi"})
	require.NoError(t, err)
	_, err = manager.CloseRoom(ctx, first.Room.ID, f.buyer.ID)
	require.NoError(t, err)

	second, err := manager.CreateRoom(ctx, CreateRoomRequest{ProductID: f.product.ID, BuyerID: f.buyer.ID, Content: "hi again"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Room.ID, second.Room.ID)
}

func TestRoomLifecycleManager_CloseRoom(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	manager := f.rooms()

	room, err := manager.CloseRoom(context.Background(), roomID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusClosed, room.Status)
	assert.Equal(t, fixedNow, room.ClosedAt.Time)

	events := f.broadcaster.events()
	require.Len(t, events, 1)
	assert.Equal(t, SystemChannel(roomID), events[0].Destination)
	closed, ok := events[0].Event.(RoomClosedEvent)
	require.True(t, ok)
	assert.Equal(t, RoomClosedEvent{
		Event:    EventRoomClosed,
		RoomID:   roomID,
		ClosedBy: f.seller.ID,
		Reason:   "TRADE_DONE",
		ClosedAt: fixedNow,
	}, closed)

	_, err = manager.CloseRoom(context.Background(), roomID, f.buyer.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeAlreadyClosed, CodeOf(err))
	assert.Len(t, f.broadcaster.events(), 1, "closing twice never re-broadcasts")
}

func TestRoomLifecycleManager_CloseRoomFailures(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	manager := f.rooms()

	_, err := manager.CloseRoom(context.Background(), 404, f.buyer.ID)
	assert.Equal(t, ErrCodeChatRoomNotFound, CodeOf(err))

	_, err = manager.CloseRoom(context.Background(), roomID, f.other.ID)
	assert.Equal(t, ErrCodeAccessDenied, CodeOf(err))
	assert.Equal(t, 403, ToHTTP(err).Status)
	assert.Empty(t, f.broadcaster.events())
}

// lostRaceRooms reports the room OPEN on Load but loses the conditional update.
type lostRaceRooms struct{ memRooms }

func (r lostRaceRooms) MarkClosed(context.Context, int64, time.Time) (bool, error) {
	return false, nil
}

func TestRoomLifecycleManager_CloseRoomLostRace(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	opts := append(f.options(), WithRoomRepository(lostRaceRooms{memRooms{f.store}}))
	manager, err := NewRoomLifecycleManager(opts...)
	require.NoError(t, err)

	_, err = manager.CloseRoom(context.Background(), roomID, f.buyer.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeAlreadyClosed, CodeOf(err))
	assert.Empty(t, f.broadcaster.events())
}

func TestRoomLifecycleManager_UpdateStatus(t *testing.T) {
	f := newFixture()
	manager := f.rooms()
	ctx := context.Background()

	open := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	_, err := manager.UpdateStatus(ctx, open, "OPEN", f.buyer.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidStatus, CodeOf(err))

	_, err = manager.UpdateStatus(ctx, open, "ARCHIVED", f.buyer.ID)
	assert.Equal(t, ErrCodeInvalidStatus, CodeOf(err))

	room, err := manager.UpdateStatus(ctx, open, "CLOSED", f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusClosed, room.Status)

	// Already-closed is reported before the target status is looked at.
	_, err = manager.UpdateStatus(ctx, open, "OPEN", f.buyer.ID)
	assert.Equal(t, ErrCodeAlreadyClosed, CodeOf(err))
}
