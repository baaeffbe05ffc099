package livechat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServices(t *testing.T) {
	f := newFixture()

	services, err := NewServices(f.options()...)
	require.NoError(t, err)
	assert.NotNil(t, services.Dispatcher)
	assert.NotNil(t, services.Tracker)
	assert.NotNil(t, services.Rooms)
	assert.NotNil(t, services.History)

	_, err = NewServices(WithRoomRepository(memRooms{f.store}))
	assert.Equal(t, ErrCodeConfiguration, CodeOf(err))
}

func TestNewServices_RegistryFromParticipantRepository(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	ctx := context.Background()

	base := []Option{
		WithRoomRepository(memRooms{f.store}),
		WithMessageRepository(memMessages{f.store}),
		WithMessageReadRepository(memReads{f.store}),
		WithUserRepository(memUsers{f.store}),
		WithProductRepository(memProducts{f.store}),
		WithRoomStore(memRoomStore{f.store}),
		WithClock(fixedClock),
	}

	_, err := NewServices(base...)
	assert.Equal(t, ErrCodeConfiguration, CodeOf(err), "membership source is required")

	services, err := NewServices(append(base, WithParticipantRepository(memParticipants{f.store}))...)
	require.NoError(t, err)

	_, err = services.Dispatcher.SendMessage(ctx, SendMessageRequest{RoomID: roomID, WriterID: f.seller.ID, Type: "TEXT", Content: "hi"})
	require.NoError(t, err)

	_, err = services.Dispatcher.SendMessage(ctx, SendMessageRequest{RoomID: roomID, WriterID: f.other.ID, Type: "TEXT", Content: "hi"})
	assert.Equal(t, ErrCodeForbidden, CodeOf(err))

	// The room manager registers new members in the same registry the
	// dispatcher reads from.
	created, err := services.Rooms.CreateRoom(ctx, CreateRoomRequest{ProductID: f.product.ID, BuyerID: f.other.ID, Content: "mine?"})
	require.NoError(t, err)
	calls := memParticipants{f.store}.calls()
	_, err = services.Dispatcher.SendMessage(ctx, SendMessageRequest{RoomID: created.Room.ID, WriterID: f.other.ID, Type: "TEXT", Content: "again"})
	require.NoError(t, err)
	assert.Equal(t, calls, memParticipants{f.store}.calls(), "membership served from the shared cache")
}
