package livechat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestHistoryReader_PageThroughThreeMessages(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	ids := sendN(t, f, roomID, f.buyer.ID, 3)
	reader := f.history()
	ctx := context.Background()

	page, err := reader.ListMessages(ctx, ListMessagesRequest{RoomID: roomID, Size: intPtr(2), RequesterID: f.buyer.ID})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, ids[1], page.Messages[0].ID)
	assert.Equal(t, ids[2], page.Messages[1].ID)
	assert.True(t, page.HasNext)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, ids[1], *page.NextCursor)
	assert.Equal(t, 2, page.Size)

	page, err = reader.ListMessages(ctx, ListMessagesRequest{
		RoomID: roomID, Cursor: page.NextCursor, Size: intPtr(2), RequesterID: f.buyer.ID,
	})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, ids[0], page.Messages[0].ID)
	assert.False(t, page.HasNext)
	assert.Nil(t, page.NextCursor)
}

func TestHistoryReader_FullScrollVisitsEveryMessageOnce(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	ids := sendN(t, f, roomID, f.seller.ID, 11)
	reader := f.history()

	var (
		seen   []int64
		cursor *int64
	)
	for {
		page, err := reader.ListMessages(context.Background(), ListMessagesRequest{
			RoomID: roomID, Cursor: cursor, Size: intPtr(3), RequesterID: f.seller.ID,
		})
		require.NoError(t, err)
		for i := 1; i < len(page.Messages); i++ {
			assert.Less(t, page.Messages[i-1].ID, page.Messages[i].ID, "page is ascending")
		}
		pageIDs := make([]int64, 0, len(page.Messages))
		for _, m := range page.Messages {
			pageIDs = append(pageIDs, m.ID)
		}
		seen = append(pageIDs, seen...)
		if !page.HasNext {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, ids, seen)
}

func TestHistoryReader_DefaultSize(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	sendN(t, f, roomID, f.buyer.ID, 2)

	page, err := f.history().ListMessages(context.Background(), ListMessagesRequest{RoomID: roomID, RequesterID: f.buyer.ID})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Len(t, page.Messages, 2)
	assert.False(t, page.HasNext)
}

func TestHistoryReader_EmptyRoom(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)

	page, err := f.history().ListMessages(context.Background(), ListMessagesRequest{RoomID: roomID, RequesterID: f.buyer.ID})
	require.NoError(t, err)
	assert.NotNil(t, page.Messages)
	assert.Empty(t, page.Messages)
	assert.False(t, page.HasNext)
}

func TestHistoryReader_Failures(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)

	tests := []struct {
		name     string
		req      ListMessagesRequest
		wantCode string
		status   int
	}{
		{"zero room id", ListMessagesRequest{RoomID: 0, RequesterID: f.buyer.ID}, ErrCodeChatRoomInvalidInput, 400},
		{"room not found", ListMessagesRequest{RoomID: 404, RequesterID: f.buyer.ID}, ErrCodeChatRoomNotFound, 404},
		{"non-participant", ListMessagesRequest{RoomID: roomID, RequesterID: f.other.ID}, ErrCodeAccessDenied, 403},
		{"zero cursor", ListMessagesRequest{RoomID: roomID, Cursor: int64Ptr(0), RequesterID: f.buyer.ID}, ErrCodeBadPagination, 400},
		{"negative size", ListMessagesRequest{RoomID: roomID, Size: intPtr(-1), RequesterID: f.buyer.ID}, ErrCodeBadPagination, 400},
		{"zero size", ListMessagesRequest{RoomID: roomID, Size: intPtr(0), RequesterID: f.buyer.ID}, ErrCodeBadPagination, 400},
		{"access checked before pagination", ListMessagesRequest{RoomID: roomID, Size: intPtr(0), RequesterID: f.other.ID}, ErrCodeAccessDenied, 403},
	}

	reader := f.history()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reader.ListMessages(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, CodeOf(err))
			assert.Equal(t, tt.status, ToHTTP(err).Status)
		})
	}
}

func TestHistoryReader_MaxPageSizeOption(t *testing.T) {
	f := newFixture()
	roomID := f.store.seedRoom(f.product.ID, f.buyer.ID, f.seller.ID)
	reader, err := NewHistoryReader(append(f.options(), WithMaxPageSize(10))...)
	require.NoError(t, err)

	page, err := reader.ListMessages(context.Background(), ListMessagesRequest{RoomID: roomID, RequesterID: f.buyer.ID})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Size)

	page, err = reader.ListMessages(context.Background(), ListMessagesRequest{RoomID: roomID, Size: intPtr(11), RequesterID: f.buyer.ID})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Size, "oversized request is clamped")

	page, err = f.history().ListMessages(context.Background(), ListMessagesRequest{RoomID: roomID, Size: intPtr(MaxPageSize + 1), RequesterID: f.buyer.ID})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Size)

	_, err = NewHistoryReader(WithMaxPageSize(0))
	assert.Equal(t, ErrCodeConfiguration, CodeOf(err))
}
