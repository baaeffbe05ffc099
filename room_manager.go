package livechat

import (
	"context"

	"github.com/coregx/livechat/model"
)

// RoomLifecycleManager opens and closes chat rooms.
//
// A room starts OPEN and may move to CLOSED exactly once. Closing broadcasts
// a ROOM_CLOSED event on the room's system channel.
//
// Thread safety: Safe for concurrent use.
type RoomLifecycleManager struct {
	deps *dependencies
}

// NewRoomLifecycleManager creates a new RoomLifecycleManager with the provided options.
//
// Required options:
//   - WithRoomRepository
//   - WithRoomStore
//   - WithUserRepository
//   - WithProductRepository
//   - WithParticipantDirectory
func NewRoomLifecycleManager(opts ...Option) (*RoomLifecycleManager, error) {
	d, err := newDependencies(opts)
	if err != nil {
		return nil, err
	}
	for _, check := range []error{
		requireDependency(d.rooms != nil, "RoomRepository", "WithRoomRepository"),
		requireDependency(d.store != nil, "RoomStore", "WithRoomStore"),
		requireDependency(d.users != nil, "UserRepository", "WithUserRepository"),
		requireDependency(d.products != nil, "ProductRepository", "WithProductRepository"),
		requireDependency(d.directory != nil, "ParticipantDirectory", "WithParticipantDirectory"),
	} {
		if check != nil {
			return nil, check
		}
	}
	return &RoomLifecycleManager{deps: d}, nil
}

// CreateRoomRequest represents a buyer opening a room about a product.
type CreateRoomRequest struct {
	ProductID int64  // Product under discussion
	BuyerID   int64  // Authenticated requester
	Content   string // First message, authored by the buyer
}

// RoomMember is a participant together with the account it refers to.
type RoomMember struct {
	Participant model.Participant
	User        model.User
}

// CreatedRoom represents the result of CreateRoom.
type CreatedRoom struct {
	Room         model.Room
	ProductName  string
	Members      []RoomMember // Buyer first, then seller
	FirstMessage model.Message
	Writer       model.User
}

// CreateRoom opens a room between the buyer and the product's seller.
//
// The checks run in this order:
//  1. Buyer account exists (ErrCodeAuthUserNotFound)
//  2. Buyer has the BUYER role (ErrCodeCreateAccessDenied)
//  3. First message is not blank (ErrCodeValidation)
//  4. Product exists (ErrCodeProductNotFound) and is on sale (ErrCodeProductNotAvailable)
//  5. No OPEN room exists for (product, buyer) (ErrCodeAlreadyExists)
//  6. Product has a seller (ErrCodeProductSellerMissing)
//
// The room, both participants and the first message are then written in one
// transaction, and both participants are registered in the directory.
func (m *RoomLifecycleManager) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreatedRoom, error) {
	d := m.deps

	buyer, err := d.loadUser(ctx, req.BuyerID, ErrCodeAuthUserNotFound)
	if err != nil {
		return nil, err
	}
	if !buyer.IsBuyer() {
		return nil, NewError(ErrCodeCreateAccessDenied, "only buyers can open a chat room")
	}
	if err := requireContent(req.Content, ErrCodeValidation); err != nil {
		return nil, err
	}

	product, err := d.products.Load(ctx, req.ProductID)
	if err != nil {
		if IsNoData(err) {
			return nil, NewError(ErrCodeProductNotFound, "product not found")
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load product", err)
	}
	if !product.AvailableForChat() {
		return nil, NewError(ErrCodeProductNotAvailable, "product is not available for chat")
	}
	exists, err := d.rooms.ExistsOpen(ctx, product.ID, buyer.ID)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to check open chat room", err)
	}
	if exists {
		return nil, NewError(ErrCodeAlreadyExists, "an open chat room for this product already exists")
	}

	if !product.HasSeller() {
		return nil, NewError(ErrCodeProductSellerMissing, "product has no seller")
	}
	seller, err := d.loadUser(ctx, product.SellerID, ErrCodeProductSellerMissing)
	if err != nil {
		return nil, err
	}

	now := d.now()
	snapshot, err := d.store.Create(ctx,
		model.NewRoom(product.ID, buyer.ID, now),
		[]model.Participant{
			model.NewParticipant(0, buyer.ID, model.RoleInRoomBuyer, now),
			model.NewParticipant(0, seller.ID, model.RoleInRoomSeller, now),
		},
		model.NewMessage(0, buyer.ID, model.MessageTypeText, req.Content, now),
	)
	if err != nil {
		if HasCode(err, ErrCodeAlreadyExists) {
			return nil, err
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to create chat room", err)
	}

	room := snapshot.Room
	d.directory.AddParticipant(room.ID, buyer.ID)
	d.directory.AddParticipant(room.ID, seller.ID)

	d.logger.Infof("Chat room created: id=%d, product=%d, buyer=%d, seller=%d",
		room.ID, product.ID, buyer.ID, seller.ID)
	d.metrics.RoomCreated(ctx)

	members := make([]RoomMember, 0, len(snapshot.Participants))
	for _, p := range snapshot.Participants {
		user := buyer
		if p.UserID == seller.ID {
			user = seller
		}
		members = append(members, RoomMember{Participant: p, User: user})
	}

	return &CreatedRoom{
		Room:         room,
		ProductName:  product.Name,
		Members:      members,
		FirstMessage: snapshot.FirstMessage,
		Writer:       buyer,
	}, nil
}

// CloseRoom moves an OPEN room to CLOSED and broadcasts ROOM_CLOSED.
//
// Fails with ErrCodeChatRoomNotFound, ErrCodeAccessDenied for non-participants,
// or ErrCodeAlreadyClosed. A room closed concurrently by another request also
// yields ErrCodeAlreadyClosed and no second broadcast.
func (m *RoomLifecycleManager) CloseRoom(ctx context.Context, roomID, requesterID int64) (*model.Room, error) {
	room, err := m.closableRoom(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	return m.close(ctx, room, requesterID)
}

// UpdateStatus applies a requested status transition. CLOSED is the only
// valid target; anything else fails with ErrCodeInvalidStatus after the room
// checks of CloseRoom have passed.
func (m *RoomLifecycleManager) UpdateStatus(ctx context.Context, roomID int64, status string, requesterID int64) (*model.Room, error) {
	room, err := m.closableRoom(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	target, err := model.ParseRoomStatus(status)
	if err != nil || target != model.RoomStatusClosed {
		return nil, NewError(ErrCodeInvalidStatus, "only CLOSED is a valid target status")
	}
	return m.close(ctx, room, requesterID)
}

func (m *RoomLifecycleManager) closableRoom(ctx context.Context, roomID, requesterID int64) (model.Room, error) {
	d := m.deps

	room, err := d.loadRoom(ctx, roomID)
	if err != nil {
		return model.Room{}, err
	}
	if err := d.requireParticipant(ctx, room.ID, requesterID, ErrCodeAccessDenied); err != nil {
		return model.Room{}, err
	}
	if !room.IsOpen() {
		return model.Room{}, NewError(ErrCodeAlreadyClosed, "chat room is already closed")
	}
	return room, nil
}

func (m *RoomLifecycleManager) close(ctx context.Context, room model.Room, requesterID int64) (*model.Room, error) {
	d := m.deps
	now := d.now()

	closed, err := d.rooms.MarkClosed(ctx, room.ID, now)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to close chat room", err)
	}
	if !closed {
		return nil, NewError(ErrCodeAlreadyClosed, "chat room is already closed")
	}
	if err := room.Close(now); err != nil {
		return nil, NewErrorWithCause(ErrCodeAlreadyClosed, "chat room is already closed", err)
	}

	d.logger.Infof("Chat room closed: id=%d, by=%d", room.ID, requesterID)
	d.metrics.RoomClosed(ctx)

	event := RoomClosedEvent{
		Event:    EventRoomClosed,
		RoomID:   room.ID,
		ClosedBy: requesterID,
		Reason:   CloseReasonTradeDone,
		ClosedAt: now,
	}
	if err := d.broadcaster.Broadcast(ctx, SystemChannel(room.ID), event); err != nil {
		d.logger.Errorf("Chat room %d closed but ROOM_CLOSED broadcast failed: %v", room.ID, err)
	}

	return &room, nil
}
