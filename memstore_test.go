package livechat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/coregx/livechat/model"
)

// memStore is an in-memory implementation of every repository contract.
type memStore struct {
	mu sync.Mutex

	nextID       int64
	rooms        map[int64]model.Room
	participants []model.Participant
	messages     []model.Message
	reads        map[[2]int64]model.MessageRead
	users        map[int64]model.User
	products     map[int64]model.Product

	existsCalls int
	failExists  error
	failSave    error
}

func newMemStore() *memStore {
	return &memStore{
		rooms:    make(map[int64]model.Room),
		reads:    make(map[[2]int64]model.MessageRead),
		users:    make(map[int64]model.User),
		products: make(map[int64]model.Product),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return u
}

func (s *memStore) addProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return p
}

// seedRoom inserts an OPEN room with the given participants and returns its id.
func (s *memStore) seedRoom(productID, buyerID, sellerID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := model.NewRoom(productID, buyerID, time.Now().UTC())
	room.ID = s.id()
	s.rooms[room.ID] = room
	s.participants = append(s.participants,
		model.Participant{ID: s.id(), RoomID: room.ID, UserID: buyerID, Role: model.RoleInRoomBuyer},
		model.Participant{ID: s.id(), RoomID: room.ID, UserID: sellerID, Role: model.RoleInRoomSeller},
	)
	return room.ID
}

func (s *memStore) countReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reads)
}

func (s *memStore) countMessages(roomID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.RoomID == roomID {
			n++
		}
	}
	return n
}

// RoomRepository

type memRooms struct{ *memStore }

func (r memRooms) Load(_ context.Context, id int64) (model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return model.Room{}, ErrNoData
	}
	return room, nil
}

func (r memRooms) ExistsOpen(_ context.Context, productID, buyerID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.OpenGuardKey(productID, buyerID)
	for _, room := range r.rooms {
		if room.OpenGuard.Valid && room.OpenGuard.String == key {
			return true, nil
		}
	}
	return false, nil
}

func (r memRooms) MarkClosed(_ context.Context, id int64, closedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || !room.IsOpen() {
		return false, nil
	}
	_ = room.Close(closedAt)
	r.rooms[id] = room
	return true, nil
}

func (r memRooms) TouchLastMessage(_ context.Context, id int64, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return ErrNoData
	}
	room.TouchLastMessage(sentAt)
	r.rooms[id] = room
	return nil
}

// ParticipantRepository

type memParticipants struct{ *memStore }

func (r memParticipants) Exists(_ context.Context, roomID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsCalls++
	if r.failExists != nil {
		return false, r.failExists
	}
	for _, p := range r.participants {
		if p.RoomID == roomID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memParticipants) add(roomID, userID int64, role model.RoleInRoom) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = append(r.participants, model.Participant{ID: r.id(), RoomID: roomID, UserID: userID, Role: role})
}

func (r memParticipants) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.existsCalls
}

// MessageRepository

type memMessages struct{ *memStore }

func (r memMessages) Load(_ context.Context, id int64) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Message{}, ErrNoData
}

func (r memMessages) Save(_ context.Context, m model.Message) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return model.Message{}, r.failSave
	}
	m.ID = r.id()
	r.messages = append(r.messages, m)
	return m, nil
}

func (r memMessages) FindUpTo(_ context.Context, roomID, lastID int64) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.messages {
		if m.RoomID == roomID && m.ID <= lastID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memMessages) FindPage(_ context.Context, roomID int64, cursor *int64, limit int) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.messages {
		if m.RoomID != roomID {
			continue
		}
		if cursor != nil && m.ID >= *cursor {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MessageReadRepository

type memReads struct{ *memStore }

func (r memReads) SaveIfAbsent(_ context.Context, read model.MessageRead) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{read.MessageID, read.UserID}
	if _, ok := r.reads[key]; ok {
		return false, nil
	}
	read.ID = r.id()
	r.reads[key] = read
	return true, nil
}

// UserRepository, ProductRepository

type memUsers struct{ *memStore }

func (r memUsers) Load(_ context.Context, id int64) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, ErrNoData
	}
	return u, nil
}

type memProducts struct{ *memStore }

func (r memProducts) Load(_ context.Context, id int64) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return model.Product{}, ErrNoData
	}
	return p, nil
}

// RoomStore

type memRoomStore struct{ *memStore }

func (r memRoomStore) Create(_ context.Context, room model.Room, participants []model.Participant, first model.Message) (*RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.OpenGuard.Valid && existing.OpenGuard == room.OpenGuard {
			return nil, NewError(ErrCodeAlreadyExists, "open room exists")
		}
	}
	room.ID = r.id()
	room.TouchLastMessage(first.SentAt)
	r.rooms[room.ID] = room

	saved := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		p.ID = r.id()
		p.RoomID = room.ID
		r.participants = append(r.participants, p)
		saved = append(saved, p)
	}

	first.ID = r.id()
	first.RoomID = room.ID
	r.messages = append(r.messages, first)

	return &RoomSnapshot{Room: room, Participants: saved, FirstMessage: first}, nil
}

// recordingBroadcaster captures broadcasts.
type recordingBroadcaster struct {
	mu     sync.Mutex
	sent   []sentEvent
	failOn error
}

type sentEvent struct {
	Destination string
	Event       Event
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, destination string, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn != nil {
		return b.failOn
	}
	b.sent = append(b.sent, sentEvent{Destination: destination, Event: event})
	return nil
}

func (b *recordingBroadcaster) events() []sentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentEvent(nil), b.sent...)
}

var errStorage = errors.New("storage unavailable")

var fixedNow = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fixture wires every service over one memStore.
type fixture struct {
	store       *memStore
	registry    *ParticipantRegistry
	broadcaster *recordingBroadcaster

	buyer   model.User
	seller  model.User
	other   model.User
	product model.Product
}

func newFixture() *fixture {
	store := newMemStore()
	registry, err := NewParticipantRegistry(WithRegistryRepository(memParticipants{store}))
	if err != nil {
		panic(err)
	}
	f := &fixture{
		store:       store,
		registry:    registry,
		broadcaster: &recordingBroadcaster{},
	}
	f.buyer = store.addUser(model.User{ID: 1001, Name: "buyer", Email: "b@example.com", Role: model.RoleBuyer})
	f.seller = store.addUser(model.User{ID: 1002, Name: "seller", Email: "s@example.com", Role: model.RoleSeller})
	f.other = store.addUser(model.User{ID: 1003, Name: "other", Email: "o@example.com", Role: model.RoleBuyer})
	f.product = store.addProduct(model.Product{ID: 500, SellerID: f.seller.ID, Name: "bike", Price: 12000, Status: model.ProductStatusOnSale})
	return f
}

func (f *fixture) options() []Option {
	return []Option{
		WithRoomRepository(memRooms{f.store}),
		WithMessageRepository(memMessages{f.store}),
		WithMessageReadRepository(memReads{f.store}),
		WithUserRepository(memUsers{f.store}),
		WithProductRepository(memProducts{f.store}),
		WithRoomStore(memRoomStore{f.store}),
		WithParticipantDirectory(f.registry),
		WithBroadcaster(f.broadcaster),
		WithClock(fixedClock),
	}
}

func (f *fixture) dispatcher() *MessageDispatcher {
	d, err := NewMessageDispatcher(f.options()...)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) tracker() *ReadReceiptTracker {
	t, err := NewReadReceiptTracker(f.options()...)
	if err != nil {
		panic(err)
	}
	return t
}

func (f *fixture) rooms() *RoomLifecycleManager {
	m, err := NewRoomLifecycleManager(f.options()...)
	if err != nil {
		panic(err)
	}
	return m
}

func (f *fixture) history() *HistoryReader {
	h, err := NewHistoryReader(f.options()...)
	if err != nil {
		panic(err)
	}
	return h
}
