package livechat

import "slices"

// Services bundles the chat services built over one set of dependencies.
type Services struct {
	Dispatcher *MessageDispatcher
	Tracker    *ReadReceiptTracker
	Rooms      *RoomLifecycleManager
	History    *HistoryReader
}

// NewServices builds every service from the same options. The options must
// satisfy the union of the services' requirements.
//
// Without WithParticipantDirectory, a ParticipantRegistry is built over the
// repository given with WithParticipantRepository and shared by all services.
func NewServices(opts ...Option) (*Services, error) {
	d, err := newDependencies(opts)
	if err != nil {
		return nil, err
	}
	if d.directory == nil && d.participants != nil {
		registry, err := NewParticipantRegistry(
			WithRegistryRepository(d.participants),
			WithRegistryLogger(d.logger),
		)
		if err != nil {
			return nil, err
		}
		opts = append(slices.Clip(opts), WithParticipantDirectory(registry))
	}

	dispatcher, err := NewMessageDispatcher(opts...)
	if err != nil {
		return nil, err
	}
	tracker, err := NewReadReceiptTracker(opts...)
	if err != nil {
		return nil, err
	}
	rooms, err := NewRoomLifecycleManager(opts...)
	if err != nil {
		return nil, err
	}
	history, err := NewHistoryReader(opts...)
	if err != nil {
		return nil, err
	}
	return &Services{Dispatcher: dispatcher, Tracker: tracker, Rooms: rooms, History: history}, nil
}
