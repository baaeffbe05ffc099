package livechat

import (
	"fmt"
	"time"
)

// Clock returns the current server time.
type Clock func() time.Time

// ParticipantDirectory is the membership source of the chat services.
// *ParticipantRegistry implements it.
type ParticipantDirectory interface {
	MembershipChecker

	// AddParticipant records a known participant without I/O.
	AddParticipant(roomID, userID int64)
}

// Page size limits of the message history.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// dependencies is the shared configuration of the chat services.
// Each constructor validates only the dependencies its service uses.
type dependencies struct {
	rooms        RoomRepository
	participants ParticipantRepository
	messages     MessageRepository
	reads        MessageReadRepository
	users        UserRepository
	products     ProductRepository
	store        RoomStore
	directory    ParticipantDirectory
	broadcaster  Broadcaster
	logger       Logger
	clock        Clock
	metrics      *Metrics
	maxPageSize  int
}

// Option configures a chat service.
// Used with the Options Pattern for flexible service construction.
//
// Example:
//
//	dispatcher, err := livechat.NewMessageDispatcher(
//	    livechat.WithRoomRepository(roomRepo),
//	    livechat.WithMessageRepository(msgRepo),
//	    livechat.WithUserRepository(userRepo),
//	    livechat.WithParticipantDirectory(registry),
//	    livechat.WithBroadcaster(broker),
//	    livechat.WithLogger(logger),
//	)
type Option func(*dependencies) error

func newDependencies(opts []Option) (*dependencies, error) {
	d := &dependencies{
		broadcaster: &NoOpBroadcaster{},
		logger:      &NoopLogger{},
		clock:       time.Now,
		maxPageSize: MaxPageSize,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply option", err)
		}
	}
	if d.metrics == nil {
		d.metrics = defaultMetrics()
	}
	return d, nil
}

func (d *dependencies) now() time.Time {
	return d.clock().UTC()
}

// WithRoomRepository sets the room repository.
func WithRoomRepository(repo RoomRepository) Option {
	return func(d *dependencies) error {
		if repo == nil {
			return fmt.Errorf("roomRepo cannot be nil")
		}
		d.rooms = repo
		return nil
	}
}

// WithParticipantRepository sets the participant repository NewServices
// builds its shared ParticipantRegistry from.
// Ignored when WithParticipantDirectory is given.
func WithParticipantRepository(repo ParticipantRepository) Option {
	return func(d *dependencies) error {
		if repo == nil {
			return fmt.Errorf("participantRepo cannot be nil")
		}
		d.participants = repo
		return nil
	}
}

// WithMessageRepository sets the message repository.
func WithMessageRepository(repo MessageRepository) Option {
	return func(d *dependencies) error {
		if repo == nil {
			return fmt.Errorf("messageRepo cannot be nil")
		}
		d.messages = repo
		return nil
	}
}

// WithMessageReadRepository sets the read receipt repository.
func WithMessageReadRepository(repo MessageReadRepository) Option {
	return func(d *dependencies) error {
		if repo == nil {
			return fmt.Errorf("messageReadRepo cannot be nil")
		}
		d.reads = repo
		return nil
	}
}

// WithUserRepository sets the user repository.
func WithUserRepository(repo UserRepository) Option {
	return func(d *dependencies) error {
		if repo == nil {
			return fmt.Errorf("userRepo cannot be nil")
		}
		d.users = repo
		return nil
	}
}

// WithProductRepository sets the product repository.
func WithProductRepository(repo ProductRepository) Option {
	return func(d *dependencies) error {
		if repo == nil {
			return fmt.Errorf("productRepo cannot be nil")
		}
		d.products = repo
		return nil
	}
}

// WithRoomStore sets the transactional room store.
func WithRoomStore(store RoomStore) Option {
	return func(d *dependencies) error {
		if store == nil {
			return fmt.Errorf("roomStore cannot be nil")
		}
		d.store = store
		return nil
	}
}

// WithParticipantDirectory sets the membership cache, normally a *ParticipantRegistry.
func WithParticipantDirectory(dir ParticipantDirectory) Option {
	return func(d *dependencies) error {
		if dir == nil {
			return fmt.Errorf("participant directory cannot be nil")
		}
		d.directory = dir
		return nil
	}
}

// WithBroadcaster sets the event fan-out.
// This is an optional configuration - if not provided, NoOpBroadcaster is used.
func WithBroadcaster(b Broadcaster) Option {
	return func(d *dependencies) error {
		if b == nil {
			return fmt.Errorf("broadcaster cannot be nil")
		}
		d.broadcaster = b
		return nil
	}
}

// WithLogger sets the logger instance.
// This is an optional configuration - if not provided, NoopLogger is used.
func WithLogger(logger Logger) Option {
	return func(d *dependencies) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		d.logger = logger
		return nil
	}
}

// WithClock overrides the server clock. Timestamps are always stored in UTC.
func WithClock(clock Clock) Option {
	return func(d *dependencies) error {
		if clock == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		d.clock = clock
		return nil
	}
}

// WithMetrics sets the counters to record into.
// This is an optional configuration - if not provided, counters are created on the global meter.
func WithMetrics(m *Metrics) Option {
	return func(d *dependencies) error {
		if m == nil {
			return fmt.Errorf("metrics cannot be nil")
		}
		d.metrics = m
		return nil
	}
}

// WithMaxPageSize caps the history page size.
// This is an optional configuration - default is MaxPageSize.
func WithMaxPageSize(size int) Option {
	return func(d *dependencies) error {
		if size <= 0 {
			return fmt.Errorf("max page size must be > 0, got %d", size)
		}
		d.maxPageSize = size
		return nil
	}
}

func requireDependency(present bool, name, option string) error {
	if present {
		return nil
	}
	return NewError(ErrCodeConfiguration, fmt.Sprintf("%s is required (use %s)", name, option))
}
