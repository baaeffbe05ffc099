package livechat

import (
	"context"
	"fmt"
	"sync"
)

// ParticipantRegistry answers "is user U a participant of room R?" with as few
// persistence round-trips as possible.
//
// The registry is a write-through cache over ParticipantRepository that only
// ever caches positive answers. Entries are added and never evicted for the
// life of the registry. A user found absent is checked against storage again
// on the next call, so a participant added later is seen without invalidation.
//
// Thread safety: Safe for concurrent use.
type ParticipantRegistry struct {
	participantRepo ParticipantRepository
	logger          Logger

	rooms sync.Map // roomID (int64) -> *memberSet
}

type memberSet struct {
	mu    sync.RWMutex
	users map[int64]struct{}
}

func (s *memberSet) contains(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok
}

func (s *memberSet) add(userID int64) {
	s.mu.Lock()
	s.users[userID] = struct{}{}
	s.mu.Unlock()
}

// RegistryOption configures a ParticipantRegistry.
type RegistryOption func(*ParticipantRegistry) error

// NewParticipantRegistry creates a new ParticipantRegistry.
//
// Required options:
//   - WithRegistryRepository: participant repository used on cache misses
//
// Optional:
//   - WithRegistryLogger: defaults to NoopLogger
func NewParticipantRegistry(opts ...RegistryOption) (*ParticipantRegistry, error) {
	r := &ParticipantRegistry{
		logger: &NoopLogger{},
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply registry option", err)
		}
	}

	if r.participantRepo == nil {
		return nil, NewError(ErrCodeConfiguration, "ParticipantRepository is required (use WithRegistryRepository)")
	}

	return r, nil
}

// WithRegistryRepository sets the participant repository.
func WithRegistryRepository(repo ParticipantRepository) RegistryOption {
	return func(r *ParticipantRegistry) error {
		if repo == nil {
			return fmt.Errorf("participantRepo cannot be nil")
		}
		r.participantRepo = repo
		return nil
	}
}

// WithRegistryLogger sets the logger instance.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *ParticipantRegistry) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// IsParticipant reports whether userID is a participant of roomID.
//
// A cache hit returns without I/O. On a miss the repository is consulted and
// a positive answer is written to the cache. Negative answers are not cached.
func (r *ParticipantRegistry) IsParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	if set, ok := r.rooms.Load(roomID); ok && set.(*memberSet).contains(userID) {
		return true, nil
	}

	exists, err := r.participantRepo.Exists(ctx, roomID, userID)
	if err != nil {
		return false, NewErrorWithCause(ErrCodeDatabase, "failed to check room participant", err)
	}
	if !exists {
		return false, nil
	}

	r.AddParticipant(roomID, userID)
	r.logger.Debugf("Participant cached from storage: room=%d, user=%d", roomID, userID)
	return true, nil
}

// AddParticipant records userID as a participant of roomID. Idempotent.
func (r *ParticipantRegistry) AddParticipant(roomID, userID int64) {
	set, ok := r.rooms.Load(roomID)
	if !ok {
		set, _ = r.rooms.LoadOrStore(roomID, &memberSet{users: make(map[int64]struct{})})
	}
	set.(*memberSet).add(userID)
}
