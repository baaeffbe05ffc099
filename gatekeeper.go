package livechat

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-stomp/stomp/v3/frame"
)

// AuthorizationHeader carries the bearer credential on CONNECT frames.
const AuthorizationHeader = "Authorization"

const bearerPrefix = "Bearer "

// CredentialValidator validates a bearer token and returns the user it names.
//
// Failures carry one of ErrCodeAuthTokenExpired, ErrCodeAuthTokenUnsupported
// or ErrCodeAuthInvalidTokenFormat.
type CredentialValidator interface {
	Validate(ctx context.Context, token string) (userID int64, err error)
}

// TokenBlacklist reports revoked tokens.
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// MembershipChecker answers room membership questions.
// *ParticipantRegistry implements it.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, roomID, userID int64) (bool, error)
}

// Gatekeeper authenticates CONNECT frames and authorizes SUBSCRIBE frames
// before they reach application handlers.
//
// Thread safety: Safe for concurrent use.
type Gatekeeper struct {
	validator CredentialValidator
	blacklist TokenBlacklist
	members   MembershipChecker
	logger    Logger
}

// GatekeeperOption configures a Gatekeeper.
type GatekeeperOption func(*Gatekeeper) error

// NewGatekeeper creates a new Gatekeeper.
//
// Required options:
//   - WithCredentialValidator
//   - WithGatekeeperMembership
//
// Optional:
//   - WithTokenBlacklist
//   - WithGatekeeperLogger
func NewGatekeeper(opts ...GatekeeperOption) (*Gatekeeper, error) {
	g := &Gatekeeper{
		logger: &NoopLogger{},
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply gatekeeper option", err)
		}
	}

	if g.validator == nil {
		return nil, NewError(ErrCodeConfiguration, "CredentialValidator is required (use WithCredentialValidator)")
	}
	if g.members == nil {
		return nil, NewError(ErrCodeConfiguration, "MembershipChecker is required (use WithGatekeeperMembership)")
	}

	return g, nil
}

// WithCredentialValidator sets the token validator.
func WithCredentialValidator(v CredentialValidator) GatekeeperOption {
	return func(g *Gatekeeper) error {
		if v == nil {
			return fmt.Errorf("validator cannot be nil")
		}
		g.validator = v
		return nil
	}
}

// WithTokenBlacklist enables revoked-token checks on CONNECT.
func WithTokenBlacklist(b TokenBlacklist) GatekeeperOption {
	return func(g *Gatekeeper) error {
		if b == nil {
			return fmt.Errorf("blacklist cannot be nil")
		}
		g.blacklist = b
		return nil
	}
}

// WithGatekeeperMembership sets the room membership source.
func WithGatekeeperMembership(m MembershipChecker) GatekeeperOption {
	return func(g *Gatekeeper) error {
		if m == nil {
			return fmt.Errorf("membership checker cannot be nil")
		}
		g.members = m
		return nil
	}
}

// WithGatekeeperLogger sets the logger instance.
func WithGatekeeperLogger(logger Logger) GatekeeperOption {
	return func(g *Gatekeeper) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		g.logger = logger
		return nil
	}
}

// Intercept checks one inbound frame. current is the connection's identity,
// nil before CONNECT succeeds.
//
// On CONNECT it returns the newly established identity. For every other
// frame it returns current unchanged. A non-nil error means the frame must
// not reach application handlers.
func (g *Gatekeeper) Intercept(ctx context.Context, f *frame.Frame, current *Identity) (*Identity, error) {
	switch f.Command {
	case frame.CONNECT, frame.STOMP:
		if current != nil {
			return current, NewError(ErrCodeAuthFailed, "connection is already authenticated")
		}
		return g.authenticate(ctx, f)
	case frame.SUBSCRIBE:
		return current, g.authorizeSubscribe(ctx, f, current)
	default:
		return current, nil
	}
}

// Authenticate resolves an HTTP Authorization header into an identity.
// The header must carry the "Bearer " scheme.
func (g *Gatekeeper) Authenticate(ctx context.Context, authorization string) (*Identity, error) {
	token, ok := strings.CutPrefix(strings.TrimSpace(authorization), bearerPrefix)
	if !ok {
		return nil, NewError(ErrCodeAuthInvalidTokenFormat, "bearer token is missing")
	}
	return g.verify(ctx, token)
}

// authenticate resolves the CONNECT credential. The "Bearer " scheme is
// optional there; a bare token is validated as is.
func (g *Gatekeeper) authenticate(ctx context.Context, f *frame.Frame) (*Identity, error) {
	token, ok := f.Header.Contains(AuthorizationHeader)
	if !ok {
		g.logger.Debugf("CONNECT rejected: no %s header", AuthorizationHeader)
		return nil, NewError(ErrCodeAuthInvalidTokenFormat, "authorization header is missing")
	}

	identity, err := g.verify(ctx, strings.TrimPrefix(strings.TrimLeft(token, " "), bearerPrefix))
	if err != nil {
		g.logger.Debugf("CONNECT rejected: %v", err)
		return nil, err
	}
	g.logger.Debugf("CONNECT accepted: user=%d", identity.UserID())
	return identity, nil
}

// verify checks the blacklist, then the token itself.
func (g *Gatekeeper) verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewError(ErrCodeAuthInvalidTokenFormat, "token is empty")
	}

	if g.blacklist != nil {
		revoked, err := g.blacklist.IsBlacklisted(ctx, token)
		if err != nil {
			return nil, NewErrorWithCause(ErrCodeInternal, "failed to check token blacklist", err)
		}
		if revoked {
			return nil, NewError(ErrCodeAuthTokenBlacklisted, "token has been revoked")
		}
	}

	userID, err := g.validator.Validate(ctx, token)
	if err != nil {
		if isAuthCode(CodeOf(err)) {
			return nil, err
		}
		return nil, NewErrorWithCause(ErrCodeAuthFailed, "token validation failed", err)
	}

	return NewIdentity(userID), nil
}

func (g *Gatekeeper) authorizeSubscribe(ctx context.Context, f *frame.Frame, current *Identity) error {
	roomID, _, ok := ParseRoomDestination(f.Header.Get(frame.Destination))
	if !ok {
		return nil
	}
	if current == nil {
		return NewError(ErrCodeAuthInvalidTokenFormat, "connection is not authenticated")
	}

	member, err := g.members.IsParticipant(ctx, roomID, current.UserID())
	if err != nil {
		return err
	}
	if !member {
		g.logger.Debugf("SUBSCRIBE rejected: room=%d, user=%d", roomID, current.UserID())
		return NewError(ErrCodeAccessDenied, "no permission for this chat room")
	}
	return nil
}
