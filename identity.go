package livechat

// Identity is the authenticated principal of one connection.
//
// It is established once by the Gatekeeper on CONNECT and handed explicitly to
// every later frame of the same connection. It is immutable and never persisted.
type Identity struct {
	userID int64
}

// NewIdentity creates an identity for userID.
func NewIdentity(userID int64) *Identity {
	return &Identity{userID: userID}
}

// UserID returns the authenticated user's ID.
func (i *Identity) UserID() int64 {
	return i.userID
}
