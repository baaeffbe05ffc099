package livechat

import (
	"regexp"
	"strconv"
)

// Connection protocol destinations.
const (
	// Endpoint is the HTTP path upgraded to the frame protocol.
	Endpoint = "/ws/chat"

	// ApplicationPrefix prefixes destinations handled by the server.
	ApplicationPrefix = "/pub"

	// BrokerPrefix prefixes destinations clients subscribe to.
	BrokerPrefix = "/sub"

	// SendMessageDestination routes SEND frames to the MessageDispatcher.
	SendMessageDestination = ApplicationPrefix + "/chat/message"

	// MarkReadDestination routes SEND frames to the ReadReceiptTracker.
	MarkReadDestination = ApplicationPrefix + "/chat/read"
)

// ChannelKind identifies a room-scoped subscription channel.
type ChannelKind int

const (
	// ChannelMessages carries MESSAGE and READ events.
	ChannelMessages ChannelKind = iota + 1

	// ChannelSystem carries lifecycle events such as ROOM_CLOSED.
	ChannelSystem
)

var (
	roomChannelPattern   = regexp.MustCompile(`^/sub/chat/room/(\d+)$`)
	systemChannelPattern = regexp.MustCompile(`^/sub/chat/room/(\d+)/system$`)
)

// RoomChannel returns the message channel of a room.
func RoomChannel(roomID int64) string {
	return BrokerPrefix + "/chat/room/" + strconv.FormatInt(roomID, 10)
}

// SystemChannel returns the system-event channel of a room.
func SystemChannel(roomID int64) string {
	return RoomChannel(roomID) + "/system"
}

// ParseRoomDestination extracts the room id and channel kind from a
// subscription destination. ok is false for any other destination.
// A room id too large for int64 yields 0, which never names a room.
func ParseRoomDestination(destination string) (roomID int64, kind ChannelKind, ok bool) {
	if m := roomChannelPattern.FindStringSubmatch(destination); m != nil {
		return parseRoomID(m[1]), ChannelMessages, true
	}
	if m := systemChannelPattern.FindStringSubmatch(destination); m != nil {
		return parseRoomID(m[1]), ChannelSystem, true
	}
	return 0, 0, false
}

func parseRoomID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
