// Package model contains the domain models of the chat subsystem: rooms,
// participants, messages, read receipts and the users and products they refer to.
package model

const tablePrefix = "chat_"

// DomainError represents a domain-level business rule violation.
// Returned by model state transitions; services translate it into a livechat.Error.
type DomainError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
}

func (e DomainError) Error() string {
	return e.Message
}

// Domain errors returned by model methods.
var (
	// ErrRoomAlreadyClosed indicates a transition out of the terminal CLOSED state.
	ErrRoomAlreadyClosed = DomainError{Code: "ROOM_ALREADY_CLOSED", Message: "room is already closed"}

	// ErrUnknownMessageType indicates a message type outside the known enumeration.
	ErrUnknownMessageType = DomainError{Code: "UNKNOWN_MESSAGE_TYPE", Message: "unknown message type"}

	// ErrUnknownRoomStatus indicates a room status outside the known enumeration.
	ErrUnknownRoomStatus = DomainError{Code: "UNKNOWN_ROOM_STATUS", Message: "unknown room status"}
)
