package livechat

import (
	"errors"
	"fmt"
)

// Error represents a livechat error with categorization.
//
// Code is drawn from the single enumeration below. Transport layers never
// look at Message to decide what happened; they project Code with ToHTTP or
// ToProtocol.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Infrastructure error codes.
const (
	// ErrCodeNoData indicates no data was found.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeValidation indicates request validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates database operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeDelivery indicates an event could not be handed to the broadcast transport.
	ErrCodeDelivery = "DELIVERY_ERROR"

	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal = "INTERNAL_ERROR"
)

// Authentication error codes. Every code with the AUTH_ prefix is an
// authentication kind.
const (
	ErrCodeAuthInvalidTokenFormat = "AUTH_INVALID_TOKEN_FORMAT"
	ErrCodeAuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	ErrCodeAuthTokenUnsupported   = "AUTH_TOKEN_UNSUPPORTED"
	ErrCodeAuthTokenBlacklisted   = "AUTH_TOKEN_BLACKLISTED"
	ErrCodeAuthUserNotFound       = "AUTH_USER_NOT_FOUND"
	ErrCodeAuthFailed             = "AUTH_FAILED"
)

// Chat domain error codes.
const (
	ErrCodeBadPagination        = "COMMON_BAD_PAGINATION"
	ErrCodeInvalidMessage       = "INVALID_MESSAGE"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeAccessDenied         = "CHATROOM_ACCESS_DENIED"
	ErrCodeCreateAccessDenied   = "CHATROOM_CREATE_ACCESS_DENIED"
	ErrCodeChatRoomNotFound     = "CHATROOM_NOT_FOUND"
	ErrCodeChatRoomInvalidInput = "CHATROOM_INVALID_INPUT"
	ErrCodeInvalidStatus        = "CHATROOM_INVALID_STATUS"
	ErrCodeAlreadyExists        = "CHATROOM_ALREADY_EXISTS"
	ErrCodeAlreadyClosed        = "CHATROOM_ALREADY_CLOSED"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeProductNotAvailable  = "PRODUCT_NOT_AVAILABLE_FOR_CHAT"
	ErrCodeProductSellerMissing = "PRODUCT_SELLER_NOT_FOUND"
)

// Common errors.
var (
	// ErrNoData is returned when a query returns no results.
	// This is not necessarily an error condition in all cases.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Code == ErrCodeNoData
	}
	return errors.Is(err, ErrNoData)
}

// CodeOf returns the code of the outermost *Error in err's chain,
// or ErrCodeInternal when err carries none.
func CodeOf(err error) string {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
