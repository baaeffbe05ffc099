package livechat

import (
	"net/http"
	"strings"
)

// HTTPError is the synchronous API projection of an error.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

// ProtocolError is the connection protocol projection of an error.
// Status is a protocol status number, not an HTTP status.
type ProtocolError struct {
	Status  int
	Code    string
	Message string
}

// Protocol error taxonomy.
var (
	ProtocolAuthFailed = ProtocolError{Status: 4001, Code: "WS_AUTH_FAILED", Message: "authentication failed"}
	ProtocolForbidden  = ProtocolError{Status: 4002, Code: "WS_FORBIDDEN", Message: "permission denied"}
	ProtocolInvalid    = ProtocolError{Status: 4003, Code: "WS_INVALID_MESSAGE", Message: "invalid type/content format"}
	ProtocolNotFound   = ProtocolError{Status: 4004, Code: "WS_CHAT_ROOM_NOT_FOUND", Message: "chat room does not exist"}
	ProtocolInternal   = ProtocolError{Status: 4005, Code: "WS_INTERNAL_ERROR", Message: "internal server error"}
)

var httpInternal = HTTPError{
	Status:  http.StatusInternalServerError,
	Code:    "INTERNAL_SERVER_ERROR",
	Message: "internal server error",
}

var httpErrors = map[string]HTTPError{
	ErrCodeValidation:             {http.StatusBadRequest, ErrCodeValidation, "request does not match the expected format"},
	ErrCodeBadPagination:          {http.StatusBadRequest, ErrCodeBadPagination, "page or size value is invalid"},
	ErrCodeInvalidMessage:         {http.StatusBadRequest, ErrCodeInvalidMessage, "message type or content is invalid"},
	ErrCodeChatRoomInvalidInput:   {http.StatusBadRequest, ErrCodeChatRoomInvalidInput, "chat room id is invalid"},
	ErrCodeInvalidStatus:          {http.StatusBadRequest, ErrCodeInvalidStatus, "requested chat room status is invalid"},
	ErrCodeAuthInvalidTokenFormat: {http.StatusUnauthorized, ErrCodeAuthInvalidTokenFormat, "token format is invalid"},
	ErrCodeAuthTokenExpired:       {http.StatusUnauthorized, ErrCodeAuthTokenExpired, "token has expired"},
	ErrCodeAuthTokenUnsupported:   {http.StatusUnauthorized, ErrCodeAuthTokenUnsupported, "token is not supported"},
	ErrCodeAuthTokenBlacklisted:   {http.StatusUnauthorized, ErrCodeAuthTokenBlacklisted, "token has been revoked"},
	ErrCodeAuthUserNotFound:       {http.StatusUnauthorized, ErrCodeAuthUserNotFound, "authenticated user does not exist"},
	ErrCodeAuthFailed:             {http.StatusUnauthorized, ErrCodeAuthFailed, "authentication failed"},
	ErrCodeForbidden:              {http.StatusForbidden, ErrCodeForbidden, "permission denied"},
	ErrCodeAccessDenied:           {http.StatusForbidden, ErrCodeAccessDenied, "no permission for this chat room"},
	ErrCodeCreateAccessDenied:     {http.StatusForbidden, ErrCodeCreateAccessDenied, "only buyers can open a chat room"},
	ErrCodeChatRoomNotFound:       {http.StatusNotFound, ErrCodeChatRoomNotFound, "chat room not found"},
	ErrCodeProductNotFound:        {http.StatusNotFound, ErrCodeProductNotFound, "product not found"},
	ErrCodeProductSellerMissing:   {http.StatusNotFound, ErrCodeProductSellerMissing, "product seller not found"},
	ErrCodeNoData:                 {http.StatusNotFound, "NOT_FOUND", "resource not found"},
	ErrCodeAlreadyExists:          {http.StatusConflict, ErrCodeAlreadyExists, "an open chat room for this product already exists"},
	ErrCodeAlreadyClosed:          {http.StatusConflict, ErrCodeAlreadyClosed, "chat room is already closed"},
	ErrCodeProductNotAvailable:    {http.StatusConflict, ErrCodeProductNotAvailable, "product is not available for chat"},
}

// ToHTTP projects err onto the synchronous API taxonomy.
// Unknown codes and plain errors become 500.
func ToHTTP(err error) HTTPError {
	if err == nil {
		return httpInternal
	}
	if mapped, ok := httpErrors[CodeOf(err)]; ok {
		return mapped
	}
	return httpInternal
}

// ToProtocol projects err onto the connection protocol taxonomy.
func ToProtocol(err error) ProtocolError {
	if err == nil {
		return ProtocolInternal
	}
	code := CodeOf(err)
	switch {
	case isAuthCode(code):
		return ProtocolAuthFailed
	case isAccessCode(code):
		return ProtocolForbidden
	case code == ErrCodeInvalidMessage, code == ErrCodeValidation:
		return ProtocolInvalid
	case code == ErrCodeChatRoomNotFound:
		return ProtocolNotFound
	default:
		return ProtocolInternal
	}
}

func isAuthCode(code string) bool {
	return strings.HasPrefix(code, "AUTH_")
}

func isAccessCode(code string) bool {
	switch code {
	case ErrCodeForbidden, ErrCodeAccessDenied, ErrCodeCreateAccessDenied:
		return true
	}
	return false
}
