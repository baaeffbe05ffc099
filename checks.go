package livechat

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/coregx/livechat/model"
)

// Step checks shared by the chat services. Each returns a typed *Error on
// failure so callers compose them by early return.

func (d *dependencies) loadRoom(ctx context.Context, roomID int64) (model.Room, error) {
	room, err := d.rooms.Load(ctx, roomID)
	if err != nil {
		if IsNoData(err) {
			return model.Room{}, NewError(ErrCodeChatRoomNotFound, "chat room not found")
		}
		return model.Room{}, NewErrorWithCause(ErrCodeDatabase, "failed to load chat room", err)
	}
	return room, nil
}

// requireParticipant fails with deniedCode unless userID belongs to roomID.
func (d *dependencies) requireParticipant(ctx context.Context, roomID, userID int64, deniedCode string) error {
	member, err := d.directory.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return NewError(deniedCode, "user is not a participant of this chat room")
	}
	return nil
}

// loadUser fails with missingCode when the account does not exist.
func (d *dependencies) loadUser(ctx context.Context, userID int64, missingCode string) (model.User, error) {
	user, err := d.users.Load(ctx, userID)
	if err != nil {
		if IsNoData(err) {
			return model.User{}, NewError(missingCode, "user not found")
		}
		return model.User{}, NewErrorWithCause(ErrCodeDatabase, "failed to load user", err)
	}
	return user, nil
}

// requireContent fails with code when content is empty or whitespace.
func requireContent(content, code string) error {
	if err := validation.Validate(strings.TrimSpace(content), validation.Required); err != nil {
		return NewErrorWithCause(code, "content must not be blank", err)
	}
	return nil
}

func parseMessageType(raw string) (model.MessageType, error) {
	mt, err := model.ParseMessageType(raw)
	if err != nil {
		return "", NewErrorWithCause(ErrCodeInvalidMessage, "unknown message type: "+raw, err)
	}
	return mt, nil
}
