package common

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message needs a body or an attachment")
	ErrNotRoomMember   = errors.New("user is not a member of the room")
	ErrInvalidBotKey   = errors.New("invalid bot key")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrUnauthenticated = errors.New("authentication required")
)
